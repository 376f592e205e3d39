package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

const (
	dashboardActivityLimit = 50
	recentActivitiesShown  = 5
)

type DashboardService struct {
	activities    domain.ActivityRepository
	inference     domain.InferenceService
	cache         domain.InsightCache
	insightMaxAge time.Duration
	logger        *logrus.Logger
	now           func() time.Time
}

func NewDashboardService(activities domain.ActivityRepository, inference domain.InferenceService, cache domain.InsightCache, insightMaxAge time.Duration, logger *logrus.Logger) *DashboardService {
	return &DashboardService{
		activities:    activities,
		inference:     inference,
		cache:         cache,
		insightMaxAge: insightMaxAge,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the wall clock used for the weekly windows.
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

// Get builds the dashboard. A failing store yields an empty dashboard
// rather than an error.
func (s *DashboardService) Get(ctx context.Context, userID string) (*domain.Dashboard, error) {
	asOf := s.now()
	log := s.logger.WithField("user_id", userID)

	activities, err := s.recentActivities(ctx, userID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.WithError(err).Warn("dashboard: activity fetch failed, showing empty data")
		activities = nil
	}

	stats, chart := domain.Aggregate(activities, asOf)

	dashboard := &domain.Dashboard{
		Stats:            stats,
		Chart:            chart,
		RecentActivities: head(activities, recentActivitiesShown),
		AsOf:             asOf,
	}
	if dashboard.RecentActivities == nil {
		dashboard.RecentActivities = []*domain.CarbonActivity{}
	}

	if len(activities) == 0 {
		return dashboard, nil
	}

	cached := s.cachedInsight(ctx, userID)
	if cached != nil && asOf.Sub(cached.GeneratedAt) < s.insightMaxAge {
		dashboard.Insight = cached
		return dashboard, nil
	}

	fresh, err := s.generateInsight(ctx, userID, stats, activities, asOf)
	if err != nil {
		log.WithError(err).Warn("dashboard: insight generation failed, keeping previous insight")
		dashboard.Insight = cached
		return dashboard, nil
	}

	dashboard.Insight = fresh
	return dashboard, nil
}

// RefreshInsight regenerates the cached insight regardless of its age.
func (s *DashboardService) RefreshInsight(ctx context.Context, userID string) error {
	activities, err := s.recentActivities(ctx, userID)
	if err != nil {
		return fmt.Errorf("dashboard service: list activities: %w", err)
	}
	if len(activities) == 0 {
		return nil
	}

	asOf := s.now()
	stats, _ := domain.Aggregate(activities, asOf)

	_, err = s.generateInsight(ctx, userID, stats, activities, asOf)
	return err
}

func (s *DashboardService) recentActivities(ctx context.Context, userID string) ([]*domain.CarbonActivity, error) {
	return s.activities.List(ctx, userID, domain.ListOptions{
		Sort:  domain.SortKey{Field: domain.SortByDate, Descending: true},
		Limit: dashboardActivityLimit,
	})
}

func (s *DashboardService) cachedInsight(ctx context.Context, userID string) *domain.Insight {
	insight, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("dashboard: insight cache read failed")
		return nil
	}
	return insight
}

func (s *DashboardService) generateInsight(ctx context.Context, userID string, stats domain.FootprintStats, activities []*domain.CarbonActivity, asOf time.Time) (*domain.Insight, error) {
	text, err := s.inference.Generate(ctx, insightPrompt(stats, activities))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInferenceUnavailable, err)
	}

	text = sanitizeText(text)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty insight", domain.ErrInferenceUnavailable)
	}

	insight := &domain.Insight{Text: text, GeneratedAt: asOf}
	if err := s.cache.Set(ctx, userID, insight); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("dashboard: insight cache write failed")
	}

	return insight, nil
}
