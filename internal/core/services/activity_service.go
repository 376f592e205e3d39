package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// InsightQueue schedules a background insight refresh for a user.
type InsightQueue interface {
	Enqueue(userID string)
}

type ActivityService struct {
	repo      domain.ActivityRepository
	inference domain.InferenceService
	publisher domain.EventPublisher
	queue     InsightQueue
	logger    *logrus.Logger
}

func NewActivityService(repo domain.ActivityRepository, inference domain.InferenceService, publisher domain.EventPublisher, queue InsightQueue, logger *logrus.Logger) *ActivityService {
	return &ActivityService{
		repo:      repo,
		inference: inference,
		publisher: publisher,
		queue:     queue,
		logger:    logger,
	}
}

type CreateActivityInput struct {
	UserID       string
	ActivityType string
	Description  string
	Quantity     float64
	Unit         string
	Date         time.Time
	Location     string
	Notes        string
}

type UpdateActivityInput struct {
	ID       string
	UserID   string
	Location *string
	Notes    *string
	Version  int
}

func (s *ActivityService) Create(ctx context.Context, input CreateActivityInput) (*domain.CarbonActivity, error) {
	activityType := domain.ActivityType(strings.ToLower(strings.TrimSpace(input.ActivityType)))

	activity := domain.NewCarbonActivity(
		input.UserID,
		activityType,
		sanitizeText(input.Description),
		input.Quantity,
		domain.NormalizeUnit(activityType, sanitizeText(input.Unit)),
		input.Date,
	)
	activity.Location = sanitizeText(input.Location)
	activity.Notes = sanitizeText(input.Notes)

	if err := activity.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidActivity, err)
	}

	activity.CarbonImpact = s.estimateImpact(ctx, activity)

	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("activity service: failed to create activity: %w", err)
	}

	event := domain.ActivityLogged{
		ActivityID:   activity.ID,
		UserID:       activity.UserID,
		ActivityType: activity.ActivityType,
		CarbonImpact: activity.CarbonImpact,
		Date:         activity.Date.Format(domain.DateLayout),
		OccurredAt:   activity.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("activity_id", activity.ID).Warn("failed to publish activity event")
	}

	if s.queue != nil {
		s.queue.Enqueue(activity.UserID)
	}

	return activity, nil
}

// estimateImpact asks the inference service for kg CO2e and falls back to zero.
func (s *ActivityService) estimateImpact(ctx context.Context, a *domain.CarbonActivity) float64 {
	if a.Description == "" || a.Quantity == 0 {
		return 0
	}

	log := s.logger.WithFields(logrus.Fields{
		"user_id":       a.UserID,
		"activity_type": a.ActivityType,
	})

	var estimate domain.CarbonEstimate
	if err := s.inference.GenerateStructured(ctx, impactPrompt(a), domain.CarbonEstimateSchema, &estimate); err != nil {
		log.WithError(err).Warn("carbon impact estimation failed, recording zero")
		return 0
	}

	impact := estimate.CarbonImpact
	if math.IsNaN(impact) || math.IsInf(impact, 0) || impact < 0 {
		log.WithField("carbon_impact", impact).Warn("discarding unusable carbon impact estimate")
		return 0
	}

	log.WithField("carbon_impact", impact).Debug("carbon impact estimated")
	return impact
}

func (s *ActivityService) GetByID(ctx context.Context, id, userID string) (*domain.CarbonActivity, error) {
	activity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if activity.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return activity, nil
}

func (s *ActivityService) List(ctx context.Context, userID, sort string, limit int) ([]*domain.CarbonActivity, error) {
	if sort == "" {
		sort = "-" + domain.SortByDate
	}

	key, err := domain.ParseSortKey(sort, domain.ActivitySortFields...)
	if err != nil {
		return nil, err
	}

	return s.repo.List(ctx, userID, domain.ListOptions{Sort: key, Limit: clampLimit(limit)})
}

func (s *ActivityService) Update(ctx context.Context, input UpdateActivityInput) (*domain.CarbonActivity, error) {
	existing, err := s.GetByID(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && existing.Version != input.Version {
		return nil, domain.ErrActivityConflict
	}

	existing.Annotate(sanitizeOptional(input.Location), sanitizeOptional(input.Notes))

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}

	return existing, nil
}

func (s *ActivityService) ActivityTypes() []domain.ActivityTypeInfo {
	return domain.Catalogue()
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
