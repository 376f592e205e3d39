package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

const (
	insightsActivityLimit = 100
	defaultHistoryLimit   = 10
)

type InsightService struct {
	activities  domain.ActivityRepository
	suggestions domain.SuggestionRepository
	reports     domain.ReportRepository
	inference   domain.InferenceService
	publisher   domain.EventPublisher
	logger      *logrus.Logger
	now         func() time.Time
}

func NewInsightService(
	activities domain.ActivityRepository,
	suggestions domain.SuggestionRepository,
	reports domain.ReportRepository,
	inference domain.InferenceService,
	publisher domain.EventPublisher,
	logger *logrus.Logger,
) *InsightService {
	return &InsightService{
		activities:  activities,
		suggestions: suggestions,
		reports:     reports,
		inference:   inference,
		publisher:   publisher,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type CreateSuggestionInput struct {
	UserID             string
	Title              string
	Description        string
	Category           string
	PotentialReduction float64
	Difficulty         string
	Priority           string
	CostImpact         string
}

// Predict asks for monthly and yearly projections. When inference fails the
// latest stored report is returned marked stale.
func (s *InsightService) Predict(ctx context.Context, userID string) (*domain.PredictionReport, error) {
	activities, err := s.latestActivities(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(activities) == 0 {
		return nil, domain.ErrNoActivities
	}

	prompt, err := predictionPrompt(activities)
	if err != nil {
		return nil, fmt.Errorf("insight service: build prediction prompt: %w", err)
	}

	var prediction domain.Prediction
	if err := s.inference.GenerateStructured(ctx, prompt, domain.PredictionSchema, &prediction); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("prediction generation failed")

		previous, prevErr := s.reports.Latest(ctx, userID)
		if prevErr != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInferenceUnavailable, err)
		}
		previous.Stale = true
		return previous, nil
	}

	prediction.TrendAnalysis = sanitizeText(prediction.TrendAnalysis)

	report := &domain.PredictionReport{
		ID:            uuid.NewString(),
		UserID:        userID,
		Prediction:    prediction,
		ActivityCount: len(activities),
		GeneratedAt:   s.now(),
	}

	if err := s.reports.Save(ctx, report); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("failed to store prediction report")
	}

	return report, nil
}

func (s *InsightService) History(ctx context.Context, userID string, limit int) ([]*domain.PredictionReport, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.reports.List(ctx, userID, limit)
}

func (s *InsightService) ListSuggestions(ctx context.Context, userID, sort string) ([]*domain.Suggestion, error) {
	if sort == "" {
		sort = "-" + domain.SortByCreatedDate
	}

	key, err := domain.ParseSortKey(sort, domain.SuggestionSortFields...)
	if err != nil {
		return nil, err
	}

	return s.suggestions.List(ctx, userID, domain.ListOptions{Sort: key})
}

// GenerateSuggestions stores the suggestions produced from the user's recent
// activities and returns the reloaded list. Nothing is stored when inference fails.
func (s *InsightService) GenerateSuggestions(ctx context.Context, userID string) ([]*domain.Suggestion, error) {
	activities, err := s.latestActivities(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(activities) == 0 {
		return nil, domain.ErrNoActivities
	}

	var generated domain.GeneratedSuggestions
	if err := s.inference.GenerateStructured(ctx, suggestionsPrompt(activities), domain.SuggestionsSchema, &generated); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInferenceUnavailable, err)
	}

	log := s.logger.WithField("user_id", userID)

	created := 0
	for _, g := range generated.Suggestions {
		suggestion := fromGenerated(userID, g)
		if err := suggestion.Validate(); err != nil {
			log.WithError(err).WithField("title", suggestion.Title).Warn("skipping invalid generated suggestion")
			continue
		}

		if err := s.suggestions.Create(ctx, suggestion); err != nil {
			return nil, fmt.Errorf("insight service: failed to store suggestion: %w", err)
		}
		created++
	}

	log.WithField("created", created).Info("personalized suggestions generated")

	return s.ListSuggestions(ctx, userID, "")
}

func (s *InsightService) CreateSuggestion(ctx context.Context, input CreateSuggestionInput) (*domain.Suggestion, error) {
	suggestion := fromGenerated(input.UserID, domain.GeneratedSuggestion{
		Title:              input.Title,
		Description:        input.Description,
		Category:           input.Category,
		PotentialReduction: input.PotentialReduction,
		Difficulty:         input.Difficulty,
		Priority:           input.Priority,
		CostImpact:         input.CostImpact,
	})

	if err := suggestion.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSuggestion, err)
	}

	if err := s.suggestions.Create(ctx, suggestion); err != nil {
		return nil, fmt.Errorf("insight service: failed to create suggestion: %w", err)
	}
	return suggestion, nil
}

func (s *InsightService) ImplementSuggestion(ctx context.Context, userID, id string) (*domain.Suggestion, error) {
	suggestion, err := s.suggestions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if suggestion.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	if err := suggestion.MarkImplemented(); err != nil {
		return nil, err
	}

	if err := s.suggestions.Update(ctx, suggestion); err != nil {
		return nil, fmt.Errorf("insight service: failed to update suggestion: %w", err)
	}

	event := domain.SuggestionImplemented{
		SuggestionID:       suggestion.ID,
		UserID:             userID,
		Category:           suggestion.Category,
		PotentialReduction: suggestion.PotentialReduction,
		OccurredAt:         *suggestion.ImplementedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("suggestion_id", id).Warn("failed to publish suggestion event")
	}

	return suggestion, nil
}

func (s *InsightService) latestActivities(ctx context.Context, userID string) ([]*domain.CarbonActivity, error) {
	activities, err := s.activities.List(ctx, userID, domain.ListOptions{
		Sort:  domain.SortKey{Field: domain.SortByDate, Descending: true},
		Limit: insightsActivityLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("insight service: list activities: %w", err)
	}
	return activities, nil
}

func fromGenerated(userID string, g domain.GeneratedSuggestion) *domain.Suggestion {
	s := domain.NewSuggestion(
		userID,
		sanitizeText(g.Title),
		sanitizeText(g.Description),
		domain.ActivityType(strings.ToLower(strings.TrimSpace(g.Category))),
		g.PotentialReduction,
	)

	if g.Difficulty != "" {
		s.Difficulty = domain.Difficulty(strings.ToLower(g.Difficulty))
	}
	if g.Priority != "" {
		s.Priority = domain.Priority(strings.ToLower(g.Priority))
	}
	if g.CostImpact != "" {
		s.CostImpact = domain.CostImpact(strings.ToLower(g.CostImpact))
	}

	return s
}

