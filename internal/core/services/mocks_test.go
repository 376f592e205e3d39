package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

func nullLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Create(ctx context.Context, activity *domain.CarbonActivity) error {
	return m.Called(ctx, activity).Error(0)
}

func (m *MockActivityRepository) GetByID(ctx context.Context, id string) (*domain.CarbonActivity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CarbonActivity), args.Error(1)
}

func (m *MockActivityRepository) List(ctx context.Context, userID string, opts domain.ListOptions) ([]*domain.CarbonActivity, error) {
	args := m.Called(ctx, userID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CarbonActivity), args.Error(1)
}

func (m *MockActivityRepository) Update(ctx context.Context, activity *domain.CarbonActivity) error {
	return m.Called(ctx, activity).Error(0)
}

type MockSuggestionRepository struct {
	mock.Mock
}

func (m *MockSuggestionRepository) Create(ctx context.Context, s *domain.Suggestion) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSuggestionRepository) GetByID(ctx context.Context, id string) (*domain.Suggestion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Suggestion), args.Error(1)
}

func (m *MockSuggestionRepository) List(ctx context.Context, userID string, opts domain.ListOptions) ([]*domain.Suggestion, error) {
	args := m.Called(ctx, userID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Suggestion), args.Error(1)
}

func (m *MockSuggestionRepository) Update(ctx context.Context, s *domain.Suggestion) error {
	return m.Called(ctx, s).Error(0)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Save(ctx context.Context, report *domain.PredictionReport) error {
	return m.Called(ctx, report).Error(0)
}

func (m *MockReportRepository) Latest(ctx context.Context, userID string) (*domain.PredictionReport, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PredictionReport), args.Error(1)
}

func (m *MockReportRepository) List(ctx context.Context, userID string, limit int) ([]*domain.PredictionReport, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PredictionReport), args.Error(1)
}

// MockInference fills structured answers through the Run hook of the expectation.
type MockInference struct {
	mock.Mock
}

func (m *MockInference) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockInference) GenerateStructured(ctx context.Context, prompt string, schema domain.Schema, out any) error {
	return m.Called(ctx, prompt, schema, out).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event domain.Event) error {
	return m.Called(ctx, event).Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

type MockInsightCache struct {
	mock.Mock
}

func (m *MockInsightCache) Get(ctx context.Context, userID string) (*domain.Insight, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Insight), args.Error(1)
}

func (m *MockInsightCache) Set(ctx context.Context, userID string, insight *domain.Insight) error {
	return m.Called(ctx, userID, insight).Error(0)
}

type recordingQueue struct {
	users []string
}

func (q *recordingQueue) Enqueue(userID string) {
	q.users = append(q.users, userID)
}
