package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/adapters/cache"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/adapters/events"
	adapterHTTP "github.com/comitanigiacomo/carbon-footprint-tracker/internal/adapters/handler/http"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/adapters/repository"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/services"
)

// scriptedInference answers every call with preset values.
type scriptedInference struct {
	mu          sync.Mutex
	err         error
	text        string
	estimate    domain.CarbonEstimate
	prediction  domain.Prediction
	suggestions domain.GeneratedSuggestions
	calls       int
}

func (s *scriptedInference) Generate(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func (s *scriptedInference) GenerateStructured(_ context.Context, _ string, _ domain.Schema, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}

	switch v := out.(type) {
	case *domain.CarbonEstimate:
		*v = s.estimate
	case *domain.Prediction:
		*v = s.prediction
	case *domain.GeneratedSuggestions:
		*v = s.suggestions
	}
	return nil
}

func (s *scriptedInference) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type testEnv struct {
	router     *gin.Engine
	tokens     *services.TokenService
	users      *repository.InMemoryUserRepository
	activities *repository.InMemoryActivityRepository
	inference  *scriptedInference
}

func newTestEnv(t *testing.T, checks map[string]adapterHTTP.HealthCheck) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, _ := test.NewNullLogger()

	users := repository.NewInMemoryUserRepository()
	activities := repository.NewInMemoryActivityRepository()
	suggestions := repository.NewInMemorySuggestionRepository()
	reports := repository.NewInMemoryReportRepository()
	publisher := events.NewLogPublisher(logger)

	inference := &scriptedInference{
		text:     "Your transport emissions dominate. Try cycling short trips.",
		estimate: domain.CarbonEstimate{CarbonImpact: 2.5, Explanation: "average petrol car"},
		prediction: domain.Prediction{
			MonthlyPrediction:          75,
			YearlyPrediction:           900,
			TrendAnalysis:              "Stable with a slight increase.",
			RecommendedReductionTarget: 15,
		},
		suggestions: domain.GeneratedSuggestions{Suggestions: []domain.GeneratedSuggestion{
			{Title: "Cycle to work", Description: "Replace short car trips", Category: "transportation", PotentialReduction: 20, Difficulty: "medium", Priority: "high", CostImpact: "saves_money"},
			{Title: "Broken", Category: "spaceflight"},
		}},
	}

	tokens := services.NewTokenService("handler-test-secret", "test", time.Hour, users)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:      adapterHTTP.NewAuthHandler(services.NewAuthService(users, tokens)),
		ActivityHandler:  adapterHTTP.NewActivityHandler(services.NewActivityService(activities, inference, publisher, nil, logger)),
		DashboardHandler: adapterHTTP.NewDashboardHandler(services.NewDashboardService(activities, inference, cache.NewMemoryInsightCache(), time.Hour, logger)),
		InsightHandler:   adapterHTTP.NewInsightHandler(services.NewInsightService(activities, suggestions, reports, inference, publisher, logger)),
		Tokens:           tokens,
		HealthChecks:     checks,
		Logger:           logger,
		StartTime:        time.Now(),
	})

	return &testEnv{
		router:     router,
		tokens:     tokens,
		users:      users,
		activities: activities,
		inference:  inference,
	}
}

// login creates a user directly in the store and returns a bearer token.
func (e *testEnv) login(t *testing.T, email string) (string, string) {
	t.Helper()
	user, err := domain.NewUser(email+"-id", email, "")
	require.NoError(t, err)
	require.NoError(t, e.users.Create(context.Background(), user))

	token, err := e.tokens.GenerateToken(user.ID)
	require.NoError(t, err)
	return user.ID, token
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
