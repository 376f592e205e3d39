package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/config"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

// fakeLLM answers chat completions in the OpenAI wire format, picking the
// reply from the schema embedded in the prompt.
func fakeLLM(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		prompt := string(body)

		var content string
		switch {
		case strings.Contains(prompt, "monthly_prediction"):
			content = `{"monthly_prediction": 120, "yearly_prediction": 1440, "trend_analysis": "Driving dominates.", "recommended_reduction_target": 20}`
		case strings.Contains(prompt, "potential_reduction"):
			content = "```json\n" + `{"suggestions": [{"title": "Take the train", "description": "Swap commutes", "category": "transportation", "potential_reduction": 30, "difficulty": "easy", "priority": "high", "cost_impact": "saves_money"}]}` + "\n```"
		case strings.Contains(prompt, "carbon_impact"):
			content = `{"carbon_impact": 4.2, "explanation": "petrol car"}`
		default:
			content = "Drive less and cycle more."
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": content}}},
		})
	}))
}

func testConfig(llmURL string) *config.Config {
	return &config.Config{
		StoreDriver: config.StoreDriverMemory,
		LLM: config.LLMConfig{
			Provider: "openai",
			APIKey:   "test-key",
			BaseURL:  llmURL,
			Timeout:  5 * time.Second,
		},
		Kafka:              config.KafkaConfig{TopicPrefix: "carbon"},
		JWTSecret:          "e2e-secret",
		JWTIssuer:          "e2e",
		TokenTTL:           time.Hour,
		DigestSchedule:     "0 8 * * MON",
		InsightMaxAge:      time.Hour,
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
		InferenceRateLimit: 10,
	}
}

func call(t *testing.T, router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(method, path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestEndToEnd_FootprintLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	llmServer := fakeLLM(t)
	defer llmServer.Close()

	logger, _ := test.NewNullLogger()
	application, err := buildApp(testConfig(llmServer.URL), logger, time.Now())
	require.NoError(t, err)
	defer application.Close()

	ctx, cancel := context.WithCancel(context.Background())
	application.Start(ctx)
	defer func() {
		cancel()
		application.Stop()
	}()

	router := application.router

	var token, activityID, suggestionID string

	t.Run("1. Register and login", func(t *testing.T) {
		w := call(t, router, http.MethodPost, "/api/v1/auth/register", "",
			`{"email": "ada@example.com", "password": "correct-horse", "name": "Ada"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = call(t, router, http.MethodPost, "/api/v1/auth/login", "",
			`{"email": "ada@example.com", "password": "correct-horse"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Token)
		token = resp.Token
	})

	t.Run("2. Dashboard is empty before any activity", func(t *testing.T) {
		w := call(t, router, http.MethodGet, "/api/v1/dashboard", token, "")
		require.Equal(t, http.StatusOK, w.Code)

		var dashboard domain.Dashboard
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dashboard))
		assert.Zero(t, dashboard.Stats.TotalFootprint)
		assert.Empty(t, dashboard.RecentActivities)
		assert.Nil(t, dashboard.Insight)
	})

	t.Run("3. Log activity with estimated impact", func(t *testing.T) {
		today := time.Now().UTC().Format(domain.DateLayout)
		w := call(t, router, http.MethodPost, "/api/v1/activities", token,
			fmt.Sprintf(`{"activity_type": "transportation", "description": "Drive to the office", "quantity": 20, "unit": "km", "date": %q}`, today))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var activity domain.CarbonActivity
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &activity))
		assert.InDelta(t, 4.2, activity.CarbonImpact, 1e-9)
		assert.Equal(t, 1, activity.Version)
		activityID = activity.ID
	})

	t.Run("4. Annotate activity", func(t *testing.T) {
		w := call(t, router, http.MethodPatch, "/api/v1/activities/"+activityID, token,
			`{"location": "Milan", "notes": "rush hour", "version": 1}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = call(t, router, http.MethodPatch, "/api/v1/activities/"+activityID, token,
			`{"notes": "stale write", "version": 1}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("5. Dashboard aggregates the activity", func(t *testing.T) {
		w := call(t, router, http.MethodGet, "/api/v1/dashboard", token, "")
		require.Equal(t, http.StatusOK, w.Code)

		var dashboard domain.Dashboard
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dashboard))
		assert.InDelta(t, 4.2, dashboard.Stats.TotalFootprint, 1e-9)
		assert.Len(t, dashboard.RecentActivities, 1)
		require.NotNil(t, dashboard.Insight)
		assert.Equal(t, "Drive less and cycle more.", dashboard.Insight.Text)
	})

	t.Run("6. Prediction is stored in history", func(t *testing.T) {
		w := call(t, router, http.MethodGet, "/api/v1/insights/predictions", token, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var report domain.PredictionReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		assert.Equal(t, 120.0, report.MonthlyPrediction)
		assert.False(t, report.Stale)

		w = call(t, router, http.MethodGet, "/api/v1/insights/history", token, "")
		require.Equal(t, http.StatusOK, w.Code)

		var history []domain.PredictionReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
		assert.Len(t, history, 1)
	})

	t.Run("7. Generate and implement a suggestion", func(t *testing.T) {
		w := call(t, router, http.MethodPost, "/api/v1/suggestions/generate", token, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var suggestions []domain.Suggestion
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &suggestions))
		require.Len(t, suggestions, 1)
		assert.Equal(t, "Take the train", suggestions[0].Title)
		suggestionID = suggestions[0].ID

		w = call(t, router, http.MethodPost, "/api/v1/suggestions/"+suggestionID+"/implement", token, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = call(t, router, http.MethodPost, "/api/v1/suggestions/"+suggestionID+"/implement", token, "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("8. Validation error", func(t *testing.T) {
		w := call(t, router, http.MethodPost, "/api/v1/activities", token,
			`{"activity_type": "spaceflight", "description": "Orbit", "quantity": 1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("9. Auth error", func(t *testing.T) {
		w := call(t, router, http.MethodGet, "/api/v1/activities", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("10. Health reports no external dependencies", func(t *testing.T) {
		w := call(t, router, http.MethodGet, "/health", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ok"`)
	})
}

func TestBuildApp_RejectsBadSchedule(t *testing.T) {
	logger, _ := test.NewNullLogger()

	cfg := testConfig("")
	cfg.LLM.APIKey = ""
	cfg.DigestSchedule = "every tuesday"

	_, err := buildApp(cfg, logger, time.Now())
	assert.Error(t, err)
}
