package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInferenceUnavailable = errors.New("inference service unavailable")
	ErrNoActivities         = errors.New("no activities logged yet")
)

// Schema is a JSON schema document describing a structured answer.
type Schema map[string]any

// InferenceService is the text-generation backend.
type InferenceService interface {
	// Generate returns free text for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStructured asks for an answer matching schema and decodes it into out.
	GenerateStructured(ctx context.Context, prompt string, schema Schema, out any) error
}

type Insight struct {
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
}

type CarbonEstimate struct {
	CarbonImpact float64 `json:"carbon_impact"`
	Explanation  string  `json:"explanation"`
}

type Prediction struct {
	MonthlyPrediction          float64 `json:"monthly_prediction"`
	YearlyPrediction           float64 `json:"yearly_prediction"`
	TrendAnalysis              string  `json:"trend_analysis"`
	RecommendedReductionTarget float64 `json:"recommended_reduction_target"`
}

type PredictionReport struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Prediction

	ActivityCount int       `json:"activity_count"`
	GeneratedAt   time.Time `json:"generated_at"`

	// Stale is set when generation failed and an older report is served instead.
	Stale bool `json:"stale"`
}

// GeneratedSuggestion is the shape requested from the inference service.
type GeneratedSuggestion struct {
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	Category           string  `json:"category"`
	PotentialReduction float64 `json:"potential_reduction"`
	Difficulty         string  `json:"difficulty"`
	Priority           string  `json:"priority"`
	CostImpact         string  `json:"cost_impact"`
}

type GeneratedSuggestions struct {
	Suggestions []GeneratedSuggestion `json:"suggestions"`
}

var CarbonEstimateSchema = Schema{
	"type": "object",
	"properties": map[string]any{
		"carbon_impact": map[string]any{"type": "number"},
		"explanation":   map[string]any{"type": "string"},
	},
}

var PredictionSchema = Schema{
	"type": "object",
	"properties": map[string]any{
		"monthly_prediction":           map[string]any{"type": "number"},
		"yearly_prediction":            map[string]any{"type": "number"},
		"trend_analysis":               map[string]any{"type": "string"},
		"recommended_reduction_target": map[string]any{"type": "number"},
	},
}

var SuggestionsSchema = Schema{
	"type": "object",
	"properties": map[string]any{
		"suggestions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":               map[string]any{"type": "string"},
					"description":         map[string]any{"type": "string"},
					"category":            map[string]any{"type": "string", "enum": []string{"transportation", "energy", "food", "consumption", "waste"}},
					"potential_reduction": map[string]any{"type": "number"},
					"difficulty":          map[string]any{"type": "string", "enum": []string{"easy", "medium", "hard"}},
					"priority":            map[string]any{"type": "string", "enum": []string{"high", "medium", "low"}},
					"cost_impact":         map[string]any{"type": "string", "enum": []string{"saves_money", "neutral", "costs_money"}},
				},
			},
		},
	},
}
