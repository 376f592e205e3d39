package services

import (
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

const (
	insightSampleSize    = 10
	predictionSampleSize = 20
	suggestionSampleSize = 20
)

var textPolicy = bluemonday.StrictPolicy()

// sanitizeText strips markup from user or model supplied text.
func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func sanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitizeText(*s)
	return &clean
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func impactPrompt(a *domain.CarbonActivity) string {
	return fmt.Sprintf(
		"Calculate the carbon footprint for this activity: \"%s\" - %s %s in category %s. "+
			"Consider real-world emission factors and return only the CO2 equivalent in kilograms as a number. "+
			"Be accurate based on standard carbon emission databases. "+
			"If you can't calculate precisely, provide a reasonable estimate based on the category and description.",
		a.Description, formatNumber(a.Quantity), a.Unit, a.ActivityType,
	)
}

// activitySummary renders "type: description (Nkg CO2)" entries.
func activitySummary(activities []*domain.CarbonActivity) string {
	parts := make([]string, 0, len(activities))
	for _, a := range activities {
		parts = append(parts, fmt.Sprintf("%s: %s (%skg CO2)", a.ActivityType, a.Description, formatNumber(a.CarbonImpact)))
	}
	return strings.Join(parts, ", ")
}

func insightPrompt(stats domain.FootprintStats, activities []*domain.CarbonActivity) string {
	return fmt.Sprintf(
		"Analyze this carbon footprint data and provide a brief, actionable insight for reducing emissions. "+
			"Weekly trend: %.1f%%, Recent activities: %s. "+
			"Keep it under 100 words and focus on the most impactful recommendation.",
		stats.WeeklyTrend, activitySummary(head(activities, insightSampleSize)),
	)
}

func predictionPrompt(activities []*domain.CarbonActivity) (string, error) {
	data, err := json.Marshal(head(activities, predictionSampleSize))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"Analyze this carbon footprint data and create predictions: %s. "+
			"Provide monthly and yearly predictions, identify trends, and suggest target reductions.",
		data,
	), nil
}

func suggestionsPrompt(activities []*domain.CarbonActivity) string {
	return fmt.Sprintf(
		"Based on this carbon footprint data, generate 5 personalized improvement suggestions: %s. "+
			"Focus on the highest impact activities and provide specific, actionable recommendations.",
		activitySummary(head(activities, suggestionSampleSize)),
	)
}

func head[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
