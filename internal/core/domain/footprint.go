package domain

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ChartWindow     = 30
	ChartLabelStyle = "Jan 2"
)

// FootprintStats are derived on every request and never stored.
type FootprintStats struct {
	TotalFootprint   float64 `json:"totalFootprint"`
	MonthlyAverage   float64 `json:"monthlyAverage"`
	WeeklyTrend      float64 `json:"weeklyTrend"`
	YearlyProjection float64 `json:"yearlyProjection"`
}

type ChartPoint struct {
	Label     string    `json:"label"`
	Date      time.Time `json:"date"`
	Footprint float64   `json:"footprint"`
}

// Aggregate turns a list of activities into dashboard statistics and a
// chronological chart series of at most ChartWindow dates.
//
// MonthlyAverage is total / max(1, count/30): it assumes one record per day
// and is not a calendar average. The weekly windows are relative to asOf.
func Aggregate(activities []*CarbonActivity, asOf time.Time) (FootprintStats, []ChartPoint) {
	var stats FootprintStats

	weekAgo := asOf.AddDate(0, 0, -7)
	twoWeeksAgo := asOf.AddDate(0, 0, -14)

	var thisWeek, lastWeek float64
	for _, a := range activities {
		stats.TotalFootprint += a.CarbonImpact

		switch {
		case a.Date.After(weekAgo):
			thisWeek += a.CarbonImpact
		case a.Date.After(twoWeeksAgo):
			lastWeek += a.CarbonImpact
		}
	}

	stats.MonthlyAverage = stats.TotalFootprint / math.Max(1, float64(len(activities))/30)
	stats.YearlyProjection = stats.MonthlyAverage * 12

	if lastWeek > 0 {
		stats.WeeklyTrend = (thisWeek - lastWeek) / lastWeek * 100
	}

	return stats, chartSeries(activities)
}

func chartSeries(activities []*CarbonActivity) []ChartPoint {
	ordered := make([]*CarbonActivity, len(activities))
	copy(ordered, activities)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	totals := make(map[string]float64)
	var days []time.Time

	for _, a := range ordered {
		key := a.Date.UTC().Format(DateLayout)
		if _, seen := totals[key]; !seen {
			days = append(days, CalendarDate(a.Date))
		}
		totals[key] += a.CarbonImpact
	}

	if len(days) > ChartWindow {
		days = days[len(days)-ChartWindow:]
	}

	points := make([]ChartPoint, 0, len(days))
	for _, day := range days {
		points = append(points, ChartPoint{
			Label:     day.Format(ChartLabelStyle),
			Date:      day,
			Footprint: Round2(totals[day.Format(DateLayout)]),
		})
	}
	return points
}

// Round2 rounds the exact binary value of v half away from zero to two
// decimal places, so 1.005 (stored as 1.00499...) becomes 1.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloatWithExponent(v, -2).InexactFloat64()
}
