package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func act(date string, impact float64) *CarbonActivity {
	return &CarbonActivity{Date: day(date), CarbonImpact: impact}
}

func TestAggregate_Empty(t *testing.T) {
	stats, chart := Aggregate(nil, day("2024-01-10"))

	assert.Equal(t, FootprintStats{}, stats)
	assert.Empty(t, chart)
}

func TestAggregate_GroupsByDate(t *testing.T) {
	activities := []*CarbonActivity{
		act("2024-01-01", 5.0),
		act("2024-01-01", 3.25),
		act("2024-01-02", 2.0),
	}

	stats, chart := Aggregate(activities, day("2024-01-03"))

	assert.Equal(t, 10.25, stats.TotalFootprint)
	require.Len(t, chart, 2)
	assert.Equal(t, "Jan 1", chart[0].Label)
	assert.Equal(t, 8.25, chart[0].Footprint)
	assert.Equal(t, "Jan 2", chart[1].Label)
	assert.Equal(t, 2.0, chart[1].Footprint)

	assert.Equal(t, 10.25, stats.MonthlyAverage, "fewer than 30 records divide by one")
	assert.Equal(t, 123.0, stats.YearlyProjection)
}

func TestAggregate_MonthlyAverageHeuristic(t *testing.T) {
	asOf := day("2024-03-01")

	var activities []*CarbonActivity
	for i := 0; i < 35; i++ {
		activities = append(activities, &CarbonActivity{
			Date:         asOf.AddDate(0, 0, -i),
			CarbonImpact: 1.0,
		})
	}

	stats, chart := Aggregate(activities, asOf)

	assert.Equal(t, 35.0, stats.TotalFootprint)
	assert.InDelta(t, 30.0, stats.MonthlyAverage, 1e-9)
	assert.InDelta(t, 360.0, stats.YearlyProjection, 1e-9)

	t.Run("Chart keeps the 30 most recent dates in chronological order", func(t *testing.T) {
		require.Len(t, chart, ChartWindow)
		assert.Equal(t, asOf.AddDate(0, 0, -29), chart[0].Date)
		assert.Equal(t, asOf, chart[len(chart)-1].Date)
		assert.Equal(t, "Mar 1", chart[len(chart)-1].Label)

		for i := 1; i < len(chart); i++ {
			assert.True(t, chart[i-1].Date.Before(chart[i].Date))
		}
	})
}

func TestAggregate_WeeklyTrend(t *testing.T) {
	asOf := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		activities []*CarbonActivity
		want       float64
	}{
		{
			name:       "Increase",
			activities: []*CarbonActivity{act("2024-03-14", 10), act("2024-03-05", 5)},
			want:       100.0,
		},
		{
			name:       "Decrease",
			activities: []*CarbonActivity{act("2024-03-14", 5), act("2024-03-05", 10)},
			want:       -50.0,
		},
		{
			name:       "Empty previous week masks the increase",
			activities: []*CarbonActivity{act("2024-03-14", 4)},
			want:       0,
		},
		{
			name:       "Negative previous week reports no trend",
			activities: []*CarbonActivity{act("2024-03-14", 10), act("2024-03-05", -5)},
			want:       0,
		},
		{
			name:       "Older activities are outside both windows",
			activities: []*CarbonActivity{act("2024-03-14", 6), act("2024-02-01", 100)},
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, _ := Aggregate(tt.activities, asOf)
			assert.InDelta(t, tt.want, stats.WeeklyTrend, 1e-9)
		})
	}
}

func TestAggregate_WindowBoundaries(t *testing.T) {
	asOf := day("2024-03-15")

	activities := []*CarbonActivity{
		act("2024-03-15", 2), // this week
		act("2024-03-08", 4), // exactly seven days back: previous week
		act("2024-03-01", 8), // exactly fourteen days back: neither
	}

	stats, _ := Aggregate(activities, asOf)

	assert.InDelta(t, -50.0, stats.WeeklyTrend, 1e-9)
	assert.Equal(t, 14.0, stats.TotalFootprint)
}

func TestAggregate_InputOrderDoesNotMatter(t *testing.T) {
	asOf := day("2024-01-10")

	descending := []*CarbonActivity{
		act("2024-01-09", 1.5),
		act("2024-01-05", 2),
		act("2024-01-05", 0.1),
		act("2024-01-02", 0.2),
	}

	_, chart := Aggregate(descending, asOf)

	require.Len(t, chart, 3)
	assert.Equal(t, []string{"Jan 2", "Jan 5", "Jan 9"}, []string{chart[0].Label, chart[1].Label, chart[2].Label})
	assert.Equal(t, 2.1, chart[1].Footprint)

	assert.Equal(t, "2024-01-09", descending[0].Date.Format(DateLayout), "input slice must not be reordered")
}

func TestAggregate_Idempotent(t *testing.T) {
	asOf := day("2024-01-10")
	activities := []*CarbonActivity{act("2024-01-09", 3.333), act("2024-01-01", 1.111)}

	stats1, chart1 := Aggregate(activities, asOf)
	stats2, chart2 := Aggregate(activities, asOf)

	assert.Equal(t, stats1, stats2)
	assert.Equal(t, chart1, chart2)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.3, Round2(0.1+0.2))
	assert.Equal(t, 1.24, Round2(1.236))
	assert.Equal(t, 8.25, Round2(8.254999))
	assert.Equal(t, 0.0, Round2(0))

	t.Run("Rounds the stored binary value, not its shortest spelling", func(t *testing.T) {
		assert.Equal(t, 1.0, Round2(1.005))
		assert.Equal(t, 2.67, Round2(2.675))
		assert.Equal(t, 1.01, Round2(1.015))
	})

	t.Run("Exact halves round away from zero", func(t *testing.T) {
		assert.Equal(t, 0.13, Round2(0.125))
		assert.Equal(t, -0.13, Round2(-0.125))
	})
}
