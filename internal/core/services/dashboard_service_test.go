package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

var dashboardNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

type dashboardFixture struct {
	repo      *MockActivityRepository
	inference *MockInference
	cache     *MockInsightCache
	service   *DashboardService
}

func newDashboardFixture() *dashboardFixture {
	f := &dashboardFixture{
		repo:      new(MockActivityRepository),
		inference: new(MockInference),
		cache:     new(MockInsightCache),
	}
	f.service = NewDashboardService(f.repo, f.inference, f.cache, time.Hour, nullLogger()).
		WithClock(func() time.Time { return dashboardNow })
	return f
}

func activityOn(daysAgo int, impact float64) *domain.CarbonActivity {
	return &domain.CarbonActivity{
		ID:           fmt.Sprintf("a-%d-%v", daysAgo, impact),
		UserID:       "user-1",
		ActivityType: domain.ActivityTransportation,
		Description:  "commute",
		Date:         domain.CalendarDate(dashboardNow.AddDate(0, 0, -daysAgo)),
		CarbonImpact: impact,
	}
}

func TestDashboardService_Get(t *testing.T) {
	ctx := context.Background()
	recent := []*domain.CarbonActivity{
		activityOn(1, 6), activityOn(2, 4), activityOn(9, 5),
	}

	t.Run("No activities gives an empty dashboard without inference", func(t *testing.T) {
		f := newDashboardFixture()
		f.repo.On("List", ctx, "user-1", mock.Anything).Return([]*domain.CarbonActivity{}, nil)

		dashboard, err := f.service.Get(ctx, "user-1")

		require.NoError(t, err)
		assert.Zero(t, dashboard.Stats.TotalFootprint)
		assert.NotNil(t, dashboard.RecentActivities)
		assert.Empty(t, dashboard.Chart)
		assert.Nil(t, dashboard.Insight)
		f.inference.AssertNotCalled(t, "Generate")
		f.cache.AssertNotCalled(t, "Get")
	})

	t.Run("Aggregates stats and serves a fresh cached insight", func(t *testing.T) {
		f := newDashboardFixture()
		cached := &domain.Insight{Text: "cached", GeneratedAt: dashboardNow.Add(-10 * time.Minute)}

		f.repo.On("List", ctx, "user-1", domain.ListOptions{
			Sort:  domain.SortKey{Field: domain.SortByDate, Descending: true},
			Limit: dashboardActivityLimit,
		}).Return(recent, nil)
		f.cache.On("Get", ctx, "user-1").Return(cached, nil)

		dashboard, err := f.service.Get(ctx, "user-1")

		require.NoError(t, err)
		assert.Equal(t, 15.0, dashboard.Stats.TotalFootprint)
		assert.Equal(t, 15.0, dashboard.Stats.MonthlyAverage)
		assert.Equal(t, 180.0, dashboard.Stats.YearlyProjection)
		assert.InDelta(t, 100.0, dashboard.Stats.WeeklyTrend, 1e-9)
		require.Len(t, dashboard.Chart, 3)
		assert.Equal(t, "Mar 11", dashboard.Chart[0].Label)
		assert.Equal(t, "cached", dashboard.Insight.Text)
		assert.Equal(t, dashboardNow, dashboard.AsOf)
		f.inference.AssertNotCalled(t, "Generate")
	})

	t.Run("Stale cache is regenerated and stored", func(t *testing.T) {
		f := newDashboardFixture()
		stale := &domain.Insight{Text: "old", GeneratedAt: dashboardNow.Add(-2 * time.Hour)}

		f.repo.On("List", ctx, "user-1", mock.Anything).Return(recent, nil)
		f.cache.On("Get", ctx, "user-1").Return(stale, nil)
		f.inference.On("Generate", ctx, mock.AnythingOfType("string")).Return("<p>Cycle to work twice a week.</p>", nil)
		f.cache.On("Set", ctx, "user-1", mock.MatchedBy(func(i *domain.Insight) bool {
			return i.Text == "Cycle to work twice a week." && i.GeneratedAt.Equal(dashboardNow)
		})).Return(nil)

		dashboard, err := f.service.Get(ctx, "user-1")

		require.NoError(t, err)
		assert.Equal(t, "Cycle to work twice a week.", dashboard.Insight.Text)
		f.cache.AssertExpectations(t)
	})

	t.Run("Inference failure keeps the previous insight", func(t *testing.T) {
		f := newDashboardFixture()
		stale := &domain.Insight{Text: "old", GeneratedAt: dashboardNow.Add(-2 * time.Hour)}

		f.repo.On("List", ctx, "user-1", mock.Anything).Return(recent, nil)
		f.cache.On("Get", ctx, "user-1").Return(stale, nil)
		f.inference.On("Generate", ctx, mock.Anything).Return("", errors.New("quota exceeded"))

		dashboard, err := f.service.Get(ctx, "user-1")

		require.NoError(t, err)
		assert.Equal(t, "old", dashboard.Insight.Text)
		f.cache.AssertNotCalled(t, "Set")
	})

	t.Run("Blank model output is treated as a failure", func(t *testing.T) {
		f := newDashboardFixture()

		f.repo.On("List", ctx, "user-1", mock.Anything).Return(recent, nil)
		f.cache.On("Get", ctx, "user-1").Return(nil, nil)
		f.inference.On("Generate", ctx, mock.Anything).Return("   ", nil)

		dashboard, err := f.service.Get(ctx, "user-1")

		require.NoError(t, err)
		assert.Nil(t, dashboard.Insight)
	})

	t.Run("Only five recent activities are shown", func(t *testing.T) {
		f := newDashboardFixture()
		many := make([]*domain.CarbonActivity, 0, 8)
		for i := 0; i < 8; i++ {
			many = append(many, activityOn(i, 1))
		}

		f.repo.On("List", ctx, "user-1", mock.Anything).Return(many, nil)
		f.cache.On("Get", ctx, "user-1").Return(&domain.Insight{Text: "x", GeneratedAt: dashboardNow}, nil)

		dashboard, err := f.service.Get(ctx, "user-1")

		require.NoError(t, err)
		assert.Len(t, dashboard.RecentActivities, recentActivitiesShown)
		assert.Equal(t, 8.0, dashboard.Stats.TotalFootprint)
	})

	t.Run("Store failure degrades to an empty dashboard", func(t *testing.T) {
		f := newDashboardFixture()
		f.repo.On("List", ctx, "user-1", mock.Anything).Return(nil, errors.New("db down"))

		dashboard, err := f.service.Get(ctx, "user-1")

		require.NoError(t, err)
		assert.Zero(t, dashboard.Stats.TotalFootprint)
		assert.Empty(t, dashboard.RecentActivities)
	})

	t.Run("Fail: cancelled request is reported", func(t *testing.T) {
		f := newDashboardFixture()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		f.repo.On("List", cancelled, "user-1", mock.Anything).Return(nil, context.Canceled)

		_, err := f.service.Get(cancelled, "user-1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDashboardService_RefreshInsight(t *testing.T) {
	ctx := context.Background()

	t.Run("Nothing to do without activities", func(t *testing.T) {
		f := newDashboardFixture()
		f.repo.On("List", ctx, "user-1", mock.Anything).Return([]*domain.CarbonActivity{}, nil)

		assert.NoError(t, f.service.RefreshInsight(ctx, "user-1"))
		f.inference.AssertNotCalled(t, "Generate")
	})

	t.Run("Regenerates regardless of cache age", func(t *testing.T) {
		f := newDashboardFixture()
		f.repo.On("List", ctx, "user-1", mock.Anything).Return([]*domain.CarbonActivity{activityOn(0, 2)}, nil)
		f.inference.On("Generate", ctx, mock.Anything).Return("Eat less beef.", nil)
		f.cache.On("Set", ctx, "user-1", mock.Anything).Return(nil)

		assert.NoError(t, f.service.RefreshInsight(ctx, "user-1"))
		f.cache.AssertExpectations(t)
		f.cache.AssertNotCalled(t, "Get")
	})

	t.Run("Fail: inference errors are reported", func(t *testing.T) {
		f := newDashboardFixture()
		f.repo.On("List", ctx, "user-1", mock.Anything).Return([]*domain.CarbonActivity{activityOn(0, 2)}, nil)
		f.inference.On("Generate", ctx, mock.Anything).Return("", errors.New("timeout"))

		err := f.service.RefreshInsight(ctx, "user-1")
		assert.ErrorIs(t, err, domain.ErrInferenceUnavailable)
	})
}
