package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

const digestChartDays = 7

// DigestService emails each user a weekly footprint summary.
type DigestService struct {
	users      domain.UserRepository
	activities domain.ActivityRepository
	mailer     domain.Mailer
	logger     *logrus.Logger
}

func NewDigestService(users domain.UserRepository, activities domain.ActivityRepository, mailer domain.Mailer, logger *logrus.Logger) *DigestService {
	return &DigestService{
		users:      users,
		activities: activities,
		mailer:     mailer,
		logger:     logger,
	}
}

func (s *DigestService) SendWeeklyDigests(ctx context.Context, asOf time.Time) (domain.DigestReport, error) {
	var report domain.DigestReport

	users, err := s.users.List(ctx)
	if err != nil {
		return report, fmt.Errorf("digest service: list users: %w", err)
	}

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		log := s.logger.WithField("user_id", user.ID)

		activities, err := s.activities.List(ctx, user.ID, domain.ListOptions{
			Sort:  domain.SortKey{Field: domain.SortByDate, Descending: true},
			Limit: dashboardActivityLimit,
		})
		if err != nil {
			log.WithError(err).Warn("digest: failed to load activities")
			report.Failed++
			continue
		}
		if len(activities) == 0 {
			report.Skipped++
			continue
		}

		stats, chart := domain.Aggregate(activities, asOf)
		subject := fmt.Sprintf("Your carbon footprint for the week of %s", asOf.Format("Jan 2, 2006"))

		if err := s.mailer.Send(ctx, user.Email, subject, composeDigest(user, activities, stats, chart)); err != nil {
			log.WithError(err).Warn("digest: failed to send email")
			report.Failed++
			continue
		}
		report.Sent++
	}

	s.logger.WithFields(logrus.Fields{
		"sent":    report.Sent,
		"skipped": report.Skipped,
		"failed":  report.Failed,
	}).Info("weekly digest completed")

	return report, nil
}

func composeDigest(user *domain.User, activities []*domain.CarbonActivity, stats domain.FootprintStats, chart []domain.ChartPoint) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\n", user.Name)
	fmt.Fprintf(&b, "Total footprint: %s kg CO2e\n", kg(stats.TotalFootprint))
	fmt.Fprintf(&b, "Weekly trend: %s%%\n", decimal.NewFromFloat(stats.WeeklyTrend).StringFixed(1))
	fmt.Fprintf(&b, "Yearly projection: %s t CO2e\n", decimal.NewFromFloat(stats.YearlyProjection).Div(decimal.NewFromInt(1000)).StringFixed(2))

	title := cases.Title(language.English)
	b.WriteString("\nBy category:\n")
	for _, c := range categoryTotals(activities) {
		fmt.Fprintf(&b, "  %s: %s kg\n", title.String(string(c.category)), kg(c.total))
	}

	b.WriteString("\nLast days:\n")
	for _, p := range head(reversed(chart), digestChartDays) {
		fmt.Fprintf(&b, "  %s: %s kg\n", p.Label, kg(p.Footprint))
	}

	b.WriteString("\nKeep logging your activities to see how you improve.\n")
	return b.String()
}

type categoryTotal struct {
	category domain.ActivityType
	total    float64
}

// categoryTotals sums impact per category, largest first.
func categoryTotals(activities []*domain.CarbonActivity) []categoryTotal {
	sums := make(map[domain.ActivityType]float64)
	for _, a := range activities {
		sums[a.ActivityType] += a.CarbonImpact
	}

	totals := make([]categoryTotal, 0, len(sums))
	for _, t := range domain.ActivityTypes {
		if v, ok := sums[t]; ok {
			totals = append(totals, categoryTotal{category: t, total: v})
		}
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].total > totals[j].total
	})
	return totals
}

func reversed[T any](items []T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[len(items)-1-i] = item
	}
	return out
}

func kg(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
