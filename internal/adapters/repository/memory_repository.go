package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

// In-memory stores keep copies so callers cannot mutate stored records
// without going through Update.

type InMemoryActivityRepository struct {
	store map[string]domain.CarbonActivity
	mu    sync.RWMutex
}

func NewInMemoryActivityRepository() *InMemoryActivityRepository {
	return &InMemoryActivityRepository{store: make(map[string]domain.CarbonActivity)}
}

func (r *InMemoryActivityRepository) Create(ctx context.Context, activity *domain.CarbonActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if _, ok := r.store[activity.ID]; ok {
		return domain.ErrActivityConflict
	}

	r.store[activity.ID] = *activity
	return nil
}

func (r *InMemoryActivityRepository) GetByID(ctx context.Context, id string) (*domain.CarbonActivity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	activity, ok := r.store[id]
	if !ok {
		return nil, domain.ErrActivityNotFound
	}
	return &activity, nil
}

func (r *InMemoryActivityRepository) List(ctx context.Context, userID string, opts domain.ListOptions) ([]*domain.CarbonActivity, error) {
	if _, err := orderClause(opts.Sort, activityColumns); err != nil {
		return nil, err
	}

	r.mu.RLock()
	activities := []*domain.CarbonActivity{}
	for _, a := range r.store {
		if a.UserID == userID {
			a := a
			activities = append(activities, &a)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(activities, func(i, j int) bool {
		a, b := activities[i], activities[j]
		switch opts.Sort.Field {
		case domain.SortByCarbonImpact:
			if a.CarbonImpact != b.CarbonImpact {
				return (a.CarbonImpact < b.CarbonImpact) != opts.Sort.Descending
			}
		case domain.SortByDate:
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date) != opts.Sort.Descending
			}
		}
		return before(a.CreatedAt, b.CreatedAt, a.ID, b.ID, opts.Sort.Descending)
	})

	return truncate(activities, opts.Limit), nil
}

func (r *InMemoryActivityRepository) Update(ctx context.Context, activity *domain.CarbonActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.store[activity.ID]
	if !ok {
		return domain.ErrActivityNotFound
	}
	if existing.Version != activity.Version {
		return domain.ErrActivityConflict
	}

	activity.Version++
	activity.UpdatedAt = time.Now().UTC()

	existing.Location = activity.Location
	existing.Notes = activity.Notes
	existing.Version = activity.Version
	existing.UpdatedAt = activity.UpdatedAt
	r.store[activity.ID] = existing
	return nil
}

type InMemorySuggestionRepository struct {
	store map[string]domain.Suggestion
	mu    sync.RWMutex
}

func NewInMemorySuggestionRepository() *InMemorySuggestionRepository {
	return &InMemorySuggestionRepository{store: make(map[string]domain.Suggestion)}
}

func (r *InMemorySuggestionRepository) Create(ctx context.Context, s *domain.Suggestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	r.store[s.ID] = *s
	return nil
}

func (r *InMemorySuggestionRepository) GetByID(ctx context.Context, id string) (*domain.Suggestion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.store[id]
	if !ok {
		return nil, domain.ErrSuggestionNotFound
	}
	return &s, nil
}

func (r *InMemorySuggestionRepository) List(ctx context.Context, userID string, opts domain.ListOptions) ([]*domain.Suggestion, error) {
	if _, err := orderClause(opts.Sort, suggestionColumns); err != nil {
		return nil, err
	}

	r.mu.RLock()
	suggestions := []*domain.Suggestion{}
	for _, s := range r.store {
		if s.UserID == userID {
			s := s
			suggestions = append(suggestions, &s)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if opts.Sort.Field == domain.SortByPotentialReduction && a.PotentialReduction != b.PotentialReduction {
			return (a.PotentialReduction < b.PotentialReduction) != opts.Sort.Descending
		}
		return before(a.CreatedAt, b.CreatedAt, a.ID, b.ID, opts.Sort.Descending)
	})

	return truncate(suggestions, opts.Limit), nil
}

func (r *InMemorySuggestionRepository) Update(ctx context.Context, s *domain.Suggestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.store[s.ID]
	if !ok {
		return domain.ErrSuggestionNotFound
	}
	if existing.IsImplemented {
		return domain.ErrSuggestionAlreadyImplemented
	}

	existing.IsImplemented = s.IsImplemented
	existing.ImplementedAt = s.ImplementedAt
	existing.UpdatedAt = s.UpdatedAt
	r.store[s.ID] = existing
	return nil
}

type InMemoryUserRepository struct {
	store map[string]domain.User
	mu    sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{store: make(map[string]domain.User)}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.store {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.store[user.ID] = *user
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.store[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.store {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	users := make([]*domain.User, 0, len(r.store))
	for _, u := range r.store {
		u := u
		users = append(users, &u)
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		return before(users[i].CreatedAt, users[j].CreatedAt, users[i].ID, users[j].ID, false)
	})
	return users, nil
}

type InMemoryReportRepository struct {
	reports []domain.PredictionReport
	mu      sync.RWMutex
}

func NewInMemoryReportRepository() *InMemoryReportRepository {
	return &InMemoryReportRepository{}
}

func (r *InMemoryReportRepository) Save(ctx context.Context, report *domain.PredictionReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	r.reports = append(r.reports, *report)
	return nil
}

func (r *InMemoryReportRepository) Latest(ctx context.Context, userID string) (*domain.PredictionReport, error) {
	reports, _ := r.List(ctx, userID, 1)
	if len(reports) == 0 {
		return nil, domain.ErrReportNotFound
	}
	return reports[0], nil
}

// List returns newest first.
func (r *InMemoryReportRepository) List(ctx context.Context, userID string, limit int) ([]*domain.PredictionReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reports := []*domain.PredictionReport{}
	for i := len(r.reports) - 1; i >= 0; i-- {
		if r.reports[i].UserID == userID {
			report := r.reports[i]
			reports = append(reports, &report)
		}
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].GeneratedAt.After(reports[j].GeneratedAt)
	})
	return truncate(reports, limit), nil
}

func before(aTime, bTime time.Time, aID, bID string, descending bool) bool {
	if !aTime.Equal(bTime) {
		return aTime.Before(bTime) != descending
	}
	return (aID < bID) != descending
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
