package domain

import (
	"context"
	"errors"
)

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrActivityConflict = errors.New("activity version conflict")
	ErrReportNotFound   = errors.New("prediction report not found")
)

type ActivityRepository interface {
	// Create persists a newly logged activity.
	Create(ctx context.Context, activity *CarbonActivity) error

	// GetByID retrieves a single activity by its identifier.
	GetByID(ctx context.Context, id string) (*CarbonActivity, error)

	// List returns the user's activities ordered by opts.Sort.
	// A non-positive limit returns everything.
	List(ctx context.Context, userID string, opts ListOptions) ([]*CarbonActivity, error)

	// Update stores the mutable fields of an activity.
	// Implementations must reject stale versions with ErrActivityConflict.
	Update(ctx context.Context, activity *CarbonActivity) error
}

type SuggestionRepository interface {
	Create(ctx context.Context, suggestion *Suggestion) error
	GetByID(ctx context.Context, id string) (*Suggestion, error)
	List(ctx context.Context, userID string, opts ListOptions) ([]*Suggestion, error)
	Update(ctx context.Context, suggestion *Suggestion) error
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List returns every registered user, used by batch jobs such as the weekly digest.
	List(ctx context.Context) ([]*User, error)
}

// ReportRepository keeps the history of generated predictions.
type ReportRepository interface {
	Save(ctx context.Context, report *PredictionReport) error

	// Latest returns ErrReportNotFound when the user has no report yet.
	Latest(ctx context.Context, userID string) (*PredictionReport, error)

	List(ctx context.Context, userID string, limit int) ([]*PredictionReport, error)
}

// InsightCache holds the last dashboard insight generated for each user.
type InsightCache interface {
	// Get returns (nil, nil) on a miss.
	Get(ctx context.Context, userID string) (*Insight, error)
	Set(ctx context.Context, userID string, insight *Insight) error
}
