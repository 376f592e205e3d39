package domain

import (
	"context"
	"time"
)

const (
	EventActivityLogged        = "activity.logged"
	EventSuggestionImplemented = "suggestion.implemented"
)

// Event is anything published to the message bus. Key groups events per user.
type Event interface {
	EventType() string
	Key() string
}

type ActivityLogged struct {
	ActivityID   string       `json:"activity_id"`
	UserID       string       `json:"user_id"`
	ActivityType ActivityType `json:"activity_type"`
	CarbonImpact float64      `json:"carbon_impact"`
	Date         string       `json:"date"`
	OccurredAt   time.Time    `json:"occurred_at"`
}

func (e ActivityLogged) EventType() string { return EventActivityLogged }
func (e ActivityLogged) Key() string       { return e.UserID }

type SuggestionImplemented struct {
	SuggestionID       string       `json:"suggestion_id"`
	UserID             string       `json:"user_id"`
	Category           ActivityType `json:"category"`
	PotentialReduction float64      `json:"potential_reduction"`
	OccurredAt         time.Time    `json:"occurred_at"`
}

func (e SuggestionImplemented) EventType() string { return EventSuggestionImplemented }
func (e SuggestionImplemented) Key() string       { return e.UserID }

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Mailer delivers plain-text messages.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
