package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidActivity     = errors.New("invalid activity data")
	ErrInvalidActivityType = errors.New("invalid activity type")
	ErrUnauthorized        = errors.New("unauthorized access to resource")
)

type ActivityType string

const (
	ActivityTransportation ActivityType = "transportation"
	ActivityEnergy         ActivityType = "energy"
	ActivityFood           ActivityType = "food"
	ActivityConsumption    ActivityType = "consumption"
	ActivityWaste          ActivityType = "waste"
)

// ActivityTypes lists every category in display order.
var ActivityTypes = []ActivityType{
	ActivityTransportation,
	ActivityEnergy,
	ActivityFood,
	ActivityConsumption,
	ActivityWaste,
}

func (t ActivityType) IsValid() bool {
	for _, known := range ActivityTypes {
		if t == known {
			return true
		}
	}
	return false
}

const DateLayout = "2006-01-02"

// CarbonActivity is a single logged action with its kg CO2e impact.
// CarbonImpact is fixed at creation time and never recomputed.
type CarbonActivity struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	ActivityType ActivityType `json:"activity_type" db:"activity_type"`
	Description  string       `json:"description" db:"description"`
	Quantity     float64      `json:"quantity" db:"quantity"`
	Unit         string       `json:"unit" db:"unit"`
	Date         time.Time    `json:"date" db:"activity_date"`
	CarbonImpact float64      `json:"carbon_impact" db:"carbon_impact"`
	Location     string       `json:"location,omitempty" db:"location"`
	Notes        string       `json:"notes,omitempty" db:"notes"`

	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_date" db:"created_at"`
	UpdatedAt time.Time `json:"updated_date" db:"updated_at"`
}

func NewCarbonActivity(userID string, activityType ActivityType, description string, quantity float64, unit string, date time.Time) *CarbonActivity {
	now := time.Now().UTC()

	if date.IsZero() {
		date = now
	}

	return &CarbonActivity{
		UserID:       userID,
		ActivityType: activityType,
		Description:  strings.TrimSpace(description),
		Quantity:     quantity,
		Unit:         strings.TrimSpace(unit),
		Date:         CalendarDate(date),

		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (a *CarbonActivity) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return errors.New("user_id is required")
	}
	if !a.ActivityType.IsValid() {
		return ErrInvalidActivityType
	}
	if strings.TrimSpace(a.Description) == "" {
		return errors.New("description is required")
	}
	if a.Quantity < 0 {
		return errors.New("quantity cannot be negative")
	}
	if a.Date.IsZero() {
		return errors.New("date is required")
	}
	return nil
}

// Annotate changes the only fields that may be edited after logging.
// A nil field keeps its stored value.
func (a *CarbonActivity) Annotate(location, notes *string) {
	if location != nil {
		a.Location = strings.TrimSpace(*location)
	}
	if notes != nil {
		a.Notes = strings.TrimSpace(*notes)
	}
	a.UpdatedAt = time.Now().UTC()
}

// CalendarDate drops the time of day, keeping the UTC calendar date.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
