package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrSuggestionNotFound           = errors.New("suggestion not found")
	ErrSuggestionAlreadyImplemented = errors.New("suggestion already implemented")
	ErrInvalidSuggestion            = errors.New("invalid suggestion data")
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type CostImpact string

const (
	CostSavesMoney CostImpact = "saves_money"
	CostNeutral    CostImpact = "neutral"
	CostCostsMoney CostImpact = "costs_money"
)

type Suggestion struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	Title              string       `json:"title" db:"title"`
	Description        string       `json:"description" db:"description"`
	Category           ActivityType `json:"category" db:"category"`
	PotentialReduction float64      `json:"potential_reduction" db:"potential_reduction"`
	Difficulty         Difficulty   `json:"difficulty" db:"difficulty"`
	Priority           Priority     `json:"priority" db:"priority"`
	CostImpact         CostImpact   `json:"cost_impact" db:"cost_impact"`

	IsImplemented bool       `json:"is_implemented" db:"is_implemented"`
	ImplementedAt *time.Time `json:"implemented_at,omitempty" db:"implemented_at"`

	CreatedAt time.Time `json:"created_date" db:"created_at"`
	UpdatedAt time.Time `json:"updated_date" db:"updated_at"`
}

func NewSuggestion(userID, title, description string, category ActivityType, potentialReduction float64) *Suggestion {
	now := time.Now().UTC()

	return &Suggestion{
		UserID:             userID,
		Title:              strings.TrimSpace(title),
		Description:        strings.TrimSpace(description),
		Category:           category,
		PotentialReduction: potentialReduction,
		Difficulty:         DifficultyMedium,
		Priority:           PriorityMedium,
		CostImpact:         CostNeutral,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (s *Suggestion) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return errors.New("user_id is required")
	}
	if strings.TrimSpace(s.Title) == "" {
		return errors.New("title is required")
	}
	if !s.Category.IsValid() {
		return ErrInvalidActivityType
	}
	if s.PotentialReduction < 0 {
		return errors.New("potential_reduction cannot be negative")
	}

	switch s.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return errors.New("difficulty must be easy, medium or hard")
	}

	switch s.Priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return errors.New("priority must be high, medium or low")
	}

	switch s.CostImpact {
	case CostSavesMoney, CostNeutral, CostCostsMoney:
	default:
		return errors.New("cost_impact must be saves_money, neutral or costs_money")
	}

	return nil
}

// MarkImplemented flips the flag exactly once.
func (s *Suggestion) MarkImplemented() error {
	if s.IsImplemented {
		return ErrSuggestionAlreadyImplemented
	}

	now := time.Now().UTC()
	s.IsImplemented = true
	s.ImplementedAt = &now
	s.UpdatedAt = now
	return nil
}
