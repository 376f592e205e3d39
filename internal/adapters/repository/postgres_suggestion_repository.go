package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

var _ domain.SuggestionRepository = (*PostgresSuggestionRepository)(nil)

type PostgresSuggestionRepository struct {
	db *sqlx.DB
}

func NewPostgresSuggestionRepository(db *sqlx.DB) *PostgresSuggestionRepository {
	return &PostgresSuggestionRepository{db: db}
}

func (r *PostgresSuggestionRepository) Create(ctx context.Context, s *domain.Suggestion) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	query := `
		INSERT INTO carbon_suggestions (
			id, user_id, title, description, category,
			potential_reduction, difficulty, priority, cost_impact,
			is_implemented, implemented_at, created_at, updated_at
		) VALUES (
			:id, :user_id, :title, :description, :category,
			:potential_reduction, :difficulty, :priority, :cost_impact,
			:is_implemented, :implemented_at, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("repository: create suggestion failed: %w", err)
	}
	return nil
}

func (r *PostgresSuggestionRepository) GetByID(ctx context.Context, id string) (*domain.Suggestion, error) {
	var s domain.Suggestion

	err := r.db.GetContext(ctx, &s, `SELECT * FROM carbon_suggestions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSuggestionNotFound
		}
		return nil, fmt.Errorf("repository: get suggestion failed: %w", err)
	}
	return &s, nil
}

func (r *PostgresSuggestionRepository) List(ctx context.Context, userID string, opts domain.ListOptions) ([]*domain.Suggestion, error) {
	order, err := orderClause(opts.Sort, suggestionColumns)
	if err != nil {
		return nil, err
	}

	suggestions := []*domain.Suggestion{}
	query := `SELECT * FROM carbon_suggestions WHERE user_id = $1 ` + order + limitClause(opts.Limit)

	if err := r.db.SelectContext(ctx, &suggestions, query, userID); err != nil {
		return nil, fmt.Errorf("repository: list suggestions failed: %w", err)
	}
	return suggestions, nil
}

// Update only applies to suggestions not yet implemented; a concurrent second
// attempt is reported as already implemented.
func (r *PostgresSuggestionRepository) Update(ctx context.Context, s *domain.Suggestion) error {
	query := `
		UPDATE carbon_suggestions
		SET is_implemented = :is_implemented,
		    implemented_at = :implemented_at,
		    updated_at = :updated_at
		WHERE id = :id
		  AND is_implemented = FALSE`

	result, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return fmt.Errorf("repository: update suggestion failed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := r.GetByID(ctx, s.ID); err != nil {
			return err
		}
		return domain.ErrSuggestionAlreadyImplemented
	}
	return nil
}
