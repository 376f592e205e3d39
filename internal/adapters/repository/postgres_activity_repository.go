package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

var _ domain.ActivityRepository = (*PostgresActivityRepository)(nil)

type PostgresActivityRepository struct {
	db *sqlx.DB
}

func NewPostgresActivityRepository(db *sqlx.DB) *PostgresActivityRepository {
	return &PostgresActivityRepository{db: db}
}

func (r *PostgresActivityRepository) Create(ctx context.Context, activity *domain.CarbonActivity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}

	query := `
		INSERT INTO carbon_activities (
			id, user_id, activity_type, description,
			quantity, unit, activity_date, carbon_impact,
			location, notes, version, created_at, updated_at
		) VALUES (
			:id, :user_id, :activity_type, :description,
			:quantity, :unit, :activity_date, :carbon_impact,
			:location, :notes, :version, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		switch sqlState(err) {
		case pgForeignKeyViolation:
			return fmt.Errorf("repository: referenced user does not exist: %w", domain.ErrUserNotFound)
		case pgUniqueViolation:
			return domain.ErrActivityConflict
		}
		return fmt.Errorf("repository: create activity failed: %w", err)
	}
	return nil
}

func (r *PostgresActivityRepository) GetByID(ctx context.Context, id string) (*domain.CarbonActivity, error) {
	var activity domain.CarbonActivity

	err := r.db.GetContext(ctx, &activity, `SELECT * FROM carbon_activities WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrActivityNotFound
		}
		return nil, fmt.Errorf("repository: get activity failed: %w", err)
	}
	return &activity, nil
}

func (r *PostgresActivityRepository) List(ctx context.Context, userID string, opts domain.ListOptions) ([]*domain.CarbonActivity, error) {
	order, err := orderClause(opts.Sort, activityColumns)
	if err != nil {
		return nil, err
	}

	activities := []*domain.CarbonActivity{}
	query := `SELECT * FROM carbon_activities WHERE user_id = $1 ` + order + limitClause(opts.Limit)

	if err := r.db.SelectContext(ctx, &activities, query, userID); err != nil {
		return nil, fmt.Errorf("repository: list activities failed: %w", err)
	}
	return activities, nil
}

func (r *PostgresActivityRepository) Update(ctx context.Context, activity *domain.CarbonActivity) error {
	activity.Version++
	activity.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE carbon_activities
		SET location = :location,
		    notes = :notes,
		    version = :version,
		    updated_at = :updated_at
		WHERE id = :id
		  AND version = :version - 1`

	result, err := r.db.NamedExecContext(ctx, query, activity)
	if err != nil {
		activity.Version--
		return fmt.Errorf("repository: update activity failed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		activity.Version--
		exists, _ := r.exists(ctx, activity.ID)
		if !exists {
			return domain.ErrActivityNotFound
		}
		return domain.ErrActivityConflict
	}

	return nil
}

func (r *PostgresActivityRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT count(*) FROM carbon_activities WHERE id = $1", id)
	return count > 0, err
}
