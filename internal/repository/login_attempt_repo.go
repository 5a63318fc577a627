package repository

import (
	"context"
	"errors"
	"fmt"

	"visit_portal/internal/model"

	"github.com/jackc/pgx/v5"
)

// LoginAttemptRepository tracks failed logins per email for the lockout window
type LoginAttemptRepository interface {
	Find(ctx context.Context, email string) (*model.LoginAttempt, error)
	Save(ctx context.Context, attempt *model.LoginAttempt) error
	Clear(ctx context.Context, email string) error
}

type loginAttemptRepository struct {
	db DB
}

// NewLoginAttemptRepository creates a new LoginAttemptRepository
func NewLoginAttemptRepository(db DB) LoginAttemptRepository {
	return &loginAttemptRepository{db: db}
}

// Find retrieves the attempt record for an email, nil when none exists
func (r *loginAttemptRepository) Find(ctx context.Context, email string) (*model.LoginAttempt, error) {
	attempt := &model.LoginAttempt{}
	sql := `SELECT email, count, first_at, locked_until FROM login_attempts WHERE email = $1`
	err := r.db.QueryRow(ctx, sql, email).Scan(&attempt.Email, &attempt.Count, &attempt.FirstAt, &attempt.LockedUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find login attempts: %w", err)
	}
	return attempt, nil
}

// Save upserts the attempt record
func (r *loginAttemptRepository) Save(ctx context.Context, attempt *model.LoginAttempt) error {
	sql := `INSERT INTO login_attempts (email, count, first_at, locked_until) VALUES ($1, $2, $3, $4)
            ON CONFLICT (email) DO UPDATE SET count = EXCLUDED.count, first_at = EXCLUDED.first_at, locked_until = EXCLUDED.locked_until`
	if _, err := r.db.Exec(ctx, sql, attempt.Email, attempt.Count, attempt.FirstAt, attempt.LockedUntil); err != nil {
		return fmt.Errorf("failed to save login attempts: %w", err)
	}
	return nil
}

// Clear removes the attempt record; clearing an absent record is a no-op
func (r *loginAttemptRepository) Clear(ctx context.Context, email string) error {
	sql := `DELETE FROM login_attempts WHERE email = $1`
	if _, err := r.db.Exec(ctx, sql, email); err != nil {
		return fmt.Errorf("failed to clear login attempts: %w", err)
	}
	return nil
}
