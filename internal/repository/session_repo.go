package repository

import (
	"context"
	"errors"
	"fmt"

	"visit_portal/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SessionRepository defines operations for session data
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context) error
}

type sessionRepository struct {
	db DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create inserts a new session
func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	sql := `INSERT INTO sessions (id, user_id, expires_at) VALUES ($1, $2, $3)`
	_, err := r.db.Exec(ctx, sql, session.ID, session.UserID, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID retrieves an unexpired session; expired sessions are treated as absent
func (r *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	session := &model.Session{}
	sql := `SELECT id, user_id, expires_at FROM sessions WHERE id = $1 AND expires_at > NOW()`
	err := r.db.QueryRow(ctx, sql, id).Scan(&session.ID, &session.UserID, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found or expired
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// Delete removes a session; deleting an absent session is a no-op
func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	sql := `DELETE FROM sessions WHERE id = $1`
	if _, err := r.db.Exec(ctx, sql, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired prunes expired sessions. Called lazily on access, there is no
// background sweeper.
func (r *sessionRepository) DeleteExpired(ctx context.Context) error {
	sql := `DELETE FROM sessions WHERE expires_at <= NOW()`
	if _, err := r.db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to prune expired sessions: %w", err)
	}
	return nil
}
