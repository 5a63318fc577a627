package repository

import (
	"context"
	"errors"
	"fmt"

	"visit_portal/internal/model"

	"github.com/jackc/pgx/v5"
)

// ResetTokenRepository defines operations for password-reset tokens
type ResetTokenRepository interface {
	Replace(ctx context.Context, token *model.ResetToken) error
	Find(ctx context.Context, email, token string) (*model.ResetToken, error)
	Delete(ctx context.Context, email, token string) error
	DeleteExpired(ctx context.Context) error
}

type resetTokenRepository struct {
	db DB
}

// NewResetTokenRepository creates a new ResetTokenRepository
func NewResetTokenRepository(db DB) ResetTokenRepository {
	return &resetTokenRepository{db: db}
}

// Replace inserts a fresh token for the email, removing any prior token for
// that email along with everything already expired. At most one live token
// per email.
func (r *resetTokenRepository) Replace(ctx context.Context, token *model.ResetToken) error {
	delSQL := `DELETE FROM reset_tokens WHERE email = $1 OR expires_at <= NOW()`
	if _, err := r.db.Exec(ctx, delSQL, token.Email); err != nil {
		return fmt.Errorf("failed to prune reset tokens: %w", err)
	}
	insSQL := `INSERT INTO reset_tokens (email, token, expires_at) VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, insSQL, token.Email, token.Token, token.ExpiresAt); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// Find retrieves an unexpired token matching email and token value
func (r *resetTokenRepository) Find(ctx context.Context, email, token string) (*model.ResetToken, error) {
	rt := &model.ResetToken{}
	sql := `SELECT email, token, expires_at FROM reset_tokens WHERE email = $1 AND token = $2 AND expires_at > NOW()`
	err := r.db.QueryRow(ctx, sql, email, token).Scan(&rt.Email, &rt.Token, &rt.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found or expired
		}
		return nil, fmt.Errorf("failed to find reset token: %w", err)
	}
	return rt, nil
}

// Delete removes a token after use (single-use semantics)
func (r *resetTokenRepository) Delete(ctx context.Context, email, token string) error {
	sql := `DELETE FROM reset_tokens WHERE email = $1 AND token = $2`
	if _, err := r.db.Exec(ctx, sql, email, token); err != nil {
		return fmt.Errorf("failed to delete reset token: %w", err)
	}
	return nil
}

// DeleteExpired prunes expired tokens, lazily on access
func (r *resetTokenRepository) DeleteExpired(ctx context.Context) error {
	sql := `DELETE FROM reset_tokens WHERE expires_at <= NOW()`
	if _, err := r.db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to prune expired reset tokens: %w", err)
	}
	return nil
}
