package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/delcom/travel-log/internal/core/domain"
)

type TokenRepository struct {
	db DBTX
}

func NewTokenRepository(db DBTX) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) FindUserToken(ctx context.Context, userID, token string) (*domain.AuthToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `SELECT id, user_id, token, created_at FROM auth_tokens WHERE user_id = $1 AND token = $2`

	t := &domain.AuthToken{}
	err := r.db.QueryRowContext(ctx, query, userID, token).Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func (r *TokenRepository) Save(ctx context.Context, t *domain.AuthToken) (*domain.AuthToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `INSERT INTO auth_tokens (id, user_id, token, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, t.ID, t.UserID, t.Token, t.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert token: %w", err)
	}
	return t, nil
}

func (r *TokenRepository) Delete(ctx context.Context, userID, token string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `DELETE FROM auth_tokens WHERE user_id = $1 AND token = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (r *TokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete tokens: %w", err)
	}
	return nil
}
