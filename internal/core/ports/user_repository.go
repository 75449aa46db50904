package ports

import (
	"context"

	"github.com/delcom/travel-log/internal/core/domain"
)

// UserRepository is the credential store.
type UserRepository interface {
	// FindByEmail matches the normalized address. Returns domain.ErrUserNotFound
	// when no user owns it.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByID returns domain.ErrUserNotFound when the user does not exist.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Save inserts or replaces the user keyed by ID. A clash on the unique email
	// index returns domain.ErrEmailTaken.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
}

// TokenRepository is the session token store.
type TokenRepository interface {
	// FindUserToken returns domain.ErrSessionNotFound when the (user, token)
	// pair is not stored.
	FindUserToken(ctx context.Context, userID, token string) (*domain.AuthToken, error)
	Save(ctx context.Context, token *domain.AuthToken) (*domain.AuthToken, error)
	// Delete removes a single session. Deleting a missing row is not an error.
	Delete(ctx context.Context, userID, token string) error
	// DeleteByUserID removes every session of the user.
	DeleteByUserID(ctx context.Context, userID string) error
}
