package ports

import (
	"context"

	"github.com/delcom/travel-log/internal/core/domain"
)

// UserService covers registration, login and the authenticated user's profile.
// Methods taking only ctx act on the session stored by the auth middleware.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	CurrentUser(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, name, email string) (*domain.User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	Logout(ctx context.Context) error
}

// TokenCodec signs and verifies session tokens. Verification and claim
// extraction are separate so callers can reject a bad signature before any
// storage round-trip.
type TokenCodec interface {
	Generate(user *domain.User) (string, error)
	// Validate never panics; malformed input, a bad signature or, when
	// checkExpiry is set, an expired token all yield false.
	Validate(token string, checkExpiry bool) bool
	// ExtractUserID returns the embedded user id, ok=false when the payload
	// cannot be decoded.
	ExtractUserID(token string) (string, bool)
}

// PasswordHasher is a one-way password hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Matches(hash, password string) bool
}
