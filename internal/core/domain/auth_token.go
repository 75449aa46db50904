package domain

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// AuthToken is a persisted session. A token is honoured only while its row
// exists, independent of the expiry embedded in the JWT itself.
type AuthToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAuthToken returns a session row for userID. IDs are ULIDs so rows sort by
// issue time.
func NewAuthToken(userID, token string, now time.Time) *AuthToken {
	now = now.UTC()
	return &AuthToken{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		UserID:    userID,
		Token:     token,
		CreatedAt: now,
	}
}
