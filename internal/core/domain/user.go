package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User models a registered account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser builds a user with a fresh ID and both timestamps set to now.
func NewUser(name, email, passwordHash string, now time.Time) *User {
	now = now.UTC()
	return &User{
		ID:           uuid.NewString(),
		Name:         NormalizeName(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Touch stamps UpdatedAt. Call it after every mutation that gets persisted.
func (u *User) Touch(now time.Time) {
	u.UpdatedAt = now.UTC()
}

// NormalizeEmail trims and lower-cases an address so that lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName trims surrounding whitespace.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// Blank reports whether s is empty after trimming whitespace.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
