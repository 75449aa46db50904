// Package authctx carries the authenticated session of a single request on its
// context.Context. There is no package-level state: a session is visible only to
// the request whose context the auth middleware derived.
package authctx

import (
	"context"

	"github.com/delcom/travel-log/internal/core/domain"
)

type ctxKey struct{}

// Session is the authenticated principal of a request.
type Session struct {
	User  *domain.User
	Token string
}

// WithSession returns a child context holding s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by WithSession. ok is false when the
// request is unauthenticated.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	if !ok || s.User == nil {
		return Session{}, false
	}
	return s, true
}

// User returns the authenticated user, or nil.
func User(ctx context.Context) *domain.User {
	s, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return s.User
}

// IsAuthenticated reports whether ctx carries a session.
func IsAuthenticated(ctx context.Context) bool {
	_, ok := FromContext(ctx)
	return ok
}
