package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/delcom/travel-log/internal/api/metrics"
	"github.com/delcom/travel-log/internal/core/authctx"
	"github.com/delcom/travel-log/internal/core/domain"
	"github.com/delcom/travel-log/internal/core/ports"
)

const bearerPrefix = "Bearer "

// PublicPrefixes are served without authentication. An entry ending in "/"
// matches any path below it; other entries match the path itself or any
// sub-path, so "/health" covers "/health/ready" but not "/healthz".
var PublicPrefixes = []string{
	"/api/auth/",
	"/api/public/",
	"/error",
	"/.well-known/",
	"/health",
	"/metrics",
}

// IsPublic reports whether path is on the public allow-list.
func IsPublic(path string) bool {
	for _, p := range PublicPrefixes {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) {
				return true
			}
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Auth returns the gate every protected request passes. It verifies the bearer
// token, checks that its session row still exists and loads the user onto the
// request context. Denials are returned as errors for the HTTP error handler.
func Auth(codec ports.TokenCodec, tokens ports.TokenRepository, users ports.UserRepository, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if IsPublic(req.URL.Path) {
				metrics.AuthGateDecisionsTotal.WithLabelValues("allow", "public").Inc()
				return next(c)
			}

			deny := func(reason string, err error) error {
				metrics.AuthGateDecisionsTotal.WithLabelValues("deny", reason).Inc()
				log.Debug().
					Str("reason", reason).
					Str("method", req.Method).
					Str("path", req.URL.Path).
					Msg("request denied")
				return err
			}

			token, ok := strings.CutPrefix(req.Header.Get(echo.HeaderAuthorization), bearerPrefix)
			if !ok || token == "" {
				return deny("missing_token", domain.ErrTokenMissing)
			}
			if !codec.Validate(token, true) {
				return deny("invalid_token", domain.ErrTokenInvalid)
			}
			userID, ok := codec.ExtractUserID(token)
			if !ok {
				return deny("bad_payload", domain.ErrTokenPayload)
			}

			ctx := req.Context()
			if _, err := tokens.FindUserToken(ctx, userID, token); err != nil {
				if errors.Is(err, domain.ErrSessionNotFound) {
					return deny("no_session", domain.ErrSessionExpired)
				}
				return deny("store_error", fmt.Errorf("auth: lookup session: %w", err))
			}

			user, err := users.FindByID(ctx, userID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return deny("user_gone", domain.ErrUserGone)
				}
				return deny("store_error", fmt.Errorf("auth: lookup user: %w", err))
			}

			metrics.AuthGateDecisionsTotal.WithLabelValues("allow", "ok").Inc()
			c.SetRequest(req.WithContext(authctx.WithSession(ctx, authctx.Session{User: user, Token: token})))
			return next(c)
		}
	}
}
