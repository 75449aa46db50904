// Package security implements the token codec and password hashing used by the
// auth flow.
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/delcom/travel-log/internal/core/domain"
)

const defaultTokenTTL = 24 * time.Hour

// Claims embeds the user id next to the registered claims.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// JWTCodec issues and verifies HS256 session tokens.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewJWTCodec returns a codec signing with secret. A non-positive ttl falls back
// to 24h.
func NewJWTCodec(secret string, ttl time.Duration, issuer string) *JWTCodec {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &JWTCodec{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}
}

// Generate signs a token for user valid for the configured TTL.
func (c *JWTCodec) Generate(user *domain.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("jwt: user id is required")
	}

	now := c.now()
	claims := Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Validate verifies the signature and, when checkExpiry is set, the expiry.
func (c *JWTCodec) Validate(token string, checkExpiry bool) bool {
	_, err := c.parse(token, checkExpiry)
	return err == nil
}

// ExtractUserID returns the uid claim of a correctly signed token, ignoring
// expiry. The claim must be a UUID.
func (c *JWTCodec) ExtractUserID(token string) (string, bool) {
	claims, err := c.parse(token, false)
	if err != nil {
		return "", false
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return "", false
	}
	return claims.UserID, true
}

func (c *JWTCodec) parse(token string, checkExpiry bool) (*Claims, error) {
	if token == "" {
		return nil, jwt.ErrTokenMalformed
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	}
	if checkExpiry {
		opts = append(opts, jwt.WithExpirationRequired())
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
