package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/delcom/travel-log/internal/core/domain"
)

// TokenRepository keeps sessions in Redis.
// Key format: auth_token:<user_id>:<sha256(token)> holding the JSON row, plus
// an index set auth_tokens:<user_id> listing the user's session keys.
// Both expire after ttl, which should match the JWT lifetime.
type TokenRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenRepository creates a TokenRepository. A ttl <= 0 keeps sessions
// until they are deleted.
func NewTokenRepository(client *redis.Client, ttl time.Duration) *TokenRepository {
	if ttl < 0 {
		ttl = 0
	}
	return &TokenRepository{client: client, ttl: ttl}
}

func (r *TokenRepository) FindUserToken(ctx context.Context, userID, token string) (*domain.AuthToken, error) {
	raw, err := r.client.Get(ctx, tokenKey(userID, token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get token: %w", err)
	}

	var t domain.AuthToken
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	// Keys are hashes; the stored token is authoritative.
	if t.UserID != userID || t.Token != token {
		return nil, domain.ErrSessionNotFound
	}
	return &t, nil
}

func (r *TokenRepository) Save(ctx context.Context, t *domain.AuthToken) (*domain.AuthToken, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode token: %w", err)
	}

	key := tokenKey(t.UserID, t.Token)
	index := indexKey(t.UserID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, raw, r.ttl)
		pipe.SAdd(ctx, index, key)
		if r.ttl > 0 {
			pipe.Expire(ctx, index, r.ttl)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return t, nil
}

func (r *TokenRepository) Delete(ctx context.Context, userID, token string) error {
	key := tokenKey(userID, token)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, indexKey(userID), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (r *TokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	index := indexKey(userID)
	keys, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("list tokens: %w", err)
	}

	if err := r.client.Del(ctx, append(keys, index)...).Err(); err != nil {
		return fmt.Errorf("delete tokens: %w", err)
	}
	return nil
}

func tokenKey(userID, token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("auth_token:%s:%s", userID, hex.EncodeToString(sum[:]))
}

func indexKey(userID string) string {
	return "auth_tokens:" + userID
}
