package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/delcom/travel-log/internal/core/domain"
)

const collectionTokens = "auth_tokens"

// TokenRepository stores one document per issued session.
type TokenRepository struct {
	col *mongo.Collection
	ttl time.Duration
}

func NewTokenRepository(db *mongo.Database, ttl time.Duration) *TokenRepository {
	return &TokenRepository{col: db.Collection(collectionTokens), ttl: ttl}
}

type mongoToken struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Token     string    `bson:"token"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *TokenRepository) FindUserToken(ctx context.Context, userID, token string) (*domain.AuthToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mt mongoToken
	err := r.col.FindOne(ctx, bson.M{"user_id": userID, "token": token}).Decode(&mt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return &domain.AuthToken{
		ID:        mt.ID,
		UserID:    mt.UserID,
		Token:     mt.Token,
		CreatedAt: mt.CreatedAt.UTC(),
	}, nil
}

func (r *TokenRepository) Save(ctx context.Context, t *domain.AuthToken) (*domain.AuthToken, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoToken{ID: t.ID, UserID: t.UserID, Token: t.Token, CreatedAt: t.CreatedAt}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert token: %w", err)
	}
	return t, nil
}

func (r *TokenRepository) Delete(ctx context.Context, userID, token string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"user_id": userID, "token": token}); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (r *TokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("delete tokens: %w", err)
	}
	return nil
}

// EnsureIndexes creates the lookup index and, when a TTL is configured, lets
// the server expire sessions whose JWT can no longer validate.
func (r *TokenRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_user_token"),
		},
	}
	if r.ttl > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(r.ttl.Seconds())).SetName("ttl_created_at"),
		})
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
