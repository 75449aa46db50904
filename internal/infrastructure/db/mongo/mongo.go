package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultTimeout = 10 * time.Second

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("travel-log").
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// Ping returns a readiness check for db.
func Ping(db *mongo.Database) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return db.Client().Ping(ctx, readpref.Primary())
	}
}

// Repositories bundles the Mongo-backed stores sharing one database.
type Repositories struct {
	Users      *UserRepository
	Tokens     *TokenRepository
	TravelLogs *TravelLogRepository
}

// NewRepositories builds every store on db. Sessions older than sessionTTL
// are expired by the server; zero keeps them until deleted.
func NewRepositories(db *mongo.Database, sessionTTL time.Duration) *Repositories {
	return &Repositories{
		Users:      NewUserRepository(db),
		Tokens:     NewTokenRepository(db, sessionTTL),
		TravelLogs: NewTravelLogRepository(db),
	}
}

// EnsureIndexes creates the indexes of every collection.
func (r *Repositories) EnsureIndexes(ctx context.Context) error {
	if err := r.Users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if err := r.Tokens.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("auth_tokens indexes: %w", err)
	}
	if err := r.TravelLogs.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("travel_logs indexes: %w", err)
	}
	return nil
}
