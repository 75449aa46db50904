package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/delcom/travel-log/internal/core/domain"
)

const collectionTravelLogs = "travel_logs"

type TravelLogRepository struct {
	col *mongo.Collection
}

func NewTravelLogRepository(db *mongo.Database) *TravelLogRepository {
	return &TravelLogRepository{col: db.Collection(collectionTravelLogs)}
}

func (r *TravelLogRepository) ListByUser(ctx context.Context, userID string) ([]*domain.TravelLog, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

// Search matches keyword as a literal, case-insensitive substring of the title
// or the destination.
func (r *TravelLogRepository) Search(ctx context.Context, userID, keyword string) ([]*domain.TravelLog, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}
	return r.find(ctx, bson.M{
		"user_id": userID,
		"$or": bson.A{
			bson.M{"title": pattern},
			bson.M{"destination": pattern},
		},
	})
}

func (r *TravelLogRepository) find(ctx context.Context, filter bson.M) ([]*domain.TravelLog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find travel logs: %w", err)
	}
	defer cur.Close(ctx)

	logs := make([]*domain.TravelLog, 0)
	if err := cur.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("decode travel logs: %w", err)
	}
	for _, l := range logs {
		l.CreatedAt = l.CreatedAt.UTC()
		l.UpdatedAt = l.UpdatedAt.UTC()
	}
	return logs, nil
}

func (r *TravelLogRepository) FindByID(ctx context.Context, userID, id string) (*domain.TravelLog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var l domain.TravelLog
	err := r.col.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&l)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTravelLogNotFound
		}
		return nil, fmt.Errorf("find travel log: %w", err)
	}
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return &l, nil
}

// Save upserts the log by ID.
func (r *TravelLogRepository) Save(ctx context.Context, l *domain.TravelLog) (*domain.TravelLog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": l.ID, "user_id": l.UserID}, l, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("save travel log: %w", err)
	}
	return l, nil
}

func (r *TravelLogRepository) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID}); err != nil {
		return fmt.Errorf("delete travel log: %w", err)
	}
	return nil
}

// EnsureIndexes creates the per-user listing index.
func (r *TravelLogRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("user_created_at"),
	})
	return err
}
