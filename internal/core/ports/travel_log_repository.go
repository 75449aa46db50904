package ports

import (
	"context"
	"io"

	"github.com/delcom/travel-log/internal/core/domain"
)

// TravelLogRepository defines persistence operations for journal entries.
// Every query is scoped by userID.
type TravelLogRepository interface {
	// ListByUser returns the user's logs, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.TravelLog, error)
	// Search matches keyword case-insensitively against title or destination,
	// newest first.
	Search(ctx context.Context, userID, keyword string) ([]*domain.TravelLog, error)
	// FindByID returns domain.ErrTravelLogNotFound when the log is missing or
	// owned by another user.
	FindByID(ctx context.Context, userID, id string) (*domain.TravelLog, error)
	Save(ctx context.Context, log *domain.TravelLog) (*domain.TravelLog, error)
	Delete(ctx context.Context, userID, id string) error
}

// FileStorage persists uploaded images under flat names.
type FileStorage interface {
	Store(ctx context.Context, name, contentType string, r io.Reader) error
	// Open returns domain.ErrFileNotFound for a missing file.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Exists(ctx context.Context, name string) (bool, error)
	// Delete reports whether a file was removed.
	Delete(ctx context.Context, name string) (bool, error)
}

// FileJanitor removes files asynchronously.
type FileJanitor interface {
	Enqueue(name string)
}
