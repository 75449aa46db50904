package ports

import (
	"context"
	"io"

	"github.com/delcom/travel-log/internal/core/domain"
)

// CreateTravelLogInput carries the fields of a new journal entry.
type CreateTravelLogInput struct {
	Title       string
	Destination string
	Description string
	TotalCost   float64
	Rating      int
}

// ImageUpload is an uploaded photo. Name is the client's file name and is only
// used for its extension.
type ImageUpload struct {
	Name    string
	Size    int64
	Content io.Reader
}

// Image is an opened stored photo.
type Image struct {
	Name        string
	ContentType string
	Body        io.ReadCloser
}

// TravelLogService manages the authenticated user's journal.
type TravelLogService interface {
	List(ctx context.Context, keyword string) ([]*domain.TravelLog, error)
	Get(ctx context.Context, id string) (*domain.TravelLog, error)
	Create(ctx context.Context, in CreateTravelLogInput, image *ImageUpload) (*domain.TravelLog, error)
	ReplaceImage(ctx context.Context, id string, image ImageUpload) (*domain.TravelLog, error)
	Delete(ctx context.Context, id string) error
	Image(ctx context.Context, id string) (*Image, error)
	Summary(ctx context.Context, keyword string) (*domain.CostSummary, error)
}
