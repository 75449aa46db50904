package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/delcom/travel-log/internal/core/authctx"
	"github.com/delcom/travel-log/internal/core/domain"
	"github.com/delcom/travel-log/internal/core/ports"
)

// sniffLen is how much of an upload is read to detect its content type.
const sniffLen = 3072

type TravelLogService struct {
	logs    ports.TravelLogRepository
	files   ports.FileStorage
	janitor ports.FileJanitor
	log     zerolog.Logger
	now     func() time.Time
}

func NewTravelLogService(
	logs ports.TravelLogRepository,
	files ports.FileStorage,
	janitor ports.FileJanitor,
	log zerolog.Logger,
) *TravelLogService {
	return &TravelLogService{
		logs:    logs,
		files:   files,
		janitor: janitor,
		log:     log,
		now:     time.Now,
	}
}

var _ ports.TravelLogService = (*TravelLogService)(nil)

func (s *TravelLogService) owner(ctx context.Context) (string, error) {
	user := authctx.User(ctx)
	if user == nil {
		return "", domain.ErrNotAuthenticated
	}
	return user.ID, nil
}

// List returns the user's logs, filtered by keyword when it is not blank.
func (s *TravelLogService) List(ctx context.Context, keyword string) ([]*domain.TravelLog, error) {
	userID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, userID, keyword)
}

func (s *TravelLogService) list(ctx context.Context, userID, keyword string) ([]*domain.TravelLog, error) {
	var (
		logs []*domain.TravelLog
		err  error
	)
	if keyword = strings.TrimSpace(keyword); keyword == "" {
		logs, err = s.logs.ListByUser(ctx, userID)
	} else {
		logs, err = s.logs.Search(ctx, userID, keyword)
	}
	if err != nil {
		return nil, fmt.Errorf("list travel logs: %w", err)
	}
	return logs, nil
}

func (s *TravelLogService) Get(ctx context.Context, id string) (*domain.TravelLog, error) {
	userID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, userID, id)
}

func (s *TravelLogService) find(ctx context.Context, userID, id string) (*domain.TravelLog, error) {
	if domain.Blank(id) {
		return nil, domain.ErrTravelLogNotFound
	}
	l, err := s.logs.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrTravelLogNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find travel log: %w", err)
	}
	return l, nil
}

// Create stores a new log. A nil or empty image leaves the default photo in
// place.
func (s *TravelLogService) Create(ctx context.Context, in ports.CreateTravelLogInput, image *ports.ImageUpload) (*domain.TravelLog, error) {
	userID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	l := domain.NewTravelLog(userID, in.Title, in.Destination, in.Description, in.TotalCost, in.Rating, s.now())

	if image != nil && image.Content != nil {
		name, err := s.storeImage(ctx, l.ID, *image)
		switch {
		case err == nil:
			l.ImagePath = name
		case errors.Is(err, errEmptyUpload):
			// keep the default image
		default:
			return nil, err
		}
	}

	saved, err := s.logs.Save(ctx, l)
	if err != nil {
		if l.HasImage() {
			s.janitor.Enqueue(l.ImagePath)
		}
		return nil, fmt.Errorf("create travel log: %w", err)
	}

	s.log.Info().Str("user_id", userID).Str("travel_log_id", saved.ID).Bool("image", saved.HasImage()).Msg("travel log created")
	return saved, nil
}

// ReplaceImage stores a new photo for the log and schedules the previous file
// for removal.
func (s *TravelLogService) ReplaceImage(ctx context.Context, id string, image ports.ImageUpload) (*domain.TravelLog, error) {
	userID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	l, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if image.Content == nil {
		return nil, domain.Invalid("image is required")
	}

	name, err := s.storeImage(ctx, l.ID, image)
	if err != nil {
		if errors.Is(err, errEmptyUpload) {
			return nil, domain.Invalid("image is required")
		}
		return nil, err
	}

	previous := l.ImagePath
	l.ImagePath = name
	l.Touch(s.now())

	saved, err := s.logs.Save(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("replace image: %w", err)
	}
	if previous != name && previous != "" && previous != domain.DefaultImage {
		s.janitor.Enqueue(previous)
	}
	return saved, nil
}

// Delete removes the log when it exists. A missing log is not an error.
func (s *TravelLogService) Delete(ctx context.Context, id string) error {
	userID, err := s.owner(ctx)
	if err != nil {
		return err
	}
	l, err := s.find(ctx, userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrTravelLogNotFound) {
			return nil
		}
		return err
	}

	if err := s.logs.Delete(ctx, userID, l.ID); err != nil {
		return fmt.Errorf("delete travel log: %w", err)
	}
	if l.HasImage() {
		s.janitor.Enqueue(l.ImagePath)
	}

	s.log.Info().Str("user_id", userID).Str("travel_log_id", l.ID).Msg("travel log deleted")
	return nil
}

// Image opens the log's stored photo. The caller must close Body.
func (s *TravelLogService) Image(ctx context.Context, id string) (*ports.Image, error) {
	userID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	l, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !l.HasImage() {
		return nil, domain.ErrImageNotFound
	}

	body, err := s.files.Open(ctx, l.ImagePath)
	if err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("open image: %w", err)
	}

	head, r, err := peek(body)
	if err != nil {
		_ = body.Close()
		return nil, fmt.Errorf("open image: %w", err)
	}
	return &ports.Image{
		Name:        l.ImagePath,
		ContentType: mimetype.Detect(head).String(),
		Body:        readCloser{Reader: r, Closer: body},
	}, nil
}

// Summary totals the listed logs and charts spending per destination over all
// of the user's logs.
func (s *TravelLogService) Summary(ctx context.Context, keyword string) (*domain.CostSummary, error) {
	userID, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	listed, err := s.list(ctx, userID, keyword)
	if err != nil {
		return nil, err
	}

	all := listed
	if strings.TrimSpace(keyword) != "" {
		if all, err = s.list(ctx, userID, ""); err != nil {
			return nil, err
		}
	}

	return &domain.CostSummary{
		GrandTotal: domain.GrandTotal(listed),
		Count:      len(listed),
		Chart:      domain.ChartByDestination(all),
	}, nil
}

var errEmptyUpload = errors.New("empty upload")

// storeImage sniffs the upload and writes it under the log's cover name.
func (s *TravelLogService) storeImage(ctx context.Context, logID string, image ports.ImageUpload) (string, error) {
	head, r, err := peek(image.Content)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(head) == 0 {
		return "", errEmptyUpload
	}

	mt := mimetype.Detect(head)
	if !strings.HasPrefix(mt.String(), "image/") {
		s.log.Debug().Str("content_type", mt.String()).Msg("rejected non-image upload")
		return "", domain.ErrNotAnImage
	}

	name := domain.CoverFileName(logID, image.Name)
	if err := s.files.Store(ctx, name, mt.String(), r); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return name, nil
}

// peek reads up to sniffLen bytes and returns them along with a reader that
// replays them before the rest of r.
func peek(r io.Reader) ([]byte, io.Reader, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, nil, err
	}
	head := buf[:n]
	return head, io.MultiReader(bytes.NewReader(head), r), nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

func validateInput(in ports.CreateTravelLogInput) error {
	switch {
	case domain.Blank(in.Title):
		return domain.Invalid("title is required")
	case domain.Blank(in.Destination):
		return domain.Invalid("destination is required")
	case in.TotalCost < 0 || math.IsNaN(in.TotalCost) || math.IsInf(in.TotalCost, 0):
		return domain.Invalid("totalCost must be a non-negative number")
	case in.Rating != 0 && (in.Rating < domain.MinRating || in.Rating > domain.MaxRating):
		return domain.Invalid("rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	}
	return nil
}
