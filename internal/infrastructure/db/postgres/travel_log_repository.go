package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/delcom/travel-log/internal/core/domain"
)

type TravelLogRepository struct {
	db DBTX
}

func NewTravelLogRepository(db DBTX) *TravelLogRepository {
	return &TravelLogRepository{db: db}
}

const selectTravelLog = `SELECT id, user_id, title, destination, description, image_path, total_cost, rating, created_at, updated_at
	FROM travel_logs`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *TravelLogRepository) ListByUser(ctx context.Context, userID string) ([]*domain.TravelLog, error) {
	return r.query(ctx, selectTravelLog+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// Search matches keyword as a literal, case-insensitive substring of the title
// or the destination.
func (r *TravelLogRepository) Search(ctx context.Context, userID, keyword string) ([]*domain.TravelLog, error) {
	pattern := "%" + likeEscaper.Replace(keyword) + "%"
	return r.query(ctx, selectTravelLog+` WHERE user_id = $1 AND (title ILIKE $2 OR destination ILIKE $2)
		ORDER BY created_at DESC`, userID, pattern)
}

func (r *TravelLogRepository) query(ctx context.Context, query string, args ...any) ([]*domain.TravelLog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query travel logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*domain.TravelLog, 0)
	for rows.Next() {
		l, err := scanTravelLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan travel log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate travel logs: %w", err)
	}
	return logs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTravelLog(s rowScanner) (*domain.TravelLog, error) {
	l := &domain.TravelLog{}
	err := s.Scan(&l.ID, &l.UserID, &l.Title, &l.Destination, &l.Description,
		&l.ImagePath, &l.TotalCost, &l.Rating, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return l, nil
}

func (r *TravelLogRepository) FindByID(ctx context.Context, userID, id string) (*domain.TravelLog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, selectTravelLog+` WHERE id = $1 AND user_id = $2`, id, userID)
	l, err := scanTravelLog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTravelLogNotFound
		}
		return nil, fmt.Errorf("find travel log: %w", err)
	}
	return l, nil
}

// Save upserts the log by ID. Ownership never changes on update.
func (r *TravelLogRepository) Save(ctx context.Context, l *domain.TravelLog) (*domain.TravelLog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `INSERT INTO travel_logs (id, user_id, title, destination, description, image_path, total_cost, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			destination = EXCLUDED.destination,
			description = EXCLUDED.description,
			image_path = EXCLUDED.image_path,
			total_cost = EXCLUDED.total_cost,
			rating = EXCLUDED.rating,
			updated_at = EXCLUDED.updated_at
		WHERE travel_logs.user_id = EXCLUDED.user_id`

	_, err := r.db.ExecContext(ctx, query, l.ID, l.UserID, l.Title, l.Destination, l.Description,
		l.ImagePath, l.TotalCost, l.Rating, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("save travel log: %w", err)
	}
	return l, nil
}

func (r *TravelLogRepository) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM travel_logs WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("delete travel log: %w", err)
	}
	return nil
}
