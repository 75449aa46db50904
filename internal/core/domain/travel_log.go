package domain

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultImage is recorded for logs created without a photo.
const DefaultImage = "default.jpg"

const (
	MinRating = 1
	MaxRating = 5
)

// TravelLog is a single journal entry owned by one user.
type TravelLog struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"user_id" bson:"user_id"`
	Title       string    `json:"title" bson:"title"`
	Destination string    `json:"destination" bson:"destination"`
	Description string    `json:"description" bson:"description"`
	ImagePath   string    `json:"image_path" bson:"image_path"`
	TotalCost   float64   `json:"total_cost" bson:"total_cost"`
	Rating      int       `json:"rating,omitempty" bson:"rating"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// NewTravelLog builds a log with a fresh ID, the default image and both
// timestamps set to now.
func NewTravelLog(userID, title, destination, description string, totalCost float64, rating int, now time.Time) *TravelLog {
	now = now.UTC()
	return &TravelLog{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Destination: strings.TrimSpace(destination),
		Description: strings.TrimSpace(description),
		ImagePath:   DefaultImage,
		TotalCost:   totalCost,
		Rating:      rating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Touch stamps UpdatedAt.
func (l *TravelLog) Touch(now time.Time) {
	l.UpdatedAt = now.UTC()
}

// HasImage reports whether a real photo is stored for the log.
func (l *TravelLog) HasImage() bool {
	return l.ImagePath != "" && l.ImagePath != DefaultImage
}

// CoverFileName returns the storage name for a log's photo: "cover_<id>" plus
// the lower-cased extension of the uploaded file, if it has one.
func CoverFileName(logID, originalName string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(originalName)))
	if ext == "." {
		ext = ""
	}
	return "cover_" + logID + ext
}

// CostChart is the total cost per destination, labels sorted alphabetically.
type CostChart struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// CostSummary aggregates spending over a user's journal.
type CostSummary struct {
	GrandTotal float64   `json:"grand_total"`
	Count      int       `json:"count"`
	Chart      CostChart `json:"chart"`
}

// GrandTotal sums TotalCost over logs.
func GrandTotal(logs []*TravelLog) float64 {
	var total float64
	for _, l := range logs {
		total += l.TotalCost
	}
	return total
}

// ChartByDestination groups TotalCost by destination.
func ChartByDestination(logs []*TravelLog) CostChart {
	sums := make(map[string]float64)
	for _, l := range logs {
		sums[l.Destination] += l.TotalCost
	}

	labels := make([]string, 0, len(sums))
	for dest := range sums {
		labels = append(labels, dest)
	}
	sort.Strings(labels)

	values := make([]float64, len(labels))
	for i, dest := range labels {
		values[i] = sums[dest]
	}
	return CostChart{Labels: labels, Values: values}
}
