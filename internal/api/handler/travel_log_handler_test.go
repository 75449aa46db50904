package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/delcom/travel-log/internal/core/domain"
	"github.com/delcom/travel-log/internal/core/ports"
)

type stubTravelLogService struct {
	listFn    func(ctx context.Context, keyword string) ([]*domain.TravelLog, error)
	getFn     func(ctx context.Context, id string) (*domain.TravelLog, error)
	createFn  func(ctx context.Context, in ports.CreateTravelLogInput, image *ports.ImageUpload) (*domain.TravelLog, error)
	replaceFn func(ctx context.Context, id string, image ports.ImageUpload) (*domain.TravelLog, error)
	deleteFn  func(ctx context.Context, id string) error
	imageFn   func(ctx context.Context, id string) (*ports.Image, error)
	summaryFn func(ctx context.Context, keyword string) (*domain.CostSummary, error)
}

func (s *stubTravelLogService) List(ctx context.Context, keyword string) ([]*domain.TravelLog, error) {
	return s.listFn(ctx, keyword)
}

func (s *stubTravelLogService) Get(ctx context.Context, id string) (*domain.TravelLog, error) {
	return s.getFn(ctx, id)
}

func (s *stubTravelLogService) Create(ctx context.Context, in ports.CreateTravelLogInput, image *ports.ImageUpload) (*domain.TravelLog, error) {
	return s.createFn(ctx, in, image)
}

func (s *stubTravelLogService) ReplaceImage(ctx context.Context, id string, image ports.ImageUpload) (*domain.TravelLog, error) {
	return s.replaceFn(ctx, id, image)
}

func (s *stubTravelLogService) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func (s *stubTravelLogService) Image(ctx context.Context, id string) (*ports.Image, error) {
	return s.imageFn(ctx, id)
}

func (s *stubTravelLogService) Summary(ctx context.Context, keyword string) (*domain.CostSummary, error) {
	return s.summaryFn(ctx, keyword)
}

// multipartRequest builds a multipart body from fields plus an optional file
// part named "image".
func multipartRequest(t *testing.T, method, path string, fields map[string]string, fileName string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileName != "" {
		part, err := w.CreateFormFile("image", fileName)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		_, _ = part.Write(content)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestTravelLogHandler_List(t *testing.T) {
	e := newEcho()
	handler := NewTravelLogHandler(&stubTravelLogService{
		listFn: func(ctx context.Context, keyword string) ([]*domain.TravelLog, error) {
			if keyword != "bali" {
				t.Fatalf("unexpected keyword %q", keyword)
			}
			return []*domain.TravelLog{{ID: "l1", Title: "Bali"}}, nil
		},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/travel-logs?search=bali", nil), rec)

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	_, data := decodeEnvelope(t, rec)
	logs, _ := data["travel_logs"].([]any)
	if len(logs) != 1 {
		t.Fatalf("expected one log, got %+v", data)
	}
}

func TestTravelLogHandler_Summary(t *testing.T) {
	e := newEcho()
	handler := NewTravelLogHandler(&stubTravelLogService{
		summaryFn: func(ctx context.Context, keyword string) (*domain.CostSummary, error) {
			return &domain.CostSummary{
				GrandTotal: 150,
				Count:      2,
				Chart:      domain.CostChart{Labels: []string{"Bali"}, Values: []float64{150}},
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/travel-logs/summary", nil), rec)

	if err := handler.Summary(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	_, data := decodeEnvelope(t, rec)
	if data["grand_total"] != float64(150) {
		t.Fatalf("unexpected summary: %+v", data)
	}
}

func TestTravelLogHandler_Get_NotFound(t *testing.T) {
	e := newEcho()
	handler := NewTravelLogHandler(&stubTravelLogService{
		getFn: func(ctx context.Context, id string) (*domain.TravelLog, error) {
			if id != "missing" {
				t.Fatalf("unexpected id %q", id)
			}
			return nil, domain.ErrTravelLogNotFound
		},
	})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/travel-logs/missing", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if err := handler.Get(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTravelLogHandler_Create_WithImage(t *testing.T) {
	e := newEcho()
	handler := NewTravelLogHandler(&stubTravelLogService{
		createFn: func(ctx context.Context, in ports.CreateTravelLogInput, image *ports.ImageUpload) (*domain.TravelLog, error) {
			if in.Title != "Bali" || in.Destination != "Denpasar" || in.TotalCost != 1500.5 || in.Rating != 4 {
				t.Fatalf("unexpected input: %+v", in)
			}
			if image == nil || image.Name != "beach.png" {
				t.Fatalf("expected image upload, got %+v", image)
			}
			body, _ := io.ReadAll(image.Content)
			if string(body) != "fake-png" {
				t.Fatalf("unexpected image content %q", body)
			}
			return &domain.TravelLog{ID: "l1", Title: in.Title, ImagePath: "cover_l1.png"}, nil
		},
	})

	req := multipartRequest(t, http.MethodPost, "/api/travel-logs", map[string]string{
		"title":       "Bali",
		"destination": "Denpasar",
		"totalCost":   "1500.5",
		"rating":      "4",
	}, "beach.png", []byte("fake-png"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	_, data := decodeEnvelope(t, rec)
	l, _ := data["travel_log"].(map[string]any)
	if l["image_path"] != "cover_l1.png" {
		t.Fatalf("unexpected payload: %+v", data)
	}
}

func TestTravelLogHandler_Create_WithoutImage(t *testing.T) {
	e := newEcho()
	handler := NewTravelLogHandler(&stubTravelLogService{
		createFn: func(ctx context.Context, in ports.CreateTravelLogInput, image *ports.ImageUpload) (*domain.TravelLog, error) {
			if image != nil {
				t.Fatalf("expected no image")
			}
			if in.TotalCost != 0 || in.Rating != 0 {
				t.Fatalf("optional fields must default to zero: %+v", in)
			}
			return &domain.TravelLog{ID: "l1", ImagePath: domain.DefaultImage}, nil
		},
	})

	req := multipartRequest(t, http.MethodPost, "/api/travel-logs", map[string]string{
		"title":       "Bali",
		"destination": "Denpasar",
	}, "", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestTravelLogHandler_Create_Invalid(t *testing.T) {
	e := newEcho()
	handler := NewTravelLogHandler(&stubTravelLogService{
		createFn: func(ctx context.Context, in ports.CreateTravelLogInput, image *ports.ImageUpload) (*domain.TravelLog, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	})

	cases := []map[string]string{
		{"destination": "Denpasar"},
		{"title": "Bali", "destination": "Denpasar", "rating": "9"},
		{"title": "Bali", "destination": "Denpasar", "totalCost": "-5"},
		{"title": "Bali", "destination": "Denpasar", "totalCost": "lots"},
	}
	for _, fields := range cases {
		c := e.NewContext(multipartRequest(t, http.MethodPost, "/api/travel-logs", fields, "", nil), httptest.NewRecorder())
		if err := handler.Create(c); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%v: expected validation error, got %v", fields, err)
		}
	}
}

func TestTravelLogHandler_ReplaceImage_RequiresFile(t *testing.T) {
	e := newEcho()
	handler := NewTravelLogHandler(&stubTravelLogService{
		replaceFn: func(ctx context.Context, id string, image ports.ImageUpload) (*domain.TravelLog, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	})

	c := e.NewContext(multipartRequest(t, http.MethodPut, "/api/travel-logs/l1/image", nil, "", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("l1")

	if err := handler.ReplaceImage(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTravelLogHandler_Image(t *testing.T) {
	e := newEcho()
	handler := NewTravelLogHandler(&stubTravelLogService{
		imageFn: func(ctx context.Context, id string) (*ports.Image, error) {
			return &ports.Image{
				Name:        "cover_l1.png",
				ContentType: "image/png",
				Body:        io.NopCloser(strings.NewReader("png-bytes")),
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/travel-logs/l1/image", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("l1")

	if err := handler.Image(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Header().Get(echo.HeaderContentType) != "image/png" || rec.Body.String() != "png-bytes" {
		t.Fatalf("unexpected response %q %q", rec.Header().Get(echo.HeaderContentType), rec.Body.String())
	}
}

func TestTravelLogHandler_Delete(t *testing.T) {
	e := newEcho()
	var deleted string
	handler := NewTravelLogHandler(&stubTravelLogService{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/travel-logs/l1", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("l1")

	if err := handler.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if deleted != "l1" || rec.Code != http.StatusOK {
		t.Fatalf("expected delete of l1, got %q (%d)", deleted, rec.Code)
	}
}
