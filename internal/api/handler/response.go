package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/delcom/travel-log/internal/core/domain"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Envelope wraps every JSON response body.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// StatusFor returns the envelope status of an HTTP code.
func StatusFor(code int) string {
	switch {
	case code >= http.StatusInternalServerError:
		return StatusError
	case code >= http.StatusBadRequest:
		return StatusFail
	default:
		return StatusSuccess
	}
}

func ok(c echo.Context, message string, data any) error {
	return c.JSON(http.StatusOK, Envelope{Status: StatusSuccess, Message: message, Data: data})
}

// bindErr turns echo's bind failures into validation errors so they share the
// envelope and status of every other bad input.
func bindErr(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
		return err
	}
	return domain.Invalid("invalid request payload")
}

// resultLabel maps an error to a metric label value.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrUnauthorized):
		return "invalid_credentials"
	default:
		return "error"
	}
}
