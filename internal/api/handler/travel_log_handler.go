package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/delcom/travel-log/internal/api/metrics"
	"github.com/delcom/travel-log/internal/core/domain"
	"github.com/delcom/travel-log/internal/core/ports"
)

const imageField = "image"

// TravelLogHandler serves the authenticated user's journal.
type TravelLogHandler struct {
	logs ports.TravelLogService
}

func NewTravelLogHandler(logs ports.TravelLogService) *TravelLogHandler {
	return &TravelLogHandler{logs: logs}
}

// createTravelLogForm is the multipart body of POST /api/travel-logs. The photo
// travels in the "image" part.
type createTravelLogForm struct {
	Title       string  `form:"title" validate:"required,max=200"`
	Destination string  `form:"destination" validate:"required,max=200"`
	Description string  `form:"description"`
	TotalCost   float64 `form:"totalCost" validate:"gte=0"`
	Rating      int     `form:"rating" validate:"gte=0,lte=5"`
}

type travelLogsPayload struct {
	TravelLogs []*domain.TravelLog `json:"travel_logs"`
}

type travelLogPayload struct {
	TravelLog *domain.TravelLog `json:"travel_log"`
}

// List returns the user's logs, newest first.
//
// @Summary      List travel logs
// @Tags         travel-logs
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Keyword matched against title or destination"
// @Success      200     {object}  Envelope{data=travelLogsPayload}
// @Failure      401     {object}  Envelope
// @Router       /api/travel-logs [get]
func (h *TravelLogHandler) List(c echo.Context) error {
	logs, err := h.logs.List(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return err
	}
	return ok(c, "travel logs loaded", travelLogsPayload{TravelLogs: logs})
}

// Summary returns the grand total and the cost-per-destination chart.
//
// @Summary      Cost summary
// @Tags         travel-logs
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Keyword applied to the grand total"
// @Success      200     {object}  Envelope{data=domain.CostSummary}
// @Failure      401     {object}  Envelope
// @Router       /api/travel-logs/summary [get]
func (h *TravelLogHandler) Summary(c echo.Context) error {
	summary, err := h.logs.Summary(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return err
	}
	return ok(c, "summary loaded", summary)
}

// Get returns a single log.
//
// @Summary      Get a travel log
// @Tags         travel-logs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Travel log ID"
// @Success      200  {object}  Envelope{data=travelLogPayload}
// @Failure      401  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /api/travel-logs/{id} [get]
func (h *TravelLogHandler) Get(c echo.Context) error {
	l, err := h.logs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, "travel log loaded", travelLogPayload{TravelLog: l})
}

// Create stores a new log with an optional photo.
//
// @Summary      Create a travel log
// @Tags         travel-logs
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        title        formData  string  true   "Title"
// @Param        destination  formData  string  true   "Destination"
// @Param        description  formData  string  false  "Description"
// @Param        totalCost    formData  number  false  "Total cost"
// @Param        rating       formData  int     false  "Rating 1-5"
// @Param        image        formData  file    false  "Cover photo"
// @Success      200          {object}  Envelope{data=travelLogPayload}
// @Failure      400          {object}  Envelope
// @Failure      401          {object}  Envelope
// @Router       /api/travel-logs [post]
func (h *TravelLogHandler) Create(c echo.Context) error {
	var form createTravelLogForm
	if err := c.Bind(&form); err != nil {
		return bindErr(err)
	}
	if err := c.Validate(&form); err != nil {
		return err
	}

	var upload *ports.ImageUpload
	fh, err := c.FormFile(imageField)
	switch {
	case err == nil:
		file, err := fh.Open()
		if err != nil {
			return domain.Invalid("unable to read image")
		}
		defer file.Close()
		upload = imageUpload(fh, file)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// no photo
	default:
		return bindErr(err)
	}

	l, err := h.logs.Create(c.Request().Context(), ports.CreateTravelLogInput{
		Title:       form.Title,
		Destination: form.Destination,
		Description: form.Description,
		TotalCost:   form.TotalCost,
		Rating:      form.Rating,
	}, upload)
	if err != nil {
		return err
	}

	metrics.TravelLogsCreatedTotal.Inc()
	return ok(c, "travel log created", travelLogPayload{TravelLog: l})
}

// ReplaceImage swaps the log's photo.
//
// @Summary      Replace a travel log photo
// @Tags         travel-logs
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true  "Travel log ID"
// @Param        image  formData  file    true  "Cover photo"
// @Success      200    {object}  Envelope{data=travelLogPayload}
// @Failure      400    {object}  Envelope
// @Failure      401    {object}  Envelope
// @Failure      404    {object}  Envelope
// @Router       /api/travel-logs/{id}/image [put]
func (h *TravelLogHandler) ReplaceImage(c echo.Context) error {
	fh, err := c.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return domain.Invalid("image is required")
		}
		return bindErr(err)
	}
	file, err := fh.Open()
	if err != nil {
		return domain.Invalid("unable to read image")
	}
	defer file.Close()

	l, err := h.logs.ReplaceImage(c.Request().Context(), c.Param("id"), *imageUpload(fh, file))
	if err != nil {
		return err
	}
	return ok(c, "image updated", travelLogPayload{TravelLog: l})
}

// Image streams the log's photo.
//
// @Summary      Download a travel log photo
// @Tags         travel-logs
// @Produce      image/jpeg,image/png,image/webp
// @Security     BearerAuth
// @Param        id   path  string  true  "Travel log ID"
// @Success      200
// @Failure      401  {object}  Envelope
// @Failure      404  {object}  Envelope
// @Router       /api/travel-logs/{id}/image [get]
func (h *TravelLogHandler) Image(c echo.Context) error {
	img, err := h.logs.Image(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	defer img.Body.Close()

	c.Response().Header().Set("Cache-Control", "private, max-age=300")
	return c.Stream(http.StatusOK, img.ContentType, img.Body)
}

// Delete removes a log. Deleting a missing log succeeds.
//
// @Summary      Delete a travel log
// @Tags         travel-logs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Travel log ID"
// @Success      200  {object}  Envelope
// @Failure      401  {object}  Envelope
// @Router       /api/travel-logs/{id} [delete]
func (h *TravelLogHandler) Delete(c echo.Context) error {
	if err := h.logs.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	metrics.TravelLogsDeletedTotal.Inc()
	return ok(c, "travel log deleted", nil)
}

func imageUpload(fh *multipart.FileHeader, file multipart.File) *ports.ImageUpload {
	return &ports.ImageUpload{Name: fh.Filename, Size: fh.Size, Content: file}
}
