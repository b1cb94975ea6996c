package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
	"github.com/go-chi/chi/v5"
)

// HolidayServiceInterface defines the market holiday operations
type HolidayServiceInterface interface {
	ListByYear(ctx context.Context, year int) ([]models.HolidayResponse, error)
	SaveAll(ctx context.Context, actorID string, rows []models.HolidayInput) (int, error)
	Create(ctx context.Context, actorID string, in models.HolidayInput) (*models.MarketHoliday, error)
	Delete(ctx context.Context, actorID string, id int) error
	Today() time.Time
}

// HolidayHandler handles the market holidays tab
type HolidayHandler struct {
	service HolidayServiceInterface
	logger  *slog.Logger
}

func NewHolidayHandler(service HolidayServiceInterface, logger *slog.Logger) *HolidayHandler {
	return &HolidayHandler{service: service, logger: logger}
}

// HolidayRequest is one holiday row. close_time is "HH:MM" or empty.
type HolidayRequest struct {
	ID        int    `json:"id"`
	Name      string `json:"name" validate:"required,max=255"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	CloseTime string `json:"close_time" validate:"omitempty,datetime=15:04"`
}

func (req HolidayRequest) input() models.HolidayInput {
	return models.HolidayInput{
		ID:        req.ID,
		Name:      req.Name,
		Date:      req.Date,
		CloseTime: req.CloseTime,
	}
}

func (h *HolidayHandler) RegisterRoutes(r chi.Router) {
	r.Get("/year/{year}", h.ListHolidays)
	r.Post("/save", h.SaveHolidays)
	r.Post("/", h.CreateHoliday)
	r.Delete("/{id}", h.DeleteHoliday)
}

// ListHolidays returns a year's holidays with their status relative to today (UTC)
//
// @Summary List market holidays for a year
// @Param year path int true "Year"
// @Produce json
// @Success 200 {array} models.HolidayResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Router /api/holidays/year/{year} [get]
func (h *HolidayHandler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1900 || year > 2200 {
		pkghttp.WriteBadRequest(w, "Invalid year")
		return
	}

	holidays, err := h.service.ListByYear(r.Context(), year)
	if err != nil {
		writeServiceError(w, r, h.logger, err, fmt.Sprintf("No holidays found for %d", year))
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, holidays)
}

// SaveHolidays updates a batch of existing holidays in one transaction. One bad row
// rejects the whole batch.
func (h *HolidayHandler) SaveHolidays(w http.ResponseWriter, r *http.Request) {
	var req []HolidayRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rows := make([]models.HolidayInput, len(req))
	invalid := map[string]string{}
	for i, row := range req {
		for field, msg := range ValidateFields(row) {
			invalid[fmt.Sprintf("[%d].%s", i, field)] = msg
		}
		rows[i] = row.input()
	}
	if len(invalid) > 0 {
		pkghttp.WriteFieldErrors(w, invalid)
		return
	}

	n, err := h.service.SaveAll(r.Context(), actorID(r), rows)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Holiday not found")
		return
	}
	pkghttp.WriteMessage(w, http.StatusOK, fmt.Sprintf("%d holidays updated successfully.", n))
}

func (h *HolidayHandler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	holiday, err := h.service.Create(r.Context(), actorID(r), req.input())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Holiday not found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, holiday.ToResponse(h.service.Today()))
}

func (h *HolidayHandler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id, ok := intURLParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actorID(r), id); err != nil {
		writeServiceError(w, r, h.logger, err, "Holiday not found")
		return
	}
	pkghttp.WriteMessage(w, http.StatusOK, "Holiday deleted successfully.")
}
