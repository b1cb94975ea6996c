package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/handlers"
	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListHolidays(t *testing.T) {
	svc := &handlers.MockHolidayService{
		ListByYearFunc: func(ctx context.Context, year int) ([]models.HolidayResponse, error) {
			if year != 2025 {
				return nil, models.ErrNotFound
			}
			return []models.HolidayResponse{{ID: 1, Name: "Christmas Day", Date: "2025-12-25", Year: 2025, Status: models.HolidayUpcoming}}, nil
		},
	}
	h := handlers.NewHolidayHandler(svc, handlers.NewTestLogger())

	tests := []struct {
		name       string
		year       string
		wantStatus int
	}{
		{"found", "2025", http.StatusOK},
		{"empty year", "2031", http.StatusNotFound},
		{"not a year", "abcd", http.StatusBadRequest},
		{"out of range", "1066", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := handlers.WithURLParams(httptest.NewRequest("GET", "/api/holidays/year/"+tt.year, nil), map[string]string{"year": tt.year})
			w := httptest.NewRecorder()
			h.ListHolidays(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestSaveHolidays_Message(t *testing.T) {
	var saved []models.HolidayInput
	svc := &handlers.MockHolidayService{
		SaveAllFunc: func(ctx context.Context, actorID string, rows []models.HolidayInput) (int, error) {
			saved = rows
			return len(rows), nil
		},
	}
	h := handlers.NewHolidayHandler(svc, handlers.NewTestLogger())

	body := []handlers.HolidayRequest{
		{ID: 1, Name: "New Year's Day", Date: "2025-01-01"},
		{ID: 2, Name: "Christmas Eve", Date: "2025-12-24", CloseTime: "13:00"},
	}
	w := httptest.NewRecorder()
	h.SaveHolidays(w, handlers.NewTestRequest(t, "POST", "/api/holidays/save", body))

	var resp pkghttp.MessageResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, "2 holidays updated successfully.", resp.Message)
	require.Len(t, saved, 2)
	assert.Equal(t, "13:00", saved[1].CloseTime)
}

func TestSaveHolidays_RejectsWholeBatch(t *testing.T) {
	called := false
	svc := &handlers.MockHolidayService{
		SaveAllFunc: func(ctx context.Context, actorID string, rows []models.HolidayInput) (int, error) {
			called = true
			return 0, nil
		},
	}
	h := handlers.NewHolidayHandler(svc, handlers.NewTestLogger())

	body := []handlers.HolidayRequest{
		{ID: 1, Name: "Good Friday", Date: "2025-04-18"},
		{ID: 2, Name: "Half day", Date: "2025-11-28", CloseTime: "1pm"},
	}
	w := httptest.NewRecorder()
	h.SaveHolidays(w, handlers.NewTestRequest(t, "POST", "/api/holidays/save", body))

	handlers.AssertFieldError(t, w, "[1].close_time")
	assert.False(t, called)
}

func TestCreateHoliday_ReportsStatus(t *testing.T) {
	svc := &handlers.MockHolidayService{Now: time.Date(2025, 7, 4, 15, 0, 0, 0, time.UTC)}
	h := handlers.NewHolidayHandler(svc, handlers.NewTestLogger())

	body := handlers.HolidayRequest{Name: "Independence Day", Date: "2025-07-04"}
	w := httptest.NewRecorder()
	h.CreateHoliday(w, handlers.NewTestRequest(t, "POST", "/api/holidays", body))

	var resp models.HolidayResponse
	handlers.AssertJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, models.HolidayClosedToday, resp.Status)
	assert.Equal(t, 2025, resp.Year)
	assert.Nil(t, resp.CloseTime)
}

func TestCreateHoliday_BadDate(t *testing.T) {
	h := handlers.NewHolidayHandler(&handlers.MockHolidayService{}, handlers.NewTestLogger())

	w := httptest.NewRecorder()
	h.CreateHoliday(w, handlers.NewTestRequest(t, "POST", "/api/holidays", handlers.HolidayRequest{Name: "x", Date: "07/04/2025"}))

	handlers.AssertFieldError(t, w, "date")
}

func TestDeleteHoliday(t *testing.T) {
	svc := &handlers.MockHolidayService{
		DeleteFunc: func(ctx context.Context, actorID string, id int) error {
			if id == 5 {
				return nil
			}
			return models.ErrNotFound
		},
	}
	h := handlers.NewHolidayHandler(svc, handlers.NewTestLogger())

	for id, want := range map[string]int{"5": http.StatusOK, "6": http.StatusNotFound, "-1": http.StatusBadRequest} {
		req := handlers.WithURLParams(httptest.NewRequest("DELETE", "/api/holidays/"+id, nil), map[string]string{"id": id})
		w := httptest.NewRecorder()
		h.DeleteHoliday(w, req)
		assert.Equal(t, want, w.Code, "id %s", id)
	}
}
