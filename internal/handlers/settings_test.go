package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ChartFly/ChartFlyBackEnd/internal/handlers"
	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSetting_NotFoundNamesKey(t *testing.T) {
	h := handlers.NewSettingHandler(&handlers.MockSettingService{}, handlers.NewTestLogger())

	req := handlers.WithURLParams(httptest.NewRequest("GET", "/api/settings/theme", nil), map[string]string{"key": "theme"})
	w := httptest.NewRecorder()
	h.GetSetting(w, req)

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Setting 'theme' not found", resp.Message)
}

func TestSaveSetting_Upserts(t *testing.T) {
	store := map[string]string{}
	svc := &handlers.MockSettingService{
		SaveFunc: func(ctx context.Context, actorID, key, value string) (*models.GlobalSetting, error) {
			store[key] = value
			return &models.GlobalSetting{ID: 1, SettingKey: key, SettingValue: value}, nil
		},
	}
	h := handlers.NewSettingHandler(svc, handlers.NewTestLogger())

	for _, v := range []string{"dark", "light"} {
		w := httptest.NewRecorder()
		h.SaveSetting(w, handlers.NewTestRequest(t, "POST", "/api/settings", handlers.SettingRequest{SettingKey: "theme", SettingValue: v}))

		var resp models.GlobalSetting
		handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
		assert.Equal(t, v, resp.SettingValue)
	}
	assert.Equal(t, map[string]string{"theme": "light"}, store)
}

func TestSaveSetting_RequiresKey(t *testing.T) {
	h := handlers.NewSettingHandler(&handlers.MockSettingService{}, handlers.NewTestLogger())

	w := httptest.NewRecorder()
	h.SaveSetting(w, handlers.NewTestRequest(t, "POST", "/api/settings", handlers.SettingRequest{SettingValue: "x"}))

	handlers.AssertFieldError(t, w, "setting_key")
}

func TestDeleteSetting(t *testing.T) {
	svc := &handlers.MockSettingService{
		DeleteFunc: func(ctx context.Context, actorID, key string) error {
			if key == "theme" {
				return nil
			}
			return models.ErrNotFound
		},
	}
	h := handlers.NewSettingHandler(svc, handlers.NewTestLogger())

	req := handlers.WithURLParams(httptest.NewRequest("DELETE", "/api/settings/theme", nil), map[string]string{"key": "theme"})
	w := httptest.NewRecorder()
	h.DeleteSetting(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = handlers.WithURLParams(httptest.NewRequest("DELETE", "/api/settings/missing", nil), map[string]string{"key": "missing"})
	w = httptest.NewRecorder()
	h.DeleteSetting(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
