package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into dst and validates it. On failure the
// response has been written and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return false
	}
	if fields := ValidateFields(dst); fields != nil {
		pkghttp.WriteFieldErrors(w, fields)
		return false
	}
	return true
}

// intURLParam parses a positive integer path parameter
func intURLParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v <= 0 {
		pkghttp.WriteBadRequest(w, "Invalid "+name)
		return 0, false
	}
	return v, true
}
