// Package api contains the JSON handlers of the embedded admin app.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/factura-eu/api/internal/middleware"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeJSON marshals v as JSON and writes it to the response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// At this point headers are already sent; just log the error.
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

// shopOf returns the authenticated shop or writes a 401.
func shopOf(w http.ResponseWriter, r *http.Request) (string, bool) {
	shop, ok := middleware.ShopFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing shop session")
	}
	return shop, ok
}

// parsePagination extracts page and limit from query parameters with defaults.
func parsePagination(r *http.Request) (page, limit int) {
	page = 1
	limit = 20

	if v := r.URL.Query().Get("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			page = parsed
		}
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
			if limit > 250 {
				limit = 250
			}
		}
	}

	return page, limit
}
