package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeWrappedError logs an error with context and writes it as JSON
func writeWrappedError(w http.ResponseWriter, logger *zap.SugaredLogger, err error, message string, status int) {
	logger.Errorw(message, "error", err)
	writeError(w, status, fmt.Sprintf("%s: %v", message, err))
}

// requireMethod checks if the request method matches the expected method
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// pathRemainder strips a route prefix and surrounding slashes from the
// request path, leaving the key segment (empty for collection requests).
func pathRemainder(urlPath, prefix string) string {
	return strings.Trim(strings.TrimPrefix(urlPath, prefix), "/")
}

// parseWindow extracts the skip/limit pagination window from query
// parameters. Omitted limit means unbounded (-1).
func parseWindow(r *http.Request) (skip, limit int, err error) {
	skip, limit = 0, -1

	if v := r.URL.Query().Get("skip"); v != "" {
		skip, err = strconv.Atoi(v)
		if err != nil || skip < 0 {
			return 0, 0, fmt.Errorf("skip must be a non-negative integer, got %q", v)
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("limit must be a non-negative integer, got %q", v)
		}
	}
	return skip, limit, nil
}
