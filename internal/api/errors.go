package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes the same problem document huma produces for operation
// errors, so clients see one error shape from every route.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	problem := &huma.ErrorModel{
		Title:  http.StatusText(status),
		Status: status,
		Detail: msg,
	}
	if err := json.NewEncoder(w).Encode(problem); err != nil {
		slog.Default().Error("failed to encode error response", "error", err)
	}
}
