package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errDetail struct {
	Code    int    `json:"code" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type errResponse struct {
	Status string    `json:"status" validate:"required"`
	Error  errDetail `json:"error" validate:"required"`
}

// writeError emits the structured error envelope every failure carries:
// a numeric code plus a human-readable message.
func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errResponse{
		Status: "error",
		Error:  errDetail{Code: code, Message: msg},
	})
}

// ok wraps success payload fields in the {"status":"ok", ...} envelope.
func ok(fields map[string]any) map[string]any {
	body := map[string]any{"status": "ok"}
	for k, v := range fields {
		body[k] = v
	}
	return body
}
