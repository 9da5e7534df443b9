package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// apiError is the JSON error envelope returned for requests the API rejects outright.
type apiError struct {
	Code    string
	Message string
	Status  int
}

func newError(code, message string, status int) apiError {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return apiError{Code: code, Message: message, Status: status}
}

func writeError(ctx context.Context, w http.ResponseWriter, err apiError) {
	payload := map[string]any{
		"error":   err.Code,
		"message": err.Message,
	}
	if id := middleware.GetReqID(ctx); id != "" {
		payload["request_id"] = id
	}
	writeJSON(w, err.Status, payload)
}
