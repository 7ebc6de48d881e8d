// internal/httpapi/respond.go
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "autoflow/internal/common/errors"
)

type errorBody struct {
	Error *apperrors.StandardError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// writeError maps the internal error taxonomy onto HTTP statuses. Wrong
// state and not found stay distinct, and the invalid-transition body
// carries both the required and the actual status.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeInvalidStateTransition:
		status = http.StatusConflict
	case apperrors.ErrCodeValidationFailed:
		status = http.StatusBadRequest
	}

	var stdErr *apperrors.StandardError
	if !errors.As(err, &stdErr) {
		stdErr = apperrors.NewPersistenceError("request", err)
	}
	writeJSON(w, status, errorBody{Error: stdErr})
}
