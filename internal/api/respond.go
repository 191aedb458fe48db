package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/MikeSquared-Agency/Credia/internal/deals"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps workflow errors onto HTTP statuses. Unknown errors
// are logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, deals.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, deals.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, deals.ErrSMESuspended):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, deals.ErrInvalidSubmission), errors.Is(err, deals.ErrRateOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads the request body into v. An empty body leaves v untouched
// when optional is true.
func decodeJSON(r *http.Request, v interface{}, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
