package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rpggio/crossing/internal/domain/intersection"
	"github.com/rpggio/crossing/internal/domain/recorder"
	"github.com/rpggio/crossing/internal/scheduler"
)

// ErrorBody is the JSON body of every non-2xx response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Code: code, Message: message})
}

// writeDomainError maps domain sentinels onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, intersection.ErrIntersectionNotFound),
		errors.Is(err, recorder.ErrSessionNotFound),
		errors.Is(err, scheduler.ErrUnknownSignal):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, intersection.ErrEmptyName):
		writeError(w, http.StatusBadRequest, "empty_name", err.Error())
	case errors.Is(err, intersection.ErrInvalidScheduleTime):
		writeError(w, http.StatusBadRequest, "invalid_schedule_time", err.Error())
	case errors.Is(err, intersection.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, recorder.ErrFinished):
		writeError(w, http.StatusConflict, "recording_finished", err.Error())
	case errors.Is(err, intersection.ErrPersist):
		writeError(w, http.StatusInternalServerError, "persist_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
