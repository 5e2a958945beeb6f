package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finanzbuch/internal/core"
	"finanzbuch/internal/investing"
	applog "finanzbuch/internal/log"
	"finanzbuch/internal/services"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error    string             `json:"error"`
	Existing *investing.Section `json:"existing,omitempty"`
}

var errNoHistory = errors.New("depot has no history")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", applog.FieldComponent, applog.ComponentHTTP, applog.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var overlap *investing.OverlapError
	switch {
	case errors.As(err, &overlap),
		errors.Is(err, services.ErrEntryExists),
		errors.Is(err, services.ErrYearExists),
		errors.Is(err, investing.ErrDuplicateYear):
		return http.StatusConflict
	case errors.Is(err, investing.ErrEntryNotFound),
		errors.Is(err, investing.ErrYearNotFound),
		errors.Is(err, investing.ErrSectionNotFound),
		errors.Is(err, errNoHistory):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, investing.ErrMalformedSection),
		errors.Is(err, investing.ErrUnknownVariant),
		errors.Is(err, investing.ErrUnknownInterval),
		errors.Is(err, investing.ErrUnknownField),
		errors.Is(err, investing.ErrInvalidMonthNr),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidDay),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, services.ErrEmptyName):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeDomainError answers err with its mapped status. An overlap carries
// the conflicting section; unexpected errors are logged and not exposed.
func writeDomainError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, operation, applog.NewFields())
		writeError(w, status, "internal error")
		return
	}

	body := errorBody{Error: err.Error()}
	var overlap *investing.OverlapError
	if errors.As(err, &overlap) {
		existing := overlap.Existing
		body.Existing = &existing
	}
	writeJSON(w, status, body)
}
