package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	h "clubcalendar/internal/delivery/http/helpers"
	"clubcalendar/internal/domain"
)

// writeServiceError maps service-layer errors onto the API envelope. Unmapped
// errors become 500 and get logged; mapped ones are the caller's fault and
// are returned without logging.
func writeServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, validationErr.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		h.WriteJSONError(w, http.StatusForbidden, h.ErrCodeForbidden, "you do not have permission to manage this event")
	case errors.Is(err, domain.ErrNoValidInvitees):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrAllAlreadyInvited):
		h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrDuplicateEmail):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "email already registered")
	case errors.Is(err, domain.ErrInvalidCredentials):
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid credentials")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
	}
}
