package http

import (
	"errors"
	"net/http"
	"strings"

	"rumclub/internal/auth"
	"rumclub/internal/core"
	"rumclub/internal/log"
	"rumclub/internal/services"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// errorStatus maps domain and transport errors to an HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrUnknownMonth),
		errors.Is(err, core.ErrUnknownEvent),
		errors.Is(err, core.ErrUnknownMember),
		errors.Is(err, core.ErrUnknownArchive),
		errors.Is(err, core.ErrGuestIndex):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrNegativeAmount),
		errors.Is(err, core.ErrInvalidQuantity),
		errors.Is(err, core.ErrEmptyGuestName),
		errors.Is(err, core.ErrEmptyMemberName):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends err as a JSON error. Server-side failures are logged and
// only a generic message leaves the process, except for failed saves which
// the treasurer must see.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status < http.StatusInternalServerError {
		if status == http.StatusUnauthorized {
			UnauthorizedError(err.Error()).Write(w)
			return
		}
		ErrorResponse(status, err.Error()).Write(w)
		return
	}

	log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
		log.FieldError, err,
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	if errors.Is(err, services.ErrSaveFailed) {
		InternalServerError("the change could not be saved and was not applied").Write(w)
		return
	}
	InternalServerError("internal error").Write(w)
}
