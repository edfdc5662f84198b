package api

import (
	"errors"
	"net/http"

	"github.com/daystart-app/daystart-api/internal/domain"
	"github.com/daystart-app/daystart-api/internal/service"
	"github.com/daystart-app/daystart-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, store.ErrJobNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrScheduledInPast),
		errors.Is(err, domain.ErrInvalidWindow),
		errors.Is(err, domain.ErrEmptyLocalDate),
		errors.Is(err, domain.ErrEmptyVoice),
		errors.Is(err, domain.ErrInvalidLength),
		errors.Is(err, domain.ErrTooManyStockSymbols),
		errors.Is(err, domain.ErrInvalidContentType),
		errors.Is(err, domain.ErrEmptyContentRegion),
		errors.Is(err, domain.ErrEmptyContentPayload),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, service.ErrInvalidTimeRange):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing message for the error.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"

	case errors.Is(err, store.ErrJobNotFound),
		errors.Is(err, store.ErrNotFound):
		return "Briefing job not found"

	case errors.Is(err, domain.ErrScheduledInPast):
		return "scheduled_at must be in the future"

	case errors.Is(err, domain.ErrInvalidWindow):
		return "Delivery window must satisfy window_start < scheduled_at <= window_end"

	case errors.Is(err, domain.ErrEmptyLocalDate):
		return "local_date must be a YYYY-MM-DD date"

	case errors.Is(err, domain.ErrEmptyVoice):
		return "A briefing voice must be selected"

	case errors.Is(err, domain.ErrInvalidLength):
		return "Desired briefing length is outside the accepted range"

	case errors.Is(err, domain.ErrTooManyStockSymbols):
		return "Too many stock symbols requested"

	case errors.Is(err, domain.ErrInvalidContentType):
		return "content_type must be news, sports or stocks"

	case errors.Is(err, domain.ErrEmptyContentRegion):
		return "region cannot be empty"

	case errors.Is(err, domain.ErrEmptyContentPayload):
		return "payload cannot be empty"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid job data"

	case errors.Is(err, service.ErrInvalidTimeRange):
		return "from must be before to"

	default:
		return "An unexpected error occurred"
	}
}
