package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/tempo/internal/api/shared"
	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/service"
	"github.com/phrazzld/tempo/internal/service/auth"
	"github.com/phrazzld/tempo/internal/store"
)

// API-level errors
var (
	// ErrInvalidRequest marks a body or path parameter that failed decoding or validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrForbidden marks access to a session owned by another user.
	ErrForbidden = errors.New("forbidden")

	// ErrTimerStateConflict marks a timer transition that does not apply to
	// the timer's current state, such as pausing a paused timer.
	ErrTimerStateConflict = errors.New("timer state does not allow this operation")

	// ErrUnauthorized marks a protected request without an authenticated user.
	ErrUnauthorized = errors.New("unauthorized")
)

// MapErrorToStatusCode maps an error to the HTTP status returned to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, service.ErrTimerNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrTimerNotActive),
		errors.Is(err, ErrTimerStateConflict),
		errors.Is(err, store.ErrSessionAlreadyEnded),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, service.ErrSameColumn),
		errors.Is(err, service.ErrInvalidAdjustment),
		errors.Is(err, service.ErrInvalidOperation),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidTaskID),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrNegativeRate),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that never
// includes internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"
	case errors.Is(err, ErrUnauthorized):
		return "Authentication required"
	case errors.Is(err, ErrForbidden):
		return "Session belongs to another user"

	case errors.Is(err, service.ErrTimerNotFound):
		return "Timer not found"
	case errors.Is(err, store.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, service.ErrTimerNotActive):
		return "Timer is not running or paused"
	case errors.Is(err, ErrTimerStateConflict):
		return "Timer state does not allow this operation"
	case errors.Is(err, store.ErrSessionAlreadyEnded):
		return "Session already ended"
	case errors.Is(err, store.ErrDuplicate):
		return "Already exists"

	case errors.Is(err, service.ErrSameColumn):
		return "Task is already in that column"
	case errors.Is(err, service.ErrInvalidAdjustment):
		return "Adjustment must be a finite number"
	case errors.Is(err, service.ErrInvalidOperation):
		return "Unknown operation"
	case errors.Is(err, domain.ErrInvalidTaskID):
		return "Task id is required"
	case errors.Is(err, domain.ErrInvalidPriority):
		return "Invalid task priority"
	case errors.Is(err, domain.ErrNegativeRate):
		return "Hourly rate cannot be negative"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, ErrInvalidRequest):
		return SanitizeValidationError(err)

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator failures into a short message
// naming the first offending field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", jsonFieldName(fe), validationTagMessage(fe.Tag()))
	}
	if errors.Is(err, shared.ErrEmptyBody) {
		return "Request body is required"
	}
	return "Invalid request"
}

// jsonFieldName returns the JSON path of the failing field without the
// top-level struct name.
func jsonFieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "oneof":
		return "invalid value"
	case "gte", "gt", "min":
		return "too small"
	case "lte", "lt", "max":
		return "too large"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status and safe message for err, logging the
// redacted details. A non-empty message overrides the mapped one.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
