package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Connection-level failures. Fatal to the connection attempt:
	// the socket is rejected before any event handler runs.
	ErrAuthenticationRequired = fmt.Errorf("authentication required")
	ErrAuthenticationInvalid  = fmt.Errorf("authentication invalid")

	// Request-level failures. Returned to the sender, no partial state persisted.
	ErrEmptyMessage     = fmt.Errorf("message has neither text nor attachments")
	ErrAttachmentUpload = fmt.Errorf("attachment upload failed")
	ErrChatNotFound     = fmt.Errorf("no such chat")
	ErrNotAMember       = fmt.Errorf("sender is not a member of this chat")

	// Supervision.
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Account failures.
	ErrUserNotFound       = fmt.Errorf("no such user")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)

// MapToHTTPStatus translates a domain error into the status code returned at
// the gateway boundary. Unknown errors map to 500.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrAuthenticationRequired),
		errors.Is(err, ErrAuthenticationInvalid),
		errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotAMember):
		return http.StatusForbidden
	case errors.Is(err, ErrChatNotFound), errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrInvalidPassword):
		return http.StatusBadRequest
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
