package authflow

import (
	"fmt"
	"net/http"
)

// Error codes surfaced to callers.
const (
	CodePopupClosedByUser     = "popup_closed_by_user"
	CodePopupBlocked          = "popup_blocked"
	CodeNetworkOrBackendError = "network_or_backend_error"
)

var (
	// ErrPopupClosedByUser is returned when the sign-in popup is closed before the flow resolves.
	ErrPopupClosedByUser = &Error{Code: CodePopupClosedByUser, Message: "sign-in popup was closed by the user"}
	// ErrPopupBlocked is returned when the sign-in popup could not be opened.
	ErrPopupBlocked = &Error{Code: CodePopupBlocked, Message: "sign-in popup could not be opened"}
	// ErrNetworkOrBackend is returned when forwarding the callback to the backend fails.
	ErrNetworkOrBackend = &Error{Code: CodeNetworkOrBackendError, Message: "callback forwarding failed"}
)

// Error represents a login flow error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// StatusCode and Body are set when the backend answered with a non-2xx status.
	StatusCode int    `json:"-"`
	Body       []byte `json:"-"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: backend responded %d", e.Message, e.StatusCode)
	}
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches errors by code so wrapped copies compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// HTTPStatus maps the error code to the status the HTTP layer answers with.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodePopupClosedByUser:
		return http.StatusUnauthorized
	case CodePopupBlocked, CodeNetworkOrBackendError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (e *Error) wrap(cause error) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: cause}
}
