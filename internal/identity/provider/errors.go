package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"gatekeeper/internal/sentinel"
)

// ErrNoToken is returned when a user-scoped call is made without an access token.
var ErrNoToken = errors.New("no access token")

// Error is a non-2xx provider response. It unwraps to the sentinel matching
// the status so callers never inspect status codes.
type Error struct {
	Status  int
	Message string
	kind    error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity provider: status %d", e.Status)
	}
	return fmt.Sprintf("identity provider: status %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.kind
}

// errorResponse covers the error shapes GoTrue returns.
type errorResponse struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (r errorResponse) text() string {
	for _, s := range []string{r.Msg, r.Message, r.ErrorDescription, r.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func statusError(status int, body []byte) error {
	var parsed errorResponse
	_ = json.Unmarshal(body, &parsed) //nolint:errcheck // message is best effort
	return &Error{Status: status, Message: parsed.text(), kind: kindForStatus(status)}
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusNotFound:
		return sentinel.ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return sentinel.ErrExpired
	case status == http.StatusConflict:
		return sentinel.ErrConflict
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return sentinel.ErrUnavailable
	default:
		return sentinel.ErrInvalidInput
	}
}

// Message returns the provider's own message for err, or "" when err did not
// come from a provider response.
func Message(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return ""
}
