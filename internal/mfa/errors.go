package mfa

import (
	"context"
	"errors"

	"gatekeeper/internal/sentinel"
	dErrors "gatekeeper/pkg/domain-errors"
)

const (
	msgSessionExpired  = "Session expired. Please log in again."
	msgNotSetUp        = "2FA not set up for this account"
	msgInvalidCode     = "Invalid verification code"
	msgInvalidFactor   = "Invalid factor ID"
	msgAlreadyEnrolled = "a verified authenticator is already enrolled"
	msgUnavailable     = "Unable to complete two-factor verification, please try again"
)

// providerError translates a provider failure once. Rejected codes become
// validation failures; an expired first-factor session is unauthorized.
func (t *Tracker) providerError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request cancelled")
	case errors.Is(err, sentinel.ErrInvalidInput):
		return dErrors.NewValidation(msgInvalidCode, map[string]string{"code": msgInvalidCode})
	case errors.Is(err, sentinel.ErrExpired):
		return dErrors.New(dErrors.CodeUnauthorized, msgSessionExpired)
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.NewValidation(msgInvalidFactor, map[string]string{"factor_id": msgInvalidFactor})
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, msgAlreadyEnrolled)
	default:
		t.logError(ctx, "identity provider factor call failed", err, "operation", op)
		return dErrors.New(dErrors.CodeInternal, msgUnavailable)
	}
}
