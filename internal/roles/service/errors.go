package service

import (
	"context"
	"errors"

	dErrors "gatekeeper/pkg/domain-errors"
)

// User-facing messages. Store failures never leak their text.
const (
	msgCannotManageTarget = "You cannot manage users with equal or higher role levels"
	msgCannotGrantRole    = "You cannot assign roles equal to or higher than your own"
	msgRoleNotFound       = "Role not found"
	msgInvalidUserID      = "Invalid user ID"
	msgInvalidRoleID      = "Invalid role ID"
	msgStoreFailure       = "Unable to complete the request, please try again"
)

func errRoleNotFound() error {
	return dErrors.NewValidation(msgRoleNotFound, map[string]string{"role_id": msgRoleNotFound})
}

// storeError logs the raw dependency error and returns the generic failure.
// Callers translate sentinel.ErrNotFound themselves where it has meaning.
func (s *Service) storeError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request cancelled")
	}
	s.logError(ctx, "role store failure", err, "operation", op)
	return dErrors.New(dErrors.CodeInternal, msgStoreFailure)
}
