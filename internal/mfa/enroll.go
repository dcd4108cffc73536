package mfa

import (
	"context"

	"gatekeeper/internal/identity"
	id "gatekeeper/pkg/domain"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/requestcontext"
	"gatekeeper/pkg/validation"
)

// Enroll starts TOTP setup for the authenticated caller. A caller with a
// verified authenticator is rejected; stale unverified enrollments are
// removed first.
func (t *Tracker) Enroll(ctx context.Context) (*identity.Enrollment, error) {
	accessToken, err := sessionToken(ctx)
	if err != nil {
		return nil, err
	}
	factors, err := t.provider.ListFactors(ctx, accessToken)
	if err != nil {
		return nil, t.providerError(ctx, "list_factors", err)
	}
	for _, f := range factors {
		if f.Type != identity.FactorTypeTOTP {
			continue
		}
		if f.Status == identity.FactorStatusVerified {
			return nil, dErrors.New(dErrors.CodeConflict, msgAlreadyEnrolled)
		}
		if err := t.provider.Unenroll(ctx, accessToken, f.ID); err != nil {
			return nil, t.providerError(ctx, "unenroll_stale", err)
		}
	}

	enrollment, err := t.provider.Enroll(ctx, accessToken, "")
	if err != nil {
		return nil, t.providerError(ctx, "enroll", err)
	}
	t.logAudit(ctx, "mfa_enrollment_started", "factor_id", enrollment.FactorID.String())
	return enrollment, nil
}

// ConfirmEnrollment verifies the first code of a new factor, completing
// enrollment.
func (t *Tracker) ConfirmEnrollment(ctx context.Context, factorID id.FactorID, code string) error {
	if factorID.IsNil() {
		return dErrors.NewValidation(msgInvalidFactor, map[string]string{"factor_id": msgInvalidFactor})
	}
	if err := validation.Validate(verifyCodeRequest{Code: code}); err != nil {
		return err
	}
	accessToken, err := sessionToken(ctx)
	if err != nil {
		return err
	}
	if _, err := t.challengeAndVerify(ctx, accessToken, factorID, code); err != nil {
		t.incVerification("rejected")
		return err
	}
	t.incVerification("enrolled")
	t.logAudit(ctx, "mfa_enrolled", "factor_id", factorID.String(), "device", requestcontext.DeviceLabel(ctx))
	return nil
}

// Unenroll removes a factor, returning the caller to StateNoChallenge.
func (t *Tracker) Unenroll(ctx context.Context, factorID id.FactorID) error {
	if factorID.IsNil() {
		return dErrors.NewValidation(msgInvalidFactor, map[string]string{"factor_id": msgInvalidFactor})
	}
	accessToken, err := sessionToken(ctx)
	if err != nil {
		return err
	}
	if err := t.provider.Unenroll(ctx, accessToken, factorID); err != nil {
		return t.providerError(ctx, "unenroll", err)
	}
	t.logAudit(ctx, "mfa_unenrolled", "factor_id", factorID.String(), "device", requestcontext.DeviceLabel(ctx))
	return nil
}

func sessionToken(ctx context.Context) (string, error) {
	token := requestcontext.AccessToken(ctx)
	if token == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, msgSessionExpired)
	}
	return token, nil
}
