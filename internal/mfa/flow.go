package mfa

import (
	"context"
	"errors"

	"gatekeeper/internal/identity"
	"gatekeeper/internal/sentinel"
	id "gatekeeper/pkg/domain"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/requestcontext"
	"gatekeeper/pkg/validation"
)

// AfterPrimaryAuth records the outcome of the password step. When a second
// factor is required it stores a pending token for the identity and returns it.
func (t *Tracker) AfterPrimaryAuth(ctx context.Context, outcome PrimaryAuthOutcome) (State, PendingToken, error) {
	if outcome.IdentityID.IsNil() {
		return StateNoChallenge, "", dErrors.New(dErrors.CodeBadRequest, "identity is required")
	}
	if !outcome.SecondFactorRequired {
		return StateNoChallenge, "", nil
	}

	token, err := newPendingToken()
	if err != nil {
		t.logError(ctx, "failed to generate pending token", err)
		return StateNoChallenge, "", dErrors.New(dErrors.CodeInternal, msgUnavailable)
	}
	if err := t.pending.Save(ctx, token, outcome.IdentityID, t.pendingTTL); err != nil {
		t.logError(ctx, "failed to save pending token", err, "identity_id", outcome.IdentityID.String())
		return StateNoChallenge, "", dErrors.New(dErrors.CodeInternal, msgUnavailable)
	}
	t.logAudit(ctx, "mfa_challenge_pending", "identity_id", outcome.IdentityID.String())
	return StatePendingSecondFactor, token, nil
}

// State reports whether token still names a pending verification.
func (t *Tracker) State(ctx context.Context, token PendingToken) (State, error) {
	if token == "" {
		return StateNoChallenge, nil
	}
	if _, err := t.pending.Find(ctx, token); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return StateNoChallenge, nil
		}
		t.logError(ctx, "failed to read pending token", err)
		return StateNoChallenge, dErrors.New(dErrors.CodeInternal, msgUnavailable)
	}
	return StatePendingSecondFactor, nil
}

// Verify answers the second-factor challenge for a pending token using the
// caller's first-factor access token. The pending token is destroyed only on
// success; a missing token means the session expired.
func (t *Tracker) Verify(ctx context.Context, token PendingToken, code string) (*VerifyResult, error) {
	if err := validation.Validate(verifyCodeRequest{Code: code}); err != nil {
		return nil, err
	}
	if token == "" {
		t.incVerification("expired")
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgSessionExpired)
	}
	identityID, err := t.pending.Find(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			t.incVerification("expired")
			return nil, dErrors.New(dErrors.CodeUnauthorized, msgSessionExpired)
		}
		t.logError(ctx, "failed to read pending token", err)
		return nil, dErrors.New(dErrors.CodeInternal, msgUnavailable)
	}

	accessToken := requestcontext.AccessToken(ctx)
	factor, err := t.activeFactor(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	session, err := t.challengeAndVerify(ctx, accessToken, factor, code)
	if err != nil {
		t.incVerification("rejected")
		t.logger.WarnContext(ctx, "second factor verification failed",
			"event", "mfa_verify_failed",
			"log_type", "audit",
			"identity_id", identityID.String(),
			"device", requestcontext.DeviceLabel(ctx),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, err
	}
	// the upgraded session must name the identity the pending token was issued to
	if session == nil || session.Identity == nil || session.Identity.ID != identityID {
		sessionIdentity := ""
		if session != nil && session.Identity != nil {
			sessionIdentity = session.Identity.ID.String()
		}
		t.incVerification("mismatch")
		t.logger.WarnContext(ctx, "second factor verified for a different identity",
			"event", "mfa_identity_mismatch",
			"log_type", "audit",
			"pending_identity_id", identityID.String(),
			"session_identity_id", sessionIdentity,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgSessionExpired)
	}

	if _, err := t.pending.Consume(ctx, token); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		t.logError(ctx, "failed to remove pending token", err, "identity_id", identityID.String())
	}
	t.incVerification("success")
	t.logAudit(ctx, "mfa_verified",
		"identity_id", identityID.String(),
		"device", requestcontext.DeviceLabel(ctx),
	)
	return &VerifyResult{IdentityID: identityID, Session: session}, nil
}

// activeFactor returns the single verified TOTP factor of the caller.
func (t *Tracker) activeFactor(ctx context.Context, accessToken string) (id.FactorID, error) {
	factors, err := t.provider.ListFactors(ctx, accessToken)
	if err != nil {
		return id.FactorID{}, t.providerError(ctx, "list_factors", err)
	}
	verified := (&identity.Identity{Factors: factors}).VerifiedTOTP()
	if len(verified) == 0 {
		return id.FactorID{}, dErrors.New(dErrors.CodeValidation, msgNotSetUp)
	}
	return verified[0].ID, nil
}

func (t *Tracker) challengeAndVerify(ctx context.Context, accessToken string, factorID id.FactorID, code string) (*identity.Session, error) {
	challengeID, err := t.provider.Challenge(ctx, accessToken, factorID)
	if err != nil {
		return nil, t.providerError(ctx, "challenge", err)
	}
	session, err := t.provider.Verify(ctx, accessToken, factorID, challengeID, code)
	if err != nil {
		return nil, t.providerError(ctx, "verify", err)
	}
	return session, nil
}
