package mfa

import (
	"gatekeeper/internal/identity"
	id "gatekeeper/pkg/domain"
)

// State is where a caller stands in the second-factor flow.
type State int

const (
	StateNoChallenge State = iota
	StatePendingSecondFactor
	StateVerified
	StateEnrollmentPending
)

func (s State) String() string {
	switch s {
	case StatePendingSecondFactor:
		return "pending_second_factor"
	case StateVerified:
		return "verified"
	case StateEnrollmentPending:
		return "enrollment_pending"
	default:
		return "no_challenge"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PendingToken identifies a pending second-factor state. It carries no
// authority beyond naming the identity awaiting verification.
type PendingToken string

// PrimaryAuthOutcome is what the password step reported.
type PrimaryAuthOutcome struct {
	IdentityID id.IdentityID
	// SecondFactorRequired is set when the provider did not grant a full
	// session because a verified factor is enrolled.
	SecondFactorRequired bool
}

// VerifyResult is returned after a successful second-factor verification.
type VerifyResult struct {
	IdentityID id.IdentityID
	Session    *identity.Session
}

// verifyCodeRequest validates the one-time code format.
type verifyCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric" msg:"Code must be 6 digits"`
}
