// Package session resolves the session of the current request and enforces
// the maximum session age.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gatekeeper/internal/identity"
	"gatekeeper/internal/platform/metrics"
	"gatekeeper/internal/sentinel"
	"gatekeeper/pkg/requestcontext"
)

// DefaultMaxAge bounds how long a session stays usable, measured from the
// identity's creation time embedded in the session.
const DefaultMaxAge = 7 * 24 * time.Hour

const minMaxAge = time.Minute

// Accessor is the provider session surface for the current request.
// GetSession returns nil, nil when the request carries no session.
type Accessor interface {
	GetSession(ctx context.Context) (*identity.Session, error)
	GetUser(ctx context.Context) (*identity.Identity, error)
	SignOut(ctx context.Context) error
}

// Status is the outcome of resolving a session.
type Status int

const (
	StatusUnauthenticated Status = iota
	StatusAuthenticated
	StatusExpired
	StatusProviderError
	// StatusSecondFactorPending is a password-only session of an identity
	// with a verified authenticator. It grants nothing until upgraded.
	StatusSecondFactorPending
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusExpired:
		return "expired"
	case StatusProviderError:
		return "provider_error"
	case StatusSecondFactorPending:
		return "second_factor_pending"
	default:
		return "unauthenticated"
	}
}

// Result is the resolved session. Session and Identity are set only when
// Status is StatusAuthenticated; Err carries the cause of a provider error.
type Result struct {
	Status   Status
	Session  *identity.Session
	Identity *identity.Identity
	Err      error
}

// Pair collapses the result to the session/identity pair, nil for every
// non-authenticated outcome.
func (r Result) Pair() (*identity.Session, *identity.Identity) {
	if r.Status != StatusAuthenticated {
		return nil, nil
	}
	return r.Session, r.Identity
}

func (r Result) Authenticated() bool {
	return r.Status == StatusAuthenticated
}

// Validator wraps the provider accessor with the session age policy.
type Validator struct {
	accessor Accessor
	maxAge   time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Validator)

// WithMaxAge overrides the age limit. Values under one minute are ignored.
func WithMaxAge(d time.Duration) Option {
	return func(v *Validator) {
		if d >= minMaxAge {
			v.maxAge = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Validator) {
		v.metrics = m
	}
}

func NewValidator(accessor Accessor, opts ...Option) *Validator {
	v := &Validator{
		accessor: accessor,
		maxAge:   DefaultMaxAge,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Resolve never returns an error: every failure collapses to a
// non-authenticated status so callers fail closed.
//
//  1. No session: StatusUnauthenticated.
//  2. Session older than the max age: sign out, StatusExpired.
//  3. Re-read the identity from the provider; failure is StatusProviderError.
//  4. An identity with a verified authenticator needs an aal2 session.
func (v *Validator) Resolve(ctx context.Context) Result {
	result := v.resolve(ctx)
	if v.metrics != nil {
		v.metrics.IncSessionResolved(result.Status.String())
	}
	return result
}

func (v *Validator) resolve(ctx context.Context) Result {
	sess, err := v.accessor.GetSession(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidInput) || errors.Is(err, sentinel.ErrExpired) {
			return Result{Status: StatusUnauthenticated}
		}
		v.logger.ErrorContext(ctx, "failed to read session",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return Result{Status: StatusProviderError, Err: err}
	}
	if sess == nil || sess.Identity == nil {
		return Result{Status: StatusUnauthenticated}
	}

	now := requestcontext.Now(ctx)
	if age := now.Sub(sess.Identity.CreatedAt); age > v.maxAge {
		v.forceSignOut(ctx, sess, age)
		return Result{Status: StatusExpired}
	}

	user, err := v.accessor.GetUser(ctx)
	if err != nil || user == nil {
		if errors.Is(err, sentinel.ErrExpired) {
			return Result{Status: StatusUnauthenticated}
		}
		v.logger.WarnContext(ctx, "failed to re-read session identity",
			"error", err,
			"identity_id", sess.Identity.ID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return Result{Status: StatusProviderError, Err: err}
	}
	if len(user.VerifiedTOTP()) > 0 && sess.AssuranceLevel != identity.AssuranceMFA {
		return Result{Status: StatusSecondFactorPending}
	}
	return Result{Status: StatusAuthenticated, Session: sess, Identity: user}
}

func (v *Validator) forceSignOut(ctx context.Context, sess *identity.Session, age time.Duration) {
	if v.metrics != nil {
		v.metrics.IncForcedSignOut()
	}
	v.logger.WarnContext(ctx, "session exceeded maximum age",
		"event", "session_force_signout",
		"log_type", "audit",
		"identity_id", sess.Identity.ID.String(),
		"age", age.String(),
		"max_age", v.maxAge.String(),
		"device", requestcontext.DeviceLabel(ctx),
		"client_ip", requestcontext.ClientIP(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	if err := v.accessor.SignOut(ctx); err != nil {
		v.logger.ErrorContext(ctx, "forced sign-out failed",
			"error", err,
			"identity_id", sess.Identity.ID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
