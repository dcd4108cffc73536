// Package mfa tracks the second-factor state between primary authentication
// and full session trust, and drives TOTP enrollment through the provider.
package mfa

import (
	"context"
	"log/slog"
	"time"

	"gatekeeper/internal/identity"
	"gatekeeper/internal/platform/metrics"
	id "gatekeeper/pkg/domain"
	"gatekeeper/pkg/secrets"
)

// DefaultPendingTTL is the lifetime of a pending second-factor token.
const DefaultPendingTTL = 10 * time.Minute

// PendingStore persists pending tokens until verification or expiry.
// Error Contract: Find and Consume return sentinel.ErrNotFound for unknown or
// expired tokens.
type PendingStore interface {
	Save(ctx context.Context, token PendingToken, identityID id.IdentityID, ttl time.Duration) error
	Find(ctx context.Context, token PendingToken) (id.IdentityID, error)
	Consume(ctx context.Context, token PendingToken) (id.IdentityID, error)
}

// FactorProvider is the identity provider's factor API, called with the
// caller's own access token.
type FactorProvider interface {
	ListFactors(ctx context.Context, accessToken string) ([]identity.Factor, error)
	Enroll(ctx context.Context, accessToken, friendlyName string) (*identity.Enrollment, error)
	Challenge(ctx context.Context, accessToken string, factorID id.FactorID) (string, error)
	Verify(ctx context.Context, accessToken string, factorID id.FactorID, challengeID, code string) (*identity.Session, error)
	Unenroll(ctx context.Context, accessToken string, factorID id.FactorID) error
}

// Tracker owns the pending → verified transition.
type Tracker struct {
	pending    PendingStore
	provider   FactorProvider
	pendingTTL time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Tracker)

func WithPendingTTL(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.pendingTTL = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

func NewTracker(pending PendingStore, provider FactorProvider, opts ...Option) *Tracker {
	t := &Tracker{
		pending:    pending,
		provider:   provider,
		pendingTTL: DefaultPendingTTL,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// PendingTTL is how long a pending token stays valid, for cookie lifetimes.
func (t *Tracker) PendingTTL() time.Duration {
	return t.pendingTTL
}

func newPendingToken() (PendingToken, error) {
	token, err := secrets.Generate()
	return PendingToken(token), err
}
