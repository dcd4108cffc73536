// Package ratelimit locks out repeated failures of the login and
// second-factor steps per client address.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"gatekeeper/internal/platform/metrics"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/platform/privacy"
	"gatekeeper/pkg/requestcontext"
)

const msgTooManyAttempts = "Too many attempts. Please try again later."

// Store keeps failure counters. RecordFailure starts a new window when none
// is open; Lock and Clear act on an existing key.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	RecordFailure(ctx context.Context, key string, window time.Duration) (*Record, error)
	Lock(ctx context.Context, key string, until time.Time) error
	Clear(ctx context.Context, key string) error
}

type Config struct {
	Attempts     int
	Window       time.Duration
	LockDuration time.Duration
}

func DefaultConfig() Config {
	return Config{
		Attempts:     5,
		Window:       15 * time.Minute,
		LockDuration: 15 * time.Minute,
	}
}

type Limiter struct {
	store   Store
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Limiter)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

func WithConfig(cfg Config) Option {
	return func(l *Limiter) {
		if cfg.Attempts > 0 {
			l.cfg.Attempts = cfg.Attempts
		}
		if cfg.Window > 0 {
			l.cfg.Window = cfg.Window
		}
		if cfg.LockDuration > 0 {
			l.cfg.LockDuration = cfg.LockDuration
		}
	}
}

func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{store: store, cfg: DefaultConfig(), logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check reports whether another attempt is allowed for key.
func (l *Limiter) Check(ctx context.Context, key Key) (*Decision, error) {
	record, err := l.store.Get(ctx, key.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read lockout record")
	}

	now := requestcontext.Now(ctx)
	if record.LockedAt(now) {
		return &Decision{RetryAfter: record.LockedUntil.Sub(now)}, nil
	}
	failures := 0
	if record != nil {
		failures = record.Failures
	}
	return &Decision{Allowed: true, Remaining: max(l.cfg.Attempts-failures, 0)}, nil
}

// RecordFailure counts a failed attempt and locks the key once the window
// holds Attempts failures.
func (l *Limiter) RecordFailure(ctx context.Context, key Key) (*Record, error) {
	record, err := l.store.RecordFailure(ctx, key.String(), l.cfg.Window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record attempt")
	}
	if record.Failures < l.cfg.Attempts {
		return record, nil
	}

	until := requestcontext.Now(ctx).Add(l.cfg.LockDuration)
	if err := l.store.Lock(ctx, key.String(), until); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock key")
	}
	record.LockedUntil = &until

	if l.metrics != nil {
		l.metrics.IncLockout(string(key.Scope))
	}
	l.logger.WarnContext(ctx, "auth lockout triggered",
		"event", "auth_lockout_triggered",
		"log_type", "audit",
		"scope", string(key.Scope),
		"ip", privacy.AnonymizeIP(key.IP),
		"failures", record.Failures,
		"locked_until", until,
		"request_id", requestcontext.RequestID(ctx),
	)
	return record, nil
}

// Clear forgets the failures of key after a successful attempt.
func (l *Limiter) Clear(ctx context.Context, key Key) error {
	if err := l.store.Clear(ctx, key.String()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear lockout record")
	}
	return nil
}

// TooManyAttempts is the error returned to callers of a locked key.
func TooManyAttempts() error {
	return dErrors.New(dErrors.CodeRateLimited, msgTooManyAttempts)
}
