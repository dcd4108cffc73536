package ratelimit

import (
	"strings"
	"time"
)

// Scope separates the counters of the login step from the second-factor step.
type Scope string

const (
	ScopeLogin        Scope = "login"
	ScopeSecondFactor Scope = "2fa"
)

// Key identifies one failure counter. Subject is optional; the second-factor
// step only knows the client address.
type Key struct {
	Scope   Scope
	Subject string
	IP      string
}

func (k Key) String() string {
	parts := []string{string(k.Scope)}
	if k.Subject != "" {
		parts = append(parts, strings.ToLower(k.Subject))
	}
	return strings.Join(append(parts, k.IP), ":")
}

// Record is the failure history of one key within the current window.
type Record struct {
	Key         string
	Failures    int
	LockedUntil *time.Time
}

func (r *Record) LockedAt(now time.Time) bool {
	return r != nil && r.LockedUntil != nil && now.Before(*r.LockedUntil)
}

// Decision is the outcome of Check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}
