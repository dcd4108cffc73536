// Package health serves the liveness, readiness and status probes of the
// gateway and runs its dependency checks.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"gatekeeper/pkg/platform/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// CheckFunc checks one dependency and returns nil when it is reachable.
type CheckFunc func(ctx context.Context) error

// Criticality decides whether a failing check takes the instance out of
// rotation.
type Criticality int

const (
	// Critical dependencies fail readiness.
	Critical Criticality = iota
	// Degradable dependencies are reported but keep the instance ready.
	Degradable
)

const checkTimeout = 2 * time.Second

type check struct {
	name        string
	fn          CheckFunc
	criticality Criticality
}

type Handler struct {
	startTime   time.Time
	environment string

	mu     sync.RWMutex
	checks []check
}

func New(environment string) *Handler {
	return &Handler{
		startTime:   time.Now(),
		environment: environment,
	}
}

// RegisterCheck adds a critical readiness check.
func (h *Handler) RegisterCheck(name string, fn CheckFunc) {
	h.RegisterCheckWith(name, fn, Critical)
}

// RegisterCheckWith adds a readiness check with an explicit criticality.
// Registering a name twice replaces the earlier check.
func (h *Handler) RegisterCheckWith(name string, fn CheckFunc, criticality Criticality) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = slices.DeleteFunc(h.checks, func(c check) bool { return c.name == name })
	h.checks = append(h.checks, check{name: name, fn: fn, criticality: criticality})
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

type LivenessResponse struct {
	Status string `json:"status"`
}

// HandleLiveness answers 200 for as long as the process serves HTTP.
func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

// CheckResult is the outcome of one dependency check.
type CheckResult struct {
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	Critical   bool   `json:"critical"`
	DurationMS int64  `json:"duration_ms"`
}

// ReadinessResponse status is "ready", "degraded" when only degradable
// checks fail, or "not_ready".
type ReadinessResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// HandleReadiness runs every check concurrently, each under its own
// deadline, and answers 503 when a critical check fails.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := slices.Clone(h.checks)
	h.mu.RUnlock()

	results := make([]CheckResult, len(checks))
	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			results[i] = runCheck(r.Context(), c)
			return nil
		})
	}
	_ = g.Wait()

	response := ReadinessResponse{Status: "ready", Checks: make(map[string]CheckResult, len(checks))}
	status := http.StatusOK
	for i, c := range checks {
		response.Checks[c.name] = results[i]
		if results[i].Status == "up" {
			continue
		}
		if c.criticality == Critical {
			response.Status = "not_ready"
			status = http.StatusServiceUnavailable
		} else if response.Status == "ready" {
			response.Status = "degraded"
		}
	}
	httputil.WriteJSON(w, status, response)
}

func runCheck(ctx context.Context, c check) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := c.fn(ctx)
	result := CheckResult{
		Status:     "up",
		Critical:   c.criticality == Critical,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Status = "down"
		result.Error = err.Error()
	}
	return result
}

type StatusResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Environment   string `json:"environment"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Timestamp     string `json:"timestamp"`
}

func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        "healthy",
		Version:       Version,
		Environment:   h.environment,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}
