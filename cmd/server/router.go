package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gatekeeper/internal/admin"
	mfahandler "gatekeeper/internal/mfa/handler"
	"gatekeeper/internal/platform/config"
	"gatekeeper/internal/platform/health"
	"gatekeeper/internal/platform/metrics"
	"gatekeeper/internal/platform/middleware"
	"gatekeeper/internal/roles/catalog"
	"gatekeeper/pkg/platform/middleware/auth"
	"gatekeeper/pkg/platform/middleware/metadata"
	"gatekeeper/pkg/platform/middleware/request"
)

type routerDeps struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	guard    *middleware.Guard
	roles    admin.RoleService
	audit    admin.AuditReader
	tracker  mfahandler.Tracker
	authn    mfahandler.Authenticator
	limiter  mfahandler.Limiter
	health   *health.Handler
}

// newRouter mounts public, session-only and admin-level route groups behind
// one middleware chain. Authenticate never rejects; the groups do.
func newRouter(d routerDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(
		request.Recovery(d.log),
		request.RequestID,
		request.RequestTime,
		metadata.NewMiddleware(nil).Handler,
		request.Logger(d.log),
		request.Latency(d.metrics),
		request.BodyLimit(d.cfg.Server.MaxBodyBytes),
		request.ContentTypeJSON,
		auth.AccessToken(d.cfg.Provider.AccessTokenCookie),
		d.guard.Authenticate,
	)

	d.health.Register(r)
	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))

	mfaRoutes := mfahandler.New(d.tracker, d.authn, mfahandler.Config{
		PendingCookie: d.cfg.MFA.CookieName,
		TokenCookie:   d.cfg.Provider.AccessTokenCookie,
		SecureCookies: d.cfg.Server.SecureCookies,
	}, d.log, mfahandler.WithLimiter(d.limiter))
	mfaRoutes.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(d.guard.RequireSession)
		mfaRoutes.RegisterSettings(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(d.guard.RequireLevel(catalog.Level(d.cfg.Admin.MinLevel)))
		admin.New(d.roles, d.audit, admin.Config{AuditPageSize: d.cfg.Audit.PageSize}, d.log).Register(r)
	})

	return r
}
