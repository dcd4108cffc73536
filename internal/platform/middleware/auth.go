// Package middleware gates HTTP routes on the resolved session and role.
// Every request passes session validation, then role extraction, then the
// authorization guard before reaching a protected handler.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"gatekeeper/internal/authz"
	"gatekeeper/internal/identity"
	"gatekeeper/internal/platform/metrics"
	"gatekeeper/internal/roles/catalog"
	"gatekeeper/internal/roles/claims"
	"gatekeeper/internal/session"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/platform/httputil"
	"gatekeeper/pkg/platform/middleware/auth"
	"gatekeeper/pkg/requestcontext"
)

// Forbidden responses never say which level was missing.
const (
	msgAuthenticationRequired = "authentication required"
	msgAccessDenied           = "access denied"
)

// SessionResolver resolves the session of the current request.
type SessionResolver interface {
	Resolve(ctx context.Context) session.Result
}

// RoleResolver derives the caller's role, claims first.
type RoleResolver interface {
	Resolve(ctx context.Context, i *identity.Identity) (claims.RoleClaim, claims.Source)
}

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	Session    *identity.Session
	Identity   *identity.Identity
	Role       *claims.RoleClaim
	RoleSource claims.Source
}

// Level is the caller's role level; no role is catalog.LevelNone.
func (p *Principal) Level() catalog.Level {
	if p == nil {
		return catalog.LevelNone
	}
	return authz.LevelOf(p.Role)
}

type contextKeyPrincipal struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal{}, p)
}

// PrincipalFrom returns the authenticated caller, or nil for anonymous requests.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(contextKeyPrincipal{}).(*Principal)
	return p
}

// Config controls how denials are rendered. Browser requests (Accept:
// text/html) are redirected when a target is set; API requests get JSON.
type Config struct {
	LoginRedirect     string
	ForbiddenRedirect string
	TokenCookie       string
	SecureCookies     bool
}

// Guard builds the session and level middleware.
type Guard struct {
	sessions SessionResolver
	roles    RoleResolver
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Guard)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

func NewGuard(sessions SessionResolver, roles RoleResolver, cfg Config, opts ...Option) *Guard {
	if cfg.TokenCookie == "" {
		cfg.TokenCookie = auth.DefaultCookieName
	}
	g := &Guard{sessions: sessions, roles: roles, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate resolves the session and role and attaches a Principal.
// It never rejects: requests without a valid session continue anonymously and
// RequireSession or RequireLevel decide what to do with them. An expired
// session also has its token cookie cleared.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if requestcontext.AccessToken(ctx) == "" {
			next.ServeHTTP(w, r)
			return
		}

		result := g.sessions.Resolve(ctx)
		switch result.Status {
		case session.StatusAuthenticated:
		case session.StatusExpired:
			auth.SetTokenCookie(w, g.cfg.TokenCookie, "", -1, g.cfg.SecureCookies)
			next.ServeHTTP(w, r)
			return
		default:
			next.ServeHTTP(w, r)
			return
		}

		principal := &Principal{Session: result.Session, Identity: result.Identity}
		if role, source := g.roles.Resolve(ctx, result.Identity); source != claims.SourceNone {
			principal.Role = &role
			principal.RoleSource = source
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
	})
}

// RequireSession rejects anonymous requests.
func (g *Guard) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFrom(r.Context()) == nil {
			g.unauthenticated(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireLevel admits callers whose role level is at least minimum.
func (g *Guard) RequireLevel(minimum catalog.Level) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal := PrincipalFrom(ctx)
			if principal == nil {
				g.unauthenticated(w, r)
				return
			}

			decision := authz.Authorize(principal.Level(), minimum)
			if g.metrics != nil {
				g.metrics.IncAuthzDecision(decision.String())
			}
			if !decision.Allowed() {
				g.logger.WarnContext(ctx, "access denied",
					"event", "authz_denied",
					"log_type", "audit",
					"identity_id", principal.Identity.ID.String(),
					"caller_level", principal.Level().Int(),
					"required_level", minimum.Int(),
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				g.forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guard) unauthenticated(w http.ResponseWriter, r *http.Request) {
	if g.cfg.LoginRedirect != "" && wantsHTML(r) {
		http.Redirect(w, r, g.cfg.LoginRedirect, http.StatusSeeOther)
		return
	}
	httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, msgAuthenticationRequired))
}

func (g *Guard) forbidden(w http.ResponseWriter, r *http.Request) {
	if g.cfg.ForbiddenRedirect != "" && wantsHTML(r) {
		http.Redirect(w, r, g.cfg.ForbiddenRedirect, http.StatusSeeOther)
		return
	}
	httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, msgAccessDenied))
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
