// Package handler is the thin HTTP adapter over the MFA state tracker: the
// password step, the second-factor step and authenticator enrollment.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"gatekeeper/internal/identity"
	"gatekeeper/internal/mfa"
	"gatekeeper/internal/ratelimit"
	"gatekeeper/internal/sentinel"
	id "gatekeeper/pkg/domain"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/platform/httputil"
	"gatekeeper/pkg/platform/middleware/auth"
	"gatekeeper/pkg/requestcontext"
)

// DefaultPendingCookie holds the pending second-factor token between the
// password step and the code step.
const DefaultPendingCookie = "pending_mfa_user"

const msgInvalidCredentials = "Invalid login credentials"

// Tracker is the MFA state machine driven by these routes.
type Tracker interface {
	AfterPrimaryAuth(ctx context.Context, outcome mfa.PrimaryAuthOutcome) (mfa.State, mfa.PendingToken, error)
	State(ctx context.Context, token mfa.PendingToken) (mfa.State, error)
	Verify(ctx context.Context, token mfa.PendingToken, code string) (*mfa.VerifyResult, error)
	Enroll(ctx context.Context) (*identity.Enrollment, error)
	ConfirmEnrollment(ctx context.Context, factorID id.FactorID, code string) error
	Unenroll(ctx context.Context, factorID id.FactorID) error
	PendingTTL() time.Duration
}

// Authenticator performs the password step against the identity provider.
type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error)
}

// Limiter locks out repeated failures of the login and code steps.
type Limiter interface {
	Check(ctx context.Context, key ratelimit.Key) (*ratelimit.Decision, error)
	RecordFailure(ctx context.Context, key ratelimit.Key) (*ratelimit.Record, error)
	Clear(ctx context.Context, key ratelimit.Key) error
}

type Config struct {
	PendingCookie string
	TokenCookie   string
	SecureCookies bool
}

type Handler struct {
	tracker Tracker
	auth    Authenticator
	limiter Limiter
	cfg     Config
	logger  *slog.Logger
}

type Option func(*Handler)

// WithLimiter enables lockout of the login and code steps.
func WithLimiter(l Limiter) Option {
	return func(h *Handler) {
		h.limiter = l
	}
}

func New(tracker Tracker, authenticator Authenticator, cfg Config, logger *slog.Logger, opts ...Option) *Handler {
	if cfg.PendingCookie == "" {
		cfg.PendingCookie = DefaultPendingCookie
	}
	if cfg.TokenCookie == "" {
		cfg.TokenCookie = auth.DefaultCookieName
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{tracker: tracker, auth: authenticator, cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the login and second-factor routes. They must stay
// reachable without a full session.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Get("/auth/2fa", h.HandleState)
	r.Post("/auth/2fa", h.HandleVerify)
}

// RegisterSettings registers enrollment routes. The parent router applies
// the session requirement.
func (h *Handler) RegisterSettings(r chi.Router) {
	r.Post("/settings/mfa/enroll", h.HandleEnroll)
	r.Post("/settings/mfa/factors/{factorID}/verify", h.HandleConfirmEnrollment)
	r.Delete("/settings/mfa/factors/{factorID}", h.HandleUnenroll)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Enter a valid email address"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

type codeRequest struct {
	Code string `json:"code"`
}

type stateResponse struct {
	State      mfa.State     `json:"state"`
	IdentityID id.IdentityID `json:"identity_id,omitzero"`
}

// HandleLogin implements POST /auth/login.
// A password login for an identity with a verified authenticator stores a
// pending token and answers pending_second_factor; the caller then posts the
// code to /auth/2fa.
//
// Input: { "email": "ada@example.com", "password": "..." }
// Output: { "state": "no_challenge" | "pending_second_factor" }
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndValidate[loginRequest](w, r, h.logger)
	if !ok {
		return
	}
	key := ratelimit.Key{Scope: ratelimit.ScopeLogin, Subject: req.Email, IP: requestcontext.ClientIP(ctx)}
	if !h.allow(w, r, key) {
		return
	}

	sess, err := h.auth.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		err = h.signInError(ctx, err)
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			h.recordFailure(ctx, key)
		}
		httputil.WriteError(w, err)
		return
	}
	h.clearFailures(ctx, key)
	if sess.Identity == nil {
		h.logger.ErrorContext(ctx, "password grant returned no user",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "Unable to sign in, please try again"))
		return
	}

	state, token, err := h.tracker.AfterPrimaryAuth(ctx, mfa.PrimaryAuthOutcome{
		IdentityID:           sess.Identity.ID,
		SecondFactorRequired: len(sess.Identity.VerifiedTOTP()) > 0,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	auth.SetTokenCookie(w, h.cfg.TokenCookie, sess.AccessToken, cookieAge(ctx, sess.ExpiresAt), h.cfg.SecureCookies)
	if state == mfa.StatePendingSecondFactor {
		h.setPendingCookie(w, string(token), int(h.tracker.PendingTTL().Seconds()))
	}
	httputil.WriteJSON(w, http.StatusOK, stateResponse{State: state})
}

// HandleState implements GET /auth/2fa.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	state, err := h.tracker.State(r.Context(), h.pendingToken(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stateResponse{State: state})
}

// HandleVerify implements POST /auth/2fa.
// On success the upgraded session replaces the password-only one and the
// pending cookie is removed. A missing or expired pending token also removes
// the cookie so the client restarts at the login step.
//
// Input: { "code": "123456" }
// Output: { "state": "verified", "identity_id": "..." }
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[codeRequest](w, r, h.logger)
	if !ok {
		return
	}
	key := ratelimit.Key{Scope: ratelimit.ScopeSecondFactor, IP: requestcontext.ClientIP(ctx)}
	if !h.allow(w, r, key) {
		return
	}

	result, err := h.tracker.Verify(ctx, h.pendingToken(r), req.Code)
	if err != nil {
		switch {
		case dErrors.HasCode(err, dErrors.CodeUnauthorized):
			h.setPendingCookie(w, "", -1)
		case dErrors.HasCode(err, dErrors.CodeValidation):
			h.recordFailure(ctx, key)
		}
		httputil.WriteError(w, err)
		return
	}
	h.clearFailures(ctx, key)

	if result.Session != nil && result.Session.AccessToken != "" {
		auth.SetTokenCookie(w, h.cfg.TokenCookie, result.Session.AccessToken, cookieAge(ctx, result.Session.ExpiresAt), h.cfg.SecureCookies)
	}
	h.setPendingCookie(w, "", -1)
	httputil.WriteJSON(w, http.StatusOK, stateResponse{State: mfa.StateVerified, IdentityID: result.IdentityID})
}

// HandleEnroll implements POST /settings/mfa/enroll.
// Output: { "id": "...", "qr_code": "...", "secret": "...", "uri": "otpauth://..." }
func (h *Handler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	enrollment, err := h.tracker.Enroll(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, enrollment)
}

// HandleConfirmEnrollment implements POST /settings/mfa/factors/{factorID}/verify.
func (h *Handler) HandleConfirmEnrollment(w http.ResponseWriter, r *http.Request) {
	factorID, ok := h.factorID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[codeRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := h.tracker.ConfirmEnrollment(r.Context(), factorID, req.Code); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stateResponse{State: mfa.StateVerified})
}

// HandleUnenroll implements DELETE /settings/mfa/factors/{factorID}.
func (h *Handler) HandleUnenroll(w http.ResponseWriter, r *http.Request) {
	factorID, ok := h.factorID(w, r)
	if !ok {
		return
	}
	if err := h.tracker.Unenroll(r.Context(), factorID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) factorID(w http.ResponseWriter, r *http.Request) (id.FactorID, bool) {
	factorID, err := id.ParseFactorID(chi.URLParam(r, "factorID"))
	if err != nil {
		httputil.WriteError(w, dErrors.NewValidation("Invalid factor ID", map[string]string{"factor_id": "Invalid factor ID"}))
		return id.FactorID{}, false
	}
	return factorID, true
}

func (h *Handler) signInError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrInvalidInput), errors.Is(err, sentinel.ErrExpired):
		h.logger.WarnContext(ctx, "password login rejected",
			"event", "login_failed",
			"log_type", "audit",
			"device", requestcontext.DeviceLabel(ctx),
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.New(dErrors.CodeUnauthorized, msgInvalidCredentials)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request cancelled")
	default:
		h.logger.ErrorContext(ctx, "password login failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.New(dErrors.CodeInternal, "Unable to sign in, please try again")
	}
}

// allow answers 429 with Retry-After for a locked key. A limiter failure
// lets the attempt through.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, key ratelimit.Key) bool {
	if h.limiter == nil {
		return true
	}
	ctx := r.Context()
	decision, err := h.limiter.Check(ctx, key)
	if err != nil {
		h.logger.WarnContext(ctx, "lockout check failed, allowing attempt",
			"error", err,
			"scope", string(key.Scope),
			"request_id", requestcontext.RequestID(ctx),
		)
		return true
	}
	if decision.Allowed {
		return true
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds()))))
	httputil.WriteError(w, ratelimit.TooManyAttempts())
	return false
}

func (h *Handler) recordFailure(ctx context.Context, key ratelimit.Key) {
	if h.limiter == nil {
		return
	}
	if _, err := h.limiter.RecordFailure(ctx, key); err != nil {
		h.logger.WarnContext(ctx, "failed to record attempt",
			"error", err,
			"scope", string(key.Scope),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (h *Handler) clearFailures(ctx context.Context, key ratelimit.Key) {
	if h.limiter == nil {
		return
	}
	if err := h.limiter.Clear(ctx, key); err != nil {
		h.logger.WarnContext(ctx, "failed to clear attempts",
			"error", err,
			"scope", string(key.Scope),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func (h *Handler) pendingToken(r *http.Request) mfa.PendingToken {
	cookie, err := r.Cookie(h.cfg.PendingCookie)
	if err != nil {
		return ""
	}
	return mfa.PendingToken(cookie.Value)
}

// setPendingCookie writes the pending token cookie; a negative maxAge deletes it.
func (h *Handler) setPendingCookie(w http.ResponseWriter, value string, maxAge int) {
	cookie := &http.Cookie{
		Name:     h.cfg.PendingCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	}
	if maxAge < 0 {
		cookie.Value = ""
		cookie.MaxAge = -1
	}
	http.SetCookie(w, cookie)
}

// cookieAge follows the token lifetime; an unknown or past expiry yields a
// browser-session cookie.
func cookieAge(ctx context.Context, expiresAt time.Time) int {
	if expiresAt.IsZero() {
		return 0
	}
	return max(int(expiresAt.Sub(requestcontext.Now(ctx)).Seconds()), 0)
}
