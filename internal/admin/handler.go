// Package admin is the thin HTTP adapter of the admin area: manageable
// identities, role assignment, the role list and the audit trail. The
// router mounts it behind the admin level gate.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"gatekeeper/internal/audit"
	"gatekeeper/internal/platform/middleware"
	"gatekeeper/internal/roles/catalog"
	"gatekeeper/internal/roles/models"
	id "gatekeeper/pkg/domain"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/platform/httputil"
	"gatekeeper/pkg/requestcontext"
)

// DefaultAuditPageSize is used when Config.AuditPageSize is not positive.
const DefaultAuditPageSize = 20

// RoleService is the role assignment engine as seen by the admin routes.
type RoleService interface {
	AssignRole(ctx context.Context, cmd models.AssignRoleCommand) (*models.AssignmentResult, error)
	ListManageableIdentities(ctx context.Context, callerLevel catalog.Level) ([]models.ManagedIdentity, error)
	ListAssignableRoles(ctx context.Context, callerLevel catalog.Level) ([]models.Role, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
}

// AuditReader serves pages of the assignment audit trail.
type AuditReader interface {
	GetPage(ctx context.Context, page, pageSize int) *audit.Page
}

type Config struct {
	AuditPageSize int
}

type Handler struct {
	roles  RoleService
	audit  AuditReader
	cfg    Config
	logger *slog.Logger
}

func New(roles RoleService, auditReader AuditReader, cfg Config, logger *slog.Logger) *Handler {
	if cfg.AuditPageSize <= 0 {
		cfg.AuditPageSize = DefaultAuditPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{roles: roles, audit: auditReader, cfg: cfg, logger: logger}
}

// Register registers admin routes with the router. The caller is expected to
// wrap r with the admin level requirement.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/users", h.HandleListUsers)
	r.Post("/admin/users/{userID}/role", h.HandleAssignRole)
	r.Get("/admin/roles", h.HandleListRoles)
	r.Get("/admin/audit", h.HandleAuditPage)
}

type usersResponse struct {
	Users           []models.ManagedIdentity `json:"users"`
	AssignableRoles []roleResponse           `json:"assignable_roles"`
}

type roleResponse struct {
	ID          id.RoleID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Level       catalog.Level `json:"level"`
	Badge       catalog.Badge `json:"badge,omitempty"`
}

type rolesResponse struct {
	Roles []roleResponse `json:"roles"`
}

type assignRoleRequest struct {
	RoleID string `json:"role_id"`
}

type assignmentResponse struct {
	IdentityID     id.IdentityID           `json:"identity_id"`
	Role           roleResponse            `json:"role"`
	Action         models.AssignmentAction `json:"action"`
	PreviousRoleID *id.RoleID              `json:"previous_role_id,omitempty"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// HandleListUsers implements GET /admin/users.
// Lists identities strictly below the caller together with the roles the
// caller may hand out.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	users, err := h.roles.ListManageableIdentities(ctx, caller.Level())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	assignable, err := h.roles.ListAssignableRoles(ctx, caller.Level())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if users == nil {
		users = []models.ManagedIdentity{}
	}
	httputil.WriteJSON(w, http.StatusOK, &usersResponse{
		Users:           users,
		AssignableRoles: toRoleResponses(assignable),
	})
}

// HandleAssignRole implements POST /admin/users/{userID}/role.
//
// Input: { "role_id": "<uuid>" }
// Output: the stored assignment, with "action" INSERT or UPDATE.
func (h *Handler) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[assignRoleRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.roles.AssignRole(ctx, models.AssignRoleCommand{
		TargetIdentityID: chi.URLParam(r, "userID"),
		RoleID:           req.RoleID,
		ActorID:          caller.Identity.ID,
		ActorLevel:       caller.Level(),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "role assigned via admin",
		"request_id", requestcontext.RequestID(ctx),
		"target_identity_id", result.Assignment.IdentityID.String(),
		"role_level", result.Role.Level.Int(),
		"action", string(result.Action),
	)
	httputil.WriteJSON(w, http.StatusOK, toAssignmentResponse(result))
}

// HandleListRoles implements GET /admin/roles.
func (h *Handler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.ListRoles(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &rolesResponse{Roles: toRoleResponses(roles)})
}

// HandleAuditPage implements GET /admin/audit?page=N.
// A store failure is answered with an empty page rather than an error.
func (h *Handler) HandleAuditPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := h.audit.GetPage(ctx, parsePage(r.URL.Query().Get("page")), h.cfg.AuditPageSize)
	if page.Degraded {
		h.logger.WarnContext(ctx, "serving degraded audit page",
			"request_id", requestcontext.RequestID(ctx),
			"page", page.CurrentPage,
		)
	}
	if page.Entries == nil {
		page.Entries = []audit.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (*middleware.Principal, bool) {
	p := middleware.PrincipalFrom(r.Context())
	if p == nil || p.Identity == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return nil, false
	}
	return p, true
}

// parsePage treats missing, non-numeric and non-positive values as page 1.
func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func toRoleResponses(roles []models.Role) []roleResponse {
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, toRoleResponse(role))
	}
	return out
}

func toRoleResponse(role models.Role) roleResponse {
	resp := roleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		Level:       role.Level,
	}
	if info, ok := catalog.Lookup(role.Level); ok {
		resp.Badge = info.Badge
	}
	return resp
}

func toAssignmentResponse(result *models.AssignmentResult) *assignmentResponse {
	return &assignmentResponse{
		IdentityID:     result.Assignment.IdentityID,
		Role:           toRoleResponse(result.Role),
		Action:         result.Action,
		PreviousRoleID: result.PreviousRoleID,
		UpdatedAt:      result.Assignment.UpdatedAt,
	}
}
