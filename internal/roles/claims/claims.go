// Package claims derives a caller's role from signed token claims, with a
// fallback to the role-assignment store.
package claims

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"

	"gatekeeper/internal/identity"
	"gatekeeper/internal/roles/catalog"
	"gatekeeper/internal/roles/models"
	"gatekeeper/internal/sentinel"
	id "gatekeeper/pkg/domain"
	"gatekeeper/pkg/requestcontext"
)

// Claim keys inside the identity's app metadata.
const (
	KeyRole      = "role"
	KeyRoleLevel = "role_level"
)

// RoleClaim is the typed projection of the role claims.
type RoleClaim struct {
	Name  string        `json:"name"`
	Level catalog.Level `json:"level"`
}

// Source says where a resolved role came from.
type Source int

const (
	SourceNone Source = iota
	SourceClaims
	SourceStore
)

func (s Source) String() string {
	switch s {
	case SourceClaims:
		return "claims"
	case SourceStore:
		return "store"
	default:
		return "none"
	}
}

// FromIdentity reads the role name and level from the claims bag. Both must
// be present and well formed; a partial claim is treated as absent.
func FromIdentity(i *identity.Identity) (RoleClaim, bool) {
	if i == nil || i.AppMetadata == nil {
		return RoleClaim{}, false
	}
	name, ok := i.AppMetadata[KeyRole].(string)
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return RoleClaim{}, false
	}
	level, ok := parseLevel(i.AppMetadata[KeyRoleLevel])
	if !ok {
		return RoleClaim{}, false
	}
	return RoleClaim{Name: name, Level: level}, true
}

// parseLevel accepts a positive integral number no higher than the top of the
// hierarchy. JSON decoding yields float64 or json.Number.
func parseLevel(v any) (catalog.Level, bool) {
	var n int64
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) || t > math.MaxInt32 {
			return 0, false
		}
		n = int64(t)
	case int:
		n = int64(t)
	case int64:
		n = t
	case json.Number:
		parsed, err := t.Int64()
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if n <= 0 || n > int64(catalog.LevelSuperAdmin) {
		return 0, false
	}
	return catalog.Level(n), true
}

// AssignmentReader is the single-row store lookup used as the fallback.
type AssignmentReader interface {
	FindAssignedRole(ctx context.Context, identityID id.IdentityID) (*models.AssignedRole, error)
}

// Extractor resolves roles, preferring claims over the store.
type Extractor struct {
	store  AssignmentReader
	logger *slog.Logger
}

type Option func(*Extractor)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

func NewExtractor(store AssignmentReader, opts ...Option) *Extractor {
	e := &Extractor{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Lookup reads the identity's role from the store. An identity without an
// assignment yields sentinel.ErrNotFound; any other error is a store failure.
func (e *Extractor) Lookup(ctx context.Context, identityID id.IdentityID) (RoleClaim, error) {
	assigned, err := e.store.FindAssignedRole(ctx, identityID)
	if err != nil {
		return RoleClaim{}, err
	}
	return RoleClaim{Name: assigned.Role.Name, Level: assigned.Role.Level}, nil
}

// FromStore is Lookup with every failure collapsed into "no role".
func (e *Extractor) FromStore(ctx context.Context, identityID id.IdentityID) (RoleClaim, bool) {
	role, err := e.Lookup(ctx, identityID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			e.logger.ErrorContext(ctx, "role store lookup failed",
				"identity_id", identityID.String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return RoleClaim{}, false
	}
	return role, true
}

// Resolve prefers the token claims and falls back to the store only when the
// claims are absent.
func (e *Extractor) Resolve(ctx context.Context, i *identity.Identity) (RoleClaim, Source) {
	if role, ok := FromIdentity(i); ok {
		return role, SourceClaims
	}
	if i == nil || i.ID.IsNil() {
		return RoleClaim{}, SourceNone
	}
	if role, ok := e.FromStore(ctx, i.ID); ok {
		return role, SourceStore
	}
	return RoleClaim{}, SourceNone
}
