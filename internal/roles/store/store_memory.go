package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"gatekeeper/internal/audit"
	"gatekeeper/internal/authz"
	"gatekeeper/internal/roles/catalog"
	"gatekeeper/internal/roles/models"
	"gatekeeper/internal/sentinel"
	id "gatekeeper/pkg/domain"
	"gatekeeper/pkg/platform/outbox"
)

// roleNamespace derives stable role ids for the in-memory catalog seed.
var roleNamespace = uuid.MustParse("6f1c6f2e-52a4-4c38-9a57-3c1d2f0e8b11")

// InMemoryStore keeps roles and assignments in memory. One mutex covers the
// assignment write, its audit record and its outbox entry.
type InMemoryStore struct {
	mu          sync.RWMutex
	roles       map[id.RoleID]models.Role
	assignments map[id.IdentityID]*models.Assignment
	audit       *audit.InMemoryStore
	outbox      outbox.Store
}

// NewInMemoryStore seeds the role table from the catalog.
func NewInMemoryStore(auditStore *audit.InMemoryStore, outboxStore outbox.Store) *InMemoryStore {
	s := &InMemoryStore{
		roles:       make(map[id.RoleID]models.Role),
		assignments: make(map[id.IdentityID]*models.Assignment),
		audit:       auditStore,
		outbox:      outboxStore,
	}
	for _, info := range catalog.All() {
		roleID := id.RoleID(uuid.NewSHA1(roleNamespace, []byte(info.Name)))
		s.roles[roleID] = models.Role{
			ID:          roleID,
			Name:        info.Name,
			Description: info.Description,
			Level:       info.Level,
		}
	}
	return s
}

func (s *InMemoryStore) ListRoles(_ context.Context) ([]models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roles := make([]models.Role, 0, len(s.roles))
	for _, role := range s.roles {
		roles = append(roles, role)
	}
	slices.SortFunc(roles, func(a, b models.Role) int { return int(a.Level - b.Level) })
	return roles, nil
}

func (s *InMemoryStore) FindRole(_ context.Context, roleID id.RoleID) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[roleID]
	if !ok {
		return nil, fmt.Errorf("role not found: %w", sentinel.ErrNotFound)
	}
	return &role, nil
}

// RoleByLevel returns the seeded role at level; used by tests and fixtures.
func (s *InMemoryStore) RoleByLevel(level catalog.Level) (models.Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, role := range s.roles {
		if role.Level == level {
			return role, true
		}
	}
	return models.Role{}, false
}

func (s *InMemoryStore) FindAssignedRole(_ context.Context, identityID id.IdentityID) (*models.AssignedRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[identityID]
	if !ok {
		return nil, fmt.Errorf("assignment not found: %w", sentinel.ErrNotFound)
	}
	role, ok := s.roles[a.RoleID]
	if !ok {
		return nil, fmt.Errorf("assigned role not found: %w", sentinel.ErrNotFound)
	}
	return &models.AssignedRole{IdentityID: identityID, Role: role, AssignedAt: a.UpdatedAt}, nil
}

func (s *InMemoryStore) ListAssignedBelow(_ context.Context, level catalog.Level) ([]models.AssignedRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AssignedRole, 0, len(s.assignments))
	for identityID, a := range s.assignments {
		role, ok := s.roles[a.RoleID]
		if !ok || role.Level >= level {
			continue
		}
		out = append(out, models.AssignedRole{IdentityID: identityID, Role: role, AssignedAt: a.UpdatedAt})
	}
	slices.SortFunc(out, compareAssignedDesc)
	return out, nil
}

// compareAssignedDesc orders by level descending, then most recently assigned.
func compareAssignedDesc(a, b models.AssignedRole) int {
	if a.Role.Level != b.Role.Level {
		return int(b.Role.Level - a.Role.Level)
	}
	return b.AssignedAt.Compare(a.AssignedAt)
}

func (s *InMemoryStore) UpsertAssignment(ctx context.Context, up models.Upsert) (*models.AssignmentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	role, ok := s.roles[up.RoleID]
	if !ok {
		return nil, fmt.Errorf("role not found: %w", sentinel.ErrNotFound)
	}
	if existing, ok := s.assignments[up.IdentityID]; ok {
		if current, ok := s.roles[existing.RoleID]; ok && !authz.CanEscalate(up.ActorLevel, current.Level) {
			return nil, fmt.Errorf("target outranks actor: %w", sentinel.ErrForbidden)
		}
	}

	// nothing below can fail once the outbox accepted the entry
	entry, err := claimsEntry(up, role)
	if err != nil {
		return nil, err
	}
	if err := s.outbox.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("append claims change: %w", err)
	}

	result := &models.AssignmentResult{Role: role}
	var oldRole *audit.RoleRef
	if existing, ok := s.assignments[up.IdentityID]; ok {
		prev := existing.RoleID
		result.PreviousRoleID = &prev
		if r, ok := s.roles[prev]; ok {
			oldRole = &audit.RoleRef{Name: r.Name, Level: r.Level}
		}
		existing.RoleID = up.RoleID
		existing.UpdatedAt = up.At
		existing.UpdatedBy = up.ActorID
		result.Assignment = *existing
		result.Action = models.ActionUpdate
	} else {
		a := &models.Assignment{
			ID:         id.AssignmentID(uuid.New()),
			IdentityID: up.IdentityID,
			RoleID:     up.RoleID,
			CreatedAt:  up.At,
			UpdatedAt:  up.At,
			CreatedBy:  up.ActorID,
			UpdatedBy:  up.ActorID,
		}
		s.assignments[up.IdentityID] = a
		result.Assignment = *a
		result.Action = models.ActionInsert
	}

	identityID, actorID, newRoleID := up.IdentityID, up.ActorID, up.RoleID
	s.audit.Append(audit.Row{
		Record: audit.Record{
			ID:           id.AuditRecordID(uuid.New()),
			AssignmentID: result.Assignment.ID,
			Action:       audit.Action(result.Action),
			OldRoleID:    result.PreviousRoleID,
			NewRoleID:    &newRoleID,
			ChangedBy:    &actorID,
			ChangedAt:    up.At,
		},
		IdentityID: &identityID,
		OldRole:    oldRole,
		NewRole:    &audit.RoleRef{Name: role.Name, Level: role.Level},
	})
	return result, nil
}
