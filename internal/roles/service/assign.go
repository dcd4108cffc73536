package service

import (
	"context"
	"errors"

	"gatekeeper/internal/authz"
	"gatekeeper/internal/roles/catalog"
	"gatekeeper/internal/roles/models"
	"gatekeeper/internal/sentinel"
	id "gatekeeper/pkg/domain"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/requestcontext"
	"gatekeeper/pkg/validation"
)

// AssignRole grants cmd.RoleID to the target identity on behalf of the actor.
//
// The actor must sit strictly above both the target's current level and the
// granted level. The write is a single atomic upsert that also appends the
// audit record and the claims-propagation event. The store repeats the
// target-level check against the locked assignment, so a concurrent
// promotion of the target is never overwritten.
//
// Returns CodeValidation for malformed ids or an unknown role, CodeForbidden
// when either escalation check fails, and CodeInternal for store failures.
func (s *Service) AssignRole(ctx context.Context, cmd models.AssignRoleCommand) (*models.AssignmentResult, error) {
	if err := validation.Validate(&cmd); err != nil {
		s.incAssignment(actionNone, "invalid")
		return nil, err
	}
	targetID, err := id.ParseIdentityID(cmd.TargetIdentityID)
	if err != nil {
		return nil, dErrors.NewValidation(msgInvalidUserID, map[string]string{"user_id": msgInvalidUserID})
	}
	roleID, err := id.ParseRoleID(cmd.RoleID)
	if err != nil {
		return nil, dErrors.NewValidation(msgInvalidRoleID, map[string]string{"role_id": msgInvalidRoleID})
	}

	role, err := s.store.FindRole(ctx, roleID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.incAssignment(actionNone, "invalid")
			return nil, errRoleNotFound()
		}
		s.incAssignment(actionNone, "error")
		return nil, s.storeError(ctx, "find_role", err)
	}

	targetLevel, err := s.currentLevel(ctx, targetID)
	if err != nil {
		s.incAssignment(actionNone, "error")
		return nil, s.storeError(ctx, "find_assigned_role", err)
	}

	attrs := []any{
		"actor_id", cmd.ActorID.String(),
		"actor_level", cmd.ActorLevel.Int(),
		"target_id", targetID.String(),
		"target_level", targetLevel.Int(),
		"role_level", role.Level.Int(),
		"device", requestcontext.DeviceLabel(ctx),
	}
	if !authz.CanEscalate(cmd.ActorLevel, targetLevel) {
		s.incAssignment(actionNone, "forbidden")
		s.logForbidden(ctx, "target_level", attrs...)
		return nil, dErrors.New(dErrors.CodeForbidden, msgCannotManageTarget)
	}
	if !authz.CanEscalate(cmd.ActorLevel, role.Level) {
		s.incAssignment(actionNone, "forbidden")
		s.logForbidden(ctx, "role_level", attrs...)
		return nil, dErrors.New(dErrors.CodeForbidden, msgCannotGrantRole)
	}

	result, err := s.store.UpsertAssignment(ctx, models.Upsert{
		IdentityID: targetID,
		RoleID:     role.ID,
		ActorID:    cmd.ActorID,
		ActorLevel: cmd.ActorLevel,
		At:         requestcontext.Now(ctx),
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrForbidden) {
			// target promoted between the check and the write
			s.incAssignment(actionNone, "forbidden")
			s.logForbidden(ctx, "target_level_changed", attrs...)
			return nil, dErrors.New(dErrors.CodeForbidden, msgCannotManageTarget)
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			// role removed between lookup and write
			s.incAssignment(actionNone, "invalid")
			return nil, errRoleNotFound()
		}
		s.incAssignment(actionNone, "error")
		return nil, s.storeError(ctx, "upsert_assignment", err)
	}

	s.incAssignment(string(result.Action), "success")
	s.logAudit(ctx, "role_assigned", append(attrs,
		"action", string(result.Action),
		"assignment_id", result.Assignment.ID.String(),
		"role", result.Role.Name,
	)...)
	return result, nil
}

// currentLevel returns the target's assigned level, or LevelNone when the
// identity has no assignment.
func (s *Service) currentLevel(ctx context.Context, identityID id.IdentityID) (catalog.Level, error) {
	assigned, err := s.store.FindAssignedRole(ctx, identityID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return catalog.LevelNone, nil
	}
	if err != nil {
		return catalog.LevelNone, err
	}
	return assigned.Role.Level, nil
}
