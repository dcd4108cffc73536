package service

import (
	"context"

	"gatekeeper/internal/roles/catalog"
	"gatekeeper/internal/roles/models"
	id "gatekeeper/pkg/domain"
	"gatekeeper/pkg/platform/tracer"
)

// ListManageableIdentities returns identities whose level is strictly below
// callerLevel, ordered by level descending. Identities the directory cannot
// resolve are skipped.
func (s *Service) ListManageableIdentities(ctx context.Context, callerLevel catalog.Level) (result []models.ManagedIdentity, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanManageableList, tracer.Int(tracer.AttrCallerLevel, callerLevel.Int()))
	defer func() { span.End(err) }()

	rows, err := s.store.ListAssignedBelow(ctx, callerLevel)
	if err != nil {
		return nil, s.storeError(ctx, "list_assigned_below", err)
	}

	ids := make([]id.IdentityID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.IdentityID)
	}
	resolved := s.resolver.Resolve(ctx, ids)
	span.SetAttributes(tracer.Int(tracer.AttrUniqueIDs, len(resolved)))

	result = make([]models.ManagedIdentity, 0, len(rows))
	for _, row := range rows {
		found, ok := resolved[row.IdentityID]
		if !ok {
			continue
		}
		result = append(result, models.ManagedIdentity{
			Identity:   found.Summary(),
			Role:       row.Role,
			AssignedAt: row.AssignedAt,
		})
	}
	return result, nil
}

// ListAssignableRoles returns roles strictly below callerLevel, ascending.
func (s *Service) ListAssignableRoles(ctx context.Context, callerLevel catalog.Level) ([]models.Role, error) {
	roles, err := s.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	assignable := make([]models.Role, 0, len(roles))
	for _, role := range roles {
		if role.Level < callerLevel {
			assignable = append(assignable, role)
		}
	}
	return assignable, nil
}

// ListRoles returns every role, ascending by level.
func (s *Service) ListRoles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.store.ListRoles(ctx)
	if err != nil {
		return nil, s.storeError(ctx, "list_roles", err)
	}
	return roles, nil
}
