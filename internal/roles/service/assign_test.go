package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"gatekeeper/internal/roles/catalog"
	"gatekeeper/internal/roles/models"
	"gatekeeper/internal/sentinel"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/requestcontext"
)

func (s *ServiceSuite) command(target string, role models.Role, actorLevel catalog.Level) models.AssignRoleCommand {
	return models.AssignRoleCommand{
		TargetIdentityID: target,
		RoleID:           role.ID.String(),
		ActorID:          newIdentityID(),
		ActorLevel:       actorLevel,
	}
}

func (s *ServiceSuite) TestAssignRoleValidation() {
	s.Run("malformed ids carry field messages", func() {
		_, err := s.service.AssignRole(context.Background(), models.AssignRoleCommand{
			TargetIdentityID: "not-a-uuid",
			RoleID:           "also-not",
			ActorLevel:       catalog.LevelAdmin,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(map[string]string{
			"user_id": "Invalid user ID",
			"role_id": "Invalid role ID",
		}, dErrors.FieldErrors(err))
	})

	s.Run("unknown role is a validation failure", func() {
		role := roleAt(catalog.LevelAuthor)
		s.mockStore.EXPECT().FindRole(gomock.Any(), role.ID).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.AssignRole(context.Background(), s.command(newIdentityID().String(), role, catalog.LevelAdmin))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("Role not found", dErrors.FieldErrors(err)["role_id"])
	})
}

func (s *ServiceSuite) TestAssignRoleEscalation() {
	s.Run("admin cannot grant its own level", func() {
		target := newIdentityID()
		role := roleAt(catalog.LevelAdmin)
		s.mockStore.EXPECT().FindRole(gomock.Any(), role.ID).Return(&role, nil)
		s.mockStore.EXPECT().FindAssignedRole(gomock.Any(), target).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.AssignRole(context.Background(), s.command(target.String(), role, catalog.LevelAdmin))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal("You cannot assign roles equal to or higher than your own", err.Error())
	})

	s.Run("admin cannot touch a peer", func() {
		target := newIdentityID()
		role := roleAt(catalog.LevelGuest)
		peer := assignedAt(target, catalog.LevelAdmin, time.Now())
		s.mockStore.EXPECT().FindRole(gomock.Any(), role.ID).Return(&role, nil)
		s.mockStore.EXPECT().FindAssignedRole(gomock.Any(), target).Return(&peer, nil)

		_, err := s.service.AssignRole(context.Background(), s.command(target.String(), role, catalog.LevelAdmin))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal("You cannot manage users with equal or higher role levels", err.Error())
	})

	s.Run("admin grants author to a contributor", func() {
		target := newIdentityID()
		role := roleAt(catalog.LevelAuthor)
		current := assignedAt(target, catalog.LevelContributor, time.Now())
		pinned := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), pinned)
		cmd := s.command(target.String(), role, catalog.LevelAdmin)
		prev := current.Role.ID

		s.mockStore.EXPECT().FindRole(gomock.Any(), role.ID).Return(&role, nil)
		s.mockStore.EXPECT().FindAssignedRole(gomock.Any(), target).Return(&current, nil)
		s.mockStore.EXPECT().UpsertAssignment(gomock.Any(), models.Upsert{
			IdentityID: target,
			RoleID:     role.ID,
			ActorID:    cmd.ActorID,
			ActorLevel: catalog.LevelAdmin,
			At:         pinned,
		}).Return(&models.AssignmentResult{
			Assignment:     models.Assignment{IdentityID: target, RoleID: role.ID, UpdatedBy: cmd.ActorID, UpdatedAt: pinned},
			Action:         models.ActionUpdate,
			PreviousRoleID: &prev,
			Role:           role,
		}, nil)

		result, err := s.service.AssignRole(ctx, cmd)
		s.Require().NoError(err)
		s.Equal(models.ActionUpdate, result.Action)
		s.Equal(cmd.ActorID, result.Assignment.UpdatedBy)
		s.InDelta(1, testutil.ToFloat64(s.metrics.RoleAssignments.WithLabelValues("UPDATE", "success")), 0)
	})
}

func (s *ServiceSuite) TestAssignRoleStoreFailures() {
	s.Run("lookup failure is generic", func() {
		role := roleAt(catalog.LevelGuest)
		s.mockStore.EXPECT().FindRole(gomock.Any(), role.ID).Return(nil, errors.New("pq: connection reset by peer"))

		_, err := s.service.AssignRole(context.Background(), s.command(newIdentityID().String(), role, catalog.LevelAdmin))
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.NotContains(err.Error(), "pq:")
	})

	s.Run("write failure is distinct from forbidden", func() {
		target := newIdentityID()
		role := roleAt(catalog.LevelGuest)
		s.mockStore.EXPECT().FindRole(gomock.Any(), role.ID).Return(&role, nil)
		s.mockStore.EXPECT().FindAssignedRole(gomock.Any(), target).Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().UpsertAssignment(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrUnavailable)

		_, err := s.service.AssignRole(context.Background(), s.command(target.String(), role, catalog.LevelAdmin))
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.False(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("target promoted before the write", func() {
		target := newIdentityID()
		role := roleAt(catalog.LevelAuthor)
		current := assignedAt(target, catalog.LevelContributor, time.Now())
		s.mockStore.EXPECT().FindRole(gomock.Any(), role.ID).Return(&role, nil)
		s.mockStore.EXPECT().FindAssignedRole(gomock.Any(), target).Return(&current, nil)
		s.mockStore.EXPECT().UpsertAssignment(gomock.Any(), gomock.Any()).
			Return(nil, fmt.Errorf("target outranks actor: %w", sentinel.ErrForbidden))

		_, err := s.service.AssignRole(context.Background(), s.command(target.String(), role, catalog.LevelAdmin))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(msgCannotManageTarget, err.Error())
	})

	s.Run("role deleted before the write", func() {
		target := newIdentityID()
		role := roleAt(catalog.LevelGuest)
		s.mockStore.EXPECT().FindRole(gomock.Any(), role.ID).Return(&role, nil)
		s.mockStore.EXPECT().FindAssignedRole(gomock.Any(), target).Return(nil, sentinel.ErrNotFound)
		s.mockStore.EXPECT().UpsertAssignment(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.AssignRole(context.Background(), s.command(target.String(), role, catalog.LevelAdmin))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
