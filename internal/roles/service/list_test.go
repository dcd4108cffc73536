package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/mock/gomock"

	"gatekeeper/internal/identity"
	"gatekeeper/internal/roles/catalog"
	"gatekeeper/internal/roles/models"
	id "gatekeeper/pkg/domain"
	dErrors "gatekeeper/pkg/domain-errors"
)

func (s *ServiceSuite) TestListManageableIdentities() {
	s.Run("only identities strictly below the caller, level descending", func() {
		now := time.Now()
		contributor, guest := newIdentityID(), newIdentityID()
		rows := []models.AssignedRole{
			assignedAt(contributor, catalog.LevelContributor, now),
			assignedAt(guest, catalog.LevelGuest, now),
		}
		s.mockStore.EXPECT().ListAssignedBelow(gomock.Any(), catalog.LevelEditor).Return(rows, nil)
		s.mockResolver.EXPECT().Resolve(gomock.Any(), []id.IdentityID{contributor, guest}).Return(identity.Resolved{
			contributor: {ID: contributor, Email: "c@example.com"},
			guest:       {ID: guest, Email: "g@example.com", UserMetadata: map[string]any{"display_name": "Gus"}},
		})

		result, err := s.service.ListManageableIdentities(context.Background(), catalog.LevelEditor)
		s.Require().NoError(err)
		s.Require().Len(result, 2)
		s.Equal(contributor, result[0].Identity.ID)
		s.Equal(catalog.LevelContributor, result[0].Role.Level)
		s.Equal(guest, result[1].Identity.ID)
		s.Equal("Gus", result[1].Identity.DisplayName)
	})

	s.Run("unresolved identities are skipped", func() {
		now := time.Now()
		known, missing := newIdentityID(), newIdentityID()
		s.mockStore.EXPECT().ListAssignedBelow(gomock.Any(), catalog.LevelAdmin).Return([]models.AssignedRole{
			assignedAt(missing, catalog.LevelEditor, now),
			assignedAt(known, catalog.LevelAuthor, now),
		}, nil)
		s.mockResolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(identity.Resolved{
			known: {ID: known, Email: "k@example.com"},
		})

		result, err := s.service.ListManageableIdentities(context.Background(), catalog.LevelAdmin)
		s.Require().NoError(err)
		s.Require().Len(result, 1)
		s.Equal(known, result[0].Identity.ID)
	})

	s.Run("store failure", func() {
		s.mockStore.EXPECT().ListAssignedBelow(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

		_, err := s.service.ListManageableIdentities(context.Background(), catalog.LevelAdmin)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestListAssignableRoles() {
	all := []models.Role{
		roleAt(catalog.LevelGuest),
		roleAt(catalog.LevelContributor),
		roleAt(catalog.LevelAuthor),
		roleAt(catalog.LevelEditor),
		roleAt(catalog.LevelAdmin),
		roleAt(catalog.LevelSuperAdmin),
	}
	s.mockStore.EXPECT().ListRoles(gomock.Any()).Return(all, nil)

	roles, err := s.service.ListAssignableRoles(context.Background(), catalog.LevelAdmin)
	s.Require().NoError(err)
	s.Require().Len(roles, 4)
	s.Equal(catalog.LevelEditor, roles[3].Level)
	for _, r := range roles {
		s.Less(r.Level, catalog.LevelAdmin)
	}
}
