package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"gatekeeper/internal/roles/catalog"
	"gatekeeper/internal/roles/models"
	"gatekeeper/internal/sentinel"
	id "gatekeeper/pkg/domain"
)

var (
	roleColumns = []string{"id", "name", "description", "level", "created_at"}
	lockColumns = []string{"role_id", "level"}
)

type PostgresStoreSuite struct {
	suite.Suite
	mock  sqlmock.Sqlmock
	store *PostgresStore
	done  func()
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupTest() {
	db, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.mock = mock
	s.store = NewPostgres(db)
	s.done = func() { _ = db.Close() }
}

func (s *PostgresStoreSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.done()
}

func (s *PostgresStoreSuite) expectRole(roleID uuid.UUID, name string, level int) {
	s.mock.ExpectQuery("FROM roles r WHERE r.id").
		WithArgs(roleID).
		WillReturnRows(sqlmock.NewRows(roleColumns).AddRow(roleID.String(), name, "", int64(level), time.Now()))
}

func (s *PostgresStoreSuite) TestUpsertInsertsWhenNoPriorAssignment() {
	roleID, target, actor, assignmentID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	s.mock.ExpectBegin()
	s.expectRole(roleID, "Author", 50)
	s.mock.ExpectQuery("SELECT ra.role_id, r.level FROM role_assignments ra .* FOR UPDATE OF ra").
		WithArgs(target).
		WillReturnRows(sqlmock.NewRows(lockColumns))
	s.mock.ExpectQuery("INSERT INTO role_assignments.*ON CONFLICT \\(identity_id\\) DO UPDATE").
		WithArgs(sqlmock.AnyArg(), target, roleID, at, actor, 90).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "created_by", "inserted"}).
			AddRow(assignmentID.String(), at, actor.String(), true))
	s.mock.ExpectExec("INSERT INTO audit_records").
		WithArgs(sqlmock.AnyArg(), assignmentID, "INSERT", nil, roleID, actor, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec("INSERT INTO outbox").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	result, err := s.store.UpsertAssignment(context.Background(), models.Upsert{
		IdentityID: id.IdentityID(target),
		RoleID:     id.RoleID(roleID),
		ActorID:    id.IdentityID(actor),
		ActorLevel: catalog.LevelAdmin,
		At:         at,
	})
	s.Require().NoError(err)
	s.Equal(models.ActionInsert, result.Action)
	s.Nil(result.PreviousRoleID)
	s.Equal(id.IdentityID(actor), result.Assignment.CreatedBy)
	s.Equal(id.IdentityID(actor), result.Assignment.UpdatedBy)
	s.Equal(catalog.LevelAuthor, result.Role.Level)
}

func (s *PostgresStoreSuite) TestUpsertUpdatesExistingAssignment() {
	roleID, oldRoleID, target, actor, creator := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	s.mock.ExpectBegin()
	s.expectRole(roleID, "Editor", 70)
	s.mock.ExpectQuery("SELECT ra.role_id, r.level FROM role_assignments ra").
		WithArgs(target).
		WillReturnRows(sqlmock.NewRows(lockColumns).AddRow(oldRoleID.String(), int64(30)))
	s.mock.ExpectQuery("INSERT INTO role_assignments").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "created_by", "inserted"}).
			AddRow(uuid.NewString(), at.Add(-time.Hour), creator.String(), false))
	s.mock.ExpectExec("INSERT INTO audit_records").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "UPDATE", oldRoleID, roleID, actor, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec("INSERT INTO outbox").WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	result, err := s.store.UpsertAssignment(context.Background(), models.Upsert{
		IdentityID: id.IdentityID(target),
		RoleID:     id.RoleID(roleID),
		ActorID:    id.IdentityID(actor),
		ActorLevel: catalog.LevelAdmin,
		At:         at,
	})
	s.Require().NoError(err)
	s.Equal(models.ActionUpdate, result.Action)
	s.Require().NotNil(result.PreviousRoleID)
	s.Equal(id.RoleID(oldRoleID), *result.PreviousRoleID)
	s.Equal(id.IdentityID(creator), result.Assignment.CreatedBy, "creator is preserved on update")
	s.Equal(id.IdentityID(actor), result.Assignment.UpdatedBy)
}

func (s *PostgresStoreSuite) TestUpsertUnknownRole() {
	roleID := uuid.New()
	s.mock.ExpectBegin()
	s.mock.ExpectQuery("FROM roles r WHERE r.id").
		WithArgs(roleID).
		WillReturnRows(sqlmock.NewRows(roleColumns))
	s.mock.ExpectRollback()

	_, err := s.store.UpsertAssignment(context.Background(), models.Upsert{
		IdentityID: id.IdentityID(uuid.New()),
		RoleID:     id.RoleID(roleID),
		ActorID:    id.IdentityID(uuid.New()),
		ActorLevel: catalog.LevelAdmin,
		At:         time.Now(),
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpsertRollsBackWhenAuditWriteFails() {
	roleID, target := uuid.New(), uuid.New()
	s.mock.ExpectBegin()
	s.expectRole(roleID, "Guest", 10)
	s.mock.ExpectQuery("SELECT ra.role_id, r.level FROM role_assignments ra").
		WillReturnRows(sqlmock.NewRows(lockColumns))
	s.mock.ExpectQuery("INSERT INTO role_assignments").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "created_by", "inserted"}).
			AddRow(uuid.NewString(), time.Now(), uuid.NewString(), true))
	s.mock.ExpectExec("INSERT INTO audit_records").WillReturnError(errors.New("disk full"))
	s.mock.ExpectRollback()

	_, err := s.store.UpsertAssignment(context.Background(), models.Upsert{
		IdentityID: id.IdentityID(target),
		RoleID:     id.RoleID(roleID),
		ActorID:    id.IdentityID(uuid.New()),
		ActorLevel: catalog.LevelAdmin,
		At:         time.Now(),
	})
	s.Error(err)
	s.NotErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpsertRejectsOutrankingTarget() {
	s.Run("locked assignment at the actor level", func() {
		roleID, target := uuid.New(), uuid.New()
		s.mock.ExpectBegin()
		s.expectRole(roleID, "Author", 50)
		s.mock.ExpectQuery("SELECT ra.role_id, r.level FROM role_assignments ra").
			WithArgs(target).
			WillReturnRows(sqlmock.NewRows(lockColumns).AddRow(uuid.NewString(), int64(100)))
		s.mock.ExpectRollback()

		_, err := s.store.UpsertAssignment(context.Background(), models.Upsert{
			IdentityID: id.IdentityID(target),
			RoleID:     id.RoleID(roleID),
			ActorID:    id.IdentityID(uuid.New()),
			ActorLevel: catalog.LevelAdmin,
			At:         time.Now(),
		})
		s.ErrorIs(err, sentinel.ErrForbidden)
	})

	s.Run("row inserted concurrently above the actor", func() {
		roleID, target := uuid.New(), uuid.New()
		s.mock.ExpectBegin()
		s.expectRole(roleID, "Author", 50)
		s.mock.ExpectQuery("SELECT ra.role_id, r.level FROM role_assignments ra").
			WithArgs(target).
			WillReturnRows(sqlmock.NewRows(lockColumns))
		s.mock.ExpectQuery("INSERT INTO role_assignments.*WHERE \\(SELECT level FROM roles").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "created_by", "inserted"}))
		s.mock.ExpectRollback()

		_, err := s.store.UpsertAssignment(context.Background(), models.Upsert{
			IdentityID: id.IdentityID(target),
			RoleID:     id.RoleID(roleID),
			ActorID:    id.IdentityID(uuid.New()),
			ActorLevel: catalog.LevelAdmin,
			At:         time.Now(),
		})
		s.ErrorIs(err, sentinel.ErrForbidden)
	})
}

func (s *PostgresStoreSuite) TestFindAssignedRoleNotFound() {
	identityID := uuid.New()
	s.mock.ExpectQuery("FROM role_assignments ra.*WHERE ra.identity_id").
		WithArgs(identityID).
		WillReturnRows(sqlmock.NewRows([]string{"identity_id", "updated_at", "id", "name", "description", "level", "created_at"}))

	_, err := s.store.FindAssignedRole(context.Background(), id.IdentityID(identityID))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListAssignedBelowPassesLevel() {
	a, roleID := uuid.New(), uuid.New()
	now := time.Now()
	s.mock.ExpectQuery("WHERE r.level < .* ORDER BY r.level DESC").
		WithArgs(70).
		WillReturnRows(sqlmock.NewRows([]string{"identity_id", "updated_at", "id", "name", "description", "level", "created_at"}).
			AddRow(a.String(), now, roleID.String(), "Contributor", "Submit content for review", int64(30), now))

	assigned, err := s.store.ListAssignedBelow(context.Background(), catalog.LevelEditor)
	s.Require().NoError(err)
	s.Require().Len(assigned, 1)
	s.Equal(id.IdentityID(a), assigned[0].IdentityID)
	s.Equal(catalog.LevelContributor, assigned[0].Role.Level)
}

func (s *PostgresStoreSuite) TestListRolesAscending() {
	s.mock.ExpectQuery("FROM roles r ORDER BY r.level ASC").
		WillReturnRows(sqlmock.NewRows(roleColumns).
			AddRow(uuid.NewString(), "Guest", "", int64(10), time.Now()).
			AddRow(uuid.NewString(), "Admin", "", int64(90), time.Now()))

	roles, err := s.store.ListRoles(context.Background())
	s.Require().NoError(err)
	s.Len(roles, 2)
	s.Equal(catalog.LevelGuest, roles[0].Level)
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, isForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	require.False(t, isForeignKeyViolation(errors.New("plain")))
}
