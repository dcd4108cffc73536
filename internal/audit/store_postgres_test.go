package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/roles/catalog"
	id "gatekeeper/pkg/domain"
)

var auditColumns = []string{
	"id", "assignment_id", "action", "old_role_id", "new_role_id", "changed_by", "changed_at",
	"identity_id", "old_name", "old_level", "new_name", "new_level",
}

func TestPostgresListPageJoinsRoles(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	recordID, assignmentID := uuid.New(), uuid.New()
	newRoleID, actor, target := uuid.New(), uuid.New(), uuid.New()
	changedAt := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	mock.ExpectQuery("FROM audit_records ar.*LEFT JOIN role_assignments.*ORDER BY ar.changed_at DESC").
		WithArgs(20, 40).
		WillReturnRows(sqlmock.NewRows(auditColumns).
			// insert: no old role
			AddRow(recordID.String(), assignmentID.String(), "INSERT", nil, newRoleID.String(), actor.String(), changedAt,
				target.String(), nil, nil, "Author", int64(50)).
			// role row deleted since: joined fields are null
			AddRow(uuid.NewString(), uuid.NewString(), "UPDATE", uuid.NewString(), uuid.NewString(), nil, changedAt,
				nil, nil, nil, nil, nil))

	rows, err := NewPostgres(db).ListPage(context.Background(), 20, 40)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, id.AuditRecordID(recordID), first.ID)
	assert.Equal(t, ActionInsert, first.Action)
	assert.Nil(t, first.OldRoleID)
	assert.Nil(t, first.OldRole)
	require.NotNil(t, first.NewRole)
	assert.Equal(t, RoleRef{Name: "Author", Level: catalog.LevelAuthor}, *first.NewRole)
	require.NotNil(t, first.IdentityID)
	assert.Equal(t, id.IdentityID(target), *first.IdentityID)
	assert.Equal(t, id.IdentityID(actor), *first.ChangedBy)

	second := rows[1]
	assert.NotNil(t, second.OldRoleID)
	assert.Nil(t, second.OldRole)
	assert.Nil(t, second.NewRole)
	assert.Nil(t, second.ChangedBy)
	assert.Nil(t, second.IdentityID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCountWrapsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cause := errors.New("connection refused")
	mock.ExpectQuery("SELECT COUNT").WillReturnError(cause)

	_, err = NewPostgres(db).Count(context.Background())
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, mock.ExpectationsWereMet())
}
