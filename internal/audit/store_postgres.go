package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"gatekeeper/internal/roles/catalog"
	id "gatekeeper/pkg/domain"
)

const listPageSQL = `
	SELECT ar.id, ar.assignment_id, ar.action, ar.old_role_id, ar.new_role_id, ar.changed_by, ar.changed_at,
	       ra.identity_id, old_role.name, old_role.level, new_role.name, new_role.level
	FROM audit_records ar
	LEFT JOIN role_assignments ra ON ra.id = ar.assignment_id
	LEFT JOIN roles old_role ON old_role.id = ar.old_role_id
	LEFT JOIN roles new_role ON new_role.id = ar.new_role_id
	ORDER BY ar.changed_at DESC, ar.id DESC
	LIMIT $1 OFFSET $2`

// PostgresStore reads the audit trail from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count audit records: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) ListPage(ctx context.Context, limit, offset int) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, listPageSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	out := make([]Row, 0, limit)
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}
	return out, nil
}

func scanRow(rows *sql.Rows) (Row, error) {
	var (
		recordID, assignmentID uuid.UUID
		action                 string
		oldRoleID, newRoleID   uuid.NullUUID
		changedBy, identityID  uuid.NullUUID
		oldName, newName       sql.NullString
		oldLevel, newLevel     sql.NullInt64
		row                    Row
	)
	if err := rows.Scan(&recordID, &assignmentID, &action, &oldRoleID, &newRoleID, &changedBy,
		&row.ChangedAt, &identityID, &oldName, &oldLevel, &newName, &newLevel); err != nil {
		return Row{}, fmt.Errorf("scan audit record: %w", err)
	}

	row.ID = id.AuditRecordID(recordID)
	row.AssignmentID = id.AssignmentID(assignmentID)
	row.Action = Action(action)
	row.OldRoleID = nullRoleID(oldRoleID)
	row.NewRoleID = nullRoleID(newRoleID)
	row.ChangedBy = nullIdentityID(changedBy)
	row.IdentityID = nullIdentityID(identityID)
	row.OldRole = nullRoleRef(oldName, oldLevel)
	row.NewRole = nullRoleRef(newName, newLevel)
	return row, nil
}

// InsertTx appends a record inside the caller's transaction.
func InsertTx(ctx context.Context, tx *sql.Tx, rec Record) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_records (id, assignment_id, action, old_role_id, new_role_id, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(rec.ID), uuid.UUID(rec.AssignmentID), string(rec.Action),
		roleIDArg(rec.OldRoleID), roleIDArg(rec.NewRoleID), identityIDArg(rec.ChangedBy), rec.ChangedAt)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func nullRoleID(v uuid.NullUUID) *id.RoleID {
	if !v.Valid {
		return nil
	}
	r := id.RoleID(v.UUID)
	return &r
}

func nullIdentityID(v uuid.NullUUID) *id.IdentityID {
	if !v.Valid {
		return nil
	}
	i := id.IdentityID(v.UUID)
	return &i
}

// nullRoleRef treats a dangling role reference as absent.
func nullRoleRef(name sql.NullString, level sql.NullInt64) *RoleRef {
	if !name.Valid || !level.Valid {
		return nil
	}
	return &RoleRef{Name: name.String, Level: catalog.Level(level.Int64)}
}

func roleIDArg(v *id.RoleID) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}

func identityIDArg(v *id.IdentityID) uuid.NullUUID {
	if v == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*v), Valid: true}
}
