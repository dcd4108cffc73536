package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"gatekeeper/internal/audit"
	"gatekeeper/internal/authz"
	"gatekeeper/internal/roles/catalog"
	"gatekeeper/internal/roles/models"
	"gatekeeper/internal/sentinel"
	id "gatekeeper/pkg/domain"
	outboxpg "gatekeeper/pkg/platform/outbox/postgres"
)

const (
	pgForeignKeyViolation = "23503"

	selectRoleColumns = `r.id, r.name, r.description, r.level, r.created_at`

	assignedRoleSQL = `
	SELECT ra.identity_id, ra.updated_at, ` + selectRoleColumns + `
	FROM role_assignments ra
	JOIN roles r ON r.id = ra.role_id`

	lockAssignmentSQL = `
	SELECT ra.role_id, r.level
	FROM role_assignments ra
	JOIN roles r ON r.id = ra.role_id
	WHERE ra.identity_id = $1
	FOR UPDATE OF ra`

	// The conflict branch re-checks the actor level for a row inserted by a
	// concurrent writer after the lock read saw nothing. No row comes back
	// when the check fails.
	upsertAssignmentSQL = `
	INSERT INTO role_assignments (id, identity_id, role_id, created_at, updated_at, created_by, updated_by)
	VALUES ($1, $2, $3, $4, $4, $5, $5)
	ON CONFLICT (identity_id) DO UPDATE
	SET role_id = EXCLUDED.role_id,
	    updated_at = EXCLUDED.updated_at,
	    updated_by = EXCLUDED.updated_by
	WHERE (SELECT level FROM roles WHERE id = role_assignments.role_id) < $6
	RETURNING id, created_at, created_by, (xmax = 0) AS inserted`
)

// PostgresStore persists roles and assignments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListRoles(ctx context.Context) ([]models.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectRoleColumns+` FROM roles r ORDER BY r.level ASC`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	roles := make([]models.Role, 0, len(catalog.All()))
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

func (s *PostgresStore) FindRole(ctx context.Context, roleID id.RoleID) (*models.Role, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectRoleColumns+` FROM roles r WHERE r.id = $1`, uuid.UUID(roleID))
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role not found: %w", sentinel.ErrNotFound)
		}
		return nil, err
	}
	return &role, nil
}

func (s *PostgresStore) FindAssignedRole(ctx context.Context, identityID id.IdentityID) (*models.AssignedRole, error) {
	row := s.db.QueryRowContext(ctx, assignedRoleSQL+` WHERE ra.identity_id = $1`, uuid.UUID(identityID))
	assigned, err := scanAssignedRole(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("assignment not found: %w", sentinel.ErrNotFound)
		}
		return nil, err
	}
	return &assigned, nil
}

func (s *PostgresStore) ListAssignedBelow(ctx context.Context, level catalog.Level) ([]models.AssignedRole, error) {
	rows, err := s.db.QueryContext(ctx,
		assignedRoleSQL+` WHERE r.level < $1 ORDER BY r.level DESC, ra.updated_at DESC`, level.Int())
	if err != nil {
		return nil, fmt.Errorf("list assignments below level: %w", err)
	}
	defer rows.Close()

	var out []models.AssignedRole
	for rows.Next() {
		assigned, err := scanAssignedRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, assigned)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return out, nil
}

// UpsertAssignment writes the assignment, its audit record and the claims
// propagation outbox entry in one transaction. The previous role is read
// under FOR UPDATE so concurrent writers for one identity serialize, and its
// level is checked against up.ActorLevel before anything is written.
func (s *PostgresStore) UpsertAssignment(ctx context.Context, up models.Upsert) (*models.AssignmentResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin assignment tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op
	}()

	role, err := scanRole(tx.QueryRowContext(ctx,
		`SELECT `+selectRoleColumns+` FROM roles r WHERE r.id = $1`, uuid.UUID(up.RoleID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role not found: %w", sentinel.ErrNotFound)
		}
		return nil, err
	}

	var (
		previous      uuid.NullUUID
		previousLevel sql.NullInt64
	)
	err = tx.QueryRowContext(ctx, lockAssignmentSQL, uuid.UUID(up.IdentityID)).Scan(&previous, &previousLevel)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock assignment: %w", err)
	}
	if previousLevel.Valid && !authz.CanEscalate(up.ActorLevel, catalog.Level(previousLevel.Int64)) {
		return nil, fmt.Errorf("target outranks actor: %w", sentinel.ErrForbidden)
	}

	var (
		assignmentID uuid.UUID
		createdAt    time.Time
		createdBy    uuid.NullUUID
		inserted     bool
	)
	err = tx.QueryRowContext(ctx, upsertAssignmentSQL,
		uuid.New(), uuid.UUID(up.IdentityID), uuid.UUID(up.RoleID), up.At, uuid.UUID(up.ActorID), up.ActorLevel.Int(),
	).Scan(&assignmentID, &createdAt, &createdBy, &inserted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("target outranks actor: %w", sentinel.ErrForbidden)
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("role removed during assignment: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("upsert assignment: %w", err)
	}

	result := &models.AssignmentResult{
		Assignment: models.Assignment{
			ID:         id.AssignmentID(assignmentID),
			IdentityID: up.IdentityID,
			RoleID:     up.RoleID,
			CreatedAt:  createdAt,
			UpdatedAt:  up.At,
			CreatedBy:  id.IdentityID(createdBy.UUID),
			UpdatedBy:  up.ActorID,
		},
		Action: models.ActionUpdate,
		Role:   role,
	}
	if inserted {
		result.Action = models.ActionInsert
	}
	if previous.Valid && !inserted {
		prev := id.RoleID(previous.UUID)
		result.PreviousRoleID = &prev
	}

	actorID, newRoleID := up.ActorID, up.RoleID
	if err := audit.InsertTx(ctx, tx, audit.Record{
		ID:           id.AuditRecordID(uuid.New()),
		AssignmentID: result.Assignment.ID,
		Action:       audit.Action(result.Action),
		OldRoleID:    result.PreviousRoleID,
		NewRoleID:    &newRoleID,
		ChangedBy:    &actorID,
		ChangedAt:    up.At,
	}); err != nil {
		return nil, err
	}

	entry, err := claimsEntry(up, role)
	if err != nil {
		return nil, err
	}
	if err := outboxpg.AppendTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit assignment: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRole(row scanner) (models.Role, error) {
	var (
		roleID uuid.UUID
		level  int
		role   models.Role
	)
	if err := row.Scan(&roleID, &role.Name, &role.Description, &level, &role.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Role{}, err
		}
		return models.Role{}, fmt.Errorf("scan role: %w", err)
	}
	role.ID = id.RoleID(roleID)
	role.Level = catalog.Level(level)
	return role, nil
}

func scanAssignedRole(row scanner) (models.AssignedRole, error) {
	var (
		identityID uuid.UUID
		roleID     uuid.UUID
		level      int
		assigned   models.AssignedRole
	)
	err := row.Scan(&identityID, &assigned.AssignedAt,
		&roleID, &assigned.Role.Name, &assigned.Role.Description, &level, &assigned.Role.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AssignedRole{}, err
		}
		return models.AssignedRole{}, fmt.Errorf("scan assignment: %w", err)
	}
	assigned.IdentityID = id.IdentityID(identityID)
	assigned.Role.ID = id.RoleID(roleID)
	assigned.Role.Level = catalog.Level(level)
	return assigned, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
