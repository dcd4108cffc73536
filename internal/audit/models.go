package audit

import (
	"time"

	"gatekeeper/internal/identity"
	"gatekeeper/internal/roles/catalog"
	id "gatekeeper/pkg/domain"
)

// Action is the kind of assignment mutation a record captures.
type Action string

const (
	ActionInsert Action = "INSERT"
	ActionUpdate Action = "UPDATE"
)

// Record is one append-only audit row. It is never updated or deleted.
type Record struct {
	ID           id.AuditRecordID
	AssignmentID id.AssignmentID
	Action       Action
	OldRoleID    *id.RoleID
	NewRoleID    *id.RoleID
	ChangedBy    *id.IdentityID
	ChangedAt    time.Time
}

// RoleRef is the display projection of a role referenced by a record.
type RoleRef struct {
	Name  string        `json:"name"`
	Level catalog.Level `json:"level"`
}

// Row is a record joined with its assignment and role rows. Any joined
// field may be nil when the referenced row no longer exists.
type Row struct {
	Record
	IdentityID *id.IdentityID
	OldRole    *RoleRef
	NewRole    *RoleRef
}

// Entry is the presentation model of one audit record.
type Entry struct {
	ID           id.AuditRecordID  `json:"id"`
	AssignmentID id.AssignmentID   `json:"assignment_id"`
	Action       Action            `json:"action"`
	ChangedAt    time.Time         `json:"changed_at"`
	Identity     *identity.Summary `json:"identity"`
	ChangedBy    *identity.Summary `json:"changed_by"`
	OldRole      *RoleRef          `json:"old_role"`
	NewRole      *RoleRef          `json:"new_role"`
}

// Page is one page of the audit trail.
type Page struct {
	Entries     []Entry `json:"entries"`
	TotalCount  int     `json:"total_count"`
	CurrentPage int     `json:"current_page"`
	TotalPages  int     `json:"total_pages"`
	// Degraded is set when the store failed and the page was emptied.
	Degraded bool `json:"-"`
}
