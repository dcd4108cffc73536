// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "gatekeeper/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a RoleID where an IdentityID is expected.
type (
	IdentityID    uuid.UUID
	RoleID        uuid.UUID
	AssignmentID  uuid.UUID
	AuditRecordID uuid.UUID
	FactorID      uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, token claims, provider payloads).

func ParseIdentityID(s string) (IdentityID, error) {
	id, err := parseUUID(s, "identity ID")
	return IdentityID(id), err
}

func ParseRoleID(s string) (RoleID, error) {
	id, err := parseUUID(s, "role ID")
	return RoleID(id), err
}

func ParseAssignmentID(s string) (AssignmentID, error) {
	id, err := parseUUID(s, "assignment ID")
	return AssignmentID(id), err
}

func ParseAuditRecordID(s string) (AuditRecordID, error) {
	id, err := parseUUID(s, "audit record ID")
	return AuditRecordID(id), err
}

func ParseFactorID(s string) (FactorID, error) {
	id, err := parseUUID(s, "factor ID")
	return FactorID(id), err
}

// String methods - for logging and debugging.

func (id IdentityID) String() string    { return uuid.UUID(id).String() }
func (id RoleID) String() string        { return uuid.UUID(id).String() }
func (id AssignmentID) String() string  { return uuid.UUID(id).String() }
func (id AuditRecordID) String() string { return uuid.UUID(id).String() }
func (id FactorID) String() string      { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id IdentityID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id RoleID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id AssignmentID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id AuditRecordID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id FactorID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// Text encoding - ids travel as canonical UUID strings in JSON.

func (id IdentityID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id RoleID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id AssignmentID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id AuditRecordID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id FactorID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }

func (id *IdentityID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *RoleID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AssignmentID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AuditRecordID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *FactorID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }

// parseUUID is the shared validation logic. The nil UUID never names a real
// principal or row, so it is rejected here rather than at each call site.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
