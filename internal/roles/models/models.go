package models

import (
	"time"

	"gatekeeper/internal/identity"
	"gatekeeper/internal/roles/catalog"
	id "gatekeeper/pkg/domain"
)

// Role is a row of the roles table. Level is the sole ordering key.
type Role struct {
	ID          id.RoleID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Level       catalog.Level `json:"level"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Assignment maps one identity to its single active role.
type Assignment struct {
	ID         id.AssignmentID
	IdentityID id.IdentityID
	RoleID     id.RoleID
	CreatedAt  time.Time
	UpdatedAt  time.Time
	CreatedBy  id.IdentityID
	UpdatedBy  id.IdentityID
}

// AssignmentAction is the kind of mutation an assignment write performed.
type AssignmentAction string

const (
	ActionInsert AssignmentAction = "INSERT"
	ActionUpdate AssignmentAction = "UPDATE"
)

// AssignedRole is an assignment joined with its role row.
type AssignedRole struct {
	IdentityID id.IdentityID
	Role       Role
	AssignedAt time.Time
}

// Upsert is the input of the atomic assignment write. ActorLevel is checked
// again against the target's locked current level inside the write.
type Upsert struct {
	IdentityID id.IdentityID
	RoleID     id.RoleID
	ActorID    id.IdentityID
	ActorLevel catalog.Level
	At         time.Time
}

// AssignmentResult reports what the atomic write did.
type AssignmentResult struct {
	Assignment     Assignment
	Action         AssignmentAction
	PreviousRoleID *id.RoleID
	Role           Role
}

// ManagedIdentity is an identity the caller is allowed to see and manage.
type ManagedIdentity struct {
	Identity   identity.Summary `json:"identity"`
	Role       Role             `json:"role"`
	AssignedAt time.Time        `json:"assigned_at"`
}

// AssignRoleCommand is the raw admin input. IDs stay strings until validated.
type AssignRoleCommand struct {
	TargetIdentityID string        `json:"user_id" validate:"required,uuid" msg:"Invalid user ID"`
	RoleID           string        `json:"role_id" validate:"required,uuid" msg:"Invalid role ID"`
	ActorID          id.IdentityID `json:"-"`
	ActorLevel       catalog.Level `json:"-"`
}

// ClaimsChanged is the payload published when an identity's role changes so
// the provider can embed the new role into future tokens.
type ClaimsChanged struct {
	IdentityID string    `json:"identity_id"`
	Role       string    `json:"role"`
	RoleLevel  int       `json:"role_level"`
	ChangedBy  string    `json:"changed_by"`
	ChangedAt  time.Time `json:"changed_at"`
}
