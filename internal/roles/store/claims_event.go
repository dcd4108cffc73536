package store

import (
	"encoding/json"
	"fmt"

	"gatekeeper/internal/roles/models"
	"gatekeeper/pkg/platform/outbox"
)

const (
	aggregateIdentity     = "identity"
	eventRoleClaimsChange = "role_claims_changed"
)

// claimsEntry builds the outbox entry that propagates a role change to the
// identity provider's token claims.
func claimsEntry(up models.Upsert, role models.Role) (*outbox.Entry, error) {
	payload, err := json.Marshal(models.ClaimsChanged{
		IdentityID: up.IdentityID.String(),
		Role:       role.Name,
		RoleLevel:  role.Level.Int(),
		ChangedBy:  up.ActorID.String(),
		ChangedAt:  up.At,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal claims change: %w", err)
	}
	return outbox.NewEntry(aggregateIdentity, up.IdentityID.String(), eventRoleClaimsChange, payload, up.At), nil
}
