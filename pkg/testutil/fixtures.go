package testutil

import (
	"time"

	"github.com/google/uuid"

	"gatekeeper/internal/identity"
	"gatekeeper/internal/roles/catalog"
	"gatekeeper/internal/roles/claims"
	id "gatekeeper/pkg/domain"
)

// TestIDs provides convenient pre-generated IDs for tests.
// Use these for deterministic test data.
var TestIDs = struct {
	IdentityID1 id.IdentityID
	IdentityID2 id.IdentityID
	FactorID1   id.FactorID
}{
	IdentityID1: id.IdentityID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	IdentityID2: id.IdentityID(uuid.MustParse("22222222-2222-2222-2222-222222222222")),
	FactorID1:   id.FactorID(uuid.MustParse("ffff0000-0000-0000-0000-000000000001")),
}

// IdentityBuilder provides a fluent interface for building test identities.
type IdentityBuilder struct {
	identity *identity.Identity
}

// NewIdentityBuilder creates a new IdentityBuilder with sensible defaults:
// a fresh id, an example email, no role claims and no factors.
func NewIdentityBuilder() *IdentityBuilder {
	return &IdentityBuilder{
		identity: &identity.Identity{
			ID:           id.IdentityID(uuid.New()),
			Email:        "test@example.com",
			UserMetadata: map[string]any{},
			AppMetadata:  map[string]any{},
			CreatedAt:    time.Now().Add(-time.Hour),
		},
	}
}

func (b *IdentityBuilder) WithID(identityID id.IdentityID) *IdentityBuilder {
	b.identity.ID = identityID
	return b
}

func (b *IdentityBuilder) WithEmail(email string) *IdentityBuilder {
	b.identity.Email = email
	return b
}

func (b *IdentityBuilder) WithName(firstName, lastName string) *IdentityBuilder {
	b.identity.UserMetadata[identity.MetaFirstName] = firstName
	b.identity.UserMetadata[identity.MetaLastName] = lastName
	return b
}

// WithRoleClaim embeds the catalog role at level into the claims bag the
// way the provider does after propagation (JSON numbers decode as float64).
func (b *IdentityBuilder) WithRoleClaim(level catalog.Level) *IdentityBuilder {
	b.identity.AppMetadata[claims.KeyRole] = catalog.Name(level)
	b.identity.AppMetadata[claims.KeyRoleLevel] = float64(level)
	return b
}

// WithVerifiedTOTP adds a verified authenticator factor.
func (b *IdentityBuilder) WithVerifiedTOTP(factorID id.FactorID) *IdentityBuilder {
	b.identity.Factors = append(b.identity.Factors, identity.Factor{
		ID:     factorID,
		Type:   identity.FactorTypeTOTP,
		Status: identity.FactorStatusVerified,
	})
	return b
}

func (b *IdentityBuilder) CreatedAt(t time.Time) *IdentityBuilder {
	b.identity.CreatedAt = t
	return b
}

func (b *IdentityBuilder) Build() *identity.Identity {
	return b.identity
}

// SessionBuilder provides a fluent interface for building provider sessions.
type SessionBuilder struct {
	session *identity.Session
}

// NewSessionBuilder creates a password-level session for a default identity
// that expires in one hour.
func NewSessionBuilder() *SessionBuilder {
	return &SessionBuilder{
		session: &identity.Session{
			AccessToken:    "access-" + uuid.NewString(),
			ExpiresAt:      time.Now().Add(time.Hour),
			AssuranceLevel: identity.AssurancePassword,
			Identity:       NewIdentityBuilder().Build(),
		},
	}
}

func (b *SessionBuilder) ForIdentity(i *identity.Identity) *SessionBuilder {
	b.session.Identity = i
	return b
}

func (b *SessionBuilder) WithAccessToken(token string) *SessionBuilder {
	b.session.AccessToken = token
	return b
}

// SecondFactorVerified raises the session to the MFA assurance level.
func (b *SessionBuilder) SecondFactorVerified() *SessionBuilder {
	b.session.AssuranceLevel = identity.AssuranceMFA
	return b
}

func (b *SessionBuilder) ExpiresAt(t time.Time) *SessionBuilder {
	b.session.ExpiresAt = t
	return b
}

func (b *SessionBuilder) Build() *identity.Session {
	return b.session
}
