// Package identity models the principals owned by the external identity
// provider. This service only reads them.
package identity

import (
	"context"
	"strings"
	"time"

	id "gatekeeper/pkg/domain"
)

// Metadata keys the provider stores on a user.
const (
	MetaDisplayName = "display_name"
	MetaFirstName   = "firstname"
	MetaLastName    = "lastname"
	metaFirstNameV1 = "first_name"
	metaLastNameV1  = "last_name"
)

// Identity is an external principal. AppMetadata is the claims bag the
// provider embeds into issued tokens; UserMetadata is free-form profile data.
type Identity struct {
	ID           id.IdentityID
	Email        string
	UserMetadata map[string]any
	AppMetadata  map[string]any
	Factors      []Factor
	CreatedAt    time.Time
}

// Factor types and statuses as reported by the provider.
const (
	FactorTypeTOTP         = "totp"
	FactorStatusVerified   = "verified"
	FactorStatusUnverified = "unverified"
)

// Factor is a second authentication factor enrolled on an identity.
type Factor struct {
	ID           id.FactorID `json:"id"`
	Type         string      `json:"factor_type"`
	Status       string      `json:"status"`
	FriendlyName string      `json:"friendly_name,omitempty"`
}

// Enrollment is a freshly created, not yet verified TOTP factor.
type Enrollment struct {
	FactorID id.FactorID `json:"id"`
	QRCode   string      `json:"qr_code"`
	Secret   string      `json:"secret"`
	URI      string      `json:"uri"`
}

// Assurance levels of a provider session.
const (
	AssurancePassword = "aal1"
	AssuranceMFA      = "aal2"
)

// Session is the provider session attached to the current request.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	// AssuranceLevel is AssurancePassword after a password login and
	// AssuranceMFA once a second factor was verified.
	AssuranceLevel string
	Identity       *Identity
}

// Summary is the display projection of an identity used by admin views.
type Summary struct {
	ID          id.IdentityID `json:"id"`
	Email       string        `json:"email"`
	DisplayName string        `json:"display_name"`
}

// DisplayName prefers the stored display name, then "first last", then "".
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if name := i.metaString(MetaDisplayName); name != "" {
		return name
	}
	first := i.metaString(MetaFirstName)
	if first == "" {
		first = i.metaString(metaFirstNameV1)
	}
	last := i.metaString(MetaLastName)
	if last == "" {
		last = i.metaString(metaLastNameV1)
	}
	return strings.TrimSpace(first + " " + last)
}

func (i *Identity) Summary() Summary {
	if i == nil {
		return Summary{}
	}
	return Summary{ID: i.ID, Email: i.Email, DisplayName: i.DisplayName()}
}

// VerifiedTOTP returns the identity's verified TOTP factors.
func (i *Identity) VerifiedTOTP() []Factor {
	if i == nil {
		return nil
	}
	var out []Factor
	for _, f := range i.Factors {
		if f.Type == FactorTypeTOTP && f.Status == FactorStatusVerified {
			out = append(out, f)
		}
	}
	return out
}

func (i *Identity) metaString(key string) string {
	v, ok := i.UserMetadata[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// Directory resolves identities by id with an administrative credential.
// Implementations must be safe for concurrent use.
type Directory interface {
	GetIdentityByID(ctx context.Context, identityID id.IdentityID) (*Identity, error)
}
