package provider

import (
	"fmt"
	"time"

	"gatekeeper/internal/identity"
	id "gatekeeper/pkg/domain"
)

type userResponse struct {
	ID           string           `json:"id"`
	Email        string           `json:"email"`
	UserMetadata map[string]any   `json:"user_metadata"`
	AppMetadata  map[string]any   `json:"app_metadata"`
	Factors      []factorResponse `json:"factors"`
	CreatedAt    time.Time        `json:"created_at"`
}

type factorResponse struct {
	ID           string `json:"id"`
	FactorType   string `json:"factor_type"`
	Status       string `json:"status"`
	FriendlyName string `json:"friendly_name"`
}

type enrollRequest struct {
	FactorType   string `json:"factor_type"`
	FriendlyName string `json:"friendly_name,omitempty"`
}

type enrollResponse struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	TOTP struct {
		QRCode string `json:"qr_code"`
		Secret string `json:"secret"`
		URI    string `json:"uri"`
	} `json:"totp"`
}

type challengeResponse struct {
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
}

type verifyRequest struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

func (u userResponse) toIdentity() (*identity.Identity, error) {
	identityID, err := id.ParseIdentityID(u.ID)
	if err != nil {
		return nil, fmt.Errorf("provider returned user with bad id: %w", err)
	}
	factors := make([]identity.Factor, 0, len(u.Factors))
	for _, f := range u.Factors {
		factorID, err := id.ParseFactorID(f.ID)
		if err != nil {
			return nil, fmt.Errorf("provider returned factor with bad id: %w", err)
		}
		factors = append(factors, identity.Factor{
			ID:           factorID,
			Type:         f.FactorType,
			Status:       f.Status,
			FriendlyName: f.FriendlyName,
		})
	}
	return &identity.Identity{
		ID:           identityID,
		Email:        u.Email,
		UserMetadata: u.UserMetadata,
		AppMetadata:  u.AppMetadata,
		Factors:      factors,
		CreatedAt:    u.CreatedAt,
	}, nil
}

type passwordGrantRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// toSession projects a token grant. The provider grants aal1 for a password
// login and aal2 after a verified factor.
func (t tokenResponse) toSession(aal string) (*identity.Session, error) {
	var user *identity.Identity
	if t.User.ID != "" {
		parsed, err := t.User.toIdentity()
		if err != nil {
			return nil, err
		}
		user = parsed
	}
	expiresAt := time.Unix(t.ExpiresAt, 0)
	if t.ExpiresAt == 0 {
		expiresAt = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return &identity.Session{
		AccessToken:    t.AccessToken,
		ExpiresAt:      expiresAt,
		AssuranceLevel: aal,
		Identity:       user,
	}, nil
}
