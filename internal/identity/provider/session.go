package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gatekeeper/internal/identity"
	"gatekeeper/internal/sentinel"
	id "gatekeeper/pkg/domain"
	"gatekeeper/pkg/requestcontext"
)

// ClaimIdentityCreatedAt is the custom claim carrying the identity's creation
// time as unix seconds. The session age policy is measured from it.
const ClaimIdentityCreatedAt = "identity_created_at"

// SessionClaims is the payload of a provider-issued access token.
type SessionClaims struct {
	Email             string         `json:"email"`
	UserMetadata      map[string]any `json:"user_metadata"`
	AppMetadata       map[string]any `json:"app_metadata"`
	IdentityCreatedAt int64          `json:"identity_created_at"`
	AAL               string         `json:"aal"`
	jwt.RegisteredClaims
}

// SessionDecoder verifies access tokens signed with the provider's HS256 secret.
type SessionDecoder struct {
	secret []byte
	leeway time.Duration
}

func NewSessionDecoder(secret string) *SessionDecoder {
	return &SessionDecoder{secret: []byte(secret), leeway: 30 * time.Second}
}

// Decode verifies token and projects it into a session. Expired tokens wrap
// sentinel.ErrExpired; anything else malformed wraps sentinel.ErrInvalidInput.
func (d *SessionDecoder) Decode(ctx context.Context, token string) (*identity.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("decode session: %w", sentinel.ErrInvalidInput)
	}
	claims := new(SessionClaims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return d.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return requestcontext.Now(ctx) }),
		jwt.WithLeeway(d.leeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("decode session: %w", sentinel.ErrExpired)
		}
		return nil, fmt.Errorf("decode session: %w: %w", sentinel.ErrInvalidInput, err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("decode session: %w", sentinel.ErrInvalidInput)
	}

	identityID, err := id.ParseIdentityID(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("decode session subject: %w", sentinel.ErrInvalidInput)
	}
	if claims.IdentityCreatedAt <= 0 {
		return nil, fmt.Errorf("decode session: missing %s: %w", ClaimIdentityCreatedAt, sentinel.ErrInvalidInput)
	}

	return &identity.Session{
		AccessToken:    token,
		ExpiresAt:      claims.ExpiresAt.Time,
		AssuranceLevel: claims.AAL,
		Identity: &identity.Identity{
			ID:           identityID,
			Email:        claims.Email,
			UserMetadata: claims.UserMetadata,
			AppMetadata:  claims.AppMetadata,
			CreatedAt:    time.Unix(claims.IdentityCreatedAt, 0).UTC(),
		},
	}, nil
}

// Accessor exposes the session of the current request, read from the access
// token stored in the request context.
type Accessor struct {
	decoder *SessionDecoder
	client  *Client
}

func NewAccessor(decoder *SessionDecoder, client *Client) *Accessor {
	return &Accessor{decoder: decoder, client: client}
}

// GetSession returns nil, nil when the request carries no token.
func (a *Accessor) GetSession(ctx context.Context) (*identity.Session, error) {
	token := requestcontext.AccessToken(ctx)
	if token == "" {
		return nil, nil
	}
	return a.decoder.Decode(ctx, token)
}

func (a *Accessor) GetUser(ctx context.Context) (*identity.Identity, error) {
	return a.client.GetUser(ctx, requestcontext.AccessToken(ctx))
}

func (a *Accessor) SignOut(ctx context.Context) error {
	return a.client.SignOut(ctx, requestcontext.AccessToken(ctx))
}
