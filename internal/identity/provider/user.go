package provider

import (
	"context"
	"net/http"

	"gatekeeper/internal/identity"
	id "gatekeeper/pkg/domain"
)

// GetUser returns the identity owning accessToken, re-read from the provider.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*identity.Identity, error) {
	if err := requireToken(accessToken); err != nil {
		return nil, err
	}
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/user", c.asUser(accessToken), nil, &resp); err != nil {
		return nil, err
	}
	return resp.toIdentity()
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if err := requireToken(accessToken); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/logout", c.asUser(accessToken), nil, nil)
}

// GetIdentityByID looks up any identity with the service role key.
func (c *Client) GetIdentityByID(ctx context.Context, identityID id.IdentityID) (*identity.Identity, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/admin/users/"+identityID.String(), c.asService(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.toIdentity()
}

// SignInWithPassword performs the primary authentication step. The returned
// session is aal1; callers decide whether a second factor is still owed from
// the identity's verified factors.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	var resp tokenResponse
	req := passwordGrantRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", c.asAnon(), req, &resp); err != nil {
		return nil, err
	}
	return resp.toSession(identity.AssurancePassword)
}

// Health probes the provider's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", c.asAnon(), nil, nil)
}
