package provider

import (
	"context"
	"fmt"
	"net/http"

	"gatekeeper/internal/identity"
	id "gatekeeper/pkg/domain"
)

// ListFactors returns every factor enrolled on the caller's identity.
func (c *Client) ListFactors(ctx context.Context, accessToken string) ([]identity.Factor, error) {
	user, err := c.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return user.Factors, nil
}

// Enroll starts a TOTP enrollment for the caller.
func (c *Client) Enroll(ctx context.Context, accessToken, friendlyName string) (*identity.Enrollment, error) {
	if err := requireToken(accessToken); err != nil {
		return nil, err
	}
	var resp enrollResponse
	req := enrollRequest{FactorType: identity.FactorTypeTOTP, FriendlyName: friendlyName}
	if err := c.do(ctx, http.MethodPost, "/factors", c.asUser(accessToken), req, &resp); err != nil {
		return nil, err
	}
	factorID, err := id.ParseFactorID(resp.ID)
	if err != nil {
		return nil, fmt.Errorf("provider returned enrollment with bad id: %w", err)
	}
	return &identity.Enrollment{
		FactorID: factorID,
		QRCode:   resp.TOTP.QRCode,
		Secret:   resp.TOTP.Secret,
		URI:      resp.TOTP.URI,
	}, nil
}

// Challenge issues a one-time challenge for factorID and returns its id.
func (c *Client) Challenge(ctx context.Context, accessToken string, factorID id.FactorID) (string, error) {
	if err := requireToken(accessToken); err != nil {
		return "", err
	}
	var resp challengeResponse
	path := "/factors/" + factorID.String() + "/challenge"
	if err := c.do(ctx, http.MethodPost, path, c.asUser(accessToken), struct{}{}, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Verify answers a challenge. On success the provider returns an upgraded
// session.
func (c *Client) Verify(ctx context.Context, accessToken string, factorID id.FactorID, challengeID, code string) (*identity.Session, error) {
	if err := requireToken(accessToken); err != nil {
		return nil, err
	}
	var resp tokenResponse
	path := "/factors/" + factorID.String() + "/verify"
	req := verifyRequest{ChallengeID: challengeID, Code: code}
	if err := c.do(ctx, http.MethodPost, path, c.asUser(accessToken), req, &resp); err != nil {
		return nil, err
	}
	return resp.toSession(identity.AssuranceMFA)
}

// Unenroll removes factorID from the caller.
func (c *Client) Unenroll(ctx context.Context, accessToken string, factorID id.FactorID) error {
	if err := requireToken(accessToken); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/factors/"+factorID.String(), c.asUser(accessToken), nil, nil)
}
