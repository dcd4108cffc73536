// Package provider talks to the external identity provider: a GoTrue
// compatible REST API for users, sessions and MFA factors, plus local
// verification of the signed session token.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gatekeeper/internal/sentinel"
	"gatekeeper/pkg/platform/tracer"
)

const maxResponseBytes = 1 << 20

// Client calls the identity provider. Requests on behalf of a user carry that
// user's access token; administrative lookups carry the service role key.
type Client struct {
	baseURL        string
	apiKey         string
	serviceRoleKey string
	httpClient     *http.Client
	tracer         tracer.Tracer
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// NewClient creates a provider client rooted at baseURL, e.g. "https://xyz.supabase.co/auth/v1".
func NewClient(baseURL, apiKey, serviceRoleKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		httpClient:     &http.Client{Timeout: timeout},
		tracer:         tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// credential is the apikey header plus bearer token sent with a request.
type credential struct {
	apiKey string
	bearer string
}

func (c *Client) asUser(accessToken string) credential {
	return credential{apiKey: c.apiKey, bearer: accessToken}
}

func (c *Client) asAnon() credential {
	return credential{apiKey: c.apiKey}
}

func (c *Client) asService() credential {
	return credential{apiKey: c.serviceRoleKey, bearer: c.serviceRoleKey}
}

// do sends one request and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, cred credential, body, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanProviderCall,
		tracer.String(tracer.AttrProviderMethod, method),
		tracer.String(tracer.AttrProviderPath, path),
	)
	defer func() { span.End(err) }()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred.apiKey != "" {
		req.Header.Set("apikey", cred.apiKey)
	}
	if cred.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+cred.bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		return fmt.Errorf("%s %s: %w: %w", method, path, sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s %s response: %w: %w", method, path, sentinel.ErrUnavailable, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp.StatusCode, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// requireToken rejects calls that need a user session when none is present.
func requireToken(accessToken string) error {
	if accessToken == "" {
		return errors.Join(ErrNoToken, sentinel.ErrInvalidInput)
	}
	return nil
}
