// Package identity provides a REST client for the platform identity
// service: session verification and per-user preference storage.
package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

const sessionURI = "/api/v1/session"

// Probe determines whether the current context holds an authenticated
// session against the identity service.  Detection failures of any kind are
// reported as unauthenticated, never as errors, so callers always have a
// usable fallback strategy.
type Probe struct {
	restClient
}

// NewProbe creates a session probe given the base URL of the identity
// service, ex: "http://localhost:9500".  The default HTTP client carries a
// cookie jar so session credentials are included automatically.
func NewProbe(baseURL string, opts ...Option) (*Probe, error) {
	rc, err := newRestClient(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return &Probe{restClient: rc}, nil
}

// newRestClient builds the shared REST plumbing for Probe and Store.
func newRestClient(baseURL string, opts ...Option) (restClient, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return restClient{}, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return restClient{}, err
	}
	rc := restClient{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		baseURL: parsedURL,
	}
	for _, opt := range opts {
		opt(&rc)
	}
	return rc, nil
}

// Detect reports whether the current session is authenticated.  True
// requires a success status and a non-empty JSON object body; an
// empty-but-200 response counts as unauthenticated.
func (p *Probe) Detect(ctx context.Context) bool {
	info, err := p.fetchSession(ctx)
	return err == nil && len(info) > 0
}

// Verify re-checks the session and returns the authenticated username.
// Returns ErrNotAuthenticated when the session is missing, expired, or the
// response carries no username.
func (p *Probe) Verify(ctx context.Context) (string, error) {
	info, err := p.fetchSession(ctx)
	if err != nil || len(info) == 0 {
		return "", ErrNotAuthenticated
	}
	for _, key := range []string{"username", "user"} {
		if name, ok := info[key].(string); ok && name != "" {
			return name, nil
		}
	}
	return "", ErrNotAuthenticated
}

// Login establishes a session with the identity service.  The session
// cookie lands in the shared HTTP client's jar, so subsequent Detect and
// Verify calls carry it automatically.
func (p *Probe) Login(ctx context.Context, username, password string) error {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}
	return p.doJSON(ctx, "POST", sessionURI, payload, nil)
}

// fetchSession calls the session endpoint and decodes the body object.
func (p *Probe) fetchSession(ctx context.Context) (map[string]any, error) {
	var info map[string]any
	if err := p.doJSON(ctx, "GET", sessionURI, nil, &info); err != nil {
		return nil, err
	}
	return info, nil
}
