package identity

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/PavelPerna/prefsync/pkg/prefs"
)

// Store reads and writes per-user preferences on the identity service.  The
// session is re-verified on every call rather than caching the username: a
// stale name could silently read or write the wrong account after the
// server-side session expires.
type Store struct {
	restClient
	probe *Probe
}

var _ prefs.Source = &Store{}

// NewStore creates a preference store sharing the probe's HTTP client, so
// both speak with the same session cookies.
func NewStore(baseURL string, probe *Probe, opts ...Option) (*Store, error) {
	rc, err := newRestClient(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	rc.client = probe.client
	return &Store{restClient: rc, probe: probe}, nil
}

// Read fetches the current user's preference map.  Returns
// ErrNotAuthenticated when session verification fails, or *RemoteError on a
// non-success response.
func (s *Store) Read(ctx context.Context) (prefs.Map, error) {
	name, err := s.probe.Verify(ctx)
	if err != nil {
		return nil, err
	}
	var body map[string]any
	if err := s.doJSON(ctx, "GET", prefsURI(name), nil, &body); err != nil {
		return nil, err
	}
	return fromWire(body), nil
}

// Write replaces the current user's preference record and returns the
// canonical map echoed by the server.
func (s *Store) Write(ctx context.Context, m prefs.Map) (prefs.Map, error) {
	name, err := s.probe.Verify(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(toWire(m))
	if err != nil {
		return nil, err
	}
	var body map[string]any
	if err := s.doJSON(ctx, "PUT", prefsURI(name), payload, &body); err != nil {
		return nil, err
	}
	return fromWire(body), nil
}

func prefsURI(name string) string {
	return "/api/v1/users/" + url.PathEscape(name) + "/preferences"
}
