package identity

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/PavelPerna/prefsync/pkg/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(mock *mockHTTPClient) *Store {
	rc := restClient{client: mock, baseURL: mustParseURL("http://identity.local:9500")}
	return &Store{restClient: rc, probe: &Probe{restClient: rc}}
}

func authedMock(prefsBody string, prefsStatus int) *mockHTTPClient {
	return &mockHTTPClient{responses: map[string]mockResponse{
		"/api/v1/session":                 {status: 200, body: `{"username": "alice"}`},
		"/api/v1/users/alice/preferences": {status: prefsStatus, body: prefsBody},
	}}
}

func TestStoreReadSnakeCase(t *testing.T) {
	s := newTestStore(authedMock(`{"language": "cs", "dark_mode": true}`, 200))
	m, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cs", m[prefs.KeyLanguage])
	assert.Equal(t, true, m[prefs.KeyDarkMode])
}

func TestStoreReadCamelCaseFallback(t *testing.T) {
	s := newTestStore(authedMock(`{"language": "cs", "darkMode": true}`, 200))
	m, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, m[prefs.KeyDarkMode])
}

func TestStoreReadUnauthenticated(t *testing.T) {
	s := newTestStore(&mockHTTPClient{responses: map[string]mockResponse{
		"/api/v1/session": {status: 200, body: `{}`},
	}})
	_, err := s.Read(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestStoreReadRemoteError(t *testing.T) {
	s := newTestStore(authedMock(`oops`, 503))
	_, err := s.Read(context.Background())
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 503, remoteErr.Status)
}

func TestStoreWriteSendsSnakeCase(t *testing.T) {
	mock := authedMock(`{"language": "cs", "dark_mode": true}`, 200)
	s := newTestStore(mock)

	echo, err := s.Write(context.Background(),
		prefs.Map{prefs.KeyLanguage: "cs", prefs.KeyDarkMode: true})
	require.NoError(t, err)

	req := mock.lastReq()
	require.NotNil(t, req)
	assert.Equal(t, "PUT", req.Method)
	assert.Equal(t, "/api/v1/users/alice/preferences", req.URL.Path)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(mock.bodies[len(mock.bodies)-1], &sent))
	assert.Equal(t, true, sent["dark_mode"])
	assert.NotContains(t, sent, "darkMode")

	assert.Equal(t, "cs", echo[prefs.KeyLanguage])
	assert.Equal(t, true, echo[prefs.KeyDarkMode])
}

func TestStoreWriteNetworkError(t *testing.T) {
	s := newTestStore(&mockHTTPClient{err: errors.New("connection refused")})
	_, err := s.Write(context.Background(), prefs.Map{prefs.KeyLanguage: "cs"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

// Round-trip: write then read yields the same internal map regardless of
// server field casing.
func TestStoreRoundTrip(t *testing.T) {
	for name, body := range map[string]string{
		"snake": `{"language": "cs", "dark_mode": true}`,
		"camel": `{"language": "cs", "darkMode": true}`,
	} {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(authedMock(body, 200))
			_, err := s.Write(context.Background(),
				prefs.Map{prefs.KeyLanguage: "cs", prefs.KeyDarkMode: true})
			require.NoError(t, err)
			m, err := s.Read(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "cs", m[prefs.KeyLanguage])
			assert.Equal(t, true, m[prefs.KeyDarkMode])
		})
	}
}

func TestWireUnknownKeysPassThrough(t *testing.T) {
	m := fromWire(map[string]any{"font_size": "large", "dark_mode": false})
	assert.Equal(t, "large", m["font_size"])
	out := toWire(m)
	assert.Equal(t, "large", out["font_size"])
	assert.Contains(t, out, "dark_mode")
}
