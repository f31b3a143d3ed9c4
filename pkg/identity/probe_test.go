package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProbe(mock *mockHTTPClient) *Probe {
	return &Probe{restClient: restClient{
		client:  mock,
		baseURL: mustParseURL("http://identity.local:9500"),
	}}
}

func TestDetectTable(t *testing.T) {
	tests := []struct {
		name string
		mock *mockHTTPClient
		want bool
	}{
		{
			name: "authenticated user object",
			mock: &mockHTTPClient{responses: map[string]mockResponse{
				"/api/v1/session": {status: 200, body: `{"username": "alice"}`},
			}},
			want: true,
		},
		{
			name: "empty object is unauthenticated",
			mock: &mockHTTPClient{responses: map[string]mockResponse{
				"/api/v1/session": {status: 200, body: `{}`},
			}},
			want: false,
		},
		{
			name: "non-success status",
			mock: &mockHTTPClient{responses: map[string]mockResponse{
				"/api/v1/session": {status: 401, body: `{"error": "no session"}`},
			}},
			want: false,
		},
		{
			name: "malformed body",
			mock: &mockHTTPClient{responses: map[string]mockResponse{
				"/api/v1/session": {status: 200, body: `<!DOCTYPE html>`},
			}},
			want: false,
		},
		{
			name: "network failure",
			mock: &mockHTTPClient{err: errors.New("connection refused")},
			want: false,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := newTestProbe(test.mock)
			assert.Equal(t, test.want, p.Detect(context.Background()))
		})
	}
}

func TestVerifyUsername(t *testing.T) {
	p := newTestProbe(&mockHTTPClient{responses: map[string]mockResponse{
		"/api/v1/session": {status: 200, body: `{"username": "alice"}`},
	}})
	name, err := p.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
}

func TestVerifyLegacyUserField(t *testing.T) {
	p := newTestProbe(&mockHTTPClient{responses: map[string]mockResponse{
		"/api/v1/session": {status: 200, body: `{"user": "bob"}`},
	}})
	name, err := p.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bob", name)
}

func TestVerifyFailures(t *testing.T) {
	mocks := map[string]*mockHTTPClient{
		"anonymous": {responses: map[string]mockResponse{
			"/api/v1/session": {status: 200, body: `{}`},
		}},
		"no username field": {responses: map[string]mockResponse{
			"/api/v1/session": {status: 200, body: `{"expires": 1000}`},
		}},
		"server error": {responses: map[string]mockResponse{
			"/api/v1/session": {status: 500, body: ``},
		}},
		"network failure": {err: errors.New("connection refused")},
	}
	for name, mock := range mocks {
		t.Run(name, func(t *testing.T) {
			p := newTestProbe(mock)
			_, err := p.Verify(context.Background())
			assert.ErrorIs(t, err, ErrNotAuthenticated)
		})
	}
}
