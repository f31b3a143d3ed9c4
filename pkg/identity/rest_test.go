package identity

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURLStr = "http://identity.local:9500"
const baseURLPathStr = "http://identity.local:9500/identity"

func TestDoTable(t *testing.T) {
	tests := []struct {
		method   string
		uri      string
		base     *url.URL
		wantURL  string
		wantBody []byte
	}{
		{method: "GET", uri: "/doget", base: mustParseURL(baseURLStr), wantURL: baseURLStr + "/doget"},
		{method: "PUT", uri: "/doput", base: mustParseURL(baseURLStr), wantURL: baseURLStr + "/doput", wantBody: []byte(`{"language":"cs"}`)},
		{method: "GET", uri: "/doget", base: mustParseURL(baseURLPathStr), wantURL: baseURLPathStr + "/doget"},
		{method: "POST", uri: "/dopost", base: mustParseURL(baseURLPathStr), wantURL: baseURLPathStr + "/dopost", wantBody: []byte(`{}`)},
	}
	for _, test := range tests {
		testname := fmt.Sprintf("%s,%s", test.method, test.wantURL)
		t.Run(testname, func(t *testing.T) {
			ctx := context.Background()
			mock := &mockHTTPClient{responses: map[string]mockResponse{}}
			c := &restClient{mock, test.base}

			resp, err := c.do(ctx, test.method, test.uri, test.wantBody)
			require.NoError(t, err)
			require.NoError(t, resp.Body.Close())

			req := mock.lastReq()
			assert.Equal(t, test.method, req.Method)
			assert.Equal(t, test.wantURL, req.URL.String())
			if test.wantBody != nil {
				assert.True(t, bytes.Equal(mock.bodies[0], test.wantBody),
					"req.Body == %q, want %q", mock.bodies[0], test.wantBody)
				assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			}
		})
	}
}

func TestDoJSON(t *testing.T) {
	mock := &mockHTTPClient{responses: map[string]mockResponse{
		"/doget": {status: 200, body: `{"foo": "bar"}`},
	}}
	c := &restClient{mock, mustParseURL(baseURLStr)}

	var v map[string]interface{}
	err := c.doJSON(context.Background(), "GET", "/doget", nil, &v)
	require.NoError(t, err)
	assert.Equal(t, "bar", v["foo"])
}

func TestDoJSONNilV(t *testing.T) {
	mock := &mockHTTPClient{responses: map[string]mockResponse{
		"/doget": {status: 204, body: ``},
	}}
	c := &restClient{mock, mustParseURL(baseURLStr)}

	err := c.doJSON(context.Background(), "GET", "/doget", nil, nil)
	require.NoError(t, err)
}

func TestDoJSONErrorStatus(t *testing.T) {
	mock := &mockHTTPClient{responses: map[string]mockResponse{
		"/doget": {status: 502, body: `bad gateway`},
	}}
	c := &restClient{mock, mustParseURL(baseURLStr)}

	var v map[string]interface{}
	err := c.doJSON(context.Background(), "GET", "/doget", nil, &v)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 502, remoteErr.Status)
}
