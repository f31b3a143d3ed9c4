package identity

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
)

// mockResponse is a canned response for one URI path.
type mockResponse struct {
	status int
	body   string
}

// mockHTTPClient allows http.Client to be mocked for tests, routing canned
// responses by request path and recording every request made.
type mockHTTPClient struct {
	reqs      []*http.Request
	bodies    [][]byte
	responses map[string]mockResponse
	err       error
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.reqs = append(m.reqs, req)
	var body []byte
	if req.GetBody != nil {
		r, err := req.GetBody()
		if err == nil {
			body, _ = io.ReadAll(r)
			_ = r.Close()
		}
	}
	m.bodies = append(m.bodies, body)

	if m.err != nil {
		return nil, m.err
	}
	resp, ok := m.responses[req.URL.Path]
	if !ok {
		resp = mockResponse{status: 404, body: "not found"}
	}
	return &http.Response{
		StatusCode: resp.status,
		Body:       io.NopCloser(bytes.NewBufferString(resp.body)),
	}, nil
}

// lastReq returns the most recent request, nil if none were made.
func (m *mockHTTPClient) lastReq() *http.Request {
	if len(m.reqs) == 0 {
		return nil
	}
	return m.reqs[len(m.reqs)-1]
}

func mustParseURL(s string) *url.URL {
	u, err := url.Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}
