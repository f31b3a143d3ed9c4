package identity

import (
	"net/http"
	"time"
)

// Option adjusts the HTTP plumbing of a Probe or Store.
type Option func(*restClient)

// WithHTTPClient replaces the default HTTP client, e.g. to share a cookie
// jar between a Probe and a Store, or to mock transport in tests.
func WithHTTPClient(c *http.Client) Option {
	return func(rc *restClient) {
		rc.client = c
	}
}

// WithTimeout sets the HTTP client timeout.  Only applies to the default
// client; ignored after WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(rc *restClient) {
		if hc, ok := rc.client.(*http.Client); ok {
			hc.Timeout = d
		}
	}
}
