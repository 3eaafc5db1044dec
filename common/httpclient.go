package common

import (
	"fmt"
	"net/http"
	"time"
)

// DefaultUserAgent mimics a desktop browser. The play.cz API misbehaves for
// clients that do not send one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0"

// DefaultTimeout bounds every request made through NewPlayHttpClient.
const DefaultTimeout = 10 * time.Second

// HttpClient is the subset of *http.Client the API client needs.
// This allows mocking or custom transport layers in testing.
type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
	CloseIdleConnections()
}

// HTTPError captures unexpected status codes and response bodies.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// userAgentRoundTripper is a custom RoundTripper that adds a User-Agent header.
type userAgentRoundTripper struct {
	Wrapped   http.RoundTripper
	UserAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone request to avoid mutating the original
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", rt.UserAgent)
	return rt.Wrapped.RoundTrip(clone)
}

type httpClient struct {
	client *http.Client
}

// NewPlayHttpClient returns an HttpClient that stamps every request with
// userAgent. A zero timeout selects DefaultTimeout.
func NewPlayHttpClient(userAgent string, base *http.Client, timeout time.Duration) HttpClient {
	if base == nil {
		base = &http.Client{}
	}
	if base.Transport == nil {
		base.Transport = http.DefaultTransport
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base.Transport = &userAgentRoundTripper{
		Wrapped:   base.Transport,
		UserAgent: userAgent,
	}
	base.Timeout = timeout

	return &httpClient{client: base}
}

func (h *httpClient) Do(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}

func (h *httpClient) CloseIdleConnections() {
	h.client.CloseIdleConnections()
}
