package playcz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/sWski/plugin.audio.play.cz/common"
)

// DefaultBaseURL is the play.cz JSON API root: <base>/<operation>/<params...>
const DefaultBaseURL = "https://api.play.cz/json/"

// PlayClient defines the lower-level HTTP operations against the play.cz API.
type PlayClient interface {
	GetJSON(ctx context.Context, operation string, pathParams []string, query url.Values, entity interface{}) error
	GetBytes(ctx context.Context, operation string, pathParams []string, query url.Values) ([]byte, error)
	BuildURL(operation string, pathParams []string, query url.Values) (string, error)
	Stats() ClientStats
}

// ClientStats counts requests made by a PlayClient.
type ClientStats struct {
	TotalCalls   int64
	SuccessCount int64
	FailCount    int64
}

type playClient struct {
	baseURL    string
	httpClient common.HttpClient

	totalCalls   atomic.Int64
	successCount atomic.Int64
	failCount    atomic.Int64
}

// NewPlayClient creates a PlayClient. An empty baseURL selects DefaultBaseURL.
func NewPlayClient(baseURL string, httpClient common.HttpClient) PlayClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &playClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// GetJSON fetches an operation and unmarshals the body into entity.
// A body that does not fit entity yields a *common.DecodeError.
func (c *playClient) GetJSON(ctx context.Context, operation string, pathParams []string, query url.Values, entity interface{}) error {
	data, err := c.GetBytes(ctx, operation, pathParams, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, entity); err != nil {
		urlStr, _ := c.BuildURL(operation, pathParams, query)
		return &common.DecodeError{URL: urlStr, Err: err}
	}
	return nil
}

// GetBytes fetches an operation and returns the raw body.
func (c *playClient) GetBytes(ctx context.Context, operation string, pathParams []string, query url.Values) ([]byte, error) {
	urlStr, err := c.BuildURL(operation, pathParams, query)
	if err != nil {
		return nil, err
	}
	return c.doGet(ctx, urlStr)
}

func (c *playClient) Stats() ClientStats {
	return ClientStats{
		TotalCalls:   c.totalCalls.Load(),
		SuccessCount: c.successCount.Load(),
		FailCount:    c.failCount.Load(),
	}
}

// doGet performs a single GET. There is no retry: any transport failure or
// non-2xx status is returned as a *common.NetworkError.
func (c *playClient) doGet(ctx context.Context, urlStr string) ([]byte, error) {
	c.totalCalls.Add(1)

	data, status, err := c.executeRequest(ctx, urlStr)
	if err != nil {
		c.failCount.Add(1)
		return nil, &common.NetworkError{URL: urlStr, Message: err.Error(), Err: err}
	}
	if status < 200 || status > 299 {
		c.failCount.Add(1)
		httpErr := &common.HTTPError{StatusCode: status, Body: data}
		return nil, &common.NetworkError{URL: urlStr, Message: httpErr.Error(), Err: httpErr}
	}

	c.successCount.Add(1)
	return data, nil
}

// executeRequest actually does the low-level HTTP
func (c *playClient) executeRequest(ctx context.Context, urlStr string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", readErr)
	}
	return data, resp.StatusCode, nil
}

// BuildURL joins baseURL, the operation and the escaped path parameters, then
// appends the URL-encoded query.
func (c *playClient) BuildURL(operation string, pathParams []string, query url.Values) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if operation == "" {
		return "", fmt.Errorf("empty operation")
	}

	// no path cleaning; empty and dot segments are rejected instead
	escaped := strings.TrimSuffix(base.EscapedPath(), "/") + "/" + url.PathEscape(operation)
	for _, p := range pathParams {
		if p == "" || p == "." || p == ".." {
			return "", fmt.Errorf("invalid path parameter %q for %s", p, operation)
		}
		escaped += "/" + url.PathEscape(p)
	}
	fullURL := *base
	unescaped, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	fullURL.Path = unescaped
	fullURL.RawPath = escaped
	if len(query) > 0 {
		fullURL.RawQuery = query.Encode()
	}
	return fullURL.String(), nil
}
