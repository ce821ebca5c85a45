package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// TRANSPORT CONFIGURATION
// =============================================================================

// TransportConfig configures the registry HTTP transport.
type TransportConfig struct {
	// BaseURL is the registry endpoint, e.g. https://hydrosphere.example.com.
	BaseURL string

	// Timeout for individual requests (default: 30s).
	Timeout time.Duration

	// RateLimit requests per second (default: 10).
	RateLimit float64

	// RateBurst maximum burst size (default: 5).
	RateBurst int

	// Headers to add to all requests.
	Headers map[string]string

	// UserAgent string (default: "hydro-shadow/1.0").
	UserAgent string

	// Transport allows injecting a custom HTTP transport (for tests/stubs).
	Transport http.RoundTripper
}

// =============================================================================
// HTTP TRANSPORT
// =============================================================================

// Transport is a rate-limited HTTP client bound to the registry base URL.
// It makes exactly one attempt per call; retry budgets belong to the caller.
type Transport struct {
	config      TransportConfig
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewTransport creates a transport with defaults applied.
func NewTransport(config TransportConfig) *Transport {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10.0
	}
	if config.RateBurst == 0 {
		config.RateBurst = 5
	}
	if config.UserAgent == "" {
		config.UserAgent = "hydro-shadow/1.0"
	}

	return &Transport{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
	}
}

// Response wraps an HTTP response with convenience methods.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// JSON unmarshals the response body into the given target.
func (r *Response) JSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request.
func (c *Transport) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *Transport) Post(ctx context.Context, path string, body any) (*Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, data)
}

// do returns the response together with an *HTTPError for non-2xx codes.
func (c *Transport) do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	fullURL := strings.TrimSuffix(c.config.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	response := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}
	if !response.IsSuccess() {
		return response, &HTTPError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    string(data),
		}
	}
	return response, nil
}

// =============================================================================
// ERRORS
// =============================================================================

// HTTPError represents a non-2xx registry response.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// IsServerError returns true if this is a server error.
func (e *HTTPError) IsServerError() bool {
	return e.StatusCode >= 500
}
