// Package probe issues concrete HTTP requests and reduces responses to
// compact observations.
package probe

import (
	"crypto/tls"
	"time"

	"github.com/valyala/fasthttp"
)

// ClientOptions configures the HTTP client.
type ClientOptions struct {
	Timeout             time.Duration
	MaxConnsPerHost     int
	MaxIdleConnDuration time.Duration
	UserAgent           string
	SkipTLSVerify       bool
}

// DefaultClientOptions returns sensible defaults.
func DefaultClientOptions() *ClientOptions {
	return &ClientOptions{
		Timeout:             10 * time.Second,
		MaxConnsPerHost:     500,
		MaxIdleConnDuration: 10 * time.Second,
		UserAgent:           "SignalFuzz/1.0",
		SkipTLSVerify:       true,
	}
}

// Client wraps fasthttp.Client with the fixed-timeout semantics the prober
// needs.
type Client struct {
	client    *fasthttp.Client
	timeout   time.Duration
	userAgent string
}

// NewClient creates a new HTTP client.
func NewClient(opts *ClientOptions) *Client {
	if opts == nil {
		opts = DefaultClientOptions()
	}

	return &Client{
		client: &fasthttp.Client{
			MaxConnsPerHost:     opts.MaxConnsPerHost,
			MaxIdleConnDuration: opts.MaxIdleConnDuration,
			ReadTimeout:         opts.Timeout,
			WriteTimeout:        opts.Timeout,
			TLSConfig: &tls.Config{
				InsecureSkipVerify: opts.SkipTLSVerify,
			},
		},
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
	}
}

// rawResponse is the transport-level result before reduction.
type rawResponse struct {
	statusCode int
	body       []byte
	elapsed    time.Duration
}

// do sends one request. The returned body is a copy; fasthttp reuses its
// buffers after release.
func (c *Client) do(method, url string, headers map[string]string, body []byte) (*rawResponse, error) {
	start := time.Now()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.SetUserAgent(c.userAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if len(body) > 0 {
		req.SetBody(body)
	}

	if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	respBody := make([]byte, len(resp.Body()))
	copy(respBody, resp.Body())

	return &rawResponse{
		statusCode: resp.StatusCode(),
		body:       respBody,
		elapsed:    elapsed,
	}, nil
}
