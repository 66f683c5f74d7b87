package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client for making requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenSource sets where bearer tokens are read from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout bounds every request. A fired timeout cancels the request
// through its context, the same way a caller abort does. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMetrics records request counts and durations.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// RequestOption adjusts a single request.
type RequestOption func(*request)

// WithQuery appends the encoded query to the endpoint.
func WithQuery(q Query) RequestOption {
	return func(r *request) {
		r.query = q
	}
}

// WithoutAuth sends the request without a bearer token.
func WithoutAuth() RequestOption {
	return func(r *request) {
		r.auth = false
	}
}

// WithHeader sets one header. Caller headers win over the defaults; keys
// are matched case-insensitively.
func WithHeader(key, value string) RequestOption {
	return func(r *request) {
		if r.headers == nil {
			r.headers = make(http.Header)
		}
		r.headers.Set(key, value)
	}
}

// WithHeaders merges several headers.
func WithHeaders(headers map[string]string) RequestOption {
	return func(r *request) {
		for k, v := range headers {
			WithHeader(k, v)(r)
		}
	}
}
