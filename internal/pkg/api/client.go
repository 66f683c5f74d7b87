// Package api is the single choke point for calls to the Keuze Compass REST
// API. It attaches credentials, serializes queries and bodies, and turns every
// failure into one *Error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const jsonContentType = "application/json"

// TokenSource provides the bearer token for authenticated requests. An empty
// token means there is no usable session.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Client talks to the Keuze Compass API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	timeout    time.Duration
	userAgent  string
	metrics    *Metrics
	logger     *zap.Logger
}

type request struct {
	id       string
	method   string
	endpoint string
	body     any
	query    Query
	auth     bool
	headers  http.Header
}

// New creates a client for the API at baseURL. A missing base URL is a
// configuration error reported here instead of on the first request.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, configError("API-configuratie ontbreekt: stel KEUZECOMPASS_API_URL in")
	}

	c := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: "keuzecompass-cli",
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	return c, nil
}

// BaseURL returns the resolved API base URL without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, endpoint string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, endpoint string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, endpoint, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, endpoint string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, endpoint, body, out, opts...)
}

func (c *Client) Patch(ctx context.Context, endpoint string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPatch, endpoint, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, endpoint string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, out, opts...)
}

// Do performs one request. On a 2xx JSON response the body is decoded into
// out; 204/205 responses and non-JSON responses leave out untouched. Any
// failure is returned as *Error.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any, opts ...RequestOption) error {
	r := &request{id: ulid.Make().String(), method: method, endpoint: endpoint, body: body, auth: true}
	for _, opt := range opts {
		opt(r)
	}

	start := time.Now()
	status, err := c.do(ctx, r, out)
	c.record(r, status, err, time.Since(start))
	return err
}

func (c *Client) do(ctx context.Context, r *request, out any) (int, error) {
	headers := make(http.Header)
	headers.Set("Content-Type", jsonContentType)
	headers.Set("X-Request-ID", r.id)

	// Missing credentials fail before anything touches the network.
	if r.auth {
		token, err := c.token(ctx)
		if err != nil {
			return 0, err
		}
		headers.Set("Authorization", "Bearer "+token)
	}
	for k, v := range r.headers {
		headers[k] = v
	}

	bodyReader, err := encodeBody(r.body, headers)
	if err != nil {
		return 0, err
	}

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	url := c.baseURL + r.endpoint + r.query.String()
	httpReq, err := http.NewRequestWithContext(reqCtx, r.method, url, bodyReader)
	if err != nil {
		return 0, &Error{Kind: KindConfig, Message: "Ongeldig API-adres.", Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header = headers
	if httpReq.Header.Get("User-Agent") == "" && c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, classifyTransport(ctx, reqCtx, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return httpResp.StatusCode, classifyTransport(ctx, reqCtx, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return httpResp.StatusCode, statusError(httpResp.StatusCode, respBody)
	}

	if httpResp.StatusCode == http.StatusNoContent || httpResp.StatusCode == http.StatusResetContent {
		return httpResp.StatusCode, nil
	}
	if !strings.Contains(httpResp.Header.Get("Content-Type"), jsonContentType) {
		return httpResp.StatusCode, nil
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return httpResp.StatusCode, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return httpResp.StatusCode, decodeError(httpResp.StatusCode, err)
	}
	return httpResp.StatusCode, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", missingTokenError(nil)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", missingTokenError(err)
	}
	if token == "" {
		return "", missingTokenError(nil)
	}
	return token, nil
}

func encodeBody(body any, headers http.Header) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case *FormData:
		reader, contentType, err := b.encode()
		if err != nil {
			return nil, &Error{Kind: KindEncode, Message: "Het verzoek kon niet worden opgebouwd.", Err: err}
		}
		headers.Set("Content-Type", contentType)
		return reader, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindEncode, Message: "Het verzoek kon niet worden opgebouwd.", Err: fmt.Errorf("failed to marshal request body: %w", err)}
		}
		return bytes.NewReader(data), nil
	}
}

// classifyTransport separates caller aborts from network failures. Only a
// cancel of the caller's own context counts as an abort; the client's
// timeout and other deadlines are transport failures.
func classifyTransport(parent, reqCtx context.Context, err error) *Error {
	if errors.Is(parent.Err(), context.Canceled) {
		return canceledError(context.Canceled)
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return transportError(fmt.Errorf("%w: %v", context.DeadlineExceeded, err), true)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return transportError(err, true)
	}
	return transportError(err, false)
}

func (c *Client) record(r *request, status int, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			outcome = string(apiErr.Kind)
		} else {
			outcome = "error"
		}
	}
	c.metrics.observe(r.method, outcome, elapsed.Seconds())

	fields := []zap.Field{
		zap.String("request_id", r.id),
		zap.String("method", r.method),
		zap.String("endpoint", r.endpoint),
		zap.Int("status", status),
		zap.Duration("elapsed", elapsed),
	}
	switch outcome {
	case "ok", string(KindCanceled), string(KindAPI):
		c.logger.Debug("api request", append(fields, zap.String("outcome", outcome))...)
	default:
		c.logger.Warn("api request failed", append(fields, zap.Error(err))...)
	}
}
