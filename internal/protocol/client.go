// Package protocol sends JSON-RPC 2.0 requests over HTTP POST.
package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/rpcprobe/rpcprobe/internal/config"
	"github.com/rpcprobe/rpcprobe/internal/jsonrpc"
	"github.com/rpcprobe/rpcprobe/internal/logger"
)

// Client is a JSON-RPC client bound to a single endpoint.
type Client struct {
	Endpoint    string
	HTTPClient  *http.Client
	Headers     map[string]string
	TokenSource oauth2.TokenSource
	IDMode      string
	// Timeout bounds each call through its context. Zero means none.
	Timeout time.Duration

	mu     sync.Mutex
	lastID int
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each call. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.Timeout = d }
}

// WithIDMode selects how request ids are generated.
func WithIDMode(mode string) Option {
	return func(c *Client) { c.IDMode = mode }
}

// WithHeaders adds static headers to every request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) { c.Headers = h }
}

// WithTokenSource sets the Authorization header from ts on every request.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.TokenSource = ts }
}

// NewClient creates a client for endpoint. By default there is no timeout
// and every request carries id 1.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{},
		IDMode:     config.IDModeFixed,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithEndpoint returns a client for endpoint that shares c's transport,
// headers, credentials and id mode. Sequence ids restart at 1.
func (c *Client) WithEndpoint(endpoint string) *Client {
	return &Client{
		Endpoint:    endpoint,
		HTTPClient:  c.HTTPClient,
		Headers:     c.Headers,
		TokenSource: c.TokenSource,
		IDMode:      c.IDMode,
		Timeout:     c.Timeout,
	}
}

// Result is a completed exchange.
type Result struct {
	Request    jsonrpc.Request
	Response   *jsonrpc.Response // nil when the body is JSON but not an object
	Body       []byte
	StatusCode int
	Elapsed    time.Duration
}

// NextID generates the next JSON-RPC request ID.
func (c *Client) NextID() interface{} {
	switch c.IDMode {
	case config.IDModeUUID:
		return uuid.NewString()
	case config.IDModeSequence:
		c.mu.Lock()
		defer c.mu.Unlock()
		c.lastID++
		return c.lastID
	default:
		return 1
	}
}

// Ping calls the ping method with no params.
func (c *Client) Ping(ctx context.Context) (*Result, error) {
	return c.Call(ctx, "ping")
}

// Wait calls the wait method, asking the server to answer after seconds.
func (c *Client) Wait(ctx context.Context, seconds float64) (*Result, error) {
	return c.Call(ctx, "wait", seconds)
}

// Call sends method with params and a generated id.
func (c *Client) Call(ctx context.Context, method string, params ...interface{}) (*Result, error) {
	return c.Send(ctx, jsonrpc.NewRequest(method, c.NextID(), params...))
}

// Send posts req and decodes the reply. A JSON-RPC error member is returned
// inside the result, not as a Go error.
func (c *Client) Send(ctx context.Context, req jsonrpc.Request) (*Result, error) {
	if req.Params == nil {
		req.Params = []interface{}{}
	}
	if req.JSONRPC == "" {
		req.JSONRPC = jsonrpc.Version
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", req.Method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", c.Endpoint, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range c.Headers {
		if v != "" {
			httpReq.Header.Set(k, v)
		}
	}
	if c.TokenSource != nil {
		tok, err := c.TokenSource.Token()
		if err != nil {
			return nil, fmt.Errorf("obtain token: %w", err)
		}
		tok.SetAuthHeader(httpReq)
	}

	logger.Debugf("POST %s %s", c.Endpoint, body)
	start := time.Now()
	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", c.Endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", c.Endpoint, err)
	}
	logger.Debugf("%s %s in %s: %s", req.Method, resp.Status, elapsed, respBody)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Endpoint: c.Endpoint, StatusCode: resp.StatusCode, Body: respBody}
	}
	if !json.Valid(respBody) {
		return nil, &DecodeError{Endpoint: c.Endpoint, Body: respBody}
	}

	res := &Result{
		Request:    req,
		Body:       respBody,
		StatusCode: resp.StatusCode,
		Elapsed:    elapsed,
	}
	var decoded jsonrpc.Response
	if err := json.Unmarshal(respBody, &decoded); err == nil {
		res.Response = &decoded
	}
	return res, nil
}
