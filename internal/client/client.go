package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HTTPDoer is the subset of *http.Client the graph client needs.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to a remote graph server over HTTP. It holds no state between
// calls and is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.httpClient = doer
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8000".
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("server url is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server url %q must include scheme and host", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server URL the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

type response struct {
	status int
	body   []byte
}

// do performs a single request. Any non-2xx answer becomes a KindHTTPStatus
// error; anything that prevents reading an answer becomes KindTransport.
func (c *Client) do(ctx context.Context, op, method, path string, params url.Values) (*response, *Error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, transportError(op, method, target, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("graph request failed",
			zap.String("op", op),
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, transportError(op, method, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(op, method, target, fmt.Errorf("failed to read response body: %w", err))
	}

	c.logger.Debug("graph request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindHTTPStatus, Op: op, Status: resp.StatusCode, Body: body}
	}
	return &response{status: resp.StatusCode, body: body}, nil
}

func transportError(op, method, target string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Status: TransportStatus, Method: method, URL: target, Err: err}
}

// queryParams serializes q as JSON under the "q" parameter.
func queryParams(op string, q any) (url.Values, *Error) {
	raw, err := json.Marshal(q)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Status: TransportStatus, Err: fmt.Errorf("failed to encode query: %w", err)}
	}
	return url.Values{"q": {string(raw)}}, nil
}

func decodeBody(op string, body []byte, v any) *Error {
	if err := json.Unmarshal(body, v); err != nil {
		return &Error{Kind: KindTransport, Op: op, Status: TransportStatus, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
