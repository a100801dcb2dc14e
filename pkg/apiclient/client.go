// Package apiclient performs JSON requests against the forum backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/arcadia-forum/arcadia-client/internal/session"
	"github.com/arcadia-forum/arcadia-client/pkg/httpclient"
)

const (
	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"
	contentTypeJSON     = "application/json"
)

var allowedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// Options describes a single request. The zero value is a GET without extra headers.
type Options struct {
	Method  string
	Headers map[string]string
	// Body is JSON-encoded, strings included. []byte and json.RawMessage are sent as-is.
	Body any
}

// Client sends requests to a fixed base origin. It holds no mutable state after
// construction and is safe for concurrent use.
type Client struct {
	origin   string
	http     httpclient.Doer
	session  session.Source
	defaults map[string]string
	log      Logger
}

// Option customises a Client.
type Option func(*Client)

// WithSession sets the token source consulted before every request.
func WithSession(src session.Source) Option {
	return func(c *Client) { c.session = src }
}

// WithHTTPClient replaces the transport.
func WithHTTPClient(doer httpclient.Doer) Option {
	return func(c *Client) { c.http = doer }
}

// WithLogger sets the logger used to report failures.
func WithLogger(log Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithTimeout builds the default transport with a per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http = httpclient.NewRestyClient(timeout) }
}

// WithDefaultHeaders adds headers sent on every request; callers can still override them.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.defaults[k] = v
		}
	}
}

// New builds a Client for origin (scheme+host+port, optionally with a path prefix).
func New(origin string, opts ...Option) (*Client, error) {
	origin = normalizeOrigin(origin)
	if origin == "" {
		return nil, errors.New("api base origin is empty")
	}

	c := &Client{
		origin:   origin,
		defaults: map[string]string{headerContentType: contentTypeJSON},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(0)
	}
	if c.session == nil {
		c.session = session.Empty()
	}
	c.log = ensureLogger(c.log)
	return c, nil
}

// Origin returns the base origin prepended to every path.
func (c *Client) Origin() string { return c.origin }

// Perform sends the request once and returns the raw JSON body of a 2xx response.
// An empty 2xx body yields nil. Non-2xx responses return *Error; transport
// failures are returned unchanged.
func (c *Client) Perform(ctx context.Context, endpoint string, opts *Options) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts == nil {
		opts = &Options{}
	}

	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = http.MethodGet
	}
	url := c.origin + endpoint

	if _, ok := allowedMethods[method]; !ok {
		err := fmt.Errorf("unsupported http method %q", opts.Method)
		c.logFailure(method, url, err)
		return nil, err
	}

	body, err := encodeBody(opts.Body)
	if err != nil {
		c.logFailure(method, url, err)
		return nil, err
	}

	resp, err := c.http.Do(ctx, method, url, c.headers(ctx, opts.Headers), body)
	if err != nil {
		c.logFailure(method, url, err)
		return nil, err
	}

	code := resp.StatusCode()
	if code < 200 || code > 299 {
		apiErr := &Error{
			StatusCode: code,
			Status:     statusText(code, resp.Status()),
			Method:     method,
			URL:        url,
		}
		c.logFailure(method, url, apiErr)
		return nil, apiErr
	}

	raw := bytes.TrimSpace(resp.Body())
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		err := fmt.Errorf("decode response from %s %s: invalid json", method, endpoint)
		c.logFailure(method, url, err)
		return nil, err
	}

	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out, nil
}

// Do calls Perform and decodes the JSON body into out when both are non-empty.
func (c *Client) Do(ctx context.Context, endpoint string, opts *Options, out any) error {
	raw, err := c.Perform(ctx, endpoint, opts)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return nil
}

// headers merges the defaults, caller headers and the bearer token.
func (c *Client) headers(ctx context.Context, extra map[string]string) map[string]string {
	out := make(map[string]string, len(c.defaults)+len(extra)+1)
	for k, v := range c.defaults {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}

	token, err := c.session.Token(ctx)
	if err != nil {
		c.log.WarnObj("session token lookup failed", "session_error", map[string]any{
			"error": err.Error(),
		})
		return out
	}
	if token != "" {
		out[headerAuthorization] = "Bearer " + token
	}
	return out
}

func (c *Client) logFailure(method, url string, err error) {
	fields := map[string]any{
		"method": method,
		"url":    url,
		"error":  err.Error(),
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		fields["status_code"] = apiErr.StatusCode
	}
	c.log.ErrorObj("api request failed", "api_error", fields)
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return []byte(b), nil
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		return raw, nil
	}
}
