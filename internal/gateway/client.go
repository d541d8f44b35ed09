package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"testagent/internal/events"
	"testagent/pkg/logging"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const subsystem = "Gateway"

// RequestIDHeader carries a client-generated id for correlating backend logs.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of an error response is read for its detail.
const maxErrorBody = 64 << 10

// Session is the part of the session store the gateway needs.
type Session interface {
	Token() *oauth2.Token
	Logout(reason events.LogoutReason) error
}

// Client is the single configured HTTP client used by every adapter.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    Session
	timeout    time.Duration
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout bounds every non-streaming request. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New returns a Client for baseURL. session may be nil for anonymous use.
func New(baseURL string, session Session, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		session:    session,
		userAgent:  "testagent",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RequestOptions carries the optional parts of a request.
type RequestOptions struct {
	// Query is appended to the path.
	Query url.Values
	// Body is encoded as JSON unless RawBody is set.
	Body any
	// RawBody is sent as-is with ContentType.
	RawBody     io.Reader
	ContentType string
	// ContentLength is used with RawBody when known.
	ContentLength int64
	Header        http.Header
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, opts *RequestOptions, out any) error {
	return c.Do(ctx, http.MethodGet, path, opts, out)
}

// Post issues a POST request and decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, path string, opts *RequestOptions, out any) error {
	return c.Do(ctx, http.MethodPost, path, opts, out)
}

// Patch issues a PATCH request and decodes the JSON response into out.
func (c *Client) Patch(ctx context.Context, path string, opts *RequestOptions, out any) error {
	return c.Do(ctx, http.MethodPatch, path, opts, out)
}

// Delete issues a DELETE request and decodes the JSON response into out.
func (c *Client) Delete(ctx context.Context, path string, opts *RequestOptions, out any) error {
	return c.Do(ctx, http.MethodDelete, path, opts, out)
}

// Do sends a request and decodes a JSON response into out. A nil out
// discards the body. Failures are always *APIError.
func (c *Client) Do(ctx context.Context, method, path string, opts *RequestOptions, out any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.send(ctx, method, path, opts)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &APIError{
			Kind:    KindServer,
			Status:  resp.StatusCode,
			Method:  method,
			Path:    path,
			Message: MessageServer,
			Err:     fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// Bytes sends a request and returns the raw response body and its content
// type, for binary downloads such as generated spreadsheets.
func (c *Client) Bytes(ctx context.Context, method, path string, opts *RequestOptions) ([]byte, string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.send(ctx, method, path, opts)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", c.transportError(ctx, method, path, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// send builds and sends the request, applying the request and response
// interceptors. On success the caller owns resp.Body.
func (c *Client) send(ctx context.Context, method, path string, opts *RequestOptions) (*http.Response, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	req, err := c.newRequest(ctx, method, path, opts)
	if err != nil {
		return nil, &APIError{Kind: KindServer, Method: method, Path: path, Message: MessageServer, Err: err}
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	c.authorize(req)

	start := time.Now()
	logging.Debug(subsystem, "-> %s %s (request_id=%s)", method, path, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErr := c.transportError(ctx, method, path, err)
		logging.Debug(subsystem, "<- %s %s failed after %s: %v", method, path, time.Since(start).Round(time.Millisecond), err)
		return nil, apiErr
	}

	logging.Debug(subsystem, "<- %d %s %s in %s", resp.StatusCode, method, path, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, c.responseError(method, path, resp.StatusCode, body)
}

func (c *Client) newRequest(ctx context.Context, method, path string, opts *RequestOptions) (*http.Request, error) {
	u := c.baseURL + path
	if len(opts.Query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		u += sep + opts.Query.Encode()
	}

	var body io.Reader
	contentType := opts.ContentType
	switch {
	case opts.RawBody != nil:
		body = opts.RawBody
	case opts.Body != nil:
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if opts.RawBody != nil && opts.ContentLength > 0 {
		req.ContentLength = opts.ContentLength
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, vs := range opts.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// authorize attaches the bearer token when the session has one.
func (c *Client) authorize(req *http.Request) {
	if c.session == nil {
		return
	}
	if tok := c.session.Token(); tok != nil && tok.AccessToken != "" {
		tok.SetAuthHeader(req)
	}
}

func (c *Client) transportError(ctx context.Context, method, path string, err error) *APIError {
	if ctx.Err() == context.Canceled {
		return &APIError{Kind: KindCanceled, Method: method, Path: path, Message: MessageCanceled, Err: err}
	}
	return &APIError{
		Kind:       KindNetwork,
		Method:     method,
		Path:       path,
		Message:    MessageNetwork,
		Connection: classifyConnectionError(err),
		Err:        err,
	}
}

func (c *Client) responseError(method, path string, status int, body []byte) *APIError {
	detail := detailFromBody(body)

	if status == http.StatusUnauthorized {
		if c.session != nil {
			if err := c.session.Logout(events.LogoutUnauthorized); err != nil {
				logging.Error(subsystem, err, "Failed to purge session after 401")
			}
		}
		msg := detail
		if msg == "" {
			msg = MessageUnauthorized
		}
		return &APIError{Kind: KindUnauthorized, Status: status, Method: method, Path: path, Message: msg}
	}

	msg := detail
	if msg == "" {
		msg = MessageServer
	}
	return &APIError{
		Kind:    KindServer,
		Status:  status,
		Method:  method,
		Path:    path,
		Message: msg,
		Err:     fmt.Errorf("%s %s: status %d", method, path, status),
	}
}
