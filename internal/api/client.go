// Package api implements the SnapRegister REST client: URL resolution
// against a configured base, bearer auth from an injected session, a
// per-attempt timeout, response classification into a small error taxonomy,
// and exponential-backoff retry for transient failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultMaxAttempts   = 3
	defaultBaseDelay     = 1 * time.Second
	defaultBackoffFactor = 2.0
)

// TokenSource supplies the bearer token attached to authenticated requests
// and is cleared when the server rejects it. *session.Session satisfies it.
type TokenSource interface {
	Get() string
}

// SessionState is the mutable authentication state the client reads on every
// call and resets on 401.
type SessionState interface {
	http.CookieJar
	Reset()
}

// Options tunes the client. Zero values fall back to the defaults above.
type Options struct {
	Timeout       time.Duration
	MaxAttempts   int
	BaseDelay     time.Duration
	BackoffFactor float64
}

// RequestConfig is per-call configuration. Immutable once passed in.
type RequestConfig struct {
	// Headers are merged over the defaults; caller keys win.
	Headers map[string]string
	// Timeout overrides the client-wide per-attempt timeout when positive.
	Timeout time.Duration
	// SkipAuth leaves the Authorization header off even when a token exists.
	// Used only for login and signup.
	SkipAuth bool
	// NoRetry limits the call to a single attempt regardless of error class.
	NoRetry bool
}

// MultipartBody is a fully assembled multipart/form-data payload. The client
// sends Data verbatim under ContentType instead of JSON-encoding it, so the
// transport's boundary parameter survives.
type MultipartBody struct {
	ContentType string
	Data        []byte
}

// Response is the outcome of a successful (2xx) call.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// IsJSON reports whether the response declared a JSON content type.
func (r *Response) IsJSON() bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// Decode unmarshals the JSON response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Text returns the raw response body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Client is the retry-aware HTTP client for the SnapRegister backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    SessionState
	tokens     TokenSource

	timeout       time.Duration
	maxAttempts   int
	baseDelay     time.Duration
	backoffFactor float64

	logger *slog.Logger
}

// New creates a Client for the given base URL. sess provides the cookie jar
// and token store; opts may be nil for defaults.
func New(baseURL string, sess SessionState, tokens TokenSource, opts *Options) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		session:       sess,
		tokens:        tokens,
		timeout:       defaultTimeout,
		maxAttempts:   defaultMaxAttempts,
		baseDelay:     defaultBaseDelay,
		backoffFactor: defaultBackoffFactor,
		logger:        slog.Default(),
	}
	if opts != nil {
		if opts.Timeout > 0 {
			c.timeout = opts.Timeout
		}
		if opts.MaxAttempts > 0 {
			c.maxAttempts = opts.MaxAttempts
		}
		if opts.BaseDelay > 0 {
			c.baseDelay = opts.BaseDelay
		}
		if opts.BackoffFactor > 1 {
			c.backoffFactor = opts.BackoffFactor
		}
	}
	c.httpClient = &http.Client{
		// Per-attempt deadlines come from the request context.
		Timeout: 0,
		Jar:     sess,
	}
	return c
}

func (c *Client) Get(ctx context.Context, path string, cfg *RequestConfig) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, cfg)
}

func (c *Client) Post(ctx context.Context, path string, body any, cfg *RequestConfig) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, cfg)
}

func (c *Client) Put(ctx context.Context, path string, body any, cfg *RequestConfig) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body, cfg)
}

func (c *Client) Patch(ctx context.Context, path string, body any, cfg *RequestConfig) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body, cfg)
}

func (c *Client) Delete(ctx context.Context, path string, cfg *RequestConfig) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, cfg)
}

// Do executes one logical call: resolve the URL, encode the body once, then
// attempt the request under the retry policy. The bearer token is re-read on
// every attempt so a token refreshed mid-retry is picked up.
func (c *Client) Do(ctx context.Context, method, path string, body any, cfg *RequestConfig) (*Response, error) {
	if cfg == nil {
		cfg = &RequestConfig{}
	}

	fullURL := c.resolveURL(path)

	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	attempts := c.maxAttempts
	if cfg.NoRetry {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.doOnce(ctx, method, fullURL, payload, contentType, cfg)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) {
			return nil, err
		}
		if attempt == attempts {
			break
		}

		delay := time.Duration(float64(c.baseDelay) * math.Pow(c.backoffFactor, float64(attempt-1)))
		c.logger.Debug("retrying request",
			"method", method, "path", path,
			"attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

// resolveURL joins a relative path onto the base URL. Absolute URLs and paths
// that already contain the base pass through untouched.
func (c *Client) resolveURL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	if strings.HasPrefix(path, c.baseURL) {
		return path
	}
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func encodeBody(body any) (payload []byte, contentType string, err error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *MultipartBody:
		return b.Data, b.ContentType, nil
	case []byte:
		return b, "application/json", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("marshaling request body: %w", err)
		}
		return data, "application/json", nil
	}
}

func (c *Client) doOnce(ctx context.Context, method, fullURL string, payload []byte, contentType string, cfg *RequestConfig) (*Response, error) {
	timeout := c.timeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader *bytes.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	var req *http.Request
	var err error
	if bodyReader != nil {
		req, err = http.NewRequestWithContext(reqCtx, method, fullURL, bodyReader)
	} else {
		req, err = http.NewRequestWithContext(reqCtx, method, fullURL, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	if !cfg.SkipAuth {
		if token := c.tokens.Get(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.logger.Debug("request", "method", method, "url", fullURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Attempt timeout and transport failure both classify as a network
		// error with status 0; the caller's own cancellation passes through.
		if reqCtx.Err() == context.DeadlineExceeded {
			return nil, &NetworkError{Err: fmt.Errorf("request timed out after %s", timeout)}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := readAll(resp)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("reading response body: %w", err)}
	}

	c.logger.Debug("response", "method", method, "url", fullURL, "status", resp.StatusCode)

	return c.classify(resp, respBody)
}

func (c *Client) classify(resp *http.Response, body []byte) (*Response, error) {
	status := resp.StatusCode

	switch {
	case status >= 200 && status < 300:
		return &Response{Status: status, Header: resp.Header, Body: body}, nil

	case status == http.StatusUnauthorized:
		// Invalid or expired token: drop the whole session before surfacing
		// the error so the next call starts clean.
		c.session.Reset()
		return nil, &AuthError{Message: serverMessage(body, "session expired, please log in again")}

	case status >= 400 && status < 500:
		return nil, &ClientError{
			Status:  status,
			Message: serverMessage(body, clientErrorMessage(status)),
		}

	case status >= 500:
		return nil, &ServerError{
			Status:  status,
			Message: serverMessage(body, "something went wrong on our end, please try again later"),
		}

	default:
		return nil, &ServerError{Status: status, Message: fmt.Sprintf("unexpected status %d", status)}
	}
}

// serverMessage extracts an error message from a JSON error body, falling
// back to the given generic text.
func serverMessage(body []byte, fallback string) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return fallback
}

func readAll(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
