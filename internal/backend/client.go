// Package backend is the HTTP client for the code checker API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/codecheck/internal/model"
)

// DefaultBaseURL is where the checker backend listens by default.
const DefaultBaseURL = "http://localhost:5000"

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

const unknownError = "unknown error"

// Client talks to the checker backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  zerolog.Logger
	schemas *envelopeSchemas
	newID   func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestIDs overrides request id generation.
func WithRequestIDs(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// Health is the body of the health endpoint.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type exerciseEnvelope struct {
	Success  bool            `json:"success"`
	Exercise *model.Exercise `json:"exercise"`
	Error    string          `json:"error"`
}

type checkEnvelope struct {
	Success bool               `json:"success"`
	Result  *model.CheckResult `json:"result"`
	Error   string             `json:"error"`
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", baseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: missing host", baseURL)
	}
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: parsed,
		http:    newHTTPClient(),
		logger:  zerolog.Nop(),
		schemas: schemas,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// newHTTPClient has no overall timeout: a check resolves only when the
// transport does, or when the caller's context ends.
func newHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
	}
	return &http.Client{Transport: transport}
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Exercise loads the exercise identified by sel.
func (c *Client) Exercise(ctx context.Context, sel model.Selection) (model.Exercise, error) {
	const op = "load exercise"
	endpoint := c.endpoint("api", "exercise", sel.Lesson, strconv.Itoa(sel.Exercise))
	status, doc, body, err := c.do(ctx, op, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.Exercise{}, err
	}
	if err := c.schemas.exercise.Validate(doc); err != nil {
		return model.Exercise{}, &TransportError{Op: op, Err: fmt.Errorf("unexpected response shape: %w", err)}
	}
	var env exerciseEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return model.Exercise{}, &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if !env.Success {
		return model.Exercise{}, &AppError{Op: op, Status: status, Message: errorMessage(env.Error)}
	}
	return *env.Exercise, nil
}

// Check submits code for grading.
func (c *Client) Check(ctx context.Context, req model.CheckRequest) (model.CheckResult, error) {
	const op = "check code"
	payload, err := json.Marshal(req)
	if err != nil {
		return model.CheckResult{}, fmt.Errorf("failed to encode check request: %w", err)
	}
	status, doc, body, err := c.do(ctx, op, http.MethodPost, c.endpoint("api", "check"), payload)
	if err != nil {
		return model.CheckResult{}, err
	}
	if err := c.schemas.check.Validate(doc); err != nil {
		return model.CheckResult{}, &TransportError{Op: op, Err: fmt.Errorf("unexpected response shape: %w", err)}
	}
	var env checkEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return model.CheckResult{}, &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if !env.Success {
		return model.CheckResult{}, &AppError{Op: op, Status: status, Message: errorMessage(env.Error)}
	}
	return *env.Result, nil
}

// Health queries the backend health endpoint.
func (c *Client) Health(ctx context.Context) (Health, error) {
	const op = "health"
	status, doc, body, err := c.do(ctx, op, http.MethodGet, c.endpoint("api", "health"), nil)
	if err != nil {
		return Health{}, err
	}
	if err := c.schemas.health.Validate(doc); err != nil {
		return Health{}, &TransportError{Op: op, Err: fmt.Errorf("unexpected response shape: %w", err)}
	}
	var health Health
	if err := json.Unmarshal(body, &health); err != nil {
		return Health{}, &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if status != http.StatusOK || health.Status != "ok" {
		return health, &AppError{Op: op, Status: status, Message: errorMessage(health.Message)}
	}
	return health, nil
}

func (c *Client) endpoint(segments ...string) string {
	u := *c.baseURL
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	rawBase := strings.TrimRight(c.baseURL.EscapedPath(), "/")
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(segments, "/")
	u.RawPath = rawBase + "/" + strings.Join(escaped, "/")
	return u.String()
}

// do sends the request and decodes the body into a generic JSON document
// regardless of the HTTP status; the envelope decides success.
func (c *Client) do(ctx context.Context, op, method, endpoint string, payload []byte) (int, any, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, nil, &TransportError{Op: op, Err: err}
	}
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = c.newID()
	}
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug().Str("request_id", requestID).Str("op", op).Err(err).Msg("request failed")
		return 0, nil, nil, &TransportError{Op: op, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, nil, &TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	c.logger.Debug().
		Str("request_id", requestID).
		Str("op", op).
		Str("method", method).
		Str("url", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("request completed")

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return resp.StatusCode, nil, nil, &TransportError{Op: op, Err: fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)}
	}
	return resp.StatusCode, doc, body, nil
}

func errorMessage(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return unknownError
	}
	return msg
}
