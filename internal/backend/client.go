// Package backend is the HTTP client for the Docker management backend.
//
// Every endpoint answers with an envelope {code, msg, data}. The client
// unwraps it, turns non-success codes into *domain.APIError and turns
// network-level failures into errors wrapping domain.ErrTransport, so
// callers can tell "the backend said no" apart from "we don't know what
// happened".
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/logging"
	"nathanbeddoewebdev/dockctl/internal/retry"
)

const (
	// DefaultBaseURL is where a locally installed backend listens.
	DefaultBaseURL = "http://localhost:12712"

	// DefaultTimeout bounds a single HTTP exchange. It is unrelated to how
	// long a background task may run.
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 4 << 10
)

// Client talks to one backend instance.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	retry   retry.Config
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithRetry sets the retry policy for idempotent reads.
func WithRetry(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// New returns a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
		retry:   retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string { return c.baseURL }

// --- wire types ---

// envelope is the response wrapper shared by every endpoint.
type envelope struct {
	Code   flexInt         `json:"code"`
	Msg    string          `json:"msg"`
	Status string          `json:"status,omitempty"`
	Data   json.RawMessage `json:"data"`
}

func (e envelope) err() error {
	if domain.IsSuccessCode(int(e.Code)) {
		return nil
	}
	return classify(int(e.Code), e.Msg)
}

// flexInt decodes numbers and numeric strings. Some backend versions send
// the envelope code as a string.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid code %s", b)
	}
	*f = flexInt(n)
	return nil
}

// classify builds an APIError and tags it with a sentinel when the code or
// message is recognisable.
func classify(code int, msg string) *domain.APIError {
	apiErr := &domain.APIError{Code: code, Message: msg}
	lower := strings.ToLower(msg)
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden ||
		strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "token") && (strings.Contains(lower, "invalid") || strings.Contains(lower, "expired")):
		apiErr.Kind = domain.ErrUnauthorized
	case code == http.StatusNotFound ||
		strings.Contains(lower, "not found") ||
		strings.Contains(lower, "不存在"):
		apiErr.Kind = domain.ErrNotFound
	case code == http.StatusTooManyRequests ||
		strings.Contains(lower, "rate limit"):
		apiErr.Kind = domain.ErrRateLimited
	case code == http.StatusConflict ||
		domain.IsNameConflict(msg) ||
		strings.Contains(lower, "already exists") ||
		strings.Contains(lower, "conflict"):
		apiErr.Kind = domain.ErrConflict
	}
	return apiErr
}

// --- HTTP helpers ---

type request struct {
	method string
	path   string
	query  url.Values
	form   url.Values
}

// send performs the exchange and returns the decoded envelope without
// judging its code. Network failures and unreadable bodies wrap
// domain.ErrTransport.
func (c *Client) send(ctx context.Context, r request) (envelope, int, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.form != nil {
		body = strings.NewReader(r.form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return envelope{}, 0, fmt.Errorf("backend: failed to build request: %w", err)
	}
	if r.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log := logging.L().WithField("method", r.method).WithField("path", r.path)
	resp, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Debug("request failed")
		return envelope{}, 0, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()
	log.WithField("status", resp.StatusCode).Debug("response")

	if resp.StatusCode == http.StatusNoContent {
		return envelope{Code: http.StatusOK}, resp.StatusCode, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, resp.StatusCode, fmt.Errorf("%w: failed to read response: %w", domain.ErrTransport, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 400 {
			return envelope{}, resp.StatusCode, classify(resp.StatusCode, snippet(raw, resp.Status))
		}
		return envelope{}, resp.StatusCode, fmt.Errorf("%w: failed to decode response: %w", domain.ErrTransport, err)
	}

	// An HTTP-level auth failure overrides whatever the body claims.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		msg := env.Msg
		if msg == "" {
			msg = resp.Status
		}
		return envelope{}, resp.StatusCode, classify(resp.StatusCode, msg)
	}
	if resp.StatusCode >= 400 && domain.IsSuccessCode(int(env.Code)) {
		env.Code = flexInt(resp.StatusCode)
	}
	return env, resp.StatusCode, nil
}

// do performs the request, rejects non-success envelopes and decodes data
// into out (when non-nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	env, _, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if err := env.err(); err != nil {
		return err
	}
	return decodeData(env.Data, out)
}

// get performs an idempotent read, retrying transient transport failures.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return retry.Do(ctx, c.retry, isTransient, func() error {
		return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
	})
}

func isTransient(err error) bool {
	if errors.Is(err, domain.ErrRateLimited) {
		return true
	}
	return errors.Is(err, domain.ErrTransport) && retry.IsRetryable(err)
}

func decodeData(data json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("%w: unexpected response data: %w", domain.ErrTransport, err)
	}
	return nil
}

func snippet(raw []byte, fallback string) string {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return fallback
	}
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return s
}
