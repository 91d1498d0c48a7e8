package api

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

	"github.com/cjnlabay/midterm/internal/logger"
)

// Scheme selects how the token is written into the Authorization header.
type Scheme string

const (
	// SchemeRaw sends the token as the whole header value
	SchemeRaw Scheme = "raw"
	// SchemeBearer sends "Bearer <token>"
	SchemeBearer Scheme = "bearer"
)

// ParseScheme maps a config value to a Scheme; unknown values fall back to raw
func ParseScheme(s string) Scheme {
	if strings.EqualFold(strings.TrimSpace(s), string(SchemeBearer)) {
		return SchemeBearer
	}
	return SchemeRaw
}

// TokenSource supplies the current session token
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

const maxResponseBody = 10 << 20

// Client issues JSON requests against the backend. It never retries.
type Client struct {
	baseURL    *url.URL
	scheme     Scheme
	tokens     TokenSource
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithScheme sets the Authorization scheme used for every request
func WithScheme(s Scheme) Option {
	return func(c *Client) { c.scheme = s }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a client rooted at baseURL (e.g. http://localhost:3000/api/).
// tokens may be nil, in which case no Authorization header is ever sent.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: want http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		baseURL:    u,
		scheme:     SchemeRaw,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the resolved base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) resolve(path string) (string, error) {
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

func (c *Client) authorization(token string) string {
	if c.scheme == SchemeBearer {
		return "Bearer " + token
	}
	return token
}

// Do sends method+path with body encoded as JSON (nil for none) and decodes a
// 2xx response into out (nil to ignore the body).
//
// Errors are *HTTPError for non-2xx statuses, *NetworkError when no response
// arrived and *DecodeError when the body cannot be decoded into out.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	endpoint, err := c.resolve(path)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Token(ctx); ok {
			req.Header.Set("Authorization", c.authorization(token))
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("API request failed",
			logger.F("method", method),
			logger.F("path", path),
			logger.F("error", err))
		return &NetworkError{Op: method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &NetworkError{Op: method, URL: endpoint, Err: err}
	}

	logger.Debug("API response",
		logger.F("method", method),
		logger.F("path", path),
		logger.F("status", resp.StatusCode),
		logger.F("duration", time.Since(start).String()))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Status: resp.StatusCode, Message: extractError(data)}
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &DecodeError{What: method + " " + path, Err: errors.New("empty response body")}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{What: method + " " + path, Err: err}
	}
	return nil
}
