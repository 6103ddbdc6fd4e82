// Package fontapi is the typed HTTP client for the font-distribution REST API.
package fontapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"fontier-admin/internal/logx"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "fontier-admin/1.0"

	// limits the amount of an error body copied into StatusError.Message
	maxErrorBody = 4 << 10
)

// Client issues the list/get/create/update/assign/unassign calls for every resource kind.
type Client struct {
	base   *url.URL
	http   *http.Client
	token  string
	logger *logx.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithToken sends Authorization: Bearer <token> on every request.
func WithToken(token string) Option { return func(c *Client) { c.token = token } }

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *logx.Logger) Option { return func(c *Client) { c.logger = l } }

// New creates a client rooted at baseURL (e.g. https://api.fontier.pro/api).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: defaultTimeout},
		logger: logx.GetScope("fontapi"),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

// do runs one request and decodes a JSON answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed",
			zap.String("op", op), zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s: execute request: %w", op, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("upstream request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, Method: method, Path: path, Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// errorMessage extracts {"message"} or {"error"} from an error body, falling back to the raw text.
func errorMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return string(raw)
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, op, http.MethodGet, path, nil, "", out)
}

func (c *Client) sendJSON(ctx context.Context, op, method, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode body: %w", op, err)
	}
	return c.do(ctx, op, method, path, bytes.NewReader(b), "application/json", out)
}

func (c *Client) delete(ctx context.Context, op, path string) error {
	return c.do(ctx, op, http.MethodDelete, path, nil, "", nil)
}

// upload posts a multipart form with a single file field.
func (c *Client) upload(ctx context.Context, op, path, field, filename string, r io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("%s: create form file: %w", op, err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return fmt.Errorf("%s: copy file: %w", op, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("%s: close multipart: %w", op, err)
	}
	return c.do(ctx, op, http.MethodPost, path, &buf, mw.FormDataContentType(), out)
}

func seg(s string) string { return url.PathEscape(s) }
