// Package remote is the HTTP client of the RAS administration API. Every reply uses the
// {success, error?, ...payload} envelope; failures are classified into transport errors,
// structured remote errors and not-found replies (see pkg/errors).
package remote

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

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/charlesng35/rasconsole/pkg/errors"
	"github.com/charlesng35/rasconsole/pkg/logger"
	"github.com/charlesng35/rasconsole/pkg/metrics"
	"github.com/charlesng35/rasconsole/pkg/response"
)

const (
	defaultTimeout  = 30 * time.Second
	maxReplyBytes   = 8 * 1024 * 1024
	csrfHeader      = "X-CSRFToken"
	requestIDHeader = "X-Request-ID"
)

// TokenSource supplies the CSRF token attached to mutations. Acquiring the token is the
// job of the surrounding session.
type TokenSource interface {
	CSRFToken(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

// CSRFToken implements TokenSource.
func (t StaticToken) CSRFToken(context.Context) (string, error) {
	return strings.TrimSpace(string(t)), nil
}

// Config holds client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// UserID identifies the current user in group membership requests.
	UserID int64
	// Cookie is sent verbatim with every request (session authentication).
	Cookie string
}

// Client talks to the remote API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	userID  int64
	cookie  string
	log     *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenSource sets the CSRF token source.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// New constructs a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("remote: base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, fmt.Errorf("remote: invalid base url %q", raw)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		userID:  cfg.UserID,
		cookie:  strings.TrimSpace(cfg.Cookie),
		log:     logger.WithModule("remote"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// UserID returns the id of the current user.
func (c *Client) UserID() int64 {
	return c.userID
}

func (c *Client) get(ctx context.Context, action, path string, query url.Values) (*response.Envelope, error) {
	return c.do(ctx, action, http.MethodGet, path, query, nil)
}

func (c *Client) post(ctx context.Context, action, path string, body map[string]any) (*response.Envelope, error) {
	if body == nil {
		body = map[string]any{}
	}
	return c.do(ctx, action, http.MethodPost, path, nil, body)
}

func (c *Client) do(ctx context.Context, action, method, path string, query url.Values, body map[string]any) (*response.Envelope, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var token string
	if method != http.MethodGet {
		var err error
		token, err = c.csrfToken(ctx)
		if err != nil {
			return nil, err
		}
	}

	target := *c.baseURL
	target.Path = c.baseURL.Path + path
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.NewPrecondition("request body cannot be encoded").WithInternal(err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, apperrors.NewTransport(err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(csrfHeader, token)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	log := c.log.With(zap.String("action", action), zap.String("method", method),
		zap.String("path", path), zap.String("request_id", requestID))

	started := time.Now()
	resp, err := c.http.Do(req)
	metrics.RemoteLatency.WithLabelValues(method, action).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.RemoteRequests.WithLabelValues(action, "transport_error").Inc()
		log.Warn("request failed", zap.Error(err))
		return nil, apperrors.NewTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		metrics.RemoteRequests.WithLabelValues(action, "transport_error").Inc()
		return nil, apperrors.NewTransport(err)
	}

	env, err := response.Parse(raw)
	if err != nil {
		metrics.RemoteRequests.WithLabelValues(action, "transport_error").Inc()
		log.Warn("unreadable reply", zap.Int("status", resp.StatusCode), zap.Error(err))
		if resp.StatusCode == http.StatusNotFound {
			return nil, apperrors.NewRemote(resp.StatusCode, apperrors.ErrNotFound.Message)
		}
		return nil, apperrors.NewTransport(fmt.Errorf("status %d: %w", resp.StatusCode, err))
	}

	if !env.Success {
		metrics.RemoteRequests.WithLabelValues(action, "remote_error").Inc()
		log.Info("request rejected", zap.Int("status", resp.StatusCode), zap.String("error", env.Error))
		return env, env.Err(resp.StatusCode)
	}

	metrics.RemoteRequests.WithLabelValues(action, "success").Inc()
	log.Debug("request completed", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(started)))
	return env, nil
}

func (c *Client) csrfToken(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", apperrors.ErrCSRFMissing
	}
	token, err := c.tokens.CSRFToken(ctx)
	if err != nil {
		return "", apperrors.ErrCSRFMissing.WithInternal(err)
	}
	if strings.TrimSpace(token) == "" {
		return "", apperrors.ErrCSRFMissing
	}
	return token, nil
}

func decodeList[T any](env *response.Envelope, key string) ([]T, error) {
	var out []T
	if !env.Has(key) {
		return []T{}, nil
	}
	if err := env.Decode(key, &out); err != nil {
		return nil, apperrors.NewTransport(err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
