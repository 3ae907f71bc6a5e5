package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// TokenSource provides the bearer token and reacts to its rejection.
type TokenSource interface {
	AccessToken() string
	// Refresh obtains a new access token. Implementations clear the session
	// when the refresh itself fails.
	Refresh(ctx context.Context) error
	// Expire announces that the session ended involuntarily.
	Expire(ctx context.Context)
}

// Client layers the retry and refresh policies over a Transport.
type Client struct {
	transport *Transport
	tokens    TokenSource
	retry     RetryPolicy
	auth      AuthRetryPolicy
	logger    *zap.Logger
}

type Option func(*Client)

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

func WithAuthRetryPolicy(p AuthRetryPolicy) Option {
	return func(c *Client) { c.auth = p }
}

// New builds a client. tokens may be nil for anonymous use.
func New(transport *Transport, tokens TokenSource, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		transport: transport,
		tokens:    tokens,
		retry:     DefaultRetryPolicy(3, time.Second),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.retry = c.retry.normalized()
	return c
}

// Do executes req and decodes a successful JSON body into out (when non-nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	hadToken := req.Auth && c.token() != ""

	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}

	if resp.Status == http.StatusUnauthorized && c.tokens != nil && c.auth.applies(req) {
		if rerr := c.tokens.Refresh(ctx); rerr != nil {
			c.logger.Info("token refresh failed after 401",
				zap.String("path", req.Path), zap.Error(rerr))
			if hadToken {
				c.tokens.Expire(ctx)
			}
			return newStatusError(resp)
		}
		resp, err = c.send(ctx, req)
		if err != nil {
			return err
		}
	}

	if !resp.ok() {
		return newStatusError(resp)
	}
	return decodeInto(resp, out)
}

// send runs the retry loop around single exchanges.
func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		resp, err := c.transport.Send(ctx, req, c.tokenFor(req))
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt == c.retry.MaxAttempts || !c.retry.Retryable(req, err) {
			break
		}
		delay := c.retry.Backoff(attempt)
		c.logger.Warn("retrying request",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))
		if serr := c.retry.Sleep(ctx, delay); serr != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken()
}

func (c *Client) tokenFor(req Request) string {
	if !req.Auth {
		return ""
	}
	return c.token()
}

// Get fetches path with an authenticated GET.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: fasthttp.MethodGet, Path: path, Query: query, Auth: true}, out)
}

// Post sends body with an authenticated POST.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: fasthttp.MethodPost, Path: path, Body: body, Auth: true}, out)
}

// Put sends body with an authenticated PUT.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: fasthttp.MethodPut, Path: path, Body: body, Auth: true}, out)
}

// Patch sends an authenticated PATCH; the backend takes status updates as query parameters.
func (c *Client) Patch(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.Do(ctx, Request{Method: fasthttp.MethodPatch, Path: path, Query: query, Body: body, Auth: true}, out)
}

// Delete sends an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: fasthttp.MethodDelete, Path: path, Auth: true}, out)
}

// Transport exposes the underlying transport for health probes.
func (c *Client) Transport() *Transport {
	return c.transport
}
