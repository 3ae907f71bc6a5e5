// Package apiclient talks to the pizzeria backend over fasthttp.
package apiclient

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/config"
	appLogger "github.com/fastygo/storefront/pkg/logger"
)

// Doer is satisfied by *fasthttp.Client and *fasthttp.HostClient.
type Doer interface {
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Auth attaches the bearer token when one is held.
	Auth bool
}

func (r Request) idempotent() bool {
	return r.Method == fasthttp.MethodGet || r.Method == fasthttp.MethodHead
}

// Response is a detached copy of the backend reply.
type Response struct {
	Status      int
	Body        []byte
	ContentType string
	RequestID   string
}

func (r *Response) ok() bool {
	return r.Status >= 200 && r.Status < 300
}

// Transport performs single HTTP exchanges. It knows nothing about retries
// or token refresh.
type Transport struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	doer      Doer
	logger    *zap.Logger
}

type TransportOption func(*Transport)

// WithDoer replaces the fasthttp client, mainly for tests.
func WithDoer(d Doer) TransportOption {
	return func(t *Transport) { t.doer = d }
}

func NewTransport(cfg config.APIConfig, logger *zap.Logger, opts ...TransportOption) *Transport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Transport{
		baseURL:   cfg.BaseURL,
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.doer == nil {
		t.doer = &fasthttp.Client{
			Name:                      cfg.UserAgent,
			ReadTimeout:               cfg.Timeout,
			WriteTimeout:              cfg.Timeout,
			MaxIdemponentCallAttempts: 1,
		}
	}
	return t
}

// Timeout returns the per-request deadline budget.
func (t *Transport) Timeout() time.Duration {
	return t.timeout
}

// Send performs r once. The deadline is the earlier of the context deadline
// and now plus the configured timeout.
func (t *Transport) Send(ctx context.Context, r Request, token string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, transportError(err)
	}

	var payload []byte
	if r.Body != nil {
		var err error
		if payload, err = json.Marshal(r.Body); err != nil {
			return nil, &APIError{Kind: domain.ErrCodeUnknown, Message: "request body not serializable", Err: err}
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(t.baseURL + r.Path)
	addQuery(req.URI().QueryArgs(), r.Query)
	req.Header.SetMethod(r.Method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if t.userAgent != "" {
		req.Header.SetUserAgent(t.userAgent)
	}

	reqID := appLogger.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", reqID)

	if token != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
	}
	if payload != nil {
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(payload)
	}

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	log := t.logger.With(
		zap.String("method", r.Method),
		zap.String("path", r.Path),
		zap.String("request_id", reqID),
	)
	start := time.Now()
	if err := t.doer.DoDeadline(req, resp, deadline); err != nil {
		log.Debug("request failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, transportError(err)
	}
	log.Debug("request completed",
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(start)))

	return &Response{
		Status:      resp.StatusCode(),
		Body:        append([]byte(nil), resp.Body()...),
		ContentType: string(resp.Header.ContentType()),
		RequestID:   reqID,
	}, nil
}

// Ping performs an unauthenticated GET on path and classifies any failure
// the same way Send does.
func (t *Transport) Ping(ctx context.Context, path string) error {
	resp, err := t.Send(ctx, Request{Method: fasthttp.MethodGet, Path: path}, "")
	if err != nil {
		return err
	}
	if !resp.ok() {
		return newStatusError(resp)
	}
	return nil
}

// addQuery appends non-empty values in key order.
func addQuery(args *fasthttp.Args, query url.Values) {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range query[k] {
			if v != "" {
				args.Add(k, v)
			}
		}
	}
}

func decodeInto(resp *Response, out any) error {
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return decodeError(resp, err)
	}
	return nil
}
