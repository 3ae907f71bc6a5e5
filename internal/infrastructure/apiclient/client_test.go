package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/config"
	appLogger "github.com/fastygo/storefront/pkg/logger"
)

func TestSendBuildsRequest(t *testing.T) {
	var (
		gotAuth, gotReqID, gotPath, gotQuery, gotMethod, gotBody string
	)
	doer := serve(t, func(ctx *fasthttp.RequestCtx) {
		gotAuth = string(ctx.Request.Header.Peek("Authorization"))
		gotReqID = string(ctx.Request.Header.Peek("X-Request-ID"))
		gotPath = string(ctx.Path())
		gotQuery = string(ctx.QueryArgs().QueryString())
		gotMethod = string(ctx.Method())
		gotBody = string(ctx.PostBody())
		ctx.SetStatusCode(http.StatusOK)
	})
	tr := newTestTransport(t, doer, 0)

	ctx := appLogger.ContextWithRequestID(context.Background(), "req-1")
	resp, err := tr.Send(ctx, Request{
		Method: fasthttp.MethodPost,
		Path:   "/orders/create-order",
		Query:  url.Values{"b": {"2"}, "a": {"1"}, "skip": {""}},
		Body:   map[string]int{"item_id": 7},
	}, "tok")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "req-1", gotReqID)
	assert.Equal(t, "/orders/create-order", gotPath)
	assert.Equal(t, "a=1&b=2", gotQuery)
	assert.Equal(t, fasthttp.MethodPost, gotMethod)
	assert.JSONEq(t, `{"item_id":7}`, gotBody)
}

func TestSendWithoutTokenOmitsAuthorization(t *testing.T) {
	var hasAuth bool
	var reqID string
	doer := serve(t, func(ctx *fasthttp.RequestCtx) {
		hasAuth = len(ctx.Request.Header.Peek("Authorization")) > 0
		reqID = string(ctx.Request.Header.Peek("X-Request-ID"))
	})
	_, err := newTestTransport(t, doer, 0).Send(context.Background(), Request{Method: fasthttp.MethodGet, Path: "/items/menu"}, "")
	require.NoError(t, err)

	assert.False(t, hasAuth)
	assert.NotEmpty(t, reqID)
}

func TestStatusErrorsAreClassified(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		kind    domain.ErrorCode
		message string
	}{
		{"detail string", 400, `{"detail":"Item indisponível"}`, domain.ErrCodeValidation, "Item indisponível"},
		{"unauthorized default", 401, ``, domain.ErrCodeUnauthorized, "unauthorized, please sign in again"},
		{"message field", 403, `{"message":"admins only"}`, domain.ErrCodeForbidden, "admins only"},
		{"error field", 404, `{"error":"order missing"}`, domain.ErrCodeNotFound, "order missing"},
		{"validation list", 422, `{"detail":[{"loc":["body","price"],"msg":"field required"},{"msg":"too short"}]}`, domain.ErrCodeValidation, "field required; too short"},
		{"invalid data default", 422, `not json`, domain.ErrCodeValidation, "invalid data provided"},
		{"server error", 500, `<html>oops</html>`, domain.ErrCodeServer, "internal server error"},
		{"gateway", 503, ``, domain.ErrCodeServer, "internal server error"},
		{"teapot", 418, ``, domain.ErrCodeUnknown, "unexpected status 418"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doer := &scriptedDoer{steps: []func(*fasthttp.Request, *fasthttp.Response) error{replyJSON(tc.status, tc.body)}}
			client := New(newTestTransport(t, doer, 0), nil, nil)

			err := client.Get(context.Background(), "/x", nil, nil)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.kind, apiErr.Kind)
			assert.Equal(t, tc.message, apiErr.Message)
			assert.Equal(t, tc.body, string(apiErr.Raw))
			assert.Equal(t, tc.kind, domain.CodeOf(err))
			assert.Equal(t, int32(1), doer.calls.Load())
		})
	}
}

func TestDoDecodesSuccessBody(t *testing.T) {
	doer := &scriptedDoer{steps: []func(*fasthttp.Request, *fasthttp.Response) error{
		replyJSON(200, `[{"id":1,"name":"Margherita","price":39.9,"is_available":true,"created_at":"2024-01-01T12:00:00"}]`),
	}}
	client := New(newTestTransport(t, doer, 0), nil, nil)

	var items []domain.MenuItem
	require.NoError(t, client.Do(context.Background(), Request{Method: fasthttp.MethodGet, Path: "/items/menu"}, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Margherita", items[0].Name)
	assert.Equal(t, 2024, items[0].CreatedAt.Year())
}

func TestDoReportsUndecodableBody(t *testing.T) {
	doer := &scriptedDoer{steps: []func(*fasthttp.Request, *fasthttp.Response) error{replyJSON(200, `{"id":`)}}
	client := New(newTestTransport(t, doer, 0), nil, nil)

	var out map[string]any
	err := client.Get(context.Background(), "/x", nil, &out)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnknown))
}

func TestUnauthorizedRefreshesOnceAndRetries(t *testing.T) {
	var calls atomic.Int32
	doer := serve(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		if string(ctx.Request.Header.Peek("Authorization")) != "Bearer fresh" {
			ctx.SetStatusCode(http.StatusUnauthorized)
			return
		}
		ctx.SetBodyString(`{"ok":true}`)
	})
	tokens := &fakeTokens{token: "stale", next: "fresh"}
	client := New(newTestTransport(t, doer, 0), tokens, nil)

	var out struct{ OK bool }
	require.NoError(t, client.Get(context.Background(), "/orders/my-orders", nil, &out))

	assert.True(t, out.OK)
	assert.Equal(t, 1, tokens.refreshes)
	assert.Equal(t, 0, tokens.expired)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSecondUnauthorizedIsNotRetriedAgain(t *testing.T) {
	var calls atomic.Int32
	doer := serve(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(http.StatusUnauthorized)
	})
	tokens := &fakeTokens{token: "stale", next: "also-stale"}
	client := New(newTestTransport(t, doer, 0), tokens, nil)

	err := client.Get(context.Background(), "/users/me", nil, nil)

	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
	assert.Equal(t, 1, tokens.refreshes)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFailedRefreshExpiresSession(t *testing.T) {
	doer := &scriptedDoer{steps: []func(*fasthttp.Request, *fasthttp.Response) error{replyJSON(401, `{"detail":"Token expirado"}`)}}
	tokens := &fakeTokens{token: "stale", refreshErr: domain.NewError(domain.ErrCodeUnauthorized, "refresh rejected")}
	client := New(newTestTransport(t, doer, 0), tokens, nil)

	err := client.Get(context.Background(), "/orders/my-orders", nil, nil)

	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
	assert.Equal(t, 1, tokens.refreshes)
	assert.Equal(t, 1, tokens.expired)
	assert.Equal(t, int32(1), doer.calls.Load())
}

func TestAnonymousUnauthorizedDoesNotAnnounceExpiry(t *testing.T) {
	doer := &scriptedDoer{steps: []func(*fasthttp.Request, *fasthttp.Response) error{replyJSON(401, ``)}}
	tokens := &fakeTokens{refreshErr: domain.ErrNoRefreshToken}
	client := New(newTestTransport(t, doer, 0), tokens, nil)

	err := client.Get(context.Background(), "/orders/my-orders", nil, nil)

	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
	assert.Equal(t, 0, tokens.expired)
}

func TestLoginIsExcludedFromRefresh(t *testing.T) {
	doer := &scriptedDoer{steps: []func(*fasthttp.Request, *fasthttp.Response) error{replyJSON(401, `{"detail":"Credenciais inválidas"}`)}}
	tokens := &fakeTokens{token: "whatever"}
	client := New(newTestTransport(t, doer, 0), tokens, nil,
		WithAuthRetryPolicy(DefaultAuthRetryPolicy(config.DefaultEndpoints())))

	err := client.Post(context.Background(), "/auth/login", map[string]string{}, nil)

	require.Error(t, err)
	assert.Equal(t, "Credenciais inválidas", err.(*APIError).Message)
	assert.Equal(t, 0, tokens.refreshes)
}

func TestNetworkFailureRetriesReadsWithLinearBackoff(t *testing.T) {
	doer := &scriptedDoer{steps: []func(*fasthttp.Request, *fasthttp.Response) error{failWith(errConnRefused)}}
	sleeper := &sleepRecorder{}
	policy := DefaultRetryPolicy(3, time.Second)
	policy.Sleep = sleeper.Sleep
	client := New(newTestTransport(t, doer, 0), nil, nil, WithRetryPolicy(policy))

	err := client.Get(context.Background(), "/items/menu", nil, nil)

	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNetwork))
	assert.Equal(t, 0, StatusOf(err))
	assert.Equal(t, int32(3), doer.calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.delays)
}

func TestRetryRecoversAfterTransientFailure(t *testing.T) {
	doer := &scriptedDoer{steps: []func(*fasthttp.Request, *fasthttp.Response) error{
		failWith(fasthttp.ErrTimeout),
		replyJSON(200, `{"total_orders":3}`),
	}}
	sleeper := &sleepRecorder{}
	policy := DefaultRetryPolicy(3, time.Second)
	policy.Sleep = sleeper.Sleep
	client := New(newTestTransport(t, doer, 0), nil, nil, WithRetryPolicy(policy))

	var stats domain.OrderStats
	require.NoError(t, client.Get(context.Background(), "/orders/admin/stats", nil, &stats))

	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, []time.Duration{time.Second}, sleeper.delays)
}

func TestWritesAreNeverRetried(t *testing.T) {
	doer := &scriptedDoer{steps: []func(*fasthttp.Request, *fasthttp.Response) error{failWith(errConnRefused)}}
	policy := DefaultRetryPolicy(3, time.Second)
	policy.Sleep = (&sleepRecorder{}).Sleep
	client := New(newTestTransport(t, doer, 0), nil, nil, WithRetryPolicy(policy))

	err := client.Post(context.Background(), "/orders/create-order", map[string]any{}, nil)

	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNetwork))
	assert.Equal(t, int32(1), doer.calls.Load())
}

func TestHTTPStatusErrorsAreNeverRetried(t *testing.T) {
	doer := &scriptedDoer{steps: []func(*fasthttp.Request, *fasthttp.Response) error{replyJSON(503, ``)}}
	policy := DefaultRetryPolicy(3, time.Second)
	policy.Sleep = (&sleepRecorder{}).Sleep
	client := New(newTestTransport(t, doer, 0), nil, nil, WithRetryPolicy(policy))

	err := client.Get(context.Background(), "/items/menu", nil, nil)

	assert.True(t, domain.IsDomainError(err, domain.ErrCodeServer))
	assert.Equal(t, int32(1), doer.calls.Load())
}

func TestSlowServerTimesOut(t *testing.T) {
	doer := serve(t, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(300 * time.Millisecond)
	})
	client := New(newTestTransport(t, doer, 30*time.Millisecond), nil, nil, WithRetryPolicy(NoRetry()))

	err := client.Get(context.Background(), "/items/menu", nil, nil)

	assert.True(t, domain.IsDomainError(err, domain.ErrCodeTimeout), "got %v", err)
}

func TestCancelledContextStopsBackoff(t *testing.T) {
	doer := &scriptedDoer{steps: []func(*fasthttp.Request, *fasthttp.Response) error{failWith(errConnRefused)}}
	client := New(newTestTransport(t, doer, 0), nil, nil, WithRetryPolicy(DefaultRetryPolicy(3, time.Hour)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := client.Get(ctx, "/items/menu", nil, nil)

	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNetwork))
	assert.Equal(t, int32(1), doer.calls.Load())
}

func TestSleepContextHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, SleepContext(context.Background(), time.Millisecond))
}
