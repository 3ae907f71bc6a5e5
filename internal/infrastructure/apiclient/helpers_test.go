package apiclient

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap/zaptest"

	"github.com/fastygo/storefront/internal/config"
)

const testBaseURL = "http://api.test"

func serve(t *testing.T, h fasthttp.RequestHandler) *fasthttp.Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: h}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })
	return &fasthttp.Client{
		Dial:                      func(string) (net.Conn, error) { return ln.Dial() },
		MaxIdemponentCallAttempts: 1,
	}
}

func newTestTransport(t *testing.T, doer Doer, timeout time.Duration) *Transport {
	t.Helper()
	if timeout == 0 {
		timeout = time.Second
	}
	return NewTransport(config.APIConfig{BaseURL: testBaseURL, Timeout: timeout, UserAgent: "storefront-test"},
		zaptest.NewLogger(t), WithDoer(doer))
}

type fakeTokens struct {
	mu         sync.Mutex
	token      string
	next       string
	refreshErr error
	refreshes  int
	expired    int
}

func (f *fakeTokens) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeTokens) Refresh(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		f.token = ""
		return f.refreshErr
	}
	f.token = f.next
	return nil
}

func (f *fakeTokens) Expire(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired++
}

// scriptedDoer replays one step per call; the last step repeats.
type scriptedDoer struct {
	calls atomic.Int32
	steps []func(req *fasthttp.Request, resp *fasthttp.Response) error
}

func (d *scriptedDoer) DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, _ time.Time) error {
	i := int(d.calls.Add(1)) - 1
	return d.steps[min(i, len(d.steps)-1)](req, resp)
}

func failWith(err error) func(*fasthttp.Request, *fasthttp.Response) error {
	return func(*fasthttp.Request, *fasthttp.Response) error { return err }
}

func replyJSON(status int, body string) func(*fasthttp.Request, *fasthttp.Response) error {
	return func(_ *fasthttp.Request, resp *fasthttp.Response) error {
		resp.SetStatusCode(status)
		resp.Header.SetContentType("application/json")
		resp.SetBodyString(body)
		return nil
	}
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}
