package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/infrastructure/storage"
	"github.com/fastygo/storefront/pkg/eventbus"
)

type fakeAuthAPI struct {
	mu sync.Mutex

	loginRes *domain.AuthResult
	loginErr error

	refreshRes   *domain.AuthResult
	refreshErr   error
	refreshGate  chan struct{}
	refreshSeen  chan struct{}
	refreshCalls int
	refreshToken string

	meUser  *domain.User
	meErr   error
	meCalls int
}

func (f *fakeAuthAPI) Login(_ context.Context, _ domain.Credentials) (*domain.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	res := *f.loginRes
	return &res, nil
}

func (f *fakeAuthAPI) Refresh(_ context.Context, refreshToken string) (*domain.AuthResult, error) {
	f.mu.Lock()
	f.refreshCalls++
	f.refreshToken = refreshToken
	gate, seen := f.refreshGate, f.refreshSeen
	res, err := f.refreshRes, f.refreshErr
	f.mu.Unlock()

	if seen != nil {
		close(seen)
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	out := *res
	return &out, nil
}

func (f *fakeAuthAPI) Me(_ context.Context, _ string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	if f.meErr != nil {
		return nil, f.meErr
	}
	u := *f.meUser
	return &u, nil
}

func (f *fakeAuthAPI) calls() (refresh, me int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls, f.meCalls
}

type recorder struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func record(bus *eventbus.Bus, events ...eventbus.Event) *recorder {
	r := &recorder{}
	for _, ev := range events {
		ev := ev
		bus.On(ev, func(any) {
			r.mu.Lock()
			r.events = append(r.events, ev)
			r.mu.Unlock()
		})
	}
	return r
}

func (r *recorder) seen() []eventbus.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]eventbus.Event(nil), r.events...)
}

type fixture struct {
	store   *Store
	storage *storage.Store
	local   *storage.Memory
	bus     *eventbus.Bus
	api     *fakeAuthAPI
	now     time.Time
}

var (
	customer = &domain.User{ID: 7, Username: "maria", Email: "maria@example.com", FullName: "Maria Souza", IsActive: true}
	admin    = &domain.User{ID: 1, Username: "admin", Email: "admin@example.com", IsAdmin: true, IsActive: true}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, storage.NewMemory())
}

func newFixtureOn(t *testing.T, local *storage.Memory) *fixture {
	t.Helper()
	f := &fixture{
		local: local,
		bus:   eventbus.New(nil),
		api:   &fakeAuthAPI{},
		now:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.storage = storage.New(local, nil)
	f.store = New(f.storage, f.api, f.bus, nil, Config{}, WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) raw(t *testing.T, key string) (string, bool) {
	t.Helper()
	v, ok, err := f.local.Get(context.Background(), key)
	require.NoError(t, err)
	return string(v), ok
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}
