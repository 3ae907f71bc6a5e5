// Package session owns the client's authentication state.
package session

import (
	"context"
	"encoding/json"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/infrastructure/storage"
	"github.com/fastygo/storefront/pkg/eventbus"
)

const (
	EventLogin          eventbus.Event = "auth:login"
	EventLoginFailed    eventbus.Event = "auth:login_failed"
	EventLogout         eventbus.Event = "auth:logout"
	EventTokenRefreshed eventbus.Event = "auth:token_refreshed"
	EventStorageChanged eventbus.Event = "auth:storage_changed"
	EventExpired        eventbus.Event = "auth:expired"
)

// AuthAPI is the part of the backend the session talks to directly.
type AuthAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthResult, error)
	Me(ctx context.Context, accessToken string) (*domain.User, error)
}

type Config struct {
	Keys Keys
	// ExpiryBuffer triggers a proactive refresh when the access token
	// expires within this window.
	ExpiryBuffer time.Duration
}

// Store holds the current session and mirrors it into storage.
type Store struct {
	storage *storage.Store
	api     AuthAPI
	bus     *eventbus.Bus
	logger  *zap.Logger
	keys    Keys
	buffer  time.Duration
	now     func() time.Time

	mu    sync.RWMutex
	state domain.Session

	refreshes singleflight.Group
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(store *storage.Store, api AuthAPI, bus *eventbus.Bus, logger *zap.Logger, cfg Config, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = eventbus.New(logger)
	}
	if len(cfg.Keys.Token) == 0 {
		cfg.Keys = DefaultKeys()
	}
	if cfg.ExpiryBuffer <= 0 {
		cfg.ExpiryBuffer = 300 * time.Second
	}
	s := &Store{
		storage: store,
		api:     api,
		bus:     bus,
		logger:  logger,
		keys:    cfg.Keys,
		buffer:  cfg.ExpiryBuffer,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the session from storage. It emits nothing and may be
// called any number of times.
func (s *Store) Restore(ctx context.Context) domain.Session {
	access, _ := s.storage.ReadFirst(ctx, s.keys.Token)
	refresh, _ := s.storage.ReadFirst(ctx, s.keys.Refresh)

	var user *domain.User
	if raw, ok := s.storage.ReadFirst(ctx, s.keys.User); ok {
		var u domain.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			s.logger.Warn("stored user record is malformed", zap.Error(err))
		} else {
			user = &u
		}
	}

	var lastActivity time.Time
	if raw, ok := s.storage.ReadFirst(ctx, []string{s.keys.LastActivity}); ok {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			lastActivity = time.UnixMilli(ms)
		}
	}

	restored := domain.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
		LastActivity: lastActivity,
	}
	s.mu.Lock()
	s.state = restored
	s.mu.Unlock()
	return restored
}

// Login authenticates with the backend. On failure the error is returned
// unchanged and the current state is left alone.
func (s *Store) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	res, err := s.api.Login(ctx, creds)
	if err == nil && res.AccessToken == "" {
		err = domain.NewError(domain.ErrCodeUnknown, "login response carried no access token")
	}
	if err == nil && res.User == nil {
		res.User, err = s.api.Me(ctx, res.AccessToken)
	}
	if err != nil {
		s.logger.Info("login failed", zap.String("login", creds.Login), zap.Error(err))
		s.bus.Emit(EventLoginFailed, err)
		return domain.Session{}, err
	}

	s.SetSession(ctx, res.AccessToken, res.RefreshToken, res.User)
	s.logger.Info("logged in", zap.Int64("user_id", res.User.ID), zap.Bool("admin", res.User.IsAdmin))
	return s.Snapshot(), nil
}

// SetSession replaces the session, writes every alias and emits EventLogin.
// Storage failures are logged; the in-memory session is set regardless.
func (s *Store) SetSession(ctx context.Context, accessToken, refreshToken string, user *domain.User) {
	next := domain.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
		LastActivity: s.now(),
	}
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	if err := s.persist(ctx, next); err != nil {
		s.logger.Warn("session only partially persisted", zap.Error(err))
	}
	s.bus.Emit(EventLogin, next)
}

// Refresh exchanges the refresh token for a new access token. Concurrent
// callers share one backend call. Any failure ends the session.
func (s *Store) Refresh(ctx context.Context) error {
	_, err, _ := s.refreshes.Do("refresh", func() (any, error) {
		return nil, s.refresh(ctx)
	})
	return err
}

func (s *Store) refresh(ctx context.Context) error {
	current := s.Snapshot()
	if current.RefreshToken == "" {
		s.Logout(ctx)
		return domain.ErrNoRefreshToken
	}

	res, err := s.api.Refresh(ctx, current.RefreshToken)
	if err == nil && res.AccessToken == "" {
		err = domain.NewError(domain.ErrCodeUnknown, "refresh response carried no access token")
	}
	if err != nil {
		s.logger.Warn("token refresh failed", zap.Error(err))
		s.Logout(ctx)
		return err
	}

	refreshToken := res.RefreshToken
	if refreshToken == "" {
		refreshToken = current.RefreshToken
	}
	user := current.User
	if res.User != nil {
		user = res.User
	}
	s.SetSession(ctx, res.AccessToken, refreshToken, user)
	s.bus.Emit(EventTokenRefreshed, s.Snapshot())
	return nil
}

// Logout clears the session from memory and from both storage areas.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.state = domain.Session{}
	s.mu.Unlock()

	if err := s.storage.RemoveAll(ctx, s.keys.all()); err != nil {
		s.logger.Warn("failed to clear stored session", zap.Error(err))
	}
	s.bus.Emit(EventLogout, nil)
}

// Expire ends the session involuntarily and emits EventExpired so the UI
// can tell the user to sign in again.
func (s *Store) Expire(ctx context.Context) {
	current := s.Snapshot()
	if current.AccessToken != "" || current.RefreshToken != "" || current.User != nil {
		s.Logout(ctx)
	}
	s.bus.Emit(EventExpired, nil)
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

func (s *Store) IsAuthenticated() bool {
	return s.Snapshot().IsAuthenticated()
}

func (s *Store) IsAdmin() bool {
	return s.Snapshot().IsAdmin()
}

func (s *Store) User() *domain.User {
	return s.Snapshot().User
}

// NeedsRefresh reports whether the access token is a JWT expiring within
// the configured buffer while a refresh token is available.
func (s *Store) NeedsRefresh() bool {
	current := s.Snapshot()
	if current.AccessToken == "" || current.RefreshToken == "" {
		return false
	}
	exp, ok := tokenExpiry(current.AccessToken)
	if !ok {
		return false
	}
	return !s.now().Add(s.buffer).Before(exp)
}

// Validate checks the session against the backend. A rejected token gets
// exactly one refresh attempt; other failures are logged and ignored.
func (s *Store) Validate(ctx context.Context) error {
	current := s.Snapshot()
	if !current.IsAuthenticated() {
		return nil
	}

	if s.NeedsRefresh() {
		if err := s.Refresh(ctx); err != nil {
			s.bus.Emit(EventExpired, nil)
			return err
		}
		return nil
	}

	user, err := s.api.Me(ctx, current.AccessToken)
	switch {
	case err == nil:
		s.SetUser(ctx, user)
		return nil
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		if rerr := s.Refresh(ctx); rerr != nil {
			s.bus.Emit(EventExpired, nil)
			return rerr
		}
		return nil
	default:
		s.logger.Warn("session validation inconclusive", zap.Error(err))
		return nil
	}
}

// SetUser replaces the user record of an active session, for example after
// a profile edit. It is a no-op when nobody is signed in.
func (s *Store) SetUser(ctx context.Context, user *domain.User) {
	if user == nil {
		return
	}
	s.mu.Lock()
	if s.state.AccessToken == "" || reflect.DeepEqual(s.state.User, user) {
		s.mu.Unlock()
		return
	}
	s.state.User = user
	s.mu.Unlock()

	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := s.storage.WriteAll(ctx, s.keys.User, string(raw)); err != nil {
		s.logger.Warn("failed to store refreshed user record", zap.Error(err))
	}
}

func (s *Store) persist(ctx context.Context, state domain.Session) error {
	var err error
	err = multierr.Append(err, s.writeOrClear(ctx, s.keys.Token, state.AccessToken))
	err = multierr.Append(err, s.writeOrClear(ctx, s.keys.Refresh, state.RefreshToken))

	userJSON := ""
	if state.User != nil {
		raw, merr := json.Marshal(state.User)
		if merr != nil {
			err = multierr.Append(err, merr)
		} else {
			userJSON = string(raw)
		}
	}
	err = multierr.Append(err, s.writeOrClear(ctx, s.keys.User, userJSON))

	stamp := strconv.FormatInt(state.LastActivity.UnixMilli(), 10)
	return multierr.Append(err, s.storage.WriteAll(ctx, []string{s.keys.LastActivity}, stamp))
}

func (s *Store) writeOrClear(ctx context.Context, keys []string, value string) error {
	if value == "" {
		return s.storage.RemoveAll(ctx, keys)
	}
	return s.storage.WriteAll(ctx, keys, value)
}

// tokenExpiry reads the exp claim without verifying the signature; the
// backend remains the authority on validity.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), true
	case json.Number:
		v, err := exp.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(v, 0), true
	default:
		return time.Time{}, false
	}
}
