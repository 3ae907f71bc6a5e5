// Package storage persists client state in a "local" area shared by every
// client of the same origin and a per-client "session" area.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultTTL applies when Set is called without a positive ttl.
const DefaultTTL = 24 * time.Hour

type envelope struct {
	Value  json.RawMessage `json:"value"`
	Expiry int64           `json:"expiry"`
}

// Store wraps the storage areas. Set, Get and Remove never surface errors:
// backend failures are logged and read as "absent".
type Store struct {
	local   Backend
	session Backend
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSessionArea replaces the private in-memory session area.
func WithSessionArea(b Backend) Option {
	return func(s *Store) { s.session = b }
}

func New(local Backend, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		local:  local,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.session == nil {
		s.session = NewMemory()
	}
	return s
}

// Set stores value under key until ttl elapses.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("storage value not serializable", zap.String("key", key), zap.Error(err))
		return
	}
	payload, err := json.Marshal(envelope{Value: raw, Expiry: s.now().Add(ttl).UnixMilli()})
	if err != nil {
		s.logger.Warn("storage envelope not serializable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.local.Set(ctx, key, payload); err != nil {
		s.logger.Warn("storage write failed", zap.String("key", key), zap.Error(err))
	}
}

// Get decodes the value stored under key into out. Missing, malformed and
// expired entries report false; the latter two are deleted on the way.
func (s *Store) Get(ctx context.Context, key string, out any) bool {
	raw, ok, err := s.local.Get(ctx, key)
	if err != nil {
		s.logger.Warn("storage read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}

	env, ok := decodeEnvelope(raw)
	if !ok {
		s.drop(ctx, key, "malformed")
		return false
	}
	if s.expired(env) {
		s.drop(ctx, key, "expired")
		return false
	}
	if err := json.Unmarshal(env.Value, out); err != nil {
		s.drop(ctx, key, "undecodable")
		return false
	}
	return true
}

// Remove deletes key from the local area. Removing a missing key is a no-op.
func (s *Store) Remove(ctx context.Context, key string) {
	if err := s.local.Delete(ctx, key); err != nil {
		s.logger.Warn("storage delete failed", zap.String("key", key), zap.Error(err))
	}
}

// ReadFirst returns the first usable raw value among keys, checking the
// local area before the session area for each key. Empty strings and the
// literals "undefined" and "null" are skipped.
func (s *Store) ReadFirst(ctx context.Context, keys []string) (string, bool) {
	for _, key := range keys {
		for _, area := range []Backend{s.local, s.session} {
			raw, ok, err := area.Get(ctx, key)
			if err != nil {
				s.logger.Debug("alias read failed", zap.String("key", key), zap.Error(err))
				continue
			}
			if ok && usable(string(raw)) {
				return string(raw), true
			}
		}
	}
	return "", false
}

// WriteAll stores value under every key in the local area. A failing key
// does not stop the others; the combined failure is returned.
func (s *Store) WriteAll(ctx context.Context, keys []string, value string) error {
	var err error
	for _, key := range keys {
		if werr := s.local.Set(ctx, key, []byte(value)); werr != nil {
			err = multierr.Append(err, fmt.Errorf("write %s: %w", key, werr))
		}
	}
	return err
}

// RemoveAll clears every key from both areas.
func (s *Store) RemoveAll(ctx context.Context, keys []string) error {
	var err error
	for _, key := range keys {
		err = multierr.Append(err, s.local.Delete(ctx, key))
		err = multierr.Append(err, s.session.Delete(ctx, key))
	}
	return err
}

// PurgeExpired deletes expired envelopes from the local area and returns
// how many were removed. Raw alias values are left alone.
func (s *Store) PurgeExpired(ctx context.Context) (int, error) {
	keys, err := s.local.Keys(ctx)
	if err != nil {
		return 0, err
	}
	var removed int
	for _, key := range keys {
		raw, ok, err := s.local.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		env, ok := decodeEnvelope(raw)
		if !ok || !s.expired(env) {
			continue
		}
		if err := s.local.Delete(ctx, key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Watch streams changes other clients make to the local area.
func (s *Store) Watch(ctx context.Context) (<-chan Change, error) {
	w, ok := s.local.(Watcher)
	if !ok {
		return nil, ErrWatchUnsupported
	}
	return w.Watch(ctx)
}

// Ping checks that the local area is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.local.Ping(ctx)
}

// Local exposes the local backend for health reporting.
// Count returns the number of raw keys in the local area.
func (s *Store) Count(ctx context.Context) (int, error) {
	if sz, ok := s.local.(Sizer); ok {
		return sz.Size()
	}
	keys, err := s.local.Keys(ctx)
	return len(keys), err
}

func (s *Store) Local() Backend {
	return s.local
}

func (s *Store) Close() error {
	return multierr.Combine(s.local.Close(), s.session.Close())
}

func (s *Store) expired(env envelope) bool {
	return s.now().UnixMilli() > env.Expiry
}

func (s *Store) drop(ctx context.Context, key, reason string) {
	s.logger.Debug("discarding stored entry", zap.String("key", key), zap.String("reason", reason))
	s.Remove(ctx, key)
}

func decodeEnvelope(raw []byte) (envelope, bool) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Value) == 0 {
		return envelope{}, false
	}
	return env, true
}

func usable(v string) bool {
	return v != "" && v != "undefined" && v != "null"
}
