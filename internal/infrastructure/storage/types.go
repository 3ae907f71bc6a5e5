package storage

import (
	"context"
	"errors"
)

// ErrWatchUnsupported is returned by Store.Watch when the local backend
// cannot observe writes made by other clients.
var ErrWatchUnsupported = errors.New("storage: backend does not broadcast changes")

// Backend is a raw key/value area. Missing keys are reported with ok=false
// and a nil error.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// Watcher is implemented by backends shared between clients. Watch delivers
// changes written through other handles only; a handle never sees its own
// writes. The channel closes when ctx is done.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Change, error)
}

// Sizer is implemented by backends that can count keys without listing them.
type Sizer interface {
	Size() (int, error)
}

// Change describes a write observed on a shared backend.
type Change struct {
	Key      string `json:"key"`
	OldValue string `json:"old,omitempty"`
	NewValue string `json:"new,omitempty"`
	Removed  bool   `json:"removed,omitempty"`
}
