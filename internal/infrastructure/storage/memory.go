package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

const memoryWatchBuffer = 64

// MemorySpace is an in-process storage origin. Every handle opened on the
// same space sees the same data, which is how tests model several tabs.
type MemorySpace struct {
	mu       sync.Mutex
	data     map[string][]byte
	watchers map[*memoryWatcher]struct{}
}

type memoryWatcher struct {
	origin string
	ch     chan Change
}

func NewMemorySpace() *MemorySpace {
	return &MemorySpace{
		data:     make(map[string][]byte),
		watchers: make(map[*memoryWatcher]struct{}),
	}
}

// Open returns a new handle on the space.
func (sp *MemorySpace) Open() *Memory {
	return &Memory{space: sp, origin: uuid.NewString()}
}

// Memory is a handle on a MemorySpace.
type Memory struct {
	space  *MemorySpace
	origin string
}

// NewMemory returns a handle on a private space.
func NewMemory() *Memory {
	return NewMemorySpace().Open()
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	sp := m.space
	sp.mu.Lock()
	defer sp.mu.Unlock()
	v, ok := sp.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	sp := m.space
	sp.mu.Lock()
	defer sp.mu.Unlock()
	old := sp.data[key]
	sp.data[key] = append([]byte(nil), value...)
	sp.notifyLocked(m.origin, Change{Key: key, OldValue: string(old), NewValue: string(value)})
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	sp := m.space
	sp.mu.Lock()
	defer sp.mu.Unlock()
	old, ok := sp.data[key]
	if !ok {
		return nil
	}
	delete(sp.data, key)
	sp.notifyLocked(m.origin, Change{Key: key, OldValue: string(old), Removed: true})
	return nil
}

func (m *Memory) Keys(_ context.Context) ([]string, error) {
	sp := m.space
	sp.mu.Lock()
	defer sp.mu.Unlock()
	keys := make([]string, 0, len(sp.data))
	for k := range sp.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Size returns the number of stored keys.
func (m *Memory) Size() (int, error) {
	sp := m.space
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return len(sp.data), nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

// Watch delivers writes made through other handles of the same space.
// Slow consumers lose changes once the buffer is full.
func (m *Memory) Watch(ctx context.Context) (<-chan Change, error) {
	w := &memoryWatcher{origin: m.origin, ch: make(chan Change, memoryWatchBuffer)}
	sp := m.space

	sp.mu.Lock()
	sp.watchers[w] = struct{}{}
	sp.mu.Unlock()

	go func() {
		<-ctx.Done()
		sp.mu.Lock()
		delete(sp.watchers, w)
		close(w.ch)
		sp.mu.Unlock()
	}()
	return w.ch, nil
}

func (sp *MemorySpace) notifyLocked(origin string, c Change) {
	for w := range sp.watchers {
		if w.origin == origin {
			continue
		}
		select {
		case w.ch <- c:
		default:
		}
	}
}
