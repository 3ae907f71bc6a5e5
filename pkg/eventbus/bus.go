// Package eventbus is a synchronous in-process publish/subscribe hub.
//
// Handlers run on the emitting goroutine in registration order. A handler
// that panics is recovered and logged; the remaining handlers still run.
package eventbus

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Event names a channel on the bus.
type Event string

// Handler receives the payload passed to Emit.
type Handler func(payload any)

// Token identifies a registration for Off.
type Token uint64

type subscription struct {
	token Token
	fn    Handler
	once  bool
}

// Bus dispatches events to registered handlers.
type Bus struct {
	logger *zap.Logger

	mu       sync.RWMutex
	next     Token
	handlers map[Event][]subscription
}

// New creates an empty bus.
func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		logger:   logger,
		handlers: make(map[Event][]subscription),
	}
}

// Subscribe registers h and returns a token that Off accepts.
func (b *Bus) Subscribe(event Event, h Handler) Token {
	return b.add(event, h, false)
}

// On registers h and returns a function that removes it again.
func (b *Bus) On(event Event, h Handler) func() {
	token := b.add(event, h, false)
	return func() { b.Off(event, token) }
}

// Once registers h for a single delivery.
func (b *Bus) Once(event Event, h Handler) func() {
	token := b.add(event, h, true)
	return func() { b.Off(event, token) }
}

// Off removes the registration identified by token. Unknown tokens are ignored.
func (b *Bus) Off(event Event, token Token) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(event, token)
}

// Emit delivers payload to every handler registered for event at the time of the call.
func (b *Bus) Emit(event Event, payload any) {
	b.mu.Lock()
	subs := append([]subscription(nil), b.handlers[event]...)
	for _, sub := range subs {
		if sub.once {
			b.removeLocked(event, sub.token)
		}
	}
	b.mu.Unlock()

	for _, sub := range subs {
		b.dispatch(event, sub, payload)
	}
}

// Count returns the number of handlers registered for event.
func (b *Bus) Count(event Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}

func (b *Bus) add(event Event, h Handler, once bool) Token {
	if h == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.handlers[event] = append(b.handlers[event], subscription{token: b.next, fn: h, once: once})
	return b.next
}

func (b *Bus) removeLocked(event Event, token Token) {
	subs := b.handlers[event]
	for i, sub := range subs {
		if sub.token == token {
			b.handlers[event] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[event]) == 0 {
		delete(b.handlers, event)
	}
}

func (b *Bus) dispatch(event Event, sub subscription, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event", string(event)),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	sub.fn(payload)
}

// Listen registers a handler that only sees payloads of type T.
// Payloads of any other type are logged and skipped.
func Listen[T any](b *Bus, event Event, fn func(T)) func() {
	return b.On(event, func(payload any) {
		typed, ok := payload.(T)
		if !ok {
			b.logger.Warn("unexpected event payload",
				zap.String("event", string(event)),
				zap.String("type", fmt.Sprintf("%T", payload)))
			return
		}
		fn(typed)
	})
}
