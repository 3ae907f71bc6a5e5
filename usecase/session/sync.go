package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/storefront/internal/infrastructure/storage"
)

// Sync follows session writes made by other clients sharing the local
// storage area and blocks until ctx is done.
func (s *Store) Sync(ctx context.Context) error {
	done, err := s.StartSync(ctx)
	if err != nil {
		return err
	}
	<-done
	return nil
}

// StartSync subscribes to storage changes before returning, so no write
// made after it returns is missed. The returned channel closes when the
// subscription ends.
func (s *Store) StartSync(ctx context.Context) (<-chan struct{}, error) {
	changes, err := s.storage.Watch(ctx)
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.follow(ctx, changes)
	}()
	return done, nil
}

func (s *Store) follow(ctx context.Context, changes <-chan storage.Change) {
	for change := range changes {
		if !s.keys.authKey(change.Key) {
			continue
		}
		// A login elsewhere writes every alias; fold the burst into one reload.
		change = s.coalesce(changes, change)

		before := s.Snapshot()
		after := s.Restore(ctx)
		s.logger.Debug("session changed in another client",
			zap.String("key", change.Key),
			zap.Bool("authenticated", after.IsAuthenticated()),
			zap.Bool("was_authenticated", before.IsAuthenticated()),
		)
		s.bus.Emit(EventStorageChanged, change)
	}
}

func (s *Store) coalesce(changes <-chan storage.Change, last storage.Change) storage.Change {
	for {
		select {
		case next, ok := <-changes:
			if !ok {
				return last
			}
			if s.keys.authKey(next.Key) {
				last = next
			}
		default:
			return last
		}
	}
}
