package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"testagent/internal/events"
	"testagent/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// ErrNotWatchable is returned by Watch when the store is not file backed.
var ErrNotWatchable = errors.New("session storage does not support watching")

// Watch follows changes made to the session directory by other processes
// until ctx is done. When the stored token disappears while this store still
// holds one, the in-memory credentials are dropped and a LogoutEvent with
// reason LogoutExternal is published. Other changes (a login or a project
// switch elsewhere) are picked up silently.
//
// The ready channel, when non-nil, is closed once the watch is established.
func (s *Store) Watch(ctx context.Context, ready chan<- struct{}) error {
	fs, ok := s.storage.(*FileStorage)
	if !ok {
		return ErrNotWatchable
	}

	if err := os.MkdirAll(fs.Dir(), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create session watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(fs.Dir()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", fs.Dir(), err)
	}
	if ready != nil {
		close(ready)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			switch filepath.Base(ev.Name) {
			case KeyToken, KeyTokenExpiry, KeyUser, KeyProject:
				s.handleExternalChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn(subsystem, "Session watcher error: %v", err)
		}
	}
}

func (s *Store) handleExternalChange() {
	wasAuthenticated := s.Authenticated()
	s.Reload()

	if wasAuthenticated && !s.Authenticated() {
		// The user file may still be on disk if the other process only
		// removed the token; drop it from memory to keep the invariant.
		s.mu.Lock()
		s.user = nil
		s.mu.Unlock()

		logging.Info(subsystem, "SESSION_AUDIT: credentials removed by another process")
		s.logout.Publish(events.LogoutEvent{Reason: events.LogoutExternal, At: time.Now()})
	}
}
