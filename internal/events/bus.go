package events

import (
	"sync"
	"time"
)

// Bus delivers values of type T to every registered subscriber.
// The zero value is ready to use.
type Bus[T any] struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a function that unregisters it.
// Calling the returned function more than once is a no-op.
func (b *Bus[T]) Subscribe(fn func(T)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus[T]) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish calls every subscriber with v. Subscribers added or removed by a
// callback take effect from the next Publish.
func (b *Bus[T]) Publish(v T) {
	b.mu.RLock()
	subs := make([]subscription[T], len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of active subscribers.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// LogoutReason explains why a session ended.
type LogoutReason string

const (
	// LogoutUnauthorized is published when the backend answered 401.
	LogoutUnauthorized LogoutReason = "unauthorized"
	// LogoutUser is published on an explicit logout.
	LogoutUser LogoutReason = "user"
	// LogoutExternal is published when another process removed the token.
	LogoutExternal LogoutReason = "external"
)

// LogoutEvent is broadcast whenever the stored credentials are purged.
type LogoutEvent struct {
	Reason LogoutReason
	At     time.Time
}
