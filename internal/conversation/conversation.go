package conversation

import (
	"context"
	"sync"
)

// DefaultSession is used when a caller does not name a session.
const DefaultSession = "default"

// Turn is one completed question/answer exchange.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Store holds ordered conversation history keyed by session ID. Turns are
// only ever appended; Clear drops a whole session.
type Store interface {
	Append(ctx context.Context, sessionID string, turn Turn) error
	// Snapshot returns a copy of the session's turns in insertion order.
	// An unknown session yields an empty slice.
	Snapshot(ctx context.Context, sessionID string) ([]Turn, error)
	Clear(ctx context.Context, sessionID string) error
	// Sessions reports how many sessions currently hold at least one turn.
	Sessions(ctx context.Context) (int, error)
	Close() error
}

// SessionOrDefault maps an empty session ID to DefaultSession.
func SessionOrDefault(id string) string {
	if id == "" {
		return DefaultSession
	}
	return id
}

// Locker hands out one mutex per key. Holding the lock for a session
// serialises read-modify-write cycles on that session's history while
// other sessions proceed.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocker creates an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*keyLock)}
}

// Lock blocks until the key's lock is held and returns the function that
// releases it.
func (l *Locker) Lock(key string) (unlock func()) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
