package forex

import (
	"context"
	"sync"
	"time"
)

// SessionStore persists the identity of the logged-in user between process
// runs.
type SessionStore interface {
	Save(ctx context.Context, identity string) error

	// Load reports false when no identity is stored.
	Load(ctx context.Context) (string, bool, error)

	Clear(ctx context.Context) error
}

// Session carries the authenticated identity into ledger calls. It is safe
// for concurrent use and stops identifying anyone once invalidated.
type Session struct {
	ID        ID
	StartedAt time.Time

	mutex    sync.RWMutex
	username string
	active   bool
}

func newSession(id ID, username string) *Session {
	return &Session{
		ID:        id,
		StartedAt: time.Now(),
		username:  username,
		active:    true,
	}
}

func (s *Session) Identity() (string, bool) {
	if s == nil {
		return "", false
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.username, s.active
}

func (s *Session) invalidate() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.active = false
}
