package inmem

import (
	"context"
	"sync"
)

type SessionStore struct {
	mutex    sync.Mutex
	identity string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (ss *SessionStore) Save(_ context.Context, identity string) error {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	ss.identity = identity

	return nil
}

func (ss *SessionStore) Load(_ context.Context) (string, bool, error) {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	return ss.identity, len(ss.identity) > 0, nil
}

func (ss *SessionStore) Clear(_ context.Context) error {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	ss.identity = ""

	return nil
}
