package store

import (
	"sync"
	"time"

	"adcraft/internal/workflow"
)

// SessionStore keeps workflow sessions in memory for the duration of a
// wizard run. Nothing here survives a restart, which is the intended
// lifecycle for this state.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*workflow.Session
	ttl      time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &SessionStore{
		sessions: make(map[string]*workflow.Session),
		ttl:      ttl,
	}
	go s.sweep()
	return s
}

func (s *SessionStore) Put(sess *workflow.Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
}

func (s *SessionStore) Get(id string) (*workflow.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	sess.Touch()
	return sess, nil
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// sweep reclaims sessions idle past the TTL.
func (s *SessionStore) sweep() {
	ticker := time.NewTicker(10 * time.Minute)
	for range ticker.C {
		cutoff := time.Now().Add(-s.ttl)

		s.mu.Lock()
		for id, sess := range s.sessions {
			if sess.IdleSince().Before(cutoff) {
				delete(s.sessions, id)
			}
		}
		s.mu.Unlock()
	}
}
