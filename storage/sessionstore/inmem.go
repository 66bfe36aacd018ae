// Package sessionstore holds active study sessions between requests.
// Two implementations: an in-memory map with TTL sweeping (default) and a
// redis-backed store for multi-instance deployments.
package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/darasa/core/study"
)

type entry struct {
	sess      study.Session
	expiresAt time.Time
}

type inmemStore struct {
	mu       sync.RWMutex
	sessions map[string]entry
	ttl      time.Duration
	done     chan struct{}
	once     sync.Once
}

var _ study.SessionStore = (*inmemStore)(nil)

func NewInMemStore(ttl time.Duration) *inmemStore {
	store := &inmemStore{
		sessions: make(map[string]entry),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go store.sweep()
	return store
}

func (s *inmemStore) Save(_ context.Context, sess study.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = entry{sess: sess, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

func (s *inmemStore) Get(_ context.Context, id string) (study.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ent, ok := s.sessions[id]
	if !ok || time.Now().After(ent.expiresAt) {
		return study.Session{}, study.ErrSessionNotFound
	}
	return ent.sess, nil
}

func (s *inmemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *inmemStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *inmemStore) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, ent := range s.sessions {
				if now.After(ent.expiresAt) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
