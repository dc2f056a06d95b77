package server

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chazu/semigrafx/vm"
)

// Session is a running program exposed over RPC. Its host and dispatcher
// are only touched on the worker goroutine.
type Session struct {
	ID      string
	Name    string
	Program string

	host       *vm.Host
	dispatcher *vm.Dispatcher
	opts       []vm.SessionOption // reapplied when the program is recompiled
	created    time.Time
	lastUsed   time.Time
}

// SessionStore manages display sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	nextID   atomic.Uint64
	worker   *Worker
}

// NewSessionStore creates a new session store.
func NewSessionStore(worker *Worker) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		worker:   worker,
	}
}

// Create registers a started host under a new session id.
func (s *SessionStore) Create(name, program string, host *vm.Host) *Session {
	id := fmt.Sprintf("s-%d", s.nextID.Add(1))
	now := time.Now()

	session := &Session{
		ID:         id,
		Name:       name,
		Program:    program,
		host:       host,
		dispatcher: vm.NewDispatcher(host),
		created:    now,
		lastUsed:   now,
	}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	log.Infof("created session %s (%s)", id, program)
	return session
}

// Get retrieves a session by ID and marks it used.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if ok {
		session.lastUsed = time.Now()
	}
	return session, ok
}

// IDs lists live session ids in sorted order.
func (s *SessionStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Destroy removes a session and tears its host down.
func (s *SessionStore) Destroy(id string) bool {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		s.teardown(session)
		log.Infof("destroyed session %s", id)
	}
	return ok
}

func (s *SessionStore) teardown(session *Session) {
	s.worker.Do(func() (any, error) {
		session.host.Teardown()
		return nil, nil
	})
}

// Sweep destroys sessions not used within ttl.
// Returns the number of sessions removed.
func (s *SessionStore) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	s.mu.Lock()
	var expired []*Session
	for id, session := range s.sessions {
		if session.lastUsed.Before(cutoff) {
			expired = append(expired, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		s.teardown(session)
	}
	if len(expired) > 0 {
		log.Noticef("swept %d idle sessions", len(expired))
	}
	return len(expired)
}

// StartSweeper periodically removes sessions idle longer than ttl.
// Returns a stop function.
func (s *SessionStore) StartSweeper(interval, ttl time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				s.Sweep(ttl)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
