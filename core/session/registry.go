package session

import (
	"sync"
)

// Registry holds the open sessions of this process, one per user.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) get(userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[userID]
	return sess, ok
}

// putIfAbsent stores sess unless a session is already open for the user; the open one wins.
func (r *Registry) putIfAbsent(sess *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if curr, ok := r.sessions[sess.userID]; ok {
		return curr
	}
	r.sessions[sess.userID] = sess
	return sess
}

func (r *Registry) remove(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[userID]
	delete(r.sessions, userID)
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
