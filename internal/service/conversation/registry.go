package conversation

import (
	"log"
	"sync"

	"github.com/mlclabs/voicedesk/internal/model/conversation"
)

// Registry tracks the sessions with a live connection. It exists for
// lifecycle bookkeeping only; no business logic depends on cross-session
// visibility.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*conversation.Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*conversation.Session)}
}

// Register records a session as active.
func (r *Registry) Register(sess *conversation.Session) {
	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()
	log.Printf("[registry] session connected id=%s active=%d", sess.ID, r.Len())
}

// Unregister drops a session after its connection closes.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	log.Printf("[registry] session disconnected id=%s active=%d", sessionID, r.Len())
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns the currently active sessions.
func (r *Registry) Snapshot() []*conversation.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]*conversation.Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		active = append(active, sess)
	}
	return active
}
