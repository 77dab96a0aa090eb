package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Link is the outbound side of a live connection as seen by the
// registry and the router. *Conn implements it.
type Link interface {
	Enqueue(ev Event) error
}

// Registry is the session directory: it maps a user id to the set of
// that user's live connections. A user may hold several connections at
// once (multi-device); all of them receive fan-out.
//
// The map is the only shared state and is guarded by mu. Lookups
// return snapshots so the lock is never held across network I/O.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[string]Link
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]map[string]Link),
	}
}

// Register adds a connection for the given user and returns its
// connection id.
func (r *Registry) Register(userID string, l Link) string {
	connID := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conns[userID] == nil {
		r.conns[userID] = make(map[string]Link)
	}
	r.conns[userID][connID] = l
	return connID
}

// Unregister removes a connection. Once it returns, no subsequent
// lookup will select the connection.
func (r *Registry) Unregister(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conns, ok := r.conns[userID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.conns, userID)
		}
	}
}

// ConnectionsFor returns a snapshot of the user's live connections,
// empty if the user is offline.
func (r *Registry) ConnectionsFor(userID string) []Link {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.conns[userID]
	if len(conns) == 0 {
		return nil
	}
	res := make([]Link, 0, len(conns))
	for _, l := range conns {
		res = append(res, l)
	}
	return res
}

// IsConnected reports whether the user has at least one live connection.
func (r *Registry) IsConnected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID]) > 0
}
