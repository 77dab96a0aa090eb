package realtime

import (
	"context"
	"log"
	"sync"
	"time"

	"whisperlink/internal/domain"
)

// ContactSource supplies the audience for a presence broadcast: the
// users who share a chat with the transitioning user.
type ContactSource interface {
	KnownContacts(ctx context.Context, userID string) ([]string, error)
}

// LastSeenWriter persists the last-seen timestamp when a user goes
// offline, so it survives a restart.
type LastSeenWriter interface {
	SetLastSeen(ctx context.Context, id string, t time.Time) error
}

// Tracker derives online/offline state from session directory
// transitions. Transitions for one user are serialized through a
// per-user lock so concurrent connect/disconnect races never make the
// online flag flicker out of order.
type Tracker struct {
	router   *Router
	contacts ContactSource
	users    LastSeenWriter

	mu     sync.Mutex
	states map[string]*presenceState
}

type presenceState struct {
	mu       sync.Mutex
	conns    int
	lastSeen time.Time
}

func NewTracker(router *Router, contacts ContactSource, users LastSeenWriter) *Tracker {
	return &Tracker{
		router:   router,
		contacts: contacts,
		users:    users,
		states:   make(map[string]*presenceState),
	}
}

func (t *Tracker) stateFor(userID string) *presenceState {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[userID]
	if !ok {
		st = &presenceState{}
		t.states[userID] = st
	}
	return st
}

// HandleConnect records a new connection. The first live connection
// flips the user online and fans the transition out to known contacts.
func (t *Tracker) HandleConnect(ctx context.Context, userID string) {
	st := t.stateFor(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.conns++
	if st.conns == 1 {
		st.lastSeen = time.Now().UTC()
		t.broadcast(ctx, userID, true, st.lastSeen)
	}
}

// HandleDisconnect records a closed connection. Closing the last live
// connection flips the user offline, stamps last-seen, and fans out.
func (t *Tracker) HandleDisconnect(ctx context.Context, userID string) {
	st := t.stateFor(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.conns == 0 {
		return
	}
	st.conns--
	if st.conns > 0 {
		return
	}

	st.lastSeen = time.Now().UTC()
	if err := t.users.SetLastSeen(ctx, userID, st.lastSeen); err != nil {
		log.Printf("presence: persist last seen for %s: %v", userID, err)
	}
	t.broadcast(ctx, userID, false, st.lastSeen)
}

func (t *Tracker) broadcast(ctx context.Context, userID string, isOnline bool, lastSeen time.Time) {
	audience, err := t.contacts.KnownContacts(ctx, userID)
	if err != nil {
		log.Printf("presence: resolve audience for %s: %v", userID, err)
		return
	}
	t.router.RouteStatus(userID, isOnline, lastSeen, audience)
}

// IsOnline reports whether the user currently holds a live connection.
func (t *Tracker) IsOnline(userID string) bool {
	st := t.stateFor(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.conns > 0
}

// Snapshot returns the user's presence record.
func (t *Tracker) Snapshot(userID string) domain.PresenceRecord {
	st := t.stateFor(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return domain.PresenceRecord{
		UserID:   userID,
		IsOnline: st.conns > 0,
		LastSeen: st.lastSeen,
	}
}
