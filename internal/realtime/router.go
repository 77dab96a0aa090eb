package realtime

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"whisperlink/internal/domain"
)

// Router turns persisted mutations into pushes to the right live
// connections. Persistence always happens before any push: the store
// assigns the sequence number that orders delivery, and a persistence
// failure means nothing is pushed at all.
//
// Push is best-effort. A recipient with no live connections picks the
// message up from history on reconnect; a failing connection never
// aborts delivery to the recipient's other connections.
type Router struct {
	store    domain.MessageStore
	registry *Registry

	// pairLocks serializes append+enqueue per conversation pair so the
	// store-assigned order equals the enqueue order for that pair.
	mu        sync.Mutex
	pairLocks map[string]*sync.Mutex
}

func NewRouter(store domain.MessageStore, registry *Registry) *Router {
	return &Router{
		store:     store,
		registry:  registry,
		pairLocks: make(map[string]*sync.Mutex),
	}
}

func pairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "|" + b
}

func (r *Router) pairLock(a, b string) *sync.Mutex {
	key := pairKey(a, b)

	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.pairLocks[key]
	if !ok {
		l = &sync.Mutex{}
		r.pairLocks[key] = l
	}
	return l
}

// RouteNewMessage persists m and pushes it to every live connection of
// the receiver. The sender is never re-notified: it already holds the
// message from its own request's response.
//
// Delivered is flipped when the receiver has at least one live
// connection at routing time; there is no delivery_ack push, the
// sender observes the state on its next fetch.
func (r *Router) RouteNewMessage(ctx context.Context, m *domain.Message, sender *SenderInfo) error {
	l := r.pairLock(m.SenderID, m.ReceiverID)
	l.Lock()
	defer l.Unlock()

	if err := r.store.Append(ctx, m); err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	conns := r.registry.ConnectionsFor(m.ReceiverID)
	if len(conns) == 0 {
		return nil
	}

	if err := r.store.MarkDelivered(ctx, m.ID); err != nil {
		log.Printf("router: mark delivered %s: %v", m.ID, err)
	} else {
		m.Delivered = true
	}

	ev := NewMessageEvent(m, sender)
	for _, c := range conns {
		if err := c.Enqueue(ev); err != nil {
			log.Printf("router: push message %s to %s: %v", m.ID, m.ReceiverID, err)
		}
	}
	return nil
}

// RouteReaction persists the reaction and notifies the other party of
// the message's conversation; the actor is not echoed back to.
func (r *Router) RouteReaction(ctx context.Context, messageID, actorID, emoji string) (*domain.Message, error) {
	m, err := r.store.SetReaction(ctx, messageID, actorID, emoji)
	if err != nil {
		return nil, err
	}

	ev := NewReactionEvent(messageID, actorID, emoji)
	r.pushToUser(m.Counterparty(actorID), ev)
	return m, nil
}

// RouteReadReceipt marks every unread message sender->reader as read
// and notifies the sender. Marking an already-read stream is a no-op:
// no rows change, no push goes out.
func (r *Router) RouteReadReceipt(ctx context.Context, readerID, senderID string) (int64, error) {
	n, err := r.store.MarkAllRead(ctx, senderID, readerID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	if n == 0 {
		return 0, nil
	}

	r.pushToUser(senderID, NewReadReceiptEvent(readerID))
	return n, nil
}

// RouteStatus fans a presence transition out to the audience. Pure
// push, no persistence.
func (r *Router) RouteStatus(userID string, isOnline bool, lastSeen time.Time, audience []string) {
	ev := NewStatusEvent(userID, isOnline, lastSeen)
	for _, id := range audience {
		if id == userID {
			continue
		}
		r.pushToUser(id, ev)
	}
}

func (r *Router) pushToUser(userID string, ev Event) {
	for _, c := range r.registry.ConnectionsFor(userID) {
		if err := c.Enqueue(ev); err != nil {
			log.Printf("router: push to %s: %v", userID, err)
		}
	}
}
