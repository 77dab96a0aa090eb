package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContacts struct {
	contacts map[string][]string
	err      error
}

func (f *fakeContacts) KnownContacts(ctx context.Context, userID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.contacts[userID], nil
}

type fakeLastSeen struct {
	mu    sync.Mutex
	seen  map[string]time.Time
	calls int
}

func (f *fakeLastSeen) SetLastSeen(ctx context.Context, id string, t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = make(map[string]time.Time)
	}
	f.seen[id] = t
	f.calls++
	return nil
}

func newTestTracker(contacts map[string][]string) (*Tracker, *Registry, *fakeLastSeen) {
	reg := NewRegistry()
	router := NewRouter(newMemStore(), reg)
	seen := &fakeLastSeen{}
	tracker := NewTracker(router, &fakeContacts{contacts: contacts}, seen)
	return tracker, reg, seen
}

func statusEvents(l *fakeLink) []StatusEvent {
	var out []StatusEvent
	for _, ev := range l.received() {
		if se, ok := ev.(StatusEvent); ok {
			out = append(out, se)
		}
	}
	return out
}

func TestTracker(t *testing.T) {
	ctx := context.Background()

	t.Run("first connection broadcasts online to contacts", func(t *testing.T) {
		tracker, reg, _ := newTestTracker(map[string][]string{"alice": {"bob"}})

		bobConn := &fakeLink{}
		reg.Register("bob", bobConn)

		tracker.HandleConnect(ctx, "alice")
		assert.True(t, tracker.IsOnline("alice"))

		evs := statusEvents(bobConn)
		require.Len(t, evs, 1)
		assert.Equal(t, "alice", evs[0].UserID)
		assert.True(t, evs[0].IsOnline)
	})

	t.Run("second connection does not rebroadcast", func(t *testing.T) {
		tracker, reg, _ := newTestTracker(map[string][]string{"alice": {"bob"}})
		bobConn := &fakeLink{}
		reg.Register("bob", bobConn)

		tracker.HandleConnect(ctx, "alice")
		tracker.HandleConnect(ctx, "alice")
		assert.Len(t, statusEvents(bobConn), 1)
	})

	t.Run("only the last disconnect flips offline", func(t *testing.T) {
		tracker, reg, seen := newTestTracker(map[string][]string{"alice": {"bob"}})
		bobConn := &fakeLink{}
		reg.Register("bob", bobConn)

		tracker.HandleConnect(ctx, "alice")
		tracker.HandleConnect(ctx, "alice")

		tracker.HandleDisconnect(ctx, "alice")
		assert.True(t, tracker.IsOnline("alice"))
		assert.Len(t, statusEvents(bobConn), 1)
		assert.Zero(t, seen.calls)

		tracker.HandleDisconnect(ctx, "alice")
		assert.False(t, tracker.IsOnline("alice"))

		evs := statusEvents(bobConn)
		require.Len(t, evs, 2)
		assert.False(t, evs[1].IsOnline)
		assert.False(t, evs[1].LastSeen.IsZero())

		seen.mu.Lock()
		defer seen.mu.Unlock()
		assert.Equal(t, 1, seen.calls)
		assert.Equal(t, evs[1].LastSeen, seen.seen["alice"])
	})

	t.Run("disconnect without connect is a no-op", func(t *testing.T) {
		tracker, reg, seen := newTestTracker(map[string][]string{"alice": {"bob"}})
		bobConn := &fakeLink{}
		reg.Register("bob", bobConn)

		tracker.HandleDisconnect(ctx, "alice")
		assert.Empty(t, statusEvents(bobConn))
		assert.Zero(t, seen.calls)
	})

	t.Run("broadcast reaches only known contacts", func(t *testing.T) {
		tracker, reg, _ := newTestTracker(map[string][]string{"alice": {"bob"}})
		bobConn := &fakeLink{}
		strangerConn := &fakeLink{}
		reg.Register("bob", bobConn)
		reg.Register("stranger", strangerConn)

		tracker.HandleConnect(ctx, "alice")
		assert.Len(t, statusEvents(bobConn), 1)
		assert.Empty(t, statusEvents(strangerConn))
	})

	t.Run("audience lookup failure drops the broadcast", func(t *testing.T) {
		reg := NewRegistry()
		router := NewRouter(newMemStore(), reg)
		tracker := NewTracker(router, &fakeContacts{err: errors.New("db gone")}, &fakeLastSeen{})

		bobConn := &fakeLink{}
		reg.Register("bob", bobConn)

		tracker.HandleConnect(ctx, "alice")
		assert.True(t, tracker.IsOnline("alice"))
		assert.Empty(t, statusEvents(bobConn))
	})

	t.Run("snapshot reflects transitions", func(t *testing.T) {
		tracker, _, _ := newTestTracker(nil)

		rec := tracker.Snapshot("alice")
		assert.False(t, rec.IsOnline)
		assert.True(t, rec.LastSeen.IsZero())

		tracker.HandleConnect(ctx, "alice")
		rec = tracker.Snapshot("alice")
		assert.True(t, rec.IsOnline)

		tracker.HandleDisconnect(ctx, "alice")
		rec = tracker.Snapshot("alice")
		assert.False(t, rec.IsOnline)
		assert.False(t, rec.LastSeen.IsZero())
	})

	t.Run("concurrent churn settles", func(t *testing.T) {
		tracker, _, _ := newTestTracker(nil)

		var wg sync.WaitGroup
		for i := 0; i < 30; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tracker.HandleConnect(ctx, "alice")
				tracker.HandleDisconnect(ctx, "alice")
			}()
		}
		wg.Wait()
		assert.False(t, tracker.IsOnline("alice"))
	})
}
