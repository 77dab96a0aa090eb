package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeLink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (f *fakeLink) Enqueue(ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeLink) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

func TestRegistry(t *testing.T) {
	t.Run("register and lookup", func(t *testing.T) {
		r := NewRegistry()
		assert.False(t, r.IsConnected("alice"))
		assert.Empty(t, r.ConnectionsFor("alice"))

		l := &fakeLink{}
		id := r.Register("alice", l)
		assert.NotEmpty(t, id)
		assert.True(t, r.IsConnected("alice"))
		assert.Len(t, r.ConnectionsFor("alice"), 1)
	})

	t.Run("multiple connections per user", func(t *testing.T) {
		r := NewRegistry()
		id1 := r.Register("alice", &fakeLink{})
		id2 := r.Register("alice", &fakeLink{})
		assert.NotEqual(t, id1, id2)
		assert.Len(t, r.ConnectionsFor("alice"), 2)

		r.Unregister("alice", id1)
		assert.Len(t, r.ConnectionsFor("alice"), 1)
		assert.True(t, r.IsConnected("alice"))

		r.Unregister("alice", id2)
		assert.False(t, r.IsConnected("alice"))
		assert.Empty(t, r.ConnectionsFor("alice"))
	})

	t.Run("unregister unknown is a no-op", func(t *testing.T) {
		r := NewRegistry()
		r.Unregister("ghost", "nope")

		id := r.Register("alice", &fakeLink{})
		r.Unregister("alice", "wrong-id")
		assert.True(t, r.IsConnected("alice"))
		r.Unregister("alice", id)
		assert.False(t, r.IsConnected("alice"))
	})

	t.Run("users are isolated", func(t *testing.T) {
		r := NewRegistry()
		r.Register("alice", &fakeLink{})
		assert.False(t, r.IsConnected("bob"))
		assert.Empty(t, r.ConnectionsFor("bob"))
	})

	t.Run("concurrent register and unregister", func(t *testing.T) {
		r := NewRegistry()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				id := r.Register("alice", &fakeLink{})
				r.Unregister("alice", id)
			}()
		}
		wg.Wait()
		assert.False(t, r.IsConnected("alice"))
	})
}
