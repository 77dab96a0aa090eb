package realtime

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// State is the connection lifecycle state.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// ErrConnClosed is returned by Enqueue once a connection has left the
// Open state; the caller treats it as a per-connection delivery miss.
var ErrConnClosed = errors.New("connection closed")

// wire is the subset of *websocket.Conn the lifecycle needs. Tests
// substitute a fake transport.
type wire interface {
	WriteJSON(v any) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	ReadMessage() (messageType int, p []byte, err error)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Options tunes the heartbeat. PongTimeout bounds how stale the
// session directory can become after a silent network partition.
type Options struct {
	PingInterval time.Duration
	PongTimeout  time.Duration
	WriteTimeout time.Duration
	SendBuffer   int
}

func (o Options) withDefaults() Options {
	if o.PingInterval <= 0 {
		o.PingInterval = 20 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	return o
}

// Conn owns one duplex channel bound to a single user identity.
// Outbound events are buffered and written by a single pump, so events
// leave the connection in enqueue order. Teardown runs exactly once on
// every exit path and invokes onClose, which unregisters the
// connection from the session directory.
type Conn struct {
	userID string
	ws     wire
	opts   Options

	state    atomic.Int32
	send     chan Event
	done     chan struct{}
	teardown sync.Once
	onClose  func(c *Conn)
}

func NewConn(ws wire, userID string, opts Options) *Conn {
	c := &Conn{
		userID: userID,
		ws:     ws,
		opts:   opts.withDefaults(),
	}
	c.send = make(chan Event, c.opts.SendBuffer)
	c.done = make(chan struct{})
	c.state.Store(int32(StateConnecting))
	return c
}

// UserID returns the identity the connection is bound to.
func (c *Conn) UserID() string { return c.userID }

// State returns the current lifecycle state.
func (c *Conn) State() State { return State(c.state.Load()) }

// Enqueue hands an outbound event to the write pump. It never blocks:
// a full buffer means the peer stopped draining, which is treated as a
// write failure.
func (c *Conn) Enqueue(ev Event) error {
	if c.State() != StateOpen {
		return ErrConnClosed
	}
	select {
	case c.send <- ev:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		c.closeWith(StateFailed)
		return ErrConnClosed
	}
}

// Run transitions the connection to Open and services it until the
// peer goes away, the heartbeat times out, or a write fails. onClose
// runs exactly once, after the connection has reached a terminal
// state. Run blocks for the lifetime of the connection.
func (c *Conn) Run(onClose func(c *Conn)) {
	c.onClose = onClose
	c.state.Store(int32(StateOpen))

	go c.writePump()
	c.readPump()
}

// Close initiates a graceful shutdown.
func (c *Conn) Close() {
	c.closeWith(StateClosed)
}

func (c *Conn) closeWith(final State) {
	c.teardown.Do(func() {
		if c.State() == StateOpen && final == StateClosed {
			c.state.Store(int32(StateClosing))
		}
		close(c.done)
		_ = c.ws.Close()
		c.state.Store(int32(final))
		if c.onClose != nil {
			c.onClose(c)
		}
	})
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.ws.WriteJSON(ev); err != nil {
				c.closeWith(StateFailed)
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteTimeout)); err != nil {
				c.closeWith(StateFailed)
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump consumes inbound traffic. The subsystem accepts only the
// identity binding at connect time; inbound data frames are drained
// and discarded, keeping the heartbeat (pong handling) alive.
func (c *Conn) readPump() {
	_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.closeWith(StateClosed)
			} else {
				c.closeWith(StateFailed)
			}
			return
		}
		// Reads also refresh the deadline for clients that send
		// application-level pings instead of ws control frames.
		_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	}
}
