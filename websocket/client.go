package websocket

import (
	"sync"

	"github.com/anjiri1684/tutor_live/models"
	"github.com/google/uuid"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type State int

const (
	StateConnected State = iota
	StateJoined
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Client is one authenticated connection. Frames are written by a single
// writer goroutine draining send; send is never closed, done signals shutdown
// and stopped is closed once the writer has returned.
type Client struct {
	UserID uuid.UUID
	Role   models.Role

	conn      Conn
	send      chan Frame
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	mu    sync.Mutex
	state State
	room  *room
}

func newClient(conn Conn, userID uuid.UUID, role models.Role, buffer int) *Client {
	return &Client{
		UserID:  userID,
		Role:    role,
		conn:    conn,
		send:    make(chan Frame, buffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		state:   StateConnected,
	}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RoomID returns the joined room, or "" outside StateJoined.
func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil {
		return ""
	}
	return c.room.id
}

func (c *Client) currentRoom() *room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// bind moves the client into rm. It fails once the client is closed.
func (c *Client) bind(rm *room) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return false
	}
	c.room = rm
	c.state = StateJoined
	return true
}

// unbind clears the binding and returns the room that was bound, if any.
func (c *Client) unbind() *room {
	c.mu.Lock()
	defer c.mu.Unlock()
	rm := c.room
	c.room = nil
	if c.state == StateJoined {
		c.state = StateConnected
	}
	return rm
}

// markClosed makes the client terminal and returns its last room.
func (c *Client) markClosed() (*room, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return nil, false
	}
	rm := c.room
	c.room = nil
	c.state = StateClosed
	return rm, true
}

// enqueue reports false when the outbound queue is full.
func (c *Client) enqueue(f Frame) bool {
	if c.closing() {
		return true
	}
	select {
	case c.send <- f:
		return true
	default:
		return false
	}
}

// Stopped is closed when the writer goroutine has exited. After that the
// hub never touches the connection again.
func (c *Client) Stopped() <-chan struct{} {
	return c.stopped
}

func (c *Client) closing() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
