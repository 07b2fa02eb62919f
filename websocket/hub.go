package websocket

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/anjiri1684/tutor_live/models"
	"github.com/anjiri1684/tutor_live/services"
	"github.com/google/uuid"
)

const DefaultSendBuffer = 64

var (
	ErrClosed       = errors.New("connection is closed")
	ErrUnknownEvent = errors.New("unknown event type")
)

type MessageStore interface {
	Append(ctx context.Context, key models.RoomKey, senderID uuid.UUID, role models.Role, body string) (*models.Message, error)
	History(ctx context.Context, key models.RoomKey) ([]models.Message, error)
}

type InvitationSource interface {
	PendingFor(ctx context.Context, studentID uuid.UUID) ([]models.CallInvitation, error)
}

type Options struct {
	Shards     int
	SendBuffer int
}

// Hub relays appended messages between the connections joined to a room.
// It also pushes call invitations to online users.
type Hub struct {
	store       MessageStore
	invitations InvitationSource
	registry    *Registry
	sendBuffer  int

	usersMu sync.RWMutex
	users   map[uuid.UUID]map[*Client]struct{}
}

func NewHub(store MessageStore, invitations InvitationSource, opts Options) *Hub {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	return &Hub{
		store:       store,
		invitations: invitations,
		registry:    NewRegistry(opts.Shards),
		sendBuffer:  opts.SendBuffer,
		users:       make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Connect registers an authenticated connection and starts its writer. Live
// invitations for a student are delivered straight away.
func (h *Hub) Connect(ctx context.Context, conn Conn, userID uuid.UUID, role models.Role) *Client {
	c := newClient(conn, userID, role, h.sendBuffer)
	go h.writePump(c)

	h.usersMu.Lock()
	set, ok := h.users[userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.users[userID] = set
	}
	set[c] = struct{}{}
	h.usersMu.Unlock()

	log.Printf("WebSocket client connected: %s (%s)", userID, role)

	if role == models.RoleStudent && h.invitations != nil {
		pending, err := h.invitations.PendingFor(ctx, userID)
		if err != nil {
			log.Printf("Could not load pending invitations for %s: %v", userID, err)
		}
		for i := range pending {
			inv := pending[i]
			h.push(c, Frame{Type: EventCallInvitation, Invitation: &inv})
		}
	}
	return c
}

// writePump is the only writer of c.conn. A frame picked from send is
// dropped once done is closed, so nothing is written after Disconnect.
func (h *Hub) writePump(c *Client) {
	defer close(c.stopped)
	for {
		select {
		case <-c.done:
			return
		case f := <-c.send:
			if c.closing() {
				return
			}
			if err := c.conn.WriteJSON(f); err != nil {
				log.Printf("Error writing to client %s: %v", c.UserID, err)
				h.Disconnect(c)
				return
			}
		}
	}
}

// push enqueues f and drops the client if its queue is full.
func (h *Hub) push(c *Client, f Frame) {
	if !c.enqueue(f) {
		log.Printf("Outbound queue full for client %s, disconnecting", c.UserID)
		h.Disconnect(c)
	}
}

// Handle dispatches one inbound event. Failures are reported to the client
// as an error frame and returned.
func (h *Hub) Handle(ctx context.Context, c *Client, ev Event) error {
	if c.State() == StateClosed {
		return ErrClosed
	}

	var err error
	switch ev.Type {
	case EventJoinRoom:
		err = h.Join(ctx, c, ev.RoomID)
	case EventSendMessage:
		_, err = h.Send(ctx, c, ev.RoomID, ev.Content)
	case EventLeaveRoom:
		h.Leave(c)
		return nil
	case EventPing:
		h.push(c, Frame{Type: EventPong})
		return nil
	default:
		err = ErrUnknownEvent
	}

	if err != nil && !errors.Is(err, ErrClosed) {
		h.push(c, errorFrame(err))
	}
	return err
}

// Join binds c to roomID and replies with the room history. A previous
// binding is released first. Messages appended after the history snapshot
// are relayed.
func (h *Hub) Join(ctx context.Context, c *Client, roomID string) error {
	key, err := models.ParseRoomKey(roomID)
	if err != nil {
		return services.ErrInvalidRoom
	}
	if !key.Has(c.UserID) {
		return services.ErrNotParticipant
	}
	if c.State() == StateClosed {
		return ErrClosed
	}

	if old := c.unbind(); old != nil {
		h.registry.detach(old, c)
	}

	rm := h.registry.attach(key, c)
	rm.seq.Lock()
	defer rm.seq.Unlock()

	if !c.bind(rm) {
		h.registry.detach(rm, c)
		return ErrClosed
	}

	history, err := h.store.History(ctx, key)
	if err != nil {
		c.unbind()
		h.registry.detach(rm, c)
		return err
	}

	log.Printf("Client %s joined room %s", c.UserID, rm.id)
	h.push(c, Frame{Type: EventJoined, RoomID: rm.id, History: history})
	return nil
}

// Send appends body to the joined room and relays it to every other
// connection in the room. roomID may be empty; otherwise it must name the
// joined room.
func (h *Hub) Send(ctx context.Context, c *Client, roomID, body string) (*models.Message, error) {
	rm := c.currentRoom()
	if rm == nil {
		if c.State() == StateClosed {
			return nil, ErrClosed
		}
		return nil, services.ErrNotJoined
	}
	if roomID != "" {
		key, err := models.ParseRoomKey(roomID)
		if err != nil || key != rm.key {
			return nil, services.ErrNotJoined
		}
	}

	rm.seq.Lock()
	if c.currentRoom() != rm {
		rm.seq.Unlock()
		return nil, services.ErrNotJoined
	}
	msg, err := h.store.Append(ctx, rm.key, c.UserID, c.Role, body)
	if err != nil {
		rm.seq.Unlock()
		return nil, err
	}

	var dropped []*Client
	relay := Frame{Type: EventReceiveMessage, RoomID: rm.id, Message: msg}
	for _, m := range rm.snapshot() {
		if m == c || m.currentRoom() != rm {
			continue
		}
		if !m.enqueue(relay) {
			dropped = append(dropped, m)
		}
	}
	if !c.enqueue(Frame{Type: EventMessageSent, RoomID: rm.id, Message: msg}) {
		dropped = append(dropped, c)
	}
	rm.seq.Unlock()

	for _, d := range dropped {
		log.Printf("Outbound queue full for client %s, disconnecting", d.UserID)
		h.Disconnect(d)
	}
	return msg, nil
}

// Leave ends the session the same way a disconnect does.
func (h *Hub) Leave(c *Client) {
	log.Printf("Client %s left room %s", c.UserID, c.RoomID())
	h.Disconnect(c)
}

// Disconnect releases the client's room binding and closes the connection.
// It is idempotent and broadcasts nothing.
func (h *Hub) Disconnect(c *Client) {
	rm, first := c.markClosed()
	if rm != nil {
		h.registry.detach(rm, c)
	}
	if first {
		h.usersMu.Lock()
		if set, ok := h.users[c.UserID]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.users, c.UserID)
			}
		}
		h.usersMu.Unlock()
		log.Printf("WebSocket client disconnected: %s", c.UserID)
	}
	c.shutdown()
}

func (h *Hub) clientsOf(ids ...uuid.UUID) []*Client {
	h.usersMu.RLock()
	defer h.usersMu.RUnlock()
	var out []*Client
	for _, id := range ids {
		for c := range h.users[id] {
			out = append(out, c)
		}
	}
	return out
}

// InvitationCreated pushes a new invitation to the student's connections.
func (h *Hub) InvitationCreated(inv models.CallInvitation) {
	for _, c := range h.clientsOf(inv.StudentID) {
		h.push(c, Frame{Type: EventCallInvitation, Invitation: &inv})
	}
}

// InvitationEnded tells both parties the call room is gone.
func (h *Hub) InvitationEnded(inv models.CallInvitation) {
	for _, c := range h.clientsOf(inv.StudentID, inv.TutorID) {
		h.push(c, Frame{Type: EventCallEnded, RoomID: inv.RoomID})
	}
}

// Stats is a point-in-time view of the hub for health reporting.
type Stats struct {
	Connections int `json:"connections"`
	Users       int `json:"users"`
	Rooms       int `json:"rooms"`
}

func (h *Hub) Stats() Stats {
	h.usersMu.RLock()
	st := Stats{Users: len(h.users)}
	for _, set := range h.users {
		st.Connections += len(set)
	}
	h.usersMu.RUnlock()
	st.Rooms = h.registry.Rooms()
	return st
}

func (h *Hub) online(userID uuid.UUID) bool {
	h.usersMu.RLock()
	defer h.usersMu.RUnlock()
	return len(h.users[userID]) > 0
}

func (h *Hub) roomSize(roomID string) int {
	key, err := models.ParseRoomKey(roomID)
	if err != nil {
		return 0
	}
	return h.registry.size(key)
}

// Shutdown disconnects every client.
func (h *Hub) Shutdown() {
	h.usersMu.RLock()
	var all []*Client
	for _, set := range h.users {
		for c := range set {
			all = append(all, c)
		}
	}
	h.usersMu.RUnlock()

	for _, c := range all {
		h.Disconnect(c)
	}
	log.Printf("WebSocket hub stopped, %d connections closed", len(all))
}

var _ services.Notifier = (*Hub)(nil)
