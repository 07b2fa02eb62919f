package websocket

import "github.com/anjiri1684/tutor_live/models"

// Inbound event types.
const (
	EventAuth        = "auth"
	EventJoinRoom    = "join_room"
	EventSendMessage = "send_message"
	EventLeaveRoom   = "leave_room"
	EventPing        = "ping"
)

// Outbound event types.
const (
	EventJoined         = "joined"
	EventReceiveMessage = "receive_message"
	EventMessageSent    = "message_sent"
	EventCallInvitation = "call_invitation"
	EventCallEnded      = "call_ended"
	EventError          = "error"
	EventPong           = "pong"
)

// Event is a frame read from a client.
type Event struct {
	Type    string `json:"type"`
	Token   string `json:"token,omitempty"`
	RoomID  string `json:"room_id,omitempty"`
	Content string `json:"content,omitempty"`
}

// Frame is a frame written to a client.
type Frame struct {
	Type       string                 `json:"type"`
	RoomID     string                 `json:"room_id,omitempty"`
	History    []models.Message       `json:"history,omitempty"`
	Message    *models.Message        `json:"message,omitempty"`
	Invitation *models.CallInvitation `json:"invitation,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

func errorFrame(err error) Frame {
	return Frame{Type: EventError, Error: err.Error()}
}
