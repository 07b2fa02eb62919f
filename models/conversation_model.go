package models

import (
	"bytes"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const roomKeySeparator = ":"

var ErrInvalidRoomKey = errors.New("invalid room key")

// RoomKey identifies the conversation between two parties. A is always the
// smaller id, so both parties derive the same key.
type RoomKey struct {
	A uuid.UUID
	B uuid.UUID
}

func NewRoomKey(x, y uuid.UUID) RoomKey {
	if bytes.Compare(x[:], y[:]) > 0 {
		x, y = y, x
	}
	return RoomKey{A: x, B: y}
}

// ParseRoomKey accepts "<uuid>:<uuid>" in either order.
func ParseRoomKey(s string) (RoomKey, error) {
	parts := strings.Split(s, roomKeySeparator)
	if len(parts) != 2 {
		return RoomKey{}, ErrInvalidRoomKey
	}
	x, err := uuid.Parse(parts[0])
	if err != nil {
		return RoomKey{}, ErrInvalidRoomKey
	}
	y, err := uuid.Parse(parts[1])
	if err != nil {
		return RoomKey{}, ErrInvalidRoomKey
	}
	k := NewRoomKey(x, y)
	if !k.Valid() {
		return RoomKey{}, ErrInvalidRoomKey
	}
	return k, nil
}

func (k RoomKey) Valid() bool {
	return k.A != uuid.Nil && k.B != uuid.Nil && k.A != k.B
}

func (k RoomKey) String() string {
	return k.A.String() + roomKeySeparator + k.B.String()
}

func (k RoomKey) Has(id uuid.UUID) bool {
	return id != uuid.Nil && (k.A == id || k.B == id)
}

// Peer returns the other participant, or uuid.Nil if id is not in the room.
func (k RoomKey) Peer(id uuid.UUID) uuid.UUID {
	switch id {
	case k.A:
		return k.B
	case k.B:
		return k.A
	}
	return uuid.Nil
}

type Conversation struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ParticipantA uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair,priority:1" json:"participant_a"`
	ParticipantB uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair,priority:2;index" json:"participant_b"`
	LastSeq      int64     `gorm:"not null;default:0" json:"-"`

	LastMessage     *string    `gorm:"type:text" json:"last_message"`
	LastSenderID    *uuid.UUID `gorm:"type:uuid" json:"last_sender_id"`
	LastMessageAt   *time.Time `gorm:"index" json:"last_message_at"`
	LastMessageRead bool       `gorm:"not null;default:false" json:"last_message_read"`

	RoomID string `gorm:"-" json:"room_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Conversation) AfterFind(tx *gorm.DB) error {
	c.RoomID = c.Key().String()
	return nil
}

func (c Conversation) Key() RoomKey {
	return RoomKey{A: c.ParticipantA, B: c.ParticipantB}
}
