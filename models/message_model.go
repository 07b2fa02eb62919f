package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTutor
}

// Message is append-only. Seq orders messages within a conversation.
type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ConversationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_message_order,priority:1" json:"conversation_id"`
	Seq            int64      `gorm:"not null;uniqueIndex:idx_message_order,priority:2" json:"seq"`
	SenderID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"sender_id"`
	SenderRole     Role       `gorm:"size:20;not null" json:"sender_role"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	Read           bool       `gorm:"column:is_read;not null;default:false;index" json:"read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`

	RoomID string `gorm:"-" json:"room_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
