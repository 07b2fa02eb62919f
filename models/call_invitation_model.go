package models

import (
	"time"

	"github.com/google/uuid"
)

// CallInvitation directs a student to a live call room. The composite primary
// key keeps at most one invitation per (student, tutor, course).
type CallInvitation struct {
	StudentID uuid.UUID  `gorm:"type:uuid;primaryKey;autoIncrement:false" json:"student_id"`
	TutorID   uuid.UUID  `gorm:"type:uuid;primaryKey;autoIncrement:false" json:"tutor_id"`
	CourseID  uuid.UUID  `gorm:"type:uuid;primaryKey;autoIncrement:false" json:"course_id"`
	RoomID    string     `gorm:"size:160;not null;uniqueIndex" json:"room_id"`
	SlotID    *uuid.UUID `gorm:"type:uuid" json:"slot_id,omitempty"`
	Ended     bool       `gorm:"not null;default:false" json:"ended"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
}

func (i CallInvitation) Live(now time.Time) bool {
	return !i.Ended && i.ExpiresAt.After(now)
}
