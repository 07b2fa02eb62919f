package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SlotStatus string

const (
	SlotOpen   SlotStatus = "open"
	SlotBooked SlotStatus = "booked"
)

// AvailabilitySlot is a tutor-published window a single student can reserve.
type AvailabilitySlot struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	TutorID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_slot_tutor_course,priority:1" json:"tutor_id"`
	CourseID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_slot_tutor_course,priority:2;index:idx_slot_course_start,priority:1" json:"course_id"`
	StartTime time.Time  `gorm:"not null;index:idx_slot_course_start,priority:2" json:"start_time"`
	EndTime   time.Time  `gorm:"not null" json:"end_time"`
	Status    SlotStatus `gorm:"size:20;not null;default:'open'" json:"status"`
	BookedBy  *uuid.UUID `gorm:"type:uuid" json:"booked_by,omitempty"`

	Expired     bool        `gorm:"-" json:"expired"`
	BookedUsers []uuid.UUID `gorm:"-" json:"booked_users"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *AvailabilitySlot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Decorate fills the computed fields. Expiry is never persisted.
func (s *AvailabilitySlot) Decorate(now time.Time) {
	s.Expired = s.EndTime.Before(now)
	s.BookedUsers = []uuid.UUID{}
	if s.BookedBy != nil {
		s.BookedUsers = append(s.BookedUsers, *s.BookedBy)
	}
}
