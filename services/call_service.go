package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/anjiri1684/tutor_live/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultInvitationTTL = 60 * time.Second

// Notifier receives invitation lifecycle events after they are committed.
type Notifier interface {
	InvitationCreated(inv models.CallInvitation)
	InvitationEnded(inv models.CallInvitation)
}

// SlotFinder locates the booked slot a call is anchored on.
type SlotFinder interface {
	ActiveBooking(ctx context.Context, studentID, tutorID, courseID uuid.UUID) (*models.AvailabilitySlot, error)
}

// CallService hands a session off into a live call by issuing short-lived
// invitations. Expired invitations are invisible to lookups even before the
// reaper deletes them.
type CallService struct {
	db    *gorm.DB
	slots SlotFinder
	TTL   time.Duration
	Now   func() time.Time

	mu       sync.RWMutex
	notifier Notifier
}

func NewCallService(db *gorm.DB, slots SlotFinder, ttl time.Duration) *CallService {
	if ttl <= 0 {
		ttl = DefaultInvitationTTL
	}
	return &CallService{db: db, slots: slots, TTL: ttl, Now: utcNow}
}

func (s *CallService) SetNotifier(n Notifier) {
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

func (s *CallService) notify(fn func(Notifier)) {
	s.mu.RLock()
	n := s.notifier
	s.mu.RUnlock()
	if n != nil {
		fn(n)
	}
}

// CreateInvitation returns the live invitation for the triple, creating one
// when none exists. It only fails when storage does.
func (s *CallService) CreateInvitation(ctx context.Context, studentID, tutorID, courseID uuid.UUID) (*models.CallInvitation, error) {
	now := s.Now()
	slotID, anchor := s.anchor(ctx, studentID, tutorID, courseID, now)

	var inv models.CallInvitation
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.CallInvitation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("student_id = ? AND tutor_id = ? AND course_id = ?", studentID, tutorID, courseID).
			First(&existing).Error
		switch {
		case err == nil && existing.Live(now):
			inv = existing
			return nil
		case err == nil:
			if err := tx.Where("student_id = ? AND tutor_id = ? AND course_id = ?", studentID, tutorID, courseID).
				Delete(&models.CallInvitation{}).Error; err != nil {
				return unavailable("replace invitation", err)
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return unavailable("load invitation", err)
		}

		inv = models.CallInvitation{
			StudentID: studentID,
			TutorID:   tutorID,
			CourseID:  courseID,
			RoomID:    fmt.Sprintf("%s-%s-%d", anchor, studentID, now.UnixNano()),
			SlotID:    slotID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.TTL),
		}
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		created = true
		return nil
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent create for the same triple committed first
		var winner models.CallInvitation
		if ferr := s.db.WithContext(ctx).
			Where("student_id = ? AND tutor_id = ? AND course_id = ?", studentID, tutorID, courseID).
			First(&winner).Error; ferr == nil && winner.Live(now) {
			return &winner, nil
		}
	}
	if err != nil {
		return nil, classify("create invitation", err)
	}

	if created {
		log.Printf("Call invitation %s created for student %s by tutor %s", inv.RoomID, studentID, tutorID)
		s.notify(func(n Notifier) { n.InvitationCreated(inv) })
	}
	return &inv, nil
}

func (s *CallService) anchor(ctx context.Context, studentID, tutorID, courseID uuid.UUID, now time.Time) (*uuid.UUID, string) {
	if s.slots != nil {
		slot, err := s.slots.ActiveBooking(ctx, studentID, tutorID, courseID)
		if err == nil {
			id := slot.ID
			return &id, id.String()
		}
		if !errors.Is(err, ErrNotFound) {
			log.Printf("Could not look up booked slot for call anchor, using ad-hoc room: %v", err)
		}
	}
	return nil, fmt.Sprintf("adhoc%d", now.UnixMilli())
}

// Peek returns the newest live invitation for the student and course, or nil.
func (s *CallService) Peek(ctx context.Context, studentID, courseID uuid.UUID) (*models.CallInvitation, error) {
	var inv models.CallInvitation
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ? AND ended = ? AND expires_at > ?", studentID, courseID, false, s.Now()).
		Order("created_at desc").
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("peek invitation", err)
	}
	return &inv, nil
}

func (s *CallService) PendingFor(ctx context.Context, studentID uuid.UUID) ([]models.CallInvitation, error) {
	invitations := []models.CallInvitation{}
	if err := s.db.WithContext(ctx).
		Where("student_id = ? AND ended = ? AND expires_at > ?", studentID, false, s.Now()).
		Order("created_at asc").
		Find(&invitations).Error; err != nil {
		return nil, unavailable("list pending invitations", err)
	}
	return invitations, nil
}

// Get returns the invitation behind a call room if it can still be joined.
func (s *CallService) Get(ctx context.Context, roomID string) (*models.CallInvitation, error) {
	inv, err := s.findByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if inv == nil || !inv.Live(s.Now()) {
		return nil, ErrInvitationGone
	}
	return inv, nil
}

func (s *CallService) findByRoom(ctx context.Context, roomID string) (*models.CallInvitation, error) {
	var inv models.CallInvitation
	err := s.db.WithContext(ctx).Where("room_id = ?", roomID).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("find invitation", err)
	}
	return &inv, nil
}

// End marks the invitation ended. It is a no-op for rooms that are unknown
// or already ended.
func (s *CallService) End(ctx context.Context, roomID string) error {
	inv, err := s.findByRoom(ctx, roomID)
	if err != nil || inv == nil {
		return err
	}
	return s.end(ctx, *inv)
}

// EndBy is End restricted to the invitation's student or tutor.
func (s *CallService) EndBy(ctx context.Context, roomID string, partyID uuid.UUID) error {
	inv, err := s.findByRoom(ctx, roomID)
	if err != nil || inv == nil {
		return err
	}
	if inv.StudentID != partyID && inv.TutorID != partyID {
		return ErrForbidden
	}
	return s.end(ctx, *inv)
}

func (s *CallService) end(ctx context.Context, inv models.CallInvitation) error {
	if inv.Ended {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.CallInvitation{}).
		Where("room_id = ? AND ended = ?", inv.RoomID, false).
		Update("ended", true)
	if res.Error != nil {
		return unavailable("end invitation", res.Error)
	}
	if res.RowsAffected > 0 {
		inv.Ended = true
		log.Printf("Call invitation %s ended", inv.RoomID)
		s.notify(func(n Notifier) { n.InvitationEnded(inv) })
	}
	return nil
}

// PurgeExpired deletes invitations past their TTL, consumed or not.
func (s *CallService) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.Now()).Delete(&models.CallInvitation{})
	if res.Error != nil {
		return 0, unavailable("purge invitations", res.Error)
	}
	return res.RowsAffected, nil
}
