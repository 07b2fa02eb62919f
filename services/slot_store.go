package services

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/anjiri1684/tutor_live/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultSlotPageSize = 100

type ListOptions struct {
	IncludeExpired bool
}

// SlotStore owns tutor availability and its single-booker reservation state.
type SlotStore struct {
	db       *gorm.DB
	Now      func() time.Time
	PageSize int
}

func NewSlotStore(db *gorm.DB) *SlotStore {
	return &SlotStore{db: db, Now: utcNow, PageSize: defaultSlotPageSize}
}

func (s *SlotStore) Publish(ctx context.Context, tutorID, courseID uuid.UUID, start, end time.Time) (*models.AvailabilitySlot, error) {
	now := s.Now()
	start, end = start.UTC(), end.UTC()
	if !end.After(start) || start.Before(now) {
		return nil, ErrInvalidRange
	}

	slot := models.AvailabilitySlot{
		TutorID:   tutorID,
		CourseID:  courseID,
		StartTime: start,
		EndTime:   end,
		Status:    models.SlotOpen,
	}
	if err := s.db.WithContext(ctx).Create(&slot).Error; err != nil {
		return nil, unavailable("publish slot", err)
	}
	slot.Decorate(now)
	return &slot, nil
}

func (s *SlotStore) Get(ctx context.Context, slotID uuid.UUID) (*models.AvailabilitySlot, error) {
	var slot models.AvailabilitySlot
	if err := s.db.WithContext(ctx).First(&slot, "id = ?", slotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, unavailable("get slot", err)
	}
	slot.Decorate(s.Now())
	return &slot, nil
}

// List yields the course's slots ordered by start time. Pages are fetched
// lazily with a keyset cursor; ranging over the result again re-runs the query.
func (s *SlotStore) List(ctx context.Context, courseID uuid.UUID, opts ListOptions) iter.Seq2[models.AvailabilitySlot, error] {
	return func(yield func(models.AvailabilitySlot, error) bool) {
		now := s.Now()
		size := s.PageSize
		if size <= 0 {
			size = defaultSlotPageSize
		}

		var cursor *models.AvailabilitySlot
		for {
			q := s.db.WithContext(ctx).Where("course_id = ?", courseID)
			if !opts.IncludeExpired {
				q = q.Where("end_time >= ?", now)
			}
			if cursor != nil {
				q = q.Where("((start_time > ?) OR (start_time = ? AND id > ?))",
					cursor.StartTime, cursor.StartTime, cursor.ID)
			}

			var page []models.AvailabilitySlot
			if err := q.Order("start_time asc, id asc").Limit(size).Find(&page).Error; err != nil {
				yield(models.AvailabilitySlot{}, unavailable("list slots", err))
				return
			}
			for i := range page {
				page[i].Decorate(now)
				if !yield(page[i], nil) {
					return
				}
			}
			if len(page) < size {
				return
			}
			last := page[len(page)-1]
			cursor = &last
		}
	}
}

func (s *SlotStore) ListByTutor(ctx context.Context, tutorID uuid.UUID) ([]models.AvailabilitySlot, error) {
	slots := []models.AvailabilitySlot{}
	if err := s.db.WithContext(ctx).
		Where("tutor_id = ?", tutorID).
		Order("start_time asc").
		Find(&slots).Error; err != nil {
		return nil, unavailable("list tutor slots", err)
	}
	now := s.Now()
	for i := range slots {
		slots[i].Decorate(now)
	}
	return slots, nil
}

// Book reserves an open slot. The status guard on the update makes it a
// compare-and-set, so concurrent bookers get exactly one success.
func (s *SlotStore) Book(ctx context.Context, slotID, studentID uuid.UUID) (*models.AvailabilitySlot, error) {
	now := s.Now()
	var slot models.AvailabilitySlot

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSlot(tx, &slot, slotID); err != nil {
			return err
		}
		if slot.EndTime.Before(now) {
			return ErrExpired
		}
		if slot.Status != models.SlotOpen {
			return ErrAlreadyBooked
		}

		res := tx.Model(&models.AvailabilitySlot{}).
			Where("id = ? AND status = ?", slotID, models.SlotOpen).
			Updates(map[string]interface{}{
				"status":     models.SlotBooked,
				"booked_by":  studentID,
				"updated_at": now,
			})
		if res.Error != nil {
			return unavailable("book slot", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyBooked
		}

		slot.Status = models.SlotBooked
		slot.BookedBy = &studentID
		slot.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, classify("book slot", err)
	}
	slot.Decorate(now)
	return &slot, nil
}

func (s *SlotStore) Unbook(ctx context.Context, slotID, studentID uuid.UUID) (*models.AvailabilitySlot, error) {
	now := s.Now()
	var slot models.AvailabilitySlot

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSlot(tx, &slot, slotID); err != nil {
			return err
		}
		if slot.Status != models.SlotBooked {
			return ErrNotBooked
		}
		if slot.BookedBy == nil || *slot.BookedBy != studentID {
			return ErrNotBooker
		}

		res := tx.Model(&models.AvailabilitySlot{}).
			Where("id = ? AND status = ? AND booked_by = ?", slotID, models.SlotBooked, studentID).
			Updates(map[string]interface{}{
				"status":     models.SlotOpen,
				"booked_by":  nil,
				"updated_at": now,
			})
		if res.Error != nil {
			return unavailable("unbook slot", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotBooked
		}

		slot.Status = models.SlotOpen
		slot.BookedBy = nil
		slot.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, classify("unbook slot", err)
	}
	slot.Decorate(now)
	return &slot, nil
}

// Delete removes an open slot owned by tutorID. Booked slots must be unbooked first.
func (s *SlotStore) Delete(ctx context.Context, slotID, tutorID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot models.AvailabilitySlot
		if err := lockSlot(tx, &slot, slotID); err != nil {
			return err
		}
		if slot.TutorID != tutorID {
			return ErrForbidden
		}
		if slot.Status == models.SlotBooked {
			return ErrAlreadyBooked
		}

		res := tx.Where("id = ? AND status = ?", slotID, models.SlotOpen).Delete(&models.AvailabilitySlot{})
		if res.Error != nil {
			return unavailable("delete slot", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyBooked
		}
		return nil
	})
	return classify("delete slot", err)
}

// ActiveBooking finds the earliest unfinished slot the student booked with
// the tutor for the course.
func (s *SlotStore) ActiveBooking(ctx context.Context, studentID, tutorID, courseID uuid.UUID) (*models.AvailabilitySlot, error) {
	now := s.Now()
	var slot models.AvailabilitySlot
	err := s.db.WithContext(ctx).
		Where("tutor_id = ? AND course_id = ? AND booked_by = ? AND status = ? AND end_time >= ?",
			tutorID, courseID, studentID, models.SlotBooked, now).
		Order("start_time asc").
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, unavailable("find active booking", err)
	}
	slot.Decorate(now)
	return &slot, nil
}

// ExpiredOpenCount counts open slots whose window has passed. They stay in
// the table and are only hidden from default listings.
func (s *SlotStore) ExpiredOpenCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.AvailabilitySlot{}).
		Where("status = ? AND end_time < ?", models.SlotOpen, s.Now()).
		Count(&count).Error; err != nil {
		return 0, unavailable("count expired slots", err)
	}
	return count, nil
}

func lockSlot(tx *gorm.DB, slot *models.AvailabilitySlot, slotID uuid.UUID) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(slot, "id = ?", slotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return unavailable("load slot", err)
	}
	return nil
}
