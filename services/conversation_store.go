package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anjiri1684/tutor_live/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConversationStore keeps per-pair message history and read state.
type ConversationStore struct {
	db  *gorm.DB
	Now func() time.Time
}

func NewConversationStore(db *gorm.DB) *ConversationStore {
	return &ConversationStore{db: db, Now: utcNow}
}

// Resolve returns the room for two parties, creating it on first use.
func (s *ConversationStore) Resolve(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	key := models.NewRoomKey(a, b)
	if !key.Valid() {
		return nil, ErrInvalidRoom
	}
	conv, err := resolveConversation(s.db.WithContext(ctx), key)
	if err != nil {
		return nil, classify("resolve room", err)
	}
	return conv, nil
}

func resolveConversation(tx *gorm.DB, key models.RoomKey) (*models.Conversation, error) {
	conv, err := findConversation(tx, key)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	conv = &models.Conversation{ParticipantA: key.A, ParticipantB: key.B}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(conv)
	if res.Error != nil {
		return nil, unavailable("create room", res.Error)
	}
	if res.RowsAffected == 1 {
		conv.RoomID = key.String()
		return conv, nil
	}
	// lost the race to a concurrent creator
	return findConversation(tx, key)
}

func findConversation(tx *gorm.DB, key models.RoomKey) (*models.Conversation, error) {
	var conv models.Conversation
	err := tx.Where("participant_a = ? AND participant_b = ?", key.A, key.B).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("find room", err)
	}
	return &conv, nil
}

// Append stores a message at the end of the room's history and refreshes the
// last-message cache. The room row is locked while the sequence is assigned.
func (s *ConversationStore) Append(ctx context.Context, key models.RoomKey, senderID uuid.UUID, role models.Role, body string) (*models.Message, error) {
	if !key.Valid() {
		return nil, ErrInvalidRoom
	}
	if !key.Has(senderID) {
		return nil, ErrNotParticipant
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}

	now := s.Now()
	var msg models.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := resolveConversation(tx, key)
		if err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(conv, "id = ?", conv.ID).Error; err != nil {
			return unavailable("lock room", err)
		}

		seq := conv.LastSeq + 1
		msg = models.Message{
			ConversationID: conv.ID,
			Seq:            seq,
			SenderID:       senderID,
			SenderRole:     role,
			Content:        body,
			CreatedAt:      now,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return unavailable("append message", err)
		}

		if err := tx.Model(&models.Conversation{}).Where("id = ?", conv.ID).Updates(map[string]interface{}{
			"last_seq":          seq,
			"last_message":      body,
			"last_sender_id":    senderID,
			"last_message_at":   now,
			"last_message_read": false,
			"updated_at":        now,
		}).Error; err != nil {
			return unavailable("update room cache", err)
		}
		return nil
	})
	if err != nil {
		return nil, classify("append message", err)
	}
	msg.RoomID = key.String()
	return &msg, nil
}

// History replays the whole room in append order. Unknown rooms are empty.
func (s *ConversationStore) History(ctx context.Context, key models.RoomKey) ([]models.Message, error) {
	if !key.Valid() {
		return nil, ErrInvalidRoom
	}
	db := s.db.WithContext(ctx)
	conv, err := findConversation(db, key)
	if errors.Is(err, ErrNotFound) {
		return []models.Message{}, nil
	}
	if err != nil {
		return nil, err
	}

	messages := []models.Message{}
	if err := db.Where("conversation_id = ?", conv.ID).Order("seq asc").Find(&messages).Error; err != nil {
		return nil, unavailable("load history", err)
	}
	roomID := key.String()
	for i := range messages {
		messages[i].RoomID = roomID
	}
	return messages, nil
}

// MarkRead flags every message the reader did not send as read and returns
// how many changed.
func (s *ConversationStore) MarkRead(ctx context.Context, key models.RoomKey, readerID uuid.UUID) (int64, error) {
	if !key.Valid() {
		return 0, ErrInvalidRoom
	}
	if !key.Has(readerID) {
		return 0, ErrNotParticipant
	}

	now := s.Now()
	var marked int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := findConversation(tx, key)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		res := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conv.ID, readerID, false).
			Updates(map[string]interface{}{"is_read": true, "read_at": now})
		if res.Error != nil {
			return unavailable("mark read", res.Error)
		}
		marked = res.RowsAffected

		if err := tx.Model(&models.Conversation{}).
			Where("id = ? AND last_sender_id <> ?", conv.ID, readerID).
			Update("last_message_read", true).Error; err != nil {
			return unavailable("update room cache", err)
		}
		return nil
	})
	if err != nil {
		return 0, classify("mark read", err)
	}
	return marked, nil
}

func (s *ConversationStore) unreadQuery(ctx context.Context, partyID uuid.UUID) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("(conversations.participant_a = ? OR conversations.participant_b = ?)", partyID, partyID).
		Where("messages.sender_id <> ? AND messages.is_read = ?", partyID, false)
}

func (s *ConversationStore) UnreadExists(ctx context.Context, partyID uuid.UUID) (bool, error) {
	var count int64
	if err := s.unreadQuery(ctx, partyID).Count(&count).Error; err != nil {
		return false, unavailable("check unread", err)
	}
	return count > 0, nil
}

// UnreadCounts returns unread message counts keyed by room id.
func (s *ConversationStore) UnreadCounts(ctx context.Context, partyID uuid.UUID) (map[string]int64, error) {
	var rows []struct {
		ParticipantA uuid.UUID
		ParticipantB uuid.UUID
		Unread       int64
	}
	if err := s.unreadQuery(ctx, partyID).
		Select("conversations.participant_a, conversations.participant_b, COUNT(*) AS unread").
		Group("conversations.participant_a, conversations.participant_b").
		Scan(&rows).Error; err != nil {
		return nil, unavailable("count unread", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[models.RoomKey{A: r.ParticipantA, B: r.ParticipantB}.String()] = r.Unread
	}
	return counts, nil
}

// Rooms lists the party's conversations, most recent activity first.
func (s *ConversationStore) Rooms(ctx context.Context, partyID uuid.UUID) ([]models.Conversation, error) {
	rooms := []models.Conversation{}
	if err := s.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", partyID, partyID).
		Order("last_message_at IS NULL, last_message_at desc, created_at desc").
		Find(&rooms).Error; err != nil {
		return nil, unavailable("list rooms", err)
	}
	return rooms, nil
}
