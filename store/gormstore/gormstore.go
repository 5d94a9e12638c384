// Package gormstore is the relational storage backend. Production runs it
// on Postgres; tests run it on in-memory sqlite.
package gormstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const receiptBatchSize = 200

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the messaging tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userRecord{},
		&conversationRecord{},
		&participantRecord{},
		&messageRecord{},
		&receiptRecord{},
	)
}

func (s *Store) Name() string { return "gorm:" + s.db.Dialector.Name() }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func participantsOrdered(db *gorm.DB) *gorm.DB {
	return db.Order("ordinal ASC")
}

func receiptsOrdered(db *gorm.DB) *gorm.DB {
	return db.Order("read_at ASC, user_id ASC")
}

func (s *Store) CreateConversation(ctx context.Context, conv *model.Conversation) (*model.Conversation, bool, error) {
	pairKey := store.PairKeyFor(conv)
	rec := toConversationRecord(conv, pairKey)

	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Omit("Participants").Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return tx.Create(&rec.Participants).Error
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		c, err := s.FindConversation(ctx, conv.ID)
		return c, true, err
	}
	if pairKey == "" {
		return nil, false, store.ErrConflict
	}
	c, err := s.FindConversationByPair(ctx, pairKey)
	return c, false, err
}

func (s *Store) FindConversationByPair(ctx context.Context, pairKey string) (*model.Conversation, error) {
	return s.findConversation(s.db.WithContext(ctx).Where("pair_key = ?", pairKey))
}

func (s *Store) FindConversation(ctx context.Context, id string) (*model.Conversation, error) {
	return s.findConversation(s.db.WithContext(ctx).Where("id = ?", id))
}

func (s *Store) FindParticipantConversation(ctx context.Context, id, userID string) (*model.Conversation, error) {
	return s.findConversation(s.db.WithContext(ctx).
		Where("id = ?", id).
		Where("EXISTS (SELECT 1 FROM conversation_participants p WHERE p.conversation_id = conversations.id AND p.user_id = ?)", userID))
}

func (s *Store) findConversation(q *gorm.DB) (*model.Conversation, error) {
	var rec conversationRecord
	if err := q.Preload("Participants", participantsOrdered).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return rec.toModel(), nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]*model.Conversation, error) {
	q := s.db.WithContext(ctx).Preload("Participants", participantsOrdered)
	if userID != "" {
		q = q.Where("id IN (?)", s.db.Model(&participantRecord{}).Select("conversation_id").Where("user_id = ?", userID))
	}

	var recs []conversationRecord
	if err := q.Order("updated_at DESC, id ASC").Find(&recs).Error; err != nil {
		return nil, err
	}

	out := make([]*model.Conversation, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}

func (s *Store) AppendMessage(ctx context.Context, msg *model.Message) (*model.Conversation, error) {
	rec := toMessageRecord(msg)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&conversationRecord{}).Where("id = ?", msg.ConversationID).UpdateColumns(map[string]any{
			"last_text":      msg.Text,
			"last_sender_id": msg.SenderID,
			"last_at":        msg.CreatedAt,
			"updated_at":     msg.CreatedAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}

		if err := tx.Create(rec).Error; err != nil {
			return err
		}

		return tx.Model(&participantRecord{}).
			Where("conversation_id = ? AND user_id <> ?", msg.ConversationID, msg.SenderID).
			UpdateColumn("unread_count", gorm.Expr("unread_count + ?", 1)).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return s.FindConversation(ctx, msg.ConversationID)
}

func (s *Store) ListMessages(ctx context.Context, q store.MessageQuery) ([]*model.Message, error) {
	db := s.db.WithContext(ctx).
		Preload("Receipts", receiptsOrdered).
		Where("conversation_id = ? AND is_deleted = ?", q.ConversationID, false)
	if q.Keyword != "" {
		db = db.Where(`LOWER(text) LIKE ? ESCAPE '\'`, "%"+store.EscapeLike(strings.ToLower(q.Keyword))+"%")
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}

	var recs []messageRecord
	if err := db.Order("created_at DESC, id DESC").Offset(q.Offset).Find(&recs).Error; err != nil {
		return nil, err
	}

	out := make([]*model.Message, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}

func (s *Store) FindMessage(ctx context.Context, conversationID, messageID string) (*model.Message, error) {
	var rec messageRecord
	err := s.db.WithContext(ctx).
		Preload("Receipts", receiptsOrdered).
		Where("id = ? AND conversation_id = ?", messageID, conversationID).
		First(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return rec.toModel(), nil
}

func (s *Store) SoftDeleteMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&messageRecord{}).
		Where("id = ? AND conversation_id = ?", messageID, conversationID).
		UpdateColumns(map[string]any{"is_deleted": true, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) MarkRead(ctx context.Context, conversationID, userID string, at time.Time) (int64, error) {
	var marked int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var members int64
		if err := tx.Model(&participantRecord{}).
			Where("conversation_id = ? AND user_id = ?", conversationID, userID).
			Count(&members).Error; err != nil {
			return err
		}
		if members == 0 {
			return store.ErrNotFound
		}

		var ids []string
		if err := tx.Model(&messageRecord{}).
			Where("conversation_id = ? AND sender_id <> ?", conversationID, userID).
			Where("NOT EXISTS (SELECT 1 FROM message_receipts r WHERE r.message_id = messages.id AND r.user_id = ?)", userID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}

		if len(ids) > 0 {
			receipts := make([]receiptRecord, len(ids))
			for i, id := range ids {
				receipts[i] = receiptRecord{MessageID: id, UserID: userID, ReadAt: at}
			}
			// A concurrent mark-read may have inserted some of these already.
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&receipts, receiptBatchSize)
			if res.Error != nil {
				return res.Error
			}
			marked = res.RowsAffected

			if err := tx.Model(&messageRecord{}).Where("id IN ?", ids).
				UpdateColumn("updated_at", at).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&participantRecord{}).
			Where("conversation_id = ? AND user_id = ?", conversationID, userID).
			UpdateColumn("unread_count", 0).Error; err != nil {
			return err
		}
		return tx.Model(&conversationRecord{}).Where("id = ?", conversationID).
			UpdateColumn("updated_at", at).Error
	})
	if err != nil {
		return 0, translate(err)
	}
	return marked, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}
