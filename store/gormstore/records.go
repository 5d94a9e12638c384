package gormstore

import (
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"gorm.io/datatypes"
)

// Timestamps are written by the service clock, never by gorm callbacks.

type userRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	Email     string `gorm:"uniqueIndex;size:190;not null"`
	Name      string `gorm:"size:120"`
	Role      string `gorm:"size:20;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userRecord) TableName() string { return "users" }

type conversationRecord struct {
	ID           string  `gorm:"primaryKey;size:36"`
	PairKey      *string `gorm:"uniqueIndex;size:160"`
	LastText     string  `gorm:"type:text"`
	LastSenderID string  `gorm:"size:64"`
	LastAt       *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false;index"`

	Participants []participantRecord `gorm:"foreignKey:ConversationID"`
}

func (conversationRecord) TableName() string { return "conversations" }

type participantRecord struct {
	ConversationID string `gorm:"primaryKey;size:36"`
	UserID         string `gorm:"primaryKey;size:64;index"`
	Role           string `gorm:"size:20"`
	DisplayName    string `gorm:"size:120"`
	Ordinal        int
	UnreadCount    int `gorm:"not null;default:0"`
}

func (participantRecord) TableName() string { return "conversation_participants" }

type messageRecord struct {
	ID             string                               `gorm:"primaryKey;size:36"`
	ConversationID string                               `gorm:"size:36;not null;index:idx_messages_listing,priority:1"`
	SenderID       string                               `gorm:"size:64;not null"`
	SenderRole     string                               `gorm:"size:20"`
	Text           string                               `gorm:"type:text"`
	MessageType    string                               `gorm:"size:20;not null"`
	Attachments    datatypes.JSONSlice[model.Attachment] `gorm:"not null"`
	IsDeleted      bool                                 `gorm:"not null;default:false;index:idx_messages_listing,priority:2"`
	CreatedAt      time.Time                            `gorm:"autoCreateTime:false;index:idx_messages_listing,priority:3"`
	UpdatedAt      time.Time                            `gorm:"autoUpdateTime:false"`

	Receipts []receiptRecord `gorm:"foreignKey:MessageID"`
}

func (messageRecord) TableName() string { return "messages" }

type receiptRecord struct {
	MessageID string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"primaryKey;size:64"`
	ReadAt    time.Time `gorm:"not null"`
}

func (receiptRecord) TableName() string { return "message_receipts" }

func toConversationRecord(c *model.Conversation, pairKey string) *conversationRecord {
	rec := &conversationRecord{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if pairKey != "" {
		rec.PairKey = &pairKey
	}
	if lm := c.LastMessage; lm != nil {
		at := lm.Timestamp
		rec.LastText, rec.LastSenderID, rec.LastAt = lm.Text, lm.SenderID, &at
	}
	for i, p := range c.Participants {
		rec.Participants = append(rec.Participants, participantRecord{
			ConversationID: c.ID,
			UserID:         p.UserID,
			Role:           string(p.Role),
			DisplayName:    p.DisplayName,
			Ordinal:        i,
			UnreadCount:    c.UnreadCounts[p.UserID],
		})
	}
	return rec
}

func (r *conversationRecord) toModel() *model.Conversation {
	c := &model.Conversation{
		ID:           r.ID,
		Participants: make([]model.Participant, 0, len(r.Participants)),
		UnreadCounts: make(map[string]int, len(r.Participants)),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	for _, p := range r.Participants {
		c.Participants = append(c.Participants, model.Participant{
			UserID:      p.UserID,
			Role:        model.Role(p.Role),
			DisplayName: p.DisplayName,
		})
		c.UnreadCounts[p.UserID] = p.UnreadCount
	}
	if r.LastAt != nil {
		c.LastMessage = &model.LastMessage{Text: r.LastText, SenderID: r.LastSenderID, Timestamp: *r.LastAt}
	}
	return c
}

func toMessageRecord(m *model.Message) *messageRecord {
	rec := &messageRecord{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderRole:     string(m.SenderRole),
		Text:           m.Text,
		MessageType:    string(m.MessageType),
		Attachments:    datatypes.JSONSlice[model.Attachment](m.Attachments),
		IsDeleted:      m.IsDeleted,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if rec.Attachments == nil {
		rec.Attachments = datatypes.JSONSlice[model.Attachment]{}
	}
	for _, r := range m.ReadBy {
		rec.Receipts = append(rec.Receipts, receiptRecord{MessageID: m.ID, UserID: r.UserID, ReadAt: r.ReadAt})
	}
	return rec
}

func (r *messageRecord) toModel() *model.Message {
	m := &model.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		SenderRole:     model.Role(r.SenderRole),
		Text:           r.Text,
		MessageType:    model.MessageType(r.MessageType),
		Attachments:    append([]model.Attachment{}, r.Attachments...),
		ReadBy:         make([]model.Receipt, 0, len(r.Receipts)),
		IsDeleted:      r.IsDeleted,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	for _, rc := range r.Receipts {
		m.ReadBy = append(m.ReadBy, model.Receipt{UserID: rc.UserID, ReadAt: rc.ReadAt})
	}
	return m
}

func (r *userRecord) toModel() model.User {
	return model.User{ID: r.ID, Email: r.Email, Name: r.Name, Role: model.Role(r.Role)}
}
