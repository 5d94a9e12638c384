package mongostore

import (
	"strings"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
)

type participantDoc struct {
	UserID      string `bson:"userId"`
	Role        string `bson:"role"`
	DisplayName string `bson:"displayName,omitempty"`
}

type lastMessageDoc struct {
	Text      string    `bson:"text"`
	SenderID  string    `bson:"senderId"`
	Timestamp time.Time `bson:"timestamp"`
}

type conversationDoc struct {
	ID           string           `bson:"_id"`
	PairKey      string           `bson:"pairKey,omitempty"`
	Participants []participantDoc `bson:"participants"`
	UnreadCounts map[string]int   `bson:"unreadCounts"`
	LastMessage  *lastMessageDoc  `bson:"lastMessage"`
	CreatedAt    time.Time        `bson:"createdAt"`
	UpdatedAt    time.Time        `bson:"updatedAt"`
}

type attachmentDoc struct {
	URL         string `bson:"url"`
	Name        string `bson:"name,omitempty"`
	ContentType string `bson:"contentType,omitempty"`
	Size        int64  `bson:"size,omitempty"`
}

type receiptDoc struct {
	UserID string    `bson:"userId"`
	ReadAt time.Time `bson:"readAt"`
}

type messageDoc struct {
	ID             string          `bson:"_id"`
	ConversationID string          `bson:"conversationId"`
	SenderID       string          `bson:"senderId"`
	SenderRole     string          `bson:"senderRole"`
	Text           string          `bson:"text"`
	MessageType    string          `bson:"messageType"`
	Attachments    []attachmentDoc `bson:"attachments"`
	ReadBy         []receiptDoc    `bson:"readBy"`
	IsDeleted      bool            `bson:"isDeleted"`
	CreatedAt      time.Time       `bson:"createdAt"`
	UpdatedAt      time.Time       `bson:"updatedAt"`
}

type userDoc struct {
	ID    string `bson:"_id"`
	Email string `bson:"email"`
	Name  string `bson:"name"`
	Role  string `bson:"role"`
}

// Unread counters are keyed by user id inside the conversation document.
// Ids are escaped so dots and dollar signs never form field paths.
var counterKeyEscaper = strings.NewReplacer("%", "%25", ".", "%2E", "$", "%24")

func counterKey(userID string) string {
	return counterKeyEscaper.Replace(userID)
}

func counterField(userID string) string {
	return "unreadCounts." + counterKey(userID)
}

func toConversationDoc(c *model.Conversation, pairKey string) conversationDoc {
	doc := conversationDoc{
		ID:           c.ID,
		PairKey:      pairKey,
		UnreadCounts: make(map[string]int, len(c.UnreadCounts)),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	for _, p := range c.Participants {
		doc.Participants = append(doc.Participants, participantDoc{UserID: p.UserID, Role: string(p.Role), DisplayName: p.DisplayName})
		doc.UnreadCounts[counterKey(p.UserID)] = c.UnreadCounts[p.UserID]
	}
	if lm := c.LastMessage; lm != nil {
		doc.LastMessage = &lastMessageDoc{Text: lm.Text, SenderID: lm.SenderID, Timestamp: lm.Timestamp}
	}
	return doc
}

func (d *conversationDoc) toModel() *model.Conversation {
	c := &model.Conversation{
		ID:           d.ID,
		Participants: make([]model.Participant, 0, len(d.Participants)),
		UnreadCounts: make(map[string]int, len(d.Participants)),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	for _, p := range d.Participants {
		c.Participants = append(c.Participants, model.Participant{UserID: p.UserID, Role: model.Role(p.Role), DisplayName: p.DisplayName})
		c.UnreadCounts[p.UserID] = d.UnreadCounts[counterKey(p.UserID)]
	}
	if lm := d.LastMessage; lm != nil {
		c.LastMessage = &model.LastMessage{Text: lm.Text, SenderID: lm.SenderID, Timestamp: lm.Timestamp}
	}
	return c
}

func toMessageDoc(m *model.Message) messageDoc {
	doc := messageDoc{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderRole:     string(m.SenderRole),
		Text:           m.Text,
		MessageType:    string(m.MessageType),
		Attachments:    make([]attachmentDoc, 0, len(m.Attachments)),
		ReadBy:         make([]receiptDoc, 0, len(m.ReadBy)),
		IsDeleted:      m.IsDeleted,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	for _, a := range m.Attachments {
		doc.Attachments = append(doc.Attachments, attachmentDoc(a))
	}
	for _, r := range m.ReadBy {
		doc.ReadBy = append(doc.ReadBy, receiptDoc(r))
	}
	return doc
}

func (d *messageDoc) toModel() *model.Message {
	m := &model.Message{
		ID:             d.ID,
		ConversationID: d.ConversationID,
		SenderID:       d.SenderID,
		SenderRole:     model.Role(d.SenderRole),
		Text:           d.Text,
		MessageType:    model.MessageType(d.MessageType),
		Attachments:    make([]model.Attachment, 0, len(d.Attachments)),
		ReadBy:         make([]model.Receipt, 0, len(d.ReadBy)),
		IsDeleted:      d.IsDeleted,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	for _, a := range d.Attachments {
		m.Attachments = append(m.Attachments, model.Attachment(a))
	}
	for _, r := range d.ReadBy {
		m.ReadBy = append(m.ReadBy, model.Receipt(r))
	}
	return m
}

func (d *userDoc) toModel() model.User {
	return model.User{ID: d.ID, Email: d.Email, Name: d.Name, Role: model.Role(d.Role)}
}
