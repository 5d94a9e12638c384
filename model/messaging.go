package model

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// MessageType of a chat message.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile:
		return true
	}
	return false
}

// Participant is a member of a conversation. The set is fixed at creation.
type Participant struct {
	UserID      string `json:"userId"`
	Role        Role   `json:"role"`
	DisplayName string `json:"displayName,omitempty"`
}

// LastMessage is the denormalized summary of the newest message.
type LastMessage struct {
	Text      string    `json:"text"`
	SenderID  string    `json:"senderId"`
	Timestamp time.Time `json:"timestamp"`
}

type Conversation struct {
	ID           string         `json:"id"`
	Participants []Participant  `json:"participants"`
	UnreadCounts map[string]int `json:"unreadCounts"`
	LastMessage  *LastMessage   `json:"lastMessage"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// HasParticipant reports whether userID is in the participant set.
func (c *Conversation) HasParticipant(userID string) bool {
	_, ok := c.Participant(userID)
	return ok
}

func (c *Conversation) Participant(userID string) (Participant, bool) {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return p, true
		}
	}
	return Participant{}, false
}

// ParticipantIDs returns the participant ids in participant order.
func (c *Conversation) ParticipantIDs() []string {
	ids := make([]string, len(c.Participants))
	for i, p := range c.Participants {
		ids[i] = p.UserID
	}
	return ids
}

// PairKey normalizes a participant set into an order independent key. Each
// id is length prefixed, so ids containing the separator cannot collide.
func PairKey(userIDs ...string) string {
	ids := append([]string(nil), userIDs...)
	sort.Strings(ids)

	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(strconv.Itoa(len(id)))
		b.WriteByte(':')
		b.WriteString(id)
	}
	return b.String()
}

// Attachment references a file stored elsewhere.
type Attachment struct {
	URL         string `json:"url"`
	Name        string `json:"name,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Receipt records that UserID has read a message.
type Receipt struct {
	UserID string    `json:"userId"`
	ReadAt time.Time `json:"readAt"`
}

type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversationId"`
	SenderID       string       `json:"senderId"`
	SenderRole     Role         `json:"senderRole"`
	Text           string       `json:"text"`
	MessageType    MessageType  `json:"messageType"`
	Attachments    []Attachment `json:"attachments"`
	ReadBy         []Receipt    `json:"readBy"`
	IsDeleted      bool         `json:"isDeleted"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// ReadByUser reports whether userID already has a receipt on m.
func (m *Message) ReadByUser(userID string) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// ConversationSummary is the listing view of a conversation for one caller.
type ConversationSummary struct {
	ID                   string        `json:"id"`
	Participants         []Participant `json:"participants"`
	OtherParticipant     string        `json:"otherParticipant"`
	OtherParticipantName string        `json:"otherParticipantName"`
	OtherParticipantRole Role          `json:"otherParticipantRole"`
	LastMessage          *LastMessage  `json:"lastMessage"`
	UnreadCount          int           `json:"unreadCount"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}
