package store

import "github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"

// CloneConversation returns a deep copy of c.
func CloneConversation(c *model.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Participants = append([]model.Participant(nil), c.Participants...)
	out.UnreadCounts = make(map[string]int, len(c.UnreadCounts))
	for k, v := range c.UnreadCounts {
		out.UnreadCounts[k] = v
	}
	if c.LastMessage != nil {
		lm := *c.LastMessage
		out.LastMessage = &lm
	}
	return &out
}

// CloneMessage returns a deep copy of m.
func CloneMessage(m *model.Message) *model.Message {
	if m == nil {
		return nil
	}
	out := *m
	out.Attachments = append([]model.Attachment(nil), m.Attachments...)
	out.ReadBy = append([]model.Receipt(nil), m.ReadBy...)
	return &out
}
