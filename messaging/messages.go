package messaging

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store"
)

const (
	maxTextLength  = 5000
	maxKeywordLen  = 200
	maxAttachments = 10
)

// SendMessage appends a message from the caller. The message is already
// read by its sender; every other participant's unread counter grows by one.
func (s *Service) SendMessage(ctx context.Context, caller Identity, req SendMessageRequest) (*model.Message, error) {
	if err := caller.validate(); err != nil {
		return nil, err
	}
	id, err := conversationID(req.ConversationID)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, invalid("text is required")
	}
	if utf8.RuneCountInString(text) > maxTextLength {
		return nil, invalid("text is too long")
	}

	msgType := req.MessageType
	if msgType == "" {
		msgType = model.MessageText
	}
	if !msgType.Valid() {
		return nil, invalid("unknown messageType %q", msgType)
	}
	if len(req.Attachments) > maxAttachments {
		return nil, invalid("too many attachments")
	}
	for _, a := range req.Attachments {
		if strings.TrimSpace(a.URL) == "" {
			return nil, invalid("attachment url is required")
		}
	}

	if _, err := s.writable(ctx, caller, id); err != nil {
		return nil, err
	}

	now := s.clock()
	msg := &model.Message{
		ID:             s.newID(),
		ConversationID: id,
		SenderID:       caller.ID,
		SenderRole:     caller.Role,
		Text:           text,
		MessageType:    msgType,
		Attachments:    append([]model.Attachment{}, req.Attachments...),
		ReadBy:         []model.Receipt{{UserID: caller.ID, ReadAt: now}},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	conv, err := s.backend.AppendMessage(ctx, msg)
	if err != nil {
		return nil, s.storeErr("append message", err)
	}

	s.notify(ctx, Event{
		Type:           EventMessageSent,
		ConversationID: id,
		ActorID:        caller.ID,
		Recipients:     conv.ParticipantIDs(),
		Message:        msg,
		UnreadCounts:   conv.UnreadCounts,
		At:             now,
	})
	return msg, nil
}

// GetMessages returns one page of a conversation. Pages are counted from
// the newest message; messages inside a page are oldest first.
func (s *Service) GetMessages(ctx context.Context, caller Identity, req GetMessagesRequest) ([]*model.Message, error) {
	return s.listMessages(ctx, caller, req.ConversationID, "", req.Page, req.PageSize)
}

// SearchMessages is GetMessages restricted to messages whose text contains
// keyword, ignoring case. The keyword is matched literally.
func (s *Service) SearchMessages(ctx context.Context, caller Identity, req SearchMessagesRequest) ([]*model.Message, error) {
	if strings.TrimSpace(req.Keyword) == "" {
		return nil, invalid("keyword is required")
	}
	if utf8.RuneCountInString(req.Keyword) > maxKeywordLen {
		return nil, invalid("keyword is too long")
	}
	return s.listMessages(ctx, caller, req.ConversationID, req.Keyword, req.Page, req.PageSize)
}

func (s *Service) listMessages(ctx context.Context, caller Identity, convID, keyword string, page, size int) ([]*model.Message, error) {
	if err := caller.validate(); err != nil {
		return nil, err
	}
	id, err := conversationID(convID)
	if err != nil {
		return nil, err
	}
	offset, limit, err := s.pageWindow(page, size)
	if err != nil {
		return nil, err
	}

	if _, err := s.readable(ctx, caller, id); err != nil {
		return nil, err
	}

	msgs, err := s.backend.ListMessages(ctx, store.MessageQuery{
		ConversationID: id,
		Keyword:        keyword,
		Offset:         offset,
		Limit:          limit,
	})
	if err != nil {
		return nil, s.storeErr("list messages", err)
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// DeleteMessage soft deletes a message. Only its sender may delete it.
// Deleting an already deleted message succeeds without another event.
func (s *Service) DeleteMessage(ctx context.Context, caller Identity, req DeleteMessageRequest) error {
	if err := caller.validate(); err != nil {
		return err
	}
	id, err := conversationID(req.ConversationID)
	if err != nil {
		return err
	}
	messageID := strings.TrimSpace(req.MessageID)
	if messageID == "" {
		return invalid("messageId is required")
	}

	conv, err := s.writable(ctx, caller, id)
	if err != nil {
		return err
	}

	msg, err := s.backend.FindMessage(ctx, id, messageID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("message")
	}
	if err != nil {
		return s.storeErr("find message", err)
	}
	if msg.SenderID != caller.ID {
		return ErrForbidden
	}
	if msg.IsDeleted {
		return nil
	}

	now := s.clock()
	if err := s.backend.SoftDeleteMessage(ctx, id, messageID, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("message")
		}
		return s.storeErr("soft delete message", err)
	}

	s.notify(ctx, Event{
		Type:           EventMessageDeleted,
		ConversationID: id,
		ActorID:        caller.ID,
		Recipients:     conv.ParticipantIDs(),
		MessageID:      messageID,
		At:             now,
	})
	return nil
}
