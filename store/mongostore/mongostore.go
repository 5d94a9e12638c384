// Package mongostore is the document storage backend. Conversations keep
// their unread counters as a map inside the document so every counter
// change is a single-document atomic update.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
	usersCollection         = "users"
)

type Store struct {
	db            *mongo.Database
	conversations *mongo.Collection
	messages      *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		db:            db,
		conversations: db.Collection(conversationsCollection),
		messages:      db.Collection(messagesCollection),
	}
}

// EnsureIndexes creates the pair uniqueness index and the listing indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.conversations.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "pairKey", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "participants.userId", Value: 1}, {Key: "updatedAt", Value: -1}}},
		{Keys: bson.D{{Key: "updatedAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("conversations indexes: %w", err)
	}

	_, err = s.messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversationId", Value: 1}, {Key: "isDeleted", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("messages indexes: %w", err)
	}

	_, err = s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *Store) Name() string { return "mongo" }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func (s *Store) CreateConversation(ctx context.Context, conv *model.Conversation) (*model.Conversation, bool, error) {
	pairKey := store.PairKeyFor(conv)
	doc := toConversationDoc(conv, pairKey)

	_, err := s.conversations.InsertOne(ctx, doc)
	if err == nil {
		return store.CloneConversation(conv), true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, err
	}
	if pairKey == "" {
		return nil, false, store.ErrConflict
	}

	existing, err := s.FindConversationByPair(ctx, pairKey)
	return existing, false, err
}

func (s *Store) FindConversationByPair(ctx context.Context, pairKey string) (*model.Conversation, error) {
	return s.findConversation(ctx, bson.M{"pairKey": pairKey})
}

func (s *Store) FindConversation(ctx context.Context, id string) (*model.Conversation, error) {
	return s.findConversation(ctx, bson.M{"_id": id})
}

func (s *Store) FindParticipantConversation(ctx context.Context, id, userID string) (*model.Conversation, error) {
	return s.findConversation(ctx, bson.M{"_id": id, "participants.userId": userID})
}

func (s *Store) findConversation(ctx context.Context, filter bson.M) (*model.Conversation, error) {
	var doc conversationDoc
	if err := s.conversations.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toModel(), nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]*model.Conversation, error) {
	filter := bson.M{}
	if userID != "" {
		filter["participants.userId"] = userID
	}

	cur, err := s.conversations.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}

	var docs []conversationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*model.Conversation, len(docs))
	for i := range docs {
		out[i] = docs[i].toModel()
	}
	return out, nil
}

// AppendMessage inserts the message and then updates the conversation in
// one single-document update. The two writes are not transactional, so a
// failed conversation update is compensated by soft deleting the message.
func (s *Store) AppendMessage(ctx context.Context, msg *model.Message) (*model.Conversation, error) {
	conv, err := s.FindConversation(ctx, msg.ConversationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.messages.InsertOne(ctx, toMessageDoc(msg)); err != nil {
		return nil, err
	}

	inc := bson.M{}
	for _, p := range conv.Participants {
		if p.UserID != msg.SenderID {
			inc[counterField(p.UserID)] = 1
		}
	}
	update := bson.M{
		"$set": bson.M{
			"lastMessage": lastMessageDoc{Text: msg.Text, SenderID: msg.SenderID, Timestamp: msg.CreatedAt},
			"updatedAt":   msg.CreatedAt,
		},
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}

	var updated conversationDoc
	err = s.conversations.FindOneAndUpdate(ctx, bson.M{"_id": msg.ConversationID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err != nil {
		if cerr := s.SoftDeleteMessage(context.WithoutCancel(ctx), msg.ConversationID, msg.ID, msg.CreatedAt); cerr != nil {
			log.Error().Err(cerr).Str("message_id", msg.ID).Msg("failed to compensate message insert")
		}
		return nil, translate(err)
	}
	return updated.toModel(), nil
}

func (s *Store) ListMessages(ctx context.Context, q store.MessageQuery) ([]*model.Message, error) {
	filter := bson.M{"conversationId": q.ConversationID, "isDeleted": false}
	if q.Keyword != "" {
		filter["text"] = bson.M{"$regex": regexp.QuoteMeta(q.Keyword), "$options": "i"}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(q.Offset))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*model.Message, len(docs))
	for i := range docs {
		out[i] = docs[i].toModel()
	}
	return out, nil
}

func (s *Store) FindMessage(ctx context.Context, conversationID, messageID string) (*model.Message, error) {
	var doc messageDoc
	err := s.messages.FindOne(ctx, bson.M{"_id": messageID, "conversationId": conversationID}).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}
	return doc.toModel(), nil
}

func (s *Store) SoftDeleteMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	res, err := s.messages.UpdateOne(ctx,
		bson.M{"_id": messageID, "conversationId": conversationID},
		bson.M{"$set": bson.M{"isDeleted": true, "updatedAt": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) MarkRead(ctx context.Context, conversationID, userID string, at time.Time) (int64, error) {
	if _, err := s.FindParticipantConversation(ctx, conversationID, userID); err != nil {
		return 0, err
	}

	// The readBy.userId guard makes each per-document push append-if-absent.
	res, err := s.messages.UpdateMany(ctx,
		bson.M{
			"conversationId": conversationID,
			"senderId":       bson.M{"$ne": userID},
			"readBy.userId":  bson.M{"$ne": userID},
		},
		bson.M{
			"$push": bson.M{"readBy": receiptDoc{UserID: userID, ReadAt: at}},
			"$set":  bson.M{"updatedAt": at},
		})
	if err != nil {
		return 0, err
	}

	_, err = s.conversations.UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": bson.M{counterField(userID): 0, "updatedAt": at}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func translate(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}
