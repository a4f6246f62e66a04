package message

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	msgmodel "CampusChat/module/message/model"
	"CampusChat/tools/errs"
	"CampusChat/tools/ids"
)

const collMessages = "messages"

// Store is the durable message log on MongoDB. It implements
// chat.MessageStore; ids are snowflakes assigned at insert.
type Store struct {
	coll *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(collMessages)}
}

func (s *Store) Insert(ctx context.Context, topicKey, authorID, content string) (*msgmodel.Message, error) {
	msg := &msgmodel.Message{
		ID:        ids.GenerateString(),
		TopicKey:  topicKey,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, msg); err != nil {
		return nil, errs.WrapMsg(err, "insert message", "topic", topicKey)
	}
	return msg, nil
}

func (s *Store) AuthorOf(ctx context.Context, messageID string) (string, error) {
	var doc struct {
		AuthorID string `bson:"author_id"`
	}
	err := s.coll.FindOne(ctx, bson.M{"_id": messageID},
		options.FindOne().SetProjection(bson.M{"author_id": 1})).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", errs.ErrRecordNotFound.WithDetail("message " + messageID)
	}
	if err != nil {
		return "", errs.WrapMsg(err, "author lookup", "id", messageID)
	}
	return doc.AuthorID, nil
}

func (s *Store) Delete(ctx context.Context, messageID string) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": messageID})
	if err != nil {
		return false, errs.WrapMsg(err, "delete message", "id", messageID)
	}
	return res.DeletedCount > 0, nil
}

// History returns up to limit messages of a topic in ascending creation
// order, matching what the browser renders on channel open.
func (s *Store) History(ctx context.Context, topicKey string, limit int64) ([]msgmodel.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	cur, err := s.coll.Find(ctx, bson.M{"topic": topicKey},
		options.Find().SetSort(bson.M{"created_at": 1}).SetLimit(limit))
	if err != nil {
		return nil, errs.WrapMsg(err, "history", "topic", topicKey)
	}
	defer cur.Close(ctx)

	var out []msgmodel.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.WrapMsg(err, "history decode", "topic", topicKey)
	}
	return out, nil
}
