package model

import "time"

// Message is an immutable chat record. It is created exclusively by the
// dispatcher after successful persistence; the only later mutation is
// deletion, a terminal removal.
//
// Username and AvatarURL are display fields joined in from the user
// directory when the record is broadcast or served; they are not persisted
// with the message.
type Message struct {
	ID        string    `bson:"_id" json:"id"`
	TopicKey  string    `bson:"topic" json:"topic"`
	AuthorID  string    `bson:"author_id" json:"userId"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`

	Username  string `bson:"-" json:"username,omitempty"`
	AvatarURL string `bson:"-" json:"avatarUrl,omitempty"`
}
