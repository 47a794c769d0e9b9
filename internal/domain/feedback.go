package domain

import "time"

// FeedbackMapping links a message forwarded to the admin back to the sender's
// chat. Keyed by the forwarded message id; consumed when the admin replies to
// that message. Entries are never deleted.
type FeedbackMapping struct {
	MessageID int       `bson:"_id" json:"message_id"`
	ChatID    int64     `bson:"chat_id" json:"chat_id"`
	UserID    int64     `bson:"user_id" json:"user_id"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}
