package domain

import "time"

// User represents a Telegram user who started the bot. Records are upserted
// with merge semantics on every /start and never deleted by the bot.
type User struct {
	UserID    int64     `bson:"user_id" json:"user_id"`
	FirstName string    `bson:"first_name" json:"first_name"`
	Username  string    `bson:"username,omitempty" json:"username,omitempty"`
	ChatID    int64     `bson:"chat_id" json:"chat_id"`
	JoinedAt  time.Time `bson:"joined_at" json:"joined_at"`
}
