package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Broadcast job statuses. A job transitions pending -> sent or
// pending -> error exactly once and is never retried automatically.
const (
	BroadcastPending = "pending"
	BroadcastSent    = "sent"
	BroadcastError   = "error"
)

// BroadcastTargetAll fans the message out to every registered user.
const BroadcastTargetAll = "all"

// BroadcastJob is a single-shot fan-out send request created externally and
// processed by the dispatcher.
type BroadcastJob struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Status  string             `bson:"status" json:"status"`
	Target  string             `bson:"target" json:"target"`
	Message string             `bson:"message" json:"message"`
	SentAt  *time.Time         `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
	Error   string             `bson:"error,omitempty" json:"error,omitempty"`
}
