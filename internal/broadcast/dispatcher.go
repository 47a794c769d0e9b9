// Package broadcast turns pending broadcast documents into fan-out sends and
// writes back their terminal status.
package broadcast

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ramadan_diary_bot/internal/domain"
	"ramadan_diary_bot/internal/logging"
)

// watchRetryDelay paces change-stream reconnects after an error.
const watchRetryDelay = 5 * time.Second

// Sender delivers a broadcast message with the open-diary keyboard, like
// every other outbound notification.
type Sender interface {
	SendDiaryPrompt(ctx context.Context, chatID int64, text string) error
}

// JobStore reads pending jobs and records their outcome.
type JobStore interface {
	Pending(ctx context.Context) ([]domain.BroadcastJob, error)
	MarkSent(ctx context.Context, id primitive.ObjectID) error
	MarkError(ctx context.Context, id primitive.ObjectID, message string) error
}

// UserSource resolves broadcast recipients.
type UserSource interface {
	List(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, userID int64) (domain.User, error)
}

type watchCollection interface {
	Watch(ctx context.Context, pipeline interface{}, opts ...*options.ChangeStreamOptions) (*mongo.ChangeStream, error)
}

// Dispatcher consumes pending broadcast jobs.
type Dispatcher struct {
	jobs       JobStore
	users      UserSource
	sender     Sender
	collection watchCollection
	logger     *logrus.Entry
}

// NewDispatcher constructs a Dispatcher. The collection is used only to open
// the change stream; reads and status writes go through the JobStore.
func NewDispatcher(jobs JobStore, users UserSource, sender Sender, collection watchCollection, logger *logrus.Entry) *Dispatcher {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Dispatcher{
		jobs:       jobs,
		users:      users,
		sender:     sender,
		collection: collection,
		logger:     logger,
	}
}

// Run drains jobs already pending, then follows the change stream for new
// ones until the context ends. Duplicate delivery is possible when the
// process dies between send and status write; jobs are at-least-once on
// reprocessing, never retried within one run.
func (d *Dispatcher) Run(ctx context.Context) {
	d.drainPending(ctx)

	for {
		if ctx.Err() != nil {
			return
		}

		err := d.followStream(ctx)
		if ctx.Err() != nil {
			return
		}

		d.logger.WithField("event", "broadcast_watch_reconnect").WithError(err).Warn("broadcast change stream ended, reconnecting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(watchRetryDelay):
		}

		// Jobs inserted while the stream was down are picked up here.
		d.drainPending(ctx)
	}
}

func (d *Dispatcher) drainPending(ctx context.Context) {
	jobs, err := d.jobs.Pending(ctx)
	if err != nil {
		d.logger.WithField("event", "broadcast_scan_failed").WithError(err).Error("failed to list pending broadcasts")
		return
	}

	for _, job := range jobs {
		d.Process(ctx, job)
	}
}

type jobChange struct {
	OperationType string              `bson:"operationType"`
	FullDocument  domain.BroadcastJob `bson:"fullDocument"`
}

func (d *Dispatcher) followStream(ctx context.Context) error {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"operationType":       "insert",
			"fullDocument.status": domain.BroadcastPending,
		}}},
	}

	stream, err := d.collection.Watch(ctx, pipeline)
	if err != nil {
		return err
	}
	defer stream.Close(ctx)

	for stream.Next(ctx) {
		var change jobChange
		if err := stream.Decode(&change); err != nil {
			d.logger.WithField("event", "broadcast_decode_error").WithError(err).Warn("skipping undecodable broadcast change")
			continue
		}

		d.Process(ctx, change.FullDocument)
	}

	return stream.Err()
}

// Process executes one job and writes its terminal status. Per-recipient
// failures are logged and do not fail the job; only an error outside the
// per-recipient sends (listing users, resolving the target) marks it error.
func (d *Dispatcher) Process(ctx context.Context, job domain.BroadcastJob) {
	logger := d.logger.WithFields(logging.Fields{
		"event":        "broadcast_process",
		"broadcast_id": job.ID.Hex(),
		"target":       job.Target,
	})
	logger.Info("processing broadcast")

	sent, err := d.deliver(ctx, job)
	if err != nil {
		logger.WithError(err).Error("broadcast failed")
		if markErr := d.jobs.MarkError(ctx, job.ID, err.Error()); markErr != nil {
			logger.WithError(markErr).Error("failed to record broadcast error")
		}
		return
	}

	if err := d.jobs.MarkSent(ctx, job.ID); err != nil {
		logger.WithError(err).Error("failed to record broadcast completion")
		return
	}

	logger.WithField("sent", sent).Info("broadcast sent")
}

func (d *Dispatcher) deliver(ctx context.Context, job domain.BroadcastJob) (int, error) {
	if job.Target == domain.BroadcastTargetAll {
		users, err := d.users.List(ctx)
		if err != nil {
			return 0, err
		}

		sent := 0
		for _, user := range users {
			if err := d.sender.SendDiaryPrompt(ctx, user.ChatID, job.Message); err != nil {
				d.logger.WithFields(logging.Fields{
					"event":   "broadcast_send_failed",
					"user_id": user.UserID,
				}).WithError(err).Warn("broadcast send failed for recipient")
				continue
			}
			sent++
		}
		return sent, nil
	}

	userID, err := parseTarget(job.Target)
	if err != nil {
		return 0, err
	}

	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Absent target is a no-op, not an error.
			return 0, nil
		}
		return 0, err
	}

	if err := d.sender.SendDiaryPrompt(ctx, user.ChatID, job.Message); err != nil {
		d.logger.WithFields(logging.Fields{
			"event":   "broadcast_send_failed",
			"user_id": user.UserID,
		}).WithError(err).Warn("broadcast send failed for recipient")
		return 0, nil
	}

	return 1, nil
}
