package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a point read matches no document.
var ErrNotFound = errors.New("document not found")

type userCollection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// UserRepository persists and retrieves users in MongoDB.
type UserRepository struct {
	collection userCollection
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(collection userCollection) *UserRepository {
	return &UserRepository{collection: collection}
}

// Upsert merges the user record, preserving joined_at for returning users.
// Called on every /start.
func (r *UserRepository) Upsert(ctx context.Context, user User) error {
	if r == nil || r.collection == nil {
		return errors.New("user repository is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if user.UserID == 0 {
		return errors.New("user_id is required")
	}

	joinedAt := user.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	update := bson.M{
		"$set": bson.M{
			"first_name": user.FirstName,
			"username":   user.Username,
			"chat_id":    user.ChatID,
		},
		"$setOnInsert": bson.M{
			"user_id":   user.UserID,
			"joined_at": joinedAt,
		},
	}

	if _, err := r.collection.UpdateOne(ctx,
		bson.M{"user_id": user.UserID},
		update,
		options.Update().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

// GetByID fetches a user by Telegram user_id.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (User, error) {
	if r == nil || r.collection == nil {
		return User{}, errors.New("user repository is not initialized")
	}
	if ctx == nil {
		return User{}, errors.New("context is required")
	}
	if userID == 0 {
		return User{}, errors.New("user_id is required")
	}

	result := r.collection.FindOne(ctx, bson.M{"user_id": userID})
	if result == nil {
		return User{}, errors.New("find user returned no result")
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}

	var user User
	if err := result.Decode(&user); err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}

	return user, nil
}

// List returns every registered user. Used by notification and broadcast
// fan-out.
func (r *UserRepository) List(ctx context.Context) ([]User, error) {
	if r == nil || r.collection == nil {
		return nil, errors.New("user repository is not initialized")
	}
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	cursor, err := r.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	return users, nil
}

type diaryCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

// DiaryRepository reads diary documents. The bot never writes them; the
// companion web app owns mutation.
type DiaryRepository struct {
	collection diaryCollection
}

// NewDiaryRepository constructs a DiaryRepository.
func NewDiaryRepository(collection diaryCollection) *DiaryRepository {
	return &DiaryRepository{collection: collection}
}

// Get fetches a user's diary record. An absent document yields an empty
// record, not an error.
func (r *DiaryRepository) Get(ctx context.Context, userID int64) (DiaryRecord, error) {
	record := DiaryRecord{UserID: userID, Days: map[int]DiaryDay{}}

	if r == nil || r.collection == nil {
		return record, errors.New("diary repository is not initialized")
	}
	if ctx == nil {
		return record, errors.New("context is required")
	}
	if userID == 0 {
		return record, errors.New("user_id is required")
	}

	result := r.collection.FindOne(ctx, bson.M{"_id": userID})
	if result == nil {
		return record, errors.New("find diary returned no result")
	}

	raw, err := result.Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return record, nil
		}
		return record, fmt.Errorf("find diary: %w", err)
	}

	for day := 1; day <= DaysInRamadan; day++ {
		value := raw.Lookup(fmt.Sprintf("day%d", day))
		if value.Validate() != nil {
			continue
		}

		var entry DiaryDay
		if err := value.Unmarshal(&entry); err != nil {
			return record, fmt.Errorf("decode diary day %d: %w", day, err)
		}
		record.Days[day] = entry
	}

	return record, nil
}

type feedbackCollection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

// FeedbackRepository persists feedback mappings keyed by the forwarded
// message id.
type FeedbackRepository struct {
	collection feedbackCollection
}

// NewFeedbackRepository constructs a FeedbackRepository.
func NewFeedbackRepository(collection feedbackCollection) *FeedbackRepository {
	return &FeedbackRepository{collection: collection}
}

// Put stores a mapping. Re-forwarding the same message id overwrites the
// previous entry.
func (r *FeedbackRepository) Put(ctx context.Context, mapping FeedbackMapping) error {
	if r == nil || r.collection == nil {
		return errors.New("feedback repository is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if mapping.MessageID == 0 {
		return errors.New("message id is required")
	}

	if mapping.Timestamp.IsZero() {
		mapping.Timestamp = time.Now().UTC().Truncate(time.Millisecond)
	}

	update := bson.M{"$set": bson.M{
		"chat_id":   mapping.ChatID,
		"user_id":   mapping.UserID,
		"timestamp": mapping.Timestamp,
	}}

	if _, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": mapping.MessageID},
		update,
		options.Update().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("put feedback mapping: %w", err)
	}

	return nil
}

// Get fetches the mapping for a forwarded message id.
func (r *FeedbackRepository) Get(ctx context.Context, messageID int) (FeedbackMapping, error) {
	if r == nil || r.collection == nil {
		return FeedbackMapping{}, errors.New("feedback repository is not initialized")
	}
	if ctx == nil {
		return FeedbackMapping{}, errors.New("context is required")
	}
	if messageID == 0 {
		return FeedbackMapping{}, errors.New("message id is required")
	}

	result := r.collection.FindOne(ctx, bson.M{"_id": messageID})
	if result == nil {
		return FeedbackMapping{}, errors.New("find feedback mapping returned no result")
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return FeedbackMapping{}, ErrNotFound
		}
		return FeedbackMapping{}, fmt.Errorf("find feedback mapping: %w", err)
	}

	var mapping FeedbackMapping
	if err := result.Decode(&mapping); err != nil {
		return FeedbackMapping{}, fmt.Errorf("decode feedback mapping: %w", err)
	}

	return mapping, nil
}

type broadcastCollection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// BroadcastRepository reads pending broadcast jobs and writes back their
// terminal status.
type BroadcastRepository struct {
	collection broadcastCollection
}

// NewBroadcastRepository constructs a BroadcastRepository.
func NewBroadcastRepository(collection broadcastCollection) *BroadcastRepository {
	return &BroadcastRepository{collection: collection}
}

// Pending returns every job still in the pending state. Called on dispatcher
// start so jobs created while the bot was down are picked up.
func (r *BroadcastRepository) Pending(ctx context.Context) ([]BroadcastJob, error) {
	if r == nil || r.collection == nil {
		return nil, errors.New("broadcast repository is not initialized")
	}
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	cursor, err := r.collection.Find(ctx, bson.M{"status": BroadcastPending})
	if err != nil {
		return nil, fmt.Errorf("list pending broadcasts: %w", err)
	}
	defer cursor.Close(ctx)

	var jobs []BroadcastJob
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("decode pending broadcasts: %w", err)
	}

	return jobs, nil
}

// MarkSent writes the sent status and timestamp.
func (r *BroadcastRepository) MarkSent(ctx context.Context, id primitive.ObjectID) error {
	if r == nil || r.collection == nil {
		return errors.New("broadcast repository is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	update := bson.M{"$set": bson.M{
		"status":  BroadcastSent,
		"sent_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("mark broadcast sent: %w", err)
	}

	return nil
}

// MarkError writes the error status with the failure message.
func (r *BroadcastRepository) MarkError(ctx context.Context, id primitive.ObjectID, message string) error {
	if r == nil || r.collection == nil {
		return errors.New("broadcast repository is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	update := bson.M{"$set": bson.M{
		"status": BroadcastError,
		"error":  message,
	}}

	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("mark broadcast error: %w", err)
	}

	return nil
}
