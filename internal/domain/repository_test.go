package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type recordedUpdate struct {
	filter interface{}
	update interface{}
	upsert bool
}

type fakeCollection struct {
	findOneResult *mongo.SingleResult
	findCursor    *mongo.Cursor
	findErr       error
	findFilter    interface{}
	updates       []recordedUpdate
	updateErr     error
}

func (f *fakeCollection) UpdateOne(_ context.Context, filter, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	upsert := false
	for _, opt := range opts {
		if opt != nil && opt.Upsert != nil && *opt.Upsert {
			upsert = true
		}
	}
	f.updates = append(f.updates, recordedUpdate{filter: filter, update: update, upsert: upsert})
	return &mongo.UpdateResult{}, f.updateErr
}

func (f *fakeCollection) FindOne(context.Context, interface{}, ...*options.FindOneOptions) *mongo.SingleResult {
	return f.findOneResult
}

func (f *fakeCollection) Find(_ context.Context, filter interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	f.findFilter = filter
	return f.findCursor, f.findErr
}

func singleResult(t *testing.T, doc interface{}) *mongo.SingleResult {
	t.Helper()
	return mongo.NewSingleResultFromDocument(doc, nil, nil)
}

func noDocumentResult() *mongo.SingleResult {
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func cursorFor(t *testing.T, docs []interface{}) *mongo.Cursor {
	t.Helper()

	cursor, err := mongo.NewCursorFromDocuments(docs, nil, nil)
	if err != nil {
		t.Fatalf("failed to build cursor: %v", err)
	}
	return cursor
}

func TestUserUpsertSeparatesInsertOnlyFields(t *testing.T) {
	coll := &fakeCollection{}
	repo := NewUserRepository(coll)

	joined := time.Date(2026, time.February, 18, 10, 0, 0, 0, time.UTC)
	err := repo.Upsert(context.Background(), User{
		UserID:    10,
		FirstName: "Aziza",
		Username:  "aziza",
		ChatID:    20,
		JoinedAt:  joined,
	})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	if len(coll.updates) != 1 {
		t.Fatalf("expected one update, got %d", len(coll.updates))
	}
	recorded := coll.updates[0]
	if !recorded.upsert {
		t.Fatalf("expected upsert option to be set")
	}

	update, ok := recorded.update.(bson.M)
	if !ok {
		t.Fatalf("unexpected update type %T", recorded.update)
	}

	set, ok := update["$set"].(bson.M)
	if !ok {
		t.Fatalf("expected $set document")
	}
	if set["first_name"] != "Aziza" || set["chat_id"] != int64(20) {
		t.Fatalf("unexpected $set: %v", set)
	}
	if _, present := set["joined_at"]; present {
		t.Fatalf("joined_at must only be written on insert")
	}

	setOnInsert, ok := update["$setOnInsert"].(bson.M)
	if !ok {
		t.Fatalf("expected $setOnInsert document")
	}
	if setOnInsert["user_id"] != int64(10) || setOnInsert["joined_at"] != joined {
		t.Fatalf("unexpected $setOnInsert: %v", setOnInsert)
	}
}

func TestUserUpsertRequiresUserID(t *testing.T) {
	repo := NewUserRepository(&fakeCollection{})

	if err := repo.Upsert(context.Background(), User{}); err == nil {
		t.Fatalf("expected error for missing user_id")
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	repo := NewUserRepository(&fakeCollection{findOneResult: noDocumentResult()})

	_, err := repo.GetByID(context.Background(), 10)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserGetByIDDecodes(t *testing.T) {
	doc := bson.D{
		{Key: "user_id", Value: int64(10)},
		{Key: "first_name", Value: "Aziza"},
		{Key: "chat_id", Value: int64(20)},
	}
	repo := NewUserRepository(&fakeCollection{findOneResult: singleResult(t, doc)})

	user, err := repo.GetByID(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if user.UserID != 10 || user.FirstName != "Aziza" || user.ChatID != 20 {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestUserList(t *testing.T) {
	docs := []interface{}{
		bson.D{{Key: "user_id", Value: int64(1)}, {Key: "chat_id", Value: int64(101)}},
		bson.D{{Key: "user_id", Value: int64(2)}, {Key: "chat_id", Value: int64(102)}},
	}
	repo := NewUserRepository(&fakeCollection{findCursor: cursorFor(t, docs)})

	users, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(users) != 2 || users[1].ChatID != 102 {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestDiaryGetDecodesDayFields(t *testing.T) {
	doc := bson.D{
		{Key: "_id", Value: int64(7)},
		{Key: "day1", Value: bson.D{
			{Key: "good", Value: bson.A{true, false, true}},
			{Key: "bad", Value: bson.A{false}},
		}},
		{Key: "day3", Value: bson.D{
			{Key: "good", Value: bson.A{false}},
			{Key: "bad", Value: bson.A{true}},
		}},
		{Key: "unrelated", Value: "ignored"},
	}
	repo := NewDiaryRepository(&fakeCollection{findOneResult: singleResult(t, doc)})

	record, err := repo.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	if len(record.Days) != 2 {
		t.Fatalf("expected 2 decoded days, got %d", len(record.Days))
	}

	day1 := record.Days[1]
	if len(day1.Good) != 3 || !day1.Good[0] || day1.Good[1] {
		t.Fatalf("unexpected day1: %+v", day1)
	}

	day3 := record.Days[3]
	if len(day3.Bad) != 1 || !day3.Bad[0] {
		t.Fatalf("unexpected day3: %+v", day3)
	}
}

func TestDiaryGetAbsentDocumentIsEmptyRecord(t *testing.T) {
	repo := NewDiaryRepository(&fakeCollection{findOneResult: noDocumentResult()})

	record, err := repo.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("expected nil error for absent diary, got %v", err)
	}
	if record.UserID != 7 || len(record.Days) != 0 {
		t.Fatalf("expected empty record, got %+v", record)
	}
}

func TestFeedbackPutUpsertsByMessageID(t *testing.T) {
	coll := &fakeCollection{}
	repo := NewFeedbackRepository(coll)

	err := repo.Put(context.Background(), FeedbackMapping{
		MessageID: 42,
		ChatID:    777,
		UserID:    10,
	})
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	if len(coll.updates) != 1 || !coll.updates[0].upsert {
		t.Fatalf("expected one upsert, got %+v", coll.updates)
	}

	filter, ok := coll.updates[0].filter.(bson.M)
	if !ok || filter["_id"] != 42 {
		t.Fatalf("expected filter keyed by message id, got %v", coll.updates[0].filter)
	}

	update := coll.updates[0].update.(bson.M)
	set := update["$set"].(bson.M)
	if set["chat_id"] != int64(777) || set["user_id"] != int64(10) {
		t.Fatalf("unexpected $set: %v", set)
	}
	if ts, ok := set["timestamp"].(time.Time); !ok || ts.IsZero() {
		t.Fatalf("expected timestamp to be defaulted, got %v", set["timestamp"])
	}
}

func TestFeedbackGetNotFound(t *testing.T) {
	repo := NewFeedbackRepository(&fakeCollection{findOneResult: noDocumentResult()})

	_, err := repo.Get(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBroadcastPendingFiltersByStatus(t *testing.T) {
	docs := []interface{}{
		bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "status", Value: BroadcastPending},
			{Key: "target", Value: BroadcastTargetAll},
			{Key: "message", Value: "e'lon"},
		},
	}
	coll := &fakeCollection{findCursor: cursorFor(t, docs)}
	repo := NewBroadcastRepository(coll)

	jobs, err := repo.Pending(context.Background())
	if err != nil {
		t.Fatalf("Pending returned error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Message != "e'lon" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}

	filter, ok := coll.findFilter.(bson.M)
	if !ok || filter["status"] != BroadcastPending {
		t.Fatalf("expected pending filter, got %v", coll.findFilter)
	}
}

func TestBroadcastMarkSentAndError(t *testing.T) {
	coll := &fakeCollection{}
	repo := NewBroadcastRepository(coll)
	id := primitive.NewObjectID()

	if err := repo.MarkSent(context.Background(), id); err != nil {
		t.Fatalf("MarkSent returned error: %v", err)
	}
	if err := repo.MarkError(context.Background(), id, "boom"); err != nil {
		t.Fatalf("MarkError returned error: %v", err)
	}

	if len(coll.updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(coll.updates))
	}

	sentSet := coll.updates[0].update.(bson.M)["$set"].(bson.M)
	if sentSet["status"] != BroadcastSent {
		t.Fatalf("expected sent status, got %v", sentSet)
	}
	if _, ok := sentSet["sent_at"].(time.Time); !ok {
		t.Fatalf("expected sent_at timestamp, got %v", sentSet["sent_at"])
	}

	errorSet := coll.updates[1].update.(bson.M)["$set"].(bson.M)
	if errorSet["status"] != BroadcastError || errorSet["error"] != "boom" {
		t.Fatalf("unexpected error update: %v", errorSet)
	}
}
