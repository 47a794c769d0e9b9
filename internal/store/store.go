// Package store encapsulates MongoDB client management and collection helpers.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"ramadan_diary_bot/internal/config"
)

// Collection names used across the bot.
const (
	CollectionUsers        = "users"
	CollectionDiaries      = "user_data"
	CollectionSettings     = "settings"
	CollectionDailyContent = "daily_content"
	CollectionFeedbackMap  = "feedback_map"
	CollectionBroadcasts   = "broadcasts"
)

// mongoClient captures the subset of mongo.Client behavior we rely on to allow
// lightweight stubbing in tests without a live Mongo deployment.
type mongoClient interface {
	Ping(context.Context, *readpref.ReadPref) error
	Database(string, ...*options.DatabaseOptions) *mongo.Database
	Disconnect(context.Context) error
}

// connectMongo is overridable for tests.
var connectMongo = func(ctx context.Context, opts *options.ClientOptions) (mongoClient, error) {
	return mongo.Connect(ctx, opts)
}

// createIndexes is overridable for tests.
var createIndexes = func(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) ([]string, error) {
	return coll.Indexes().CreateMany(ctx, models)
}

// Manager owns a MongoDB client and the configured database handle.
type Manager struct {
	client mongoClient
	db     *mongo.Database
}

// NewManager initializes the Mongo client using the supplied configuration and
// verifies connectivity with a ping.
func NewManager(ctx context.Context, cfg config.Config) (*Manager, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	client, err := connectMongo(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Manager{
		client: client,
		db:     client.Database(cfg.MongoDB),
	}, nil
}

// Database returns the configured database handle.
func (m *Manager) Database() *mongo.Database {
	return m.db
}

// Collection returns a collection handle for the given name.
func (m *Manager) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// Users returns the users collection handle.
func (m *Manager) Users() *mongo.Collection {
	return m.Collection(CollectionUsers)
}

// Diaries returns the user_data collection handle holding diary records.
func (m *Manager) Diaries() *mongo.Collection {
	return m.Collection(CollectionDiaries)
}

// Settings returns the settings collection handle (ramadan window,
// notification config, dynamic buttons).
func (m *Manager) Settings() *mongo.Collection {
	return m.Collection(CollectionSettings)
}

// DailyContent returns the daily_content collection handle.
func (m *Manager) DailyContent() *mongo.Collection {
	return m.Collection(CollectionDailyContent)
}

// FeedbackMap returns the feedback_map collection handle.
func (m *Manager) FeedbackMap() *mongo.Collection {
	return m.Collection(CollectionFeedbackMap)
}

// Broadcasts returns the broadcasts collection handle.
func (m *Manager) Broadcasts() *mongo.Collection {
	return m.Collection(CollectionBroadcasts)
}

// Ping verifies connectivity against the primary. Used by the health endpoint.
func (m *Manager) Ping(ctx context.Context) error {
	if m == nil || m.client == nil {
		return errors.New("store manager is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}

	return nil
}

// EnsureBaseIndexes creates the foundational indexes for the users and
// broadcasts collections. Collections are created implicitly if they do not
// already exist.
func (m *Manager) EnsureBaseIndexes(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if m == nil || m.db == nil {
		return errors.New("store manager is not initialized")
	}

	userIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("user_id_unique").
				SetUnique(true),
		},
	}

	if _, err := createIndexes(ctx, m.Users(), userIndexes); err != nil {
		return fmt.Errorf("create users indexes: %w", err)
	}

	broadcastIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "status", Value: 1}},
			Options: options.Index().
				SetName("status_idx"),
		},
	}

	if _, err := createIndexes(ctx, m.Broadcasts(), broadcastIndexes); err != nil {
		return fmt.Errorf("create broadcasts indexes: %w", err)
	}

	contentIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "day", Value: 1}},
			Options: options.Index().
				SetName("day_unique").
				SetUnique(true),
		},
	}

	if _, err := createIndexes(ctx, m.DailyContent(), contentIndexes); err != nil {
		return fmt.Errorf("create daily_content indexes: %w", err)
	}

	return nil
}

// Close disconnects the Mongo client.
func (m *Manager) Close(ctx context.Context) error {
	if m == nil || m.client == nil {
		return nil
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	return m.client.Disconnect(ctx)
}
