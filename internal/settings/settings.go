// Package settings maintains live snapshots of the configuration documents:
// the ramadan window, notification slots, dynamic buttons, and per-day
// devotional content. Change-stream watchers keep the snapshots current;
// readers always get the latest value without blocking.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ramadan_diary_bot/internal/domain"
	"ramadan_diary_bot/internal/logging"
)

// Default notification slot messages, seeded on first run.
const (
	DefaultMorningMessage = "🌙 Assalomu alaykum! Saharlik vaqti bo'ldi. Bugungi kuningiz xayrli va ibodatlarga boy bo'lsin.\n\nKundalikni to'ldirishni unutmang!"
	DefaultEveningMessage = "✨ Kun yakunlandi. Bugungi amallaringizni sarhisob qilish vaqti keldi."
)

// watchRetryDelay paces change-stream reconnects after an error.
const watchRetryDelay = 5 * time.Second

type settingsCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	Watch(ctx context.Context, pipeline interface{}, opts ...*options.ChangeStreamOptions) (*mongo.ChangeStream, error)
}

type contentCollection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	Watch(ctx context.Context, pipeline interface{}, opts ...*options.ChangeStreamOptions) (*mongo.ChangeStream, error)
}

// Service owns the settings snapshots.
type Service struct {
	settings settingsCollection
	content  contentCollection
	logger   *logrus.Entry

	mu            sync.RWMutex
	window        domain.RamadanWindow
	notifications domain.NotificationConfig
	buttons       domain.ButtonsConfig
	contentByDay  map[int]string
}

// NewService constructs a Service over the settings and daily_content
// collections. Snapshots start at defaults until Load runs.
func NewService(settings settingsCollection, content contentCollection, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Service{
		settings:      settings,
		content:       content,
		logger:        logger,
		window:        domain.DefaultRamadanWindow(),
		notifications: DefaultNotificationConfig(),
		contentByDay:  map[int]string{},
	}
}

// DefaultNotificationConfig returns the notification settings created on
// first run: morning at 05:00, evening at 20:00, daily report off.
func DefaultNotificationConfig() domain.NotificationConfig {
	return domain.NotificationConfig{
		ID:      domain.SettingsNotifications,
		Morning: domain.SlotConfig{Enabled: true, Hour: 5, Minute: 0, Message: DefaultMorningMessage},
		Evening: domain.SlotConfig{Enabled: true, Hour: 20, Minute: 0, Message: DefaultEveningMessage},
		DailyReport: domain.SlotConfig{
			Enabled: false, Hour: 21, Minute: 0, Message: "",
		},
	}
}

// EnsureDefaults creates the ramadan and notifications settings documents
// when absent. Idempotent; existing documents are left untouched.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	if s == nil || s.settings == nil {
		return errors.New("settings service is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	window := domain.DefaultRamadanWindow()
	if _, err := s.settings.UpdateOne(ctx,
		bson.M{"_id": domain.SettingsRamadan},
		bson.M{"$setOnInsert": bson.M{
			"startDate": window.StartDate,
			"endDate":   window.EndDate,
		}},
		options.Update().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("ensure ramadan settings: %w", err)
	}

	cfg := DefaultNotificationConfig()
	if _, err := s.settings.UpdateOne(ctx,
		bson.M{"_id": domain.SettingsNotifications},
		bson.M{"$setOnInsert": bson.M{
			"morning":     cfg.Morning,
			"evening":     cfg.Evening,
			"dailyReport": cfg.DailyReport,
		}},
		options.Update().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("ensure notification settings: %w", err)
	}

	return nil
}

// Load reads every settings document and the daily content into the
// snapshots. Absent documents keep their defaults.
func (s *Service) Load(ctx context.Context) error {
	if s == nil || s.settings == nil {
		return errors.New("settings service is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	for _, id := range []string{domain.SettingsRamadan, domain.SettingsNotifications, domain.SettingsButtons} {
		result := s.settings.FindOne(ctx, bson.M{"_id": id})
		raw, err := result.Raw()
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				continue
			}
			return fmt.Errorf("load settings %s: %w", id, err)
		}

		if err := s.applySettingsDoc(id, raw); err != nil {
			return err
		}
	}

	if s.content != nil {
		cursor, err := s.content.Find(ctx, bson.D{})
		if err != nil {
			return fmt.Errorf("load daily content: %w", err)
		}
		defer cursor.Close(ctx)

		var docs []domain.DailyContent
		if err := cursor.All(ctx, &docs); err != nil {
			return fmt.Errorf("decode daily content: %w", err)
		}

		s.mu.Lock()
		for _, doc := range docs {
			s.contentByDay[doc.Day] = doc.Text
		}
		s.mu.Unlock()
	}

	return nil
}

// Window returns the current ramadan window snapshot.
func (s *Service) Window() domain.RamadanWindow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window
}

// Notifications returns the current notification config snapshot.
func (s *Service) Notifications() domain.NotificationConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notifications
}

// Buttons returns the current dynamic buttons snapshot.
func (s *Service) Buttons() domain.ButtonsConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buttons
}

// ContentForDay returns the devotional text for a Ramadan day, if any.
func (s *Service) ContentForDay(day int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.contentByDay[day]
	return text, ok
}

// applySettingsDoc decodes a settings document into the matching snapshot.
func (s *Service) applySettingsDoc(id string, raw bson.Raw) error {
	switch id {
	case domain.SettingsRamadan:
		var window domain.RamadanWindow
		if err := bson.Unmarshal(raw, &window); err != nil {
			return fmt.Errorf("decode ramadan settings: %w", err)
		}
		s.mu.Lock()
		s.window = window
		s.mu.Unlock()
	case domain.SettingsNotifications:
		var cfg domain.NotificationConfig
		if err := bson.Unmarshal(raw, &cfg); err != nil {
			return fmt.Errorf("decode notification settings: %w", err)
		}
		s.mu.Lock()
		s.notifications = cfg
		s.mu.Unlock()
	case domain.SettingsButtons:
		var buttons domain.ButtonsConfig
		if err := bson.Unmarshal(raw, &buttons); err != nil {
			return fmt.Errorf("decode buttons settings: %w", err)
		}
		s.mu.Lock()
		s.buttons = buttons
		s.mu.Unlock()
	default:
		// Unknown settings documents are ignored.
	}

	return nil
}

// applyContentDoc updates the daily content snapshot for one day.
func (s *Service) applyContentDoc(doc domain.DailyContent) {
	if doc.Day < 1 || doc.Day > domain.DaysInRamadan {
		return
	}
	s.mu.Lock()
	s.contentByDay[doc.Day] = doc.Text
	s.mu.Unlock()
}

type settingsChange struct {
	OperationType string   `bson:"operationType"`
	FullDocument  bson.Raw `bson:"fullDocument"`
	DocumentKey   struct {
		ID string `bson:"_id"`
	} `bson:"documentKey"`
}

type contentChange struct {
	OperationType string              `bson:"operationType"`
	FullDocument  domain.DailyContent `bson:"fullDocument"`
}

// WatchSettings follows the settings collection change stream until the
// context ends, updating snapshots as documents change. Stream errors are
// logged and the stream is re-opened.
func (s *Service) WatchSettings(ctx context.Context) {
	s.watchLoop(ctx, "settings", func(streamCtx context.Context) error {
		stream, err := s.settings.Watch(streamCtx, mongo.Pipeline{},
			options.ChangeStream().SetFullDocument(options.UpdateLookup))
		if err != nil {
			return err
		}
		defer stream.Close(streamCtx)

		for stream.Next(streamCtx) {
			var change settingsChange
			if err := stream.Decode(&change); err != nil {
				s.logger.WithField("event", "settings_decode_error").WithError(err).Warn("skipping undecodable settings change")
				continue
			}
			if len(change.FullDocument) == 0 {
				continue
			}
			if err := s.applySettingsDoc(change.DocumentKey.ID, change.FullDocument); err != nil {
				s.logger.WithFields(logging.Fields{
					"event":       "settings_apply_error",
					"settings_id": change.DocumentKey.ID,
				}).WithError(err).Warn("failed to apply settings change")
				continue
			}

			s.logger.WithFields(logging.Fields{
				"event":       "settings_updated",
				"settings_id": change.DocumentKey.ID,
			}).Info("settings snapshot updated")
		}

		return stream.Err()
	})
}

// WatchContent follows the daily_content change stream until the context
// ends.
func (s *Service) WatchContent(ctx context.Context) {
	s.watchLoop(ctx, "daily_content", func(streamCtx context.Context) error {
		stream, err := s.content.Watch(streamCtx, mongo.Pipeline{},
			options.ChangeStream().SetFullDocument(options.UpdateLookup))
		if err != nil {
			return err
		}
		defer stream.Close(streamCtx)

		for stream.Next(streamCtx) {
			var change contentChange
			if err := stream.Decode(&change); err != nil {
				s.logger.WithField("event", "content_decode_error").WithError(err).Warn("skipping undecodable content change")
				continue
			}

			s.applyContentDoc(change.FullDocument)
		}

		return stream.Err()
	})
}

func (s *Service) watchLoop(ctx context.Context, name string, attach func(context.Context) error) {
	for {
		if ctx.Err() != nil {
			return
		}

		err := attach(ctx)
		if ctx.Err() != nil {
			return
		}

		s.logger.WithFields(logging.Fields{
			"event": "watch_reconnect",
			"watch": name,
		}).WithError(err).Warn("change stream ended, reconnecting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(watchRetryDelay):
		}
	}
}
