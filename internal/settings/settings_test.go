package settings

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ramadan_diary_bot/internal/domain"
)

func newTestService(t *testing.T, settings settingsCollection) *Service {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(settings, nil, logrus.NewEntry(logger))
}

func TestServiceStartsWithDefaults(t *testing.T) {
	svc := newTestService(t, &stubSettingsCollection{})

	window := svc.Window()
	if window.StartDate != "2026-02-18" || window.EndDate != "2026-03-20" {
		t.Fatalf("unexpected default window: %+v", window)
	}

	cfg := svc.Notifications()
	if !cfg.Morning.Enabled || cfg.Morning.Hour != 5 || cfg.Morning.Minute != 0 {
		t.Fatalf("unexpected default morning slot: %+v", cfg.Morning)
	}
	if !cfg.Evening.Enabled || cfg.Evening.Hour != 20 {
		t.Fatalf("unexpected default evening slot: %+v", cfg.Evening)
	}
	if cfg.DailyReport.Enabled {
		t.Fatalf("expected daily report slot disabled by default")
	}

	if len(svc.Buttons().Buttons) != 0 {
		t.Fatalf("expected no dynamic buttons by default")
	}

	if _, ok := svc.ContentForDay(1); ok {
		t.Fatalf("expected no daily content by default")
	}
}

func TestEnsureDefaultsUpsertsBothDocuments(t *testing.T) {
	stub := &stubSettingsCollection{}
	svc := newTestService(t, stub)

	if err := svc.EnsureDefaults(context.Background()); err != nil {
		t.Fatalf("EnsureDefaults returned error: %v", err)
	}

	if len(stub.updates) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(stub.updates))
	}

	for i, wantID := range []string{domain.SettingsRamadan, domain.SettingsNotifications} {
		filter, ok := stub.updates[i].filter.(bson.M)
		if !ok || filter["_id"] != wantID {
			t.Fatalf("expected upsert %d to target %s, got %v", i, wantID, stub.updates[i].filter)
		}
		if stub.updates[i].opts == nil || stub.updates[i].opts.Upsert == nil || !*stub.updates[i].opts.Upsert {
			t.Fatalf("expected upsert option for %s", wantID)
		}

		update, ok := stub.updates[i].update.(bson.M)
		if !ok {
			t.Fatalf("expected bson.M update, got %T", stub.updates[i].update)
		}
		if _, ok := update["$setOnInsert"]; !ok {
			t.Fatalf("expected $setOnInsert-only update for %s, got %v", wantID, update)
		}
		if _, ok := update["$set"]; ok {
			t.Fatalf("existing %s document must not be overwritten", wantID)
		}
	}
}

func TestEnsureDefaultsValidatesContext(t *testing.T) {
	svc := newTestService(t, &stubSettingsCollection{})

	if err := svc.EnsureDefaults(nil); err == nil {
		t.Fatalf("expected error for nil context")
	}
}

func TestApplySettingsDocUpdatesSnapshots(t *testing.T) {
	svc := newTestService(t, &stubSettingsCollection{})

	windowDoc, err := bson.Marshal(bson.M{
		"_id":       domain.SettingsRamadan,
		"startDate": "2027-02-08",
		"endDate":   "2027-03-09",
	})
	if err != nil {
		t.Fatalf("marshal window doc: %v", err)
	}
	if err := svc.applySettingsDoc(domain.SettingsRamadan, windowDoc); err != nil {
		t.Fatalf("apply window doc: %v", err)
	}
	if svc.Window().StartDate != "2027-02-08" {
		t.Fatalf("expected window snapshot to update, got %+v", svc.Window())
	}

	notifDoc, err := bson.Marshal(bson.M{
		"_id":         domain.SettingsNotifications,
		"morning":     bson.M{"enabled": false, "hour": 4, "minute": 30, "message": "erta"},
		"evening":     bson.M{"enabled": true, "hour": 21, "minute": 15, "message": "kech"},
		"dailyReport": bson.M{"enabled": true, "hour": 22, "minute": 0, "message": ""},
	})
	if err != nil {
		t.Fatalf("marshal notifications doc: %v", err)
	}
	if err := svc.applySettingsDoc(domain.SettingsNotifications, notifDoc); err != nil {
		t.Fatalf("apply notifications doc: %v", err)
	}

	cfg := svc.Notifications()
	if cfg.Morning.Enabled || cfg.Morning.Hour != 4 || cfg.Morning.Minute != 30 {
		t.Fatalf("expected morning snapshot to update, got %+v", cfg.Morning)
	}
	if !cfg.DailyReport.Enabled || cfg.DailyReport.Hour != 22 {
		t.Fatalf("expected daily report snapshot to update, got %+v", cfg.DailyReport)
	}

	buttonsDoc, err := bson.Marshal(bson.M{
		"_id": domain.SettingsButtons,
		"buttons": []bson.M{
			{"label": "🕌 Duolar", "reply": "Duolar ro'yxati"},
		},
	})
	if err != nil {
		t.Fatalf("marshal buttons doc: %v", err)
	}
	if err := svc.applySettingsDoc(domain.SettingsButtons, buttonsDoc); err != nil {
		t.Fatalf("apply buttons doc: %v", err)
	}

	buttons := svc.Buttons().Buttons
	if len(buttons) != 1 || buttons[0].Label != "🕌 Duolar" {
		t.Fatalf("expected buttons snapshot to update, got %+v", buttons)
	}
}

func TestApplySettingsDocIgnoresUnknownIDs(t *testing.T) {
	svc := newTestService(t, &stubSettingsCollection{})

	doc, err := bson.Marshal(bson.M{"_id": "mystery", "field": 1})
	if err != nil {
		t.Fatalf("marshal doc: %v", err)
	}

	if err := svc.applySettingsDoc("mystery", doc); err != nil {
		t.Fatalf("unknown settings doc must be ignored, got error: %v", err)
	}
}

func TestApplyContentDoc(t *testing.T) {
	svc := newTestService(t, &stubSettingsCollection{})

	svc.applyContentDoc(domain.DailyContent{Day: 3, Text: "Hadis matni"})

	text, ok := svc.ContentForDay(3)
	if !ok || text != "Hadis matni" {
		t.Fatalf("expected content for day 3, got %q ok=%v", text, ok)
	}

	// Out-of-range days are dropped.
	svc.applyContentDoc(domain.DailyContent{Day: 31, Text: "x"})
	if _, ok := svc.ContentForDay(31); ok {
		t.Fatalf("expected out-of-range content to be ignored")
	}

	// Updates overwrite.
	svc.applyContentDoc(domain.DailyContent{Day: 3, Text: "Yangilangan"})
	if text, _ := svc.ContentForDay(3); text != "Yangilangan" {
		t.Fatalf("expected content to be overwritten, got %q", text)
	}
}

type recordedUpdate struct {
	filter interface{}
	update interface{}
	opts   *options.UpdateOptions
}

type stubSettingsCollection struct {
	updates []recordedUpdate
	findErr error
}

func (s *stubSettingsCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	if s.findErr != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, s.findErr, nil)
	}
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func (s *stubSettingsCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	var opt *options.UpdateOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	s.updates = append(s.updates, recordedUpdate{filter: filter, update: update, opts: opt})
	return &mongo.UpdateResult{UpsertedCount: 1}, nil
}

func (s *stubSettingsCollection) Watch(ctx context.Context, pipeline interface{}, opts ...*options.ChangeStreamOptions) (*mongo.ChangeStream, error) {
	return nil, nil
}
