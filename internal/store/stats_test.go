package store

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ramadan_diary_bot/internal/domain"
)

func TestStatsProviderCountsUsersAndPendingBroadcasts(t *testing.T) {
	users := &stubCountCollection{count: 12}
	broadcasts := &stubCountCollection{count: 3}

	provider := NewStatsProvider(users, broadcasts)

	ctx := context.Background()

	userCount, err := provider.CountUsers(ctx)
	if err != nil {
		t.Fatalf("expected user count to succeed, got error: %v", err)
	}
	if userCount != 12 {
		t.Fatalf("expected 12 users, got %d", userCount)
	}
	if users.calls != 1 {
		t.Fatalf("expected users count to be called once, got %d", users.calls)
	}

	pendingCount, err := provider.CountPendingBroadcasts(ctx)
	if err != nil {
		t.Fatalf("expected pending count to succeed, got error: %v", err)
	}
	if pendingCount != 3 {
		t.Fatalf("expected 3 pending broadcasts, got %d", pendingCount)
	}

	filter, ok := broadcasts.lastFilter.(bson.M)
	if !ok {
		t.Fatalf("expected bson.M filter, got %T", broadcasts.lastFilter)
	}
	if filter["status"] != domain.BroadcastPending {
		t.Fatalf("expected pending status filter, got %v", filter)
	}
}

func TestStatsProviderRequiresContext(t *testing.T) {
	provider := NewStatsProvider(&stubCountCollection{}, &stubCountCollection{})

	if _, err := provider.CountUsers(nil); err == nil {
		t.Fatalf("expected error for nil context")
	}
	if _, err := provider.CountPendingBroadcasts(nil); err == nil {
		t.Fatalf("expected error for nil context")
	}
}

func TestStatsProviderRequiresInitialization(t *testing.T) {
	var provider *StatsProvider

	if _, err := provider.CountUsers(context.Background()); err == nil {
		t.Fatalf("expected error for nil provider")
	}
	if _, err := provider.CountPendingBroadcasts(context.Background()); err == nil {
		t.Fatalf("expected error for nil provider")
	}
}

func TestStatsProviderPropagatesErrors(t *testing.T) {
	expectedErr := errors.New("count failed")
	provider := NewStatsProvider(
		&stubCountCollection{err: expectedErr},
		&stubCountCollection{err: expectedErr},
	)

	if _, err := provider.CountUsers(context.Background()); err == nil {
		t.Fatalf("expected error from user count")
	}
	if _, err := provider.CountPendingBroadcasts(context.Background()); err == nil {
		t.Fatalf("expected error from pending broadcast count")
	}
}

type stubCountCollection struct {
	count      int64
	err        error
	calls      int
	lastFilter interface{}
}

func (s *stubCountCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	s.calls++
	s.lastFilter = filter
	return s.count, s.err
}
