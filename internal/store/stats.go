// Package store encapsulates MongoDB client management and collection helpers.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ramadan_diary_bot/internal/domain"
)

type countCollection interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// StatsProvider exposes helper methods to retrieve collection counts for the
// admin /status view without leaking MongoDB internals to callers.
type StatsProvider struct {
	users      countCollection
	broadcasts countCollection
}

// NewStatsProvider constructs a StatsProvider backed by the users and
// broadcasts collections.
func NewStatsProvider(users, broadcasts countCollection) *StatsProvider {
	return &StatsProvider{
		users:      users,
		broadcasts: broadcasts,
	}
}

// CountUsers returns the number of registered users.
func (p *StatsProvider) CountUsers(ctx context.Context) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if p == nil || p.users == nil {
		return 0, errors.New("stats provider is not initialized")
	}

	count, err := p.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}

// CountPendingBroadcasts returns the number of broadcast jobs still waiting
// for the dispatcher.
func (p *StatsProvider) CountPendingBroadcasts(ctx context.Context) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if p == nil || p.broadcasts == nil {
		return 0, errors.New("stats provider is not initialized")
	}

	count, err := p.broadcasts.CountDocuments(ctx, bson.M{"status": domain.BroadcastPending})
	if err != nil {
		return 0, fmt.Errorf("count pending broadcasts: %w", err)
	}

	return count, nil
}
