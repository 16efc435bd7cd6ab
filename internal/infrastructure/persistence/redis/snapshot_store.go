package redis

import (
	"context"
	"errors"

	"github.com/campus-hub/class-routine-hub/internal/domain/schedule"
	"github.com/campus-hub/class-routine-hub/internal/domain/shared"
	"github.com/campus-hub/class-routine-hub/pkg/retry"
)

// SnapshotStore implements schedule.SnapshotStore on top of the generic
// Redis Cache. The whole snapshot is stored as a single JSON document:
// the feed replaces the routine wholesale on every version change, so
// there is nothing to gain from splitting it across keys.
type SnapshotStore struct {
	cache   *Cache
	scope   string
	retrier *retry.Retrier
}

// NewSnapshotStore creates a SnapshotStore. An empty scope persists
// under the default "current" snapshot key.
func NewSnapshotStore(cache *Cache, scope string) *SnapshotStore {
	return &SnapshotStore{
		cache:   cache,
		scope:   scope,
		retrier: retry.CacheRetrier(),
	}
}

var (
	_ schedule.SnapshotStore   = (*SnapshotStore)(nil)
	_ schedule.SnapshotToucher = (*SnapshotStore)(nil)
)

// classify marks cache errors for the retrier. Misses and local argument
// failures are permanent; anything else came from the transport and is
// worth another attempt.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrCacheMiss),
		errors.Is(err, ErrCacheSerialization),
		errors.Is(err, ErrCacheKeyEmpty),
		errors.Is(err, ErrCacheNilValue),
		errors.Is(err, ErrCacheInvalidTTL):
		return retry.Permanent(err)
	default:
		return retry.Retryable(err)
	}
}

// Save persists the snapshot, replacing any previously stored one.
// The feed version is tracked under a separate key so operators can
// inspect it without pulling the full document.
func (s *SnapshotStore) Save(ctx context.Context, snap *schedule.Snapshot) error {
	if snap == nil {
		return ErrCacheNilValue
	}

	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		if err := s.cache.Set(ctx, SnapshotKey(s.scope), snap, TTLSnapshot); err != nil {
			return classify(err)
		}
		if err := s.cache.SetString(ctx, VersionKey(s.scope), snap.Version, TTLVersion); err != nil {
			return classify(err)
		}
		return nil
	})
	if err != nil {
		return shared.WrapError("schedule", "Save", shared.ErrServiceUnavailable,
			"persisting snapshot", err)
	}

	return nil
}

// Load retrieves the persisted snapshot.
// Returns shared.ErrSnapshotNotFound if no snapshot has been saved yet.
func (s *SnapshotStore) Load(ctx context.Context) (*schedule.Snapshot, error) {
	var snap schedule.Snapshot
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return classify(s.cache.Get(ctx, SnapshotKey(s.scope), &snap))
	})
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrSnapshotNotFound
		}
		return nil, shared.WrapError("schedule", "Load", shared.ErrServiceUnavailable,
			"loading snapshot", err)
	}

	return &snap, nil
}

// Touch extends the TTL on the persisted snapshot. The engine calls it
// when a refresh finds the feed version unchanged, so a stable routine
// does not expire out of the store mid-semester.
func (s *SnapshotStore) Touch(ctx context.Context) error {
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		if err := s.cache.Expire(ctx, SnapshotKey(s.scope), TTLSnapshot); err != nil {
			return classify(err)
		}
		return classify(s.cache.Expire(ctx, VersionKey(s.scope), TTLVersion))
	})
	if err != nil {
		return shared.WrapError("schedule", "Touch", shared.ErrServiceUnavailable,
			"extending snapshot lifetime", err)
	}
	return nil
}
