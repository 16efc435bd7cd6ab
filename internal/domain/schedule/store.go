package schedule

import "context"

// SnapshotStore is the persistence collaborator: an opaque store of the
// three record collections, read once at startup before the first feed call
// and written after every successful swap. Implementations live under
// internal/infrastructure/persistence.
type SnapshotStore interface {
	// Save persists the snapshot, replacing any previously stored one.
	Save(ctx context.Context, snap *Snapshot) error

	// Load returns the most recently persisted snapshot.
	// Returns shared.ErrSnapshotNotFound (via errors.Is) when none exists.
	Load(ctx context.Context) (*Snapshot, error)
}

// SnapshotToucher is an optional SnapshotStore extension for stores whose
// entries expire. Touch extends the lifetime of the persisted snapshot
// without rewriting it; the engine calls it when a refresh finds the feed
// version unchanged and therefore skips the Save.
type SnapshotToucher interface {
	Touch(ctx context.Context) error
}

// FeedPayload is the raw result of one campus feed call, before snapshot
// construction. Version is the remote data's version token; the engine only
// swaps snapshots when it differs from the current one.
type FeedPayload struct {
	Version  string
	Sessions []ClassSession
	Courses  []Course
	Teachers []Teacher
}

// Feed is the loader collaborator. A feed response that carries a failure
// status is decided at this boundary and surfaced as shared.ErrFeedFailure;
// callers never inspect response bodies to tell success from failure.
type Feed interface {
	LoadSnapshot(ctx context.Context) (*FeedPayload, error)
}
