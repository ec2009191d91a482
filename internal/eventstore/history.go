package eventstore

import (
	"context"
)

// History couples a Store with its projection so every recorded event is
// persisted and immediately visible to readers.
type History struct {
	store      Store
	projection *BuildHistoryProjection
}

// OpenHistory opens the SQLite store at path and rebuilds the projection.
func OpenHistory(ctx context.Context, path string, maxSize int) (*History, error) {
	store, err := NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	h := NewHistory(store, maxSize)
	if err := h.projection.Rebuild(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return h, nil
}

// NewHistory wraps an already open store.
func NewHistory(store Store, maxSize int) *History {
	return &History{store: store, projection: NewBuildHistoryProjection(store, maxSize)}
}

// Record appends ev and applies it to the projection.
func (h *History) Record(ctx context.Context, ev Event) error {
	if err := h.store.Append(ctx, ev); err != nil {
		return err
	}
	h.projection.Apply(ev)
	return nil
}

// Events returns the raw events of one build.
func (h *History) Events(ctx context.Context, buildID string) ([]Event, error) {
	return h.store.GetByBuildID(ctx, buildID)
}

// Projection exposes the read model.
func (h *History) Projection() *BuildHistoryProjection { return h.projection }

func (h *History) Close() error { return h.store.Close() }
