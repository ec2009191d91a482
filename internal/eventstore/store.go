// Package eventstore records the lifecycle of builds as events and projects
// them into a build history.
package eventstore

import (
	"context"
	"time"
)

// Event is one persisted lifecycle event of a build.
type Event interface {
	ID() int64
	BuildID() string
	Type() string
	Timestamp() time.Time
	Payload() []byte
	Metadata() map[string]string
}

// Store persists and retrieves events.
type Store interface {
	// Append adds ev to the store. The stored timestamp is ev.Timestamp().
	Append(ctx context.Context, ev Event) error

	// GetByBuildID retrieves all events of one build in insertion order.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)

	// GetRange retrieves events whose timestamp falls within [start, end].
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	Close() error
}

// BaseEvent provides a default implementation of Event.
type BaseEvent struct {
	EventID        int64
	EventBuildID   string
	EventType      string
	EventTimestamp time.Time
	EventPayload   []byte
	EventMetadata  map[string]string
}

func (e *BaseEvent) ID() int64                   { return e.EventID }
func (e *BaseEvent) BuildID() string             { return e.EventBuildID }
func (e *BaseEvent) Type() string                { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time        { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte             { return e.EventPayload }
func (e *BaseEvent) Metadata() map[string]string { return e.EventMetadata }
