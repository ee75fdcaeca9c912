// Package events provides the in-process pub/sub bus the synchronization
// engine uses to communicate between components without direct references.
package events

import "time"

// EventType identifies published event categories.
type EventType string

const (
	// EventFileCreated is emitted when a watched file appears on disk.
	EventFileCreated EventType = "file.created"
	// EventFileChanged is emitted when a watched file's content changes.
	EventFileChanged EventType = "file.changed"
	// EventFileDeleted is emitted when a watched file is removed or renamed away.
	EventFileDeleted EventType = "file.deleted"
	// EventStateUpdated is emitted after the in-memory state absorbed a change.
	EventStateUpdated EventType = "state.updated"
	// EventCacheInvalidated is emitted when a cache entry is dropped for an entity.
	EventCacheInvalidated EventType = "cache.invalidated"
	// EventTaskCompleted is emitted when a task checkbox transitions to done.
	EventTaskCompleted EventType = "task.completed"
)

// Event captures one happening on the bus. Immutable once published.
type Event struct {
	Type      EventType
	Payload   Payload
	Timestamp time.Time
	Source    string
}

// Payload is the tagged variant carried by an Event. Each payload type gives
// subscribers compile-time-checked access to exactly the fields relevant to
// its event family.
type Payload interface {
	payload()
}

// FilePayload accompanies file.created, file.changed and file.deleted events.
type FilePayload struct {
	// Path is the absolute path of the affected file.
	Path string
}

func (FilePayload) payload() {}

// StatePayload accompanies state.updated events and describes what changed.
type StatePayload struct {
	// Keys lists the entity keys affected by this update.
	Keys []string
	// Reason is a short description of what triggered the update
	// (e.g. "file-change", "initialize", "refresh-cycle").
	Reason string
	// Full is true when the update covers a whole scan rather than one entity.
	Full bool
}

func (StatePayload) payload() {}

// CachePayload accompanies cache.invalidated events.
type CachePayload struct {
	Key string
}

func (CachePayload) payload() {}

// TaskPayload accompanies task.completed events.
type TaskPayload struct {
	// SpecName is the spec whose task file recorded the completion.
	SpecName string
	// Task is the completed task's label.
	Task string
}

func (TaskPayload) payload() {}
