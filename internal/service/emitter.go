package service

import (
	"context"
	"sync"

	"console/internal/etl"
)

// Event names emitted by the services.
const (
	EventCollectionChanged = "collection:changed"
	EventRecordChanged     = "record:changed"
	EventImportCompleted   = "import:completed"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples services from the event transport
// ─────────────────────────────────────────────────────────────

// EventEmitter publishes change notifications. The websocket hub in
// internal/events implements it; tests use MockEmitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// CollectionEvent is the payload of EventCollectionChanged.
type CollectionEvent struct {
	AppID      string `json:"appId"`
	Collection string `json:"collection"`
	Action     string `json:"action"` // created | updated | deleted
}

// RecordEvent is the payload of EventRecordChanged.
type RecordEvent struct {
	AppID      string `json:"appId"`
	Collection string `json:"collection"`
	RecordID   string `json:"recordId"`
	Action     string `json:"action"`
}

// ImportEvent is the payload of EventImportCompleted.
type ImportEvent struct {
	AppID  string         `json:"appId"`
	JobID  string         `json:"jobId"`
	Result *etl.RunResult `json:"result"`
}

func (e CollectionEvent) EventAppID() string { return e.AppID }
func (e RecordEvent) EventAppID() string     { return e.AppID }
func (e ImportEvent) EventAppID() string     { return e.AppID }

// NopEmitter discards every event.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, any) {}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Names returns the emitted event names in order.
func (m *MockEmitter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.Events))
	for i, e := range m.Events {
		names[i] = e.Event
	}
	return names
}
