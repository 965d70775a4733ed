package telemetry

import (
	"context"
	"sync"
)

// Memory stores telemetry events in memory. It is safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

// NewMemory creates a new in-memory telemetry store.
func NewMemory() *Memory {
	return &Memory{}
}

// AppendTelemetryEvent records an event.
func (m *Memory) AppendTelemetryEvent(ctx context.Context, evt Event) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

// Events returns a copy of the recorded events.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]Event, len(m.events))
	copy(copied, m.events)
	return copied
}
