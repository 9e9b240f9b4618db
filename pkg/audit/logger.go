// Package audit records admission-control events to a durable sink. The sink
// is strictly advisory: recording never blocks the calling operation and a
// failed write never fails the caller.
package audit

import (
	"context"
	"sync"
	"time"
)

// Logger is the interface for the audit sink.
type Logger interface {
	// Record logs an audit event. Implementations must swallow their own
	// failures; callers never check the outcome.
	Record(ctx context.Context, event *Event)

	// Close flushes any buffered events.
	Close() error
}

// NopLogger discards all events. Used when auditing is disabled and in tests
// that don't assert on audit output.
type NopLogger struct{}

func (NopLogger) Record(ctx context.Context, event *Event) {}

func (NopLogger) Close() error { return nil }

// CaptureLogger retains events in memory for test assertions.
type CaptureLogger struct {
	mu     sync.Mutex
	events []*Event
}

func (l *CaptureLogger) Record(ctx context.Context, event *Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	l.events = append(l.events, event)
}

func (l *CaptureLogger) Close() error { return nil }

// Events returns a snapshot of recorded events.
func (l *CaptureLogger) Events() []*Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Event, len(l.events))
	copy(out, l.events)
	return out
}

// Types returns the event types recorded so far, in order.
func (l *CaptureLogger) Types() []EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.EventType)
	}
	return out
}
