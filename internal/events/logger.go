package events

import (
	"context"
	"time"

	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/pkg/models"
)

// AuditStore persists events. queries.AuditRepository implements it.
type AuditStore interface {
	Insert(ctx context.Context, event *models.Event) error
}

// EventLogger writes every event it receives to the log and the audit store.
type EventLogger struct {
	store     AuditStore
	eventChan <-chan *models.Event
	timeout   time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func NewEventLogger(store AuditStore, eventChan <-chan *models.Event) *EventLogger {
	return &EventLogger{
		store:     store,
		eventChan: eventChan,
		timeout:   5 * time.Second,
	}
}

// Start runs the worker until the event channel is closed and drained.
// Cancelling ctx stops it early and abandons buffered events.
func (l *EventLogger) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		l.run(ctx)
	}()
}

// Stop waits for the worker to persist what is left on the closed event
// channel. If ctx ends first the rest is dropped and ctx's error returned.
func (l *EventLogger) Stop(ctx context.Context) error {
	return stopWorker(ctx, l.cancel, l.done)
}

func (l *EventLogger) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-l.eventChan:
			if !ok {
				return
			}
			l.processEvent(ctx, event)
		}
	}
}

func (l *EventLogger) processEvent(ctx context.Context, event *models.Event) {
	entry := logger.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"actor":      event.Actor,
		"severity":   event.Severity,
		"trace_id":   event.TraceID,
	})

	switch event.Severity {
	case models.SeverityCritical:
		entry.Error(event.Message)
	case models.SeverityWarning:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}

	if l.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.store.Insert(ctx, event); err != nil {
		logger.Errorf("Failed to persist audit event %s: %v", event.ID, err)
	}
}
