package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/internal/metrics"
	"github.com/OldStager01/healthcare-records/pkg/models"
)

// EventBus fans events out to buffered subscriber channels. Publishing never
// blocks: a subscriber whose buffer is full misses the event.
type EventBus struct {
	subscribers map[models.EventType][]chan *models.Event
	channels    []chan *models.Event
	mu          sync.RWMutex
	bufferSize  int
	closed      bool
	metrics     *metrics.Metrics
}

func NewEventBus(bufferSize int, m *metrics.Metrics) *EventBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	if m == nil {
		m = metrics.Get()
	}
	return &EventBus{
		subscribers: make(map[models.EventType][]chan *models.Event),
		bufferSize:  bufferSize,
		metrics:     m,
	}
}

// Subscribe returns one channel receiving every listed event type. With no
// types it receives everything.
func (b *EventBus) Subscribe(types ...models.EventType) <-chan *models.Event {
	if len(types) == 0 {
		types = models.AllEventTypes()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *models.Event, b.bufferSize)
	if b.closed {
		close(ch)
		return ch
	}

	for _, t := range types {
		b.subscribers[t] = append(b.subscribers[t], ch)
	}
	b.channels = append(b.channels, ch)
	return ch
}

func (b *EventBus) SubscribeAll() <-chan *models.Event {
	return b.Subscribe()
}

func (b *EventBus) Publish(event *models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	b.metrics.IncEventPublished(string(event.Type))
	for _, ch := range b.subscribers[event.Type] {
		select {
		case ch <- event:
		default:
			b.metrics.IncEventsDropped()
			logger.Warnf("Event channel full, dropping event: %s", event.Type)
		}
	}
}

// Close closes every subscriber channel once. Later publishes are ignored.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, ch := range b.channels {
		close(ch)
	}
	b.subscribers = make(map[models.EventType][]chan *models.Event)
	b.channels = nil
}

// stopWorker waits for a worker started with cancel and done to exit on its
// own. When ctx ends first the worker is cancelled.
func stopWorker(ctx context.Context, cancel context.CancelFunc, done <-chan struct{}) error {
	if done == nil {
		return nil
	}
	defer cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		cancel()
		<-done
		return fmt.Errorf("events left undelivered: %w", ctx.Err())
	}
}
