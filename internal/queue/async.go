package queue

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/venue-booking/internal/metrics"
)

// ErrQueueFull is returned by AsyncPublisher.Publish when the buffer is
// full and the event was dropped.
var ErrQueueFull = errors.New("event buffer full")

// Sink is the synchronous side of an AsyncPublisher, usually *Publisher.
type Sink interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

type pendingEvent struct {
	key   string
	event any
}

// AsyncPublisher hands events to a background worker so that callers
// never wait on the broker.  Publish only enqueues; Run delivers.
type AsyncPublisher struct {
	sink    Sink
	events  chan pendingEvent
	timeout time.Duration
}

// NewAsyncPublisher buffers up to size events and gives each delivery
// attempt timeout.
func NewAsyncPublisher(sink Sink, size int, timeout time.Duration) *AsyncPublisher {
	if size <= 0 {
		size = 1
	}
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	return &AsyncPublisher{sink: sink, events: make(chan pendingEvent, size), timeout: timeout}
}

// Publish enqueues event without blocking.  ctx is ignored: delivery
// happens after the request that produced the event has returned.
func (a *AsyncPublisher) Publish(_ context.Context, routingKey string, event any) error {
	select {
	case a.events <- pendingEvent{key: routingKey, event: event}:
		return nil
	default:
		metrics.IncEventPublished(routingKey, ErrQueueFull)
		return ErrQueueFull
	}
}

// Run delivers buffered events until ctx is cancelled.  Events still
// buffered at that point are flushed for at most one timeout.
func (a *AsyncPublisher) Run(ctx context.Context) {
	for {
		select {
		case ev := <-a.events:
			a.deliver(ev)
		case <-ctx.Done():
			a.flush(time.Now().Add(a.timeout))
			return
		}
	}
}

func (a *AsyncPublisher) flush(deadline time.Time) {
	for time.Now().Before(deadline) {
		select {
		case ev := <-a.events:
			a.deliver(ev)
		default:
			return
		}
	}
	if n := len(a.events); n > 0 {
		log.Printf("publisher: %d events dropped at shutdown", n)
	}
}

func (a *AsyncPublisher) deliver(ev pendingEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	err := a.sink.Publish(ctx, ev.key, ev.event)
	metrics.IncEventPublished(ev.key, err)
	if err != nil {
		log.Printf("publisher: %s dropped: %v", ev.key, err)
	}
}
