// Package events provides scan lifecycle event handling
package events

import (
	"context"
	"sync"
	"time"

	"github.com/milescrape/milescrape/internal/logger"
)

// EventType represents the type of scan event
type EventType string

const (
	// EventScanStarted is emitted when a scan moves to in_progress
	EventScanStarted EventType = "scan_started"
	// EventScanCompleted is emitted when a scan completes
	EventScanCompleted EventType = "scan_completed"
	// EventScanFailed is emitted when a scan fails
	EventScanFailed EventType = "scan_failed"
	// EventScanCancelled is emitted when a scan is cancelled
	EventScanCancelled EventType = "scan_cancelled"
	// EventLeadCreated is emitted for each newly persisted lead
	EventLeadCreated EventType = "lead_created"
	// EventChannelSize is the default buffer size for the event channel
	EventChannelSize = 100
	// DrainTimeout bounds the handlers run for events still buffered at stop
	DrainTimeout = 5 * time.Second
)

// AllEventTypes lists every event the orchestrator emits
var AllEventTypes = []EventType{
	EventScanStarted,
	EventScanCompleted,
	EventScanFailed,
	EventScanCancelled,
	EventLeadCreated,
}

// Event represents a scan lifecycle event
type Event struct {
	Type    EventType `json:"type"`
	ScanID  string    `json:"scan_id"`
	LeadID  string    `json:"lead_id,omitempty"`
	Score   int       `json:"score,omitempty"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}

// Handler is a function that handles an event
type Handler func(context.Context, Event) error

// Bus fans published events out to subscribed handlers on its own goroutine.
// Publishing never blocks: when the buffer is full the event is dropped.
type Bus struct {
	handlersMu sync.RWMutex
	handlers   map[EventType][]Handler
	eventChan  chan Event
	done       chan struct{}
}

// NewBus creates a bus with the given buffer size, EventChannelSize when size < 1
func NewBus(size int) *Bus {
	if size < 1 {
		size = EventChannelSize
	}
	return &Bus{
		handlers:  make(map[EventType][]Handler),
		eventChan: make(chan Event, size),
		done:      make(chan struct{}),
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	logger.Debugf("Registered handler for event type: %s", eventType)
}

// Publish queues an event and reports whether it was accepted. A nil bus drops everything.
func (b *Bus) Publish(event Event) bool {
	if b == nil {
		return false
	}
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	select {
	case b.eventChan <- event:
		logger.Debugf("Published event: %s (Scan: %s)", event.Type, event.ScanID)
		return true
	default:
		logger.WarnWithFields("Event buffer full, dropping event", map[string]interface{}{
			"type":    event.Type,
			"scan_id": event.ScanID,
		})
		return false
	}
}

// Start starts the event processing loop. Done is closed when it exits.
func (b *Bus) Start(ctx context.Context) {
	go b.processEvents(ctx)
	logger.Info("Started event processing loop")
}

// Done is closed once the processing loop has stopped
func (b *Bus) Done() <-chan struct{} {
	return b.done
}

// processEvents handles events in publish order until ctx ends, then
// delivers whatever is still buffered before closing Done
func (b *Bus) processEvents(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			b.drain(ctx)
			logger.Info("Stopped event processing loop")
			return
		case event := <-b.eventChan:
			b.dispatch(ctx, event)
		}
	}
}

// drain hands the buffered events to their handlers without blocking for new
// ones. Handlers get a context that outlives ctx for at most DrainTimeout.
func (b *Bus) drain(ctx context.Context) {
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DrainTimeout)
	defer cancel()

	drained := 0
	for {
		select {
		case event := <-b.eventChan:
			b.dispatch(drainCtx, event)
			drained++
		default:
			if drained > 0 {
				logger.Debugf("Delivered %d buffered events on stop", drained)
			}
			return
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, event Event) {
	b.handlersMu.RLock()
	eventHandlers := b.handlers[event.Type]
	b.handlersMu.RUnlock()

	for _, h := range eventHandlers {
		if err := h(ctx, event); err != nil {
			logger.Errorf("Failed to handle event %s for scan %s: %v", event.Type, event.ScanID, err)
		}
	}
}
