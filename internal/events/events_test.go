package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Test timed out waiting for event handlers")
	}
}

func TestBus(t *testing.T) {
	t.Run("Subscribe and Publish", func(t *testing.T) {
		bus := NewBus(0)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		bus.Start(ctx)

		var wg sync.WaitGroup
		wg.Add(1)
		var received Event
		bus.Subscribe(EventScanStarted, func(_ context.Context, e Event) error {
			received = e
			wg.Done()
			return nil
		})

		require.True(t, bus.Publish(Event{Type: EventScanStarted, ScanID: "scan-1"}))
		waitFor(t, &wg)

		assert.Equal(t, EventScanStarted, received.Type)
		assert.Equal(t, "scan-1", received.ScanID)
		assert.False(t, received.Time.IsZero(), "publish stamps the time")
	})

	t.Run("Multiple Handlers In Order", func(t *testing.T) {
		bus := NewBus(0)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		bus.Start(ctx)

		var (
			mu    sync.Mutex
			calls []string
			wg    sync.WaitGroup
		)
		wg.Add(3)
		record := func(name string) Handler {
			return func(_ context.Context, e Event) error {
				mu.Lock()
				calls = append(calls, name+":"+string(e.Type))
				mu.Unlock()
				wg.Done()
				return nil
			}
		}
		bus.Subscribe(EventScanStarted, record("a"))
		bus.Subscribe(EventScanStarted, record("b"))
		bus.Subscribe(EventScanCompleted, record("a"))
		bus.Subscribe(EventLeadCreated, func(context.Context, Event) error {
			return errors.New("handler errors are logged, not fatal")
		})

		bus.Publish(Event{Type: EventScanStarted, ScanID: "scan-2"})
		bus.Publish(Event{Type: EventLeadCreated, ScanID: "scan-2"})
		bus.Publish(Event{Type: EventScanCompleted, ScanID: "scan-2"})
		waitFor(t, &wg)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"a:scan_started", "b:scan_started", "a:scan_completed"}, calls)
	})

	t.Run("Full Buffer Drops", func(t *testing.T) {
		bus := NewBus(1)
		assert.True(t, bus.Publish(Event{Type: EventScanStarted}))
		assert.False(t, bus.Publish(Event{Type: EventScanStarted}), "publish must not block")
	})

	t.Run("Nil Bus", func(t *testing.T) {
		var bus *Bus
		assert.False(t, bus.Publish(Event{Type: EventScanFailed}))
	})

	t.Run("Context Cancellation", func(t *testing.T) {
		bus := NewBus(0)
		ctx, cancel := context.WithCancel(context.Background())
		bus.Start(ctx)
		cancel()

		select {
		case <-bus.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("processing loop did not stop")
		}
		// Still accepted into the buffer, never handled
		assert.True(t, bus.Publish(Event{Type: EventScanStarted}))
	})

	t.Run("Stop Delivers Buffered Events", func(t *testing.T) {
		bus := NewBus(0)
		var (
			mu       sync.Mutex
			received []string
			ctxErrs  []error
		)
		bus.Subscribe(EventLeadCreated, func(ctx context.Context, e Event) error {
			mu.Lock()
			received = append(received, e.LeadID)
			ctxErrs = append(ctxErrs, ctx.Err())
			mu.Unlock()
			return nil
		})

		for _, id := range []string{"lead-1", "lead-2", "lead-3"} {
			require.True(t, bus.Publish(Event{Type: EventLeadCreated, ScanID: "scan-3", LeadID: id}))
		}

		// Cancelled before the loop starts, so only the stop path sees the buffer
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		bus.Start(ctx)

		select {
		case <-bus.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("processing loop did not stop")
		}

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"lead-1", "lead-2", "lead-3"}, received)
		for _, err := range ctxErrs {
			assert.NoError(t, err, "buffered events are handled with a live context")
		}
	})
}

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSink(t *testing.T) {
	w := &fakeWriter{}
	sink := NewKafkaSinkWithWriter(w)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	err := sink.Handle(context.Background(), Event{
		Type:   EventLeadCreated,
		ScanID: "scan-abc",
		LeadID: "lead-1",
		Score:  72,
		Time:   at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "scan-abc", string(msg.Key))
	assert.Equal(t, time.UTC, msg.Time.Location())
	assert.True(t, at.Equal(msg.Time))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, EventLeadCreated, decoded.Type)
	assert.Equal(t, "lead-1", decoded.LeadID)
	assert.Equal(t, 72, decoded.Score)

	w.err = errors.New("broker down")
	assert.Error(t, sink.Handle(context.Background(), Event{Type: EventScanFailed, ScanID: "scan-abc"}))

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
}

func TestKafkaSinkAttach(t *testing.T) {
	w := &fakeWriter{}
	sink := NewKafkaSinkWithWriter(w)
	bus := NewBus(0)
	sink.Attach(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus.Start(ctx)

	for _, et := range AllEventTypes {
		bus.Publish(Event{Type: et, ScanID: "scan-xyz"})
	}

	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return len(w.msgs) == len(AllEventTypes)
	}, 2*time.Second, 10*time.Millisecond)
}
