package audit

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Emit(_ context.Context, event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureSink) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestPublisherStampsTimestamp(t *testing.T) {
	p := NewPublisher(4, testLogger())
	p.Emit(Event{Action: ActionDomainLookup, Subject: "vitalik.eth", Outcome: "ok"})

	select {
	case event := <-p.Inbox():
		assert.False(t, event.Timestamp.IsZero())
		assert.Equal(t, ActionDomainLookup, event.Action)
	default:
		t.Fatal("expected a buffered event")
	}
}

func TestPublisherDropsWhenFull(t *testing.T) {
	p := NewPublisher(1, testLogger())
	p.Emit(Event{Action: ActionNodeCreated, Subject: "first"})
	p.Emit(Event{Action: ActionNodeCreated, Subject: "dropped"})

	event := <-p.Inbox()
	assert.Equal(t, "first", event.Subject)

	select {
	case extra := <-p.Inbox():
		t.Fatalf("unexpected second event: %v", extra)
	default:
	}
}

func TestWorkerForwardsToSink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPublisher(8, testLogger())
	sink := &captureSink{}
	worker := NewWorker(sink, p.Inbox(), testLogger())

	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	p.Emit(Event{Action: ActionConnectionAdded, Subject: "conn-1", Outcome: "ok"})
	p.Emit(Event{Action: ActionConnectionRemove, Subject: "conn-1", Outcome: "ok"})

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 2
	}, time.Second, 10*time.Millisecond)

	events := sink.snapshot()
	assert.Equal(t, ActionConnectionAdded, events[0].Action)
	assert.Equal(t, ActionConnectionRemove, events[1].Action)

	cancel()
	<-done
}
