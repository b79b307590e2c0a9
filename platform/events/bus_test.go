package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"lead_quality_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
}

func (testEvent) EventName() string { return "test.happened" }

func TestPublishSyncJoinsHandlerErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	var calls int32
	bus.Subscribe("test.happened", HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))
	bus.Subscribe("test.happened", HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(time.Now())})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}

func TestPublishRunsHandlersAsync(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	var calls int32
	bus.Subscribe("test.happened", HandlerFunc(func(context.Context, Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(time.Now())})
	bus.Wait()

	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected 1 handler call, got %d", calls)
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	if err := bus.PublishSync(context.Background(), testEvent{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
