package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPublishContinuesAfterHandlerFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	var calls []string
	d.Subscribe(EventTaskAssigned, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("store down")
	})
	d.Subscribe(EventTaskAssigned, func(context.Context, Event) error {
		calls = append(calls, "second")
		panic("bad handler")
	})
	d.Subscribe(EventTaskAssigned, func(context.Context, Event) error {
		calls = append(calls, "third")
		return nil
	})
	d.Subscribe(EventLeadCreated, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	d.Publish(context.Background(), New(EventTaskAssigned, "task-1", nil, time.Now(), TaskPayload{Title: "x"}))

	if len(calls) != 3 || calls[0] != "first" || calls[2] != "third" {
		t.Fatalf("calls = %v", calls)
	}
	if logs.Len() != 2 {
		t.Fatalf("logged %d warnings, want 2", logs.Len())
	}
}
