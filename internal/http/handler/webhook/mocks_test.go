package webhook_test

import (
	"context"

	"basegraph.app/mergebot/internal/event"
	"basegraph.app/mergebot/internal/queue"
)

type fakeMapper struct {
	mapFn func(ctx context.Context, eventType string, body []byte) ([]event.Event, error)
}

func (f *fakeMapper) Map(ctx context.Context, eventType string, body []byte) ([]event.Event, error) {
	return f.mapFn(ctx, eventType, body)
}

type fakeProducer struct {
	enqueued   []queue.EventMessage
	enqueueErr error
}

func (f *fakeProducer) Enqueue(ctx context.Context, msg queue.EventMessage) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, msg)
	return nil
}

func (f *fakeProducer) Close() error {
	return nil
}
