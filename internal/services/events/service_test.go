package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/cadenzahq/cadenza/internal/interfaces"
)

func TestPublishReachesSubscribers(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	var mu sync.Mutex
	var received []interfaces.Event
	done := make(chan struct{}, 1)

	err := svc.Subscribe(interfaces.EventQueueUpdated, func(ctx context.Context, event interfaces.Event) error {
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
		done <- struct{}{}
		return nil
	})
	require.NoError(t, err)

	err = svc.Publish(context.Background(), interfaces.Event{
		Type:    interfaces.EventQueueUpdated,
		Payload: "snapshot",
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "snapshot", received[0].Payload)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	err := svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventNotification})
	assert.NoError(t, err)
}

func TestPublishOnlyMatchingType(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	invoked := make(chan interfaces.EventType, 2)
	handler := func(ctx context.Context, event interfaces.Event) error {
		invoked <- event.Type
		return nil
	}

	require.NoError(t, svc.Subscribe(interfaces.EventItemCompleted, handler))
	require.NoError(t, svc.Subscribe(interfaces.EventItemFailed, handler))

	require.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventItemCompleted}))

	select {
	case got := <-invoked:
		assert.Equal(t, interfaces.EventItemCompleted, got)
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}

	select {
	case got := <-invoked:
		t.Fatalf("unexpected second invocation: %s", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeNilHandler(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	assert.Error(t, svc.Subscribe(interfaces.EventQueueUpdated, nil))
}
