package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportHubFanOut(t *testing.T) {
	ch, unsubscribe := SubscribeSupportEvents("q-1")
	defer unsubscribe()

	defaultSupportHub.fanOut(SupportEvent{
		Type:       EventTypeStatusChanged,
		QuestionID: "q-1",
		Status:     "answered",
	})

	select {
	case event := <-ch:
		assert.Equal(t, EventTypeStatusChanged, event.Type)
		assert.Equal(t, "answered", event.Status)
	case <-time.After(time.Second):
		t.Fatal("expected event was not delivered")
	}
}

func TestSupportHubIsolatesThreads(t *testing.T) {
	ch, unsubscribe := SubscribeSupportEvents("q-mine")
	defer unsubscribe()

	defaultSupportHub.fanOut(SupportEvent{
		Type:       EventTypeReply,
		QuestionID: "q-other",
	})

	select {
	case event := <-ch:
		t.Fatalf("received event for another thread: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSupportHubUnsubscribe(t *testing.T) {
	ch, unsubscribe := SubscribeSupportEvents("q-2")
	unsubscribe()

	// Channel is closed after unsubscribe
	_, open := <-ch
	assert.False(t, open)

	// Publishing after unsubscribe must not panic
	defaultSupportHub.fanOut(SupportEvent{Type: EventTypeReply, QuestionID: "q-2"})
}

func TestSupportHubDropsEventsForSlowConsumers(t *testing.T) {
	ch, unsubscribe := SubscribeSupportEvents("q-3")
	defer unsubscribe()

	// Overfill the buffered channel without reading. fanOut must not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			defaultSupportHub.fanOut(SupportEvent{Type: EventTypeReply, QuestionID: "q-3"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fanOut blocked on a slow consumer")
	}

	require.NotEmpty(t, ch)
}
