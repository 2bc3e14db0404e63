package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub(4)

	_, ch1 := hub.Subscribe()
	_, ch2 := hub.Subscribe()
	assert.Equal(t, 2, hub.SubscriberCount())

	hub.Publish([]byte(`{"n":1}`))

	for _, ch := range []<-chan []byte{ch1, ch2} {
		select {
		case msg := <-ch:
			assert.Equal(t, []byte(`{"n":1}`), msg)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for published snapshot")
		}
	}
}

func TestHub_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	hub := NewHub(1)

	_, slow := hub.Subscribe()
	_, fast := hub.Subscribe()

	// The slow subscriber never reads; its single-slot buffer fills on the
	// first publish. The fast subscriber drains after every publish and must
	// see all three payloads regardless.
	for _, payload := range []string{"a", "b", "c"} {
		hub.Publish([]byte(payload))
		select {
		case msg := <-fast:
			assert.Equal(t, []byte(payload), msg)
		case <-time.After(time.Second):
			t.Fatalf("fast subscriber missed payload %q", payload)
		}
	}

	// Only the first payload fit in the slow subscriber's buffer; the rest
	// were dropped rather than queued.
	assert.Equal(t, []byte("a"), <-slow)
	select {
	case extra := <-slow:
		t.Fatalf("unexpected extra payload %q for slow subscriber", extra)
	default:
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub(4)

	id, ch := hub.Subscribe()
	hub.Unsubscribe(id)
	assert.Equal(t, 0, hub.SubscriberCount())

	// Channel is closed on unsubscribe so stream handlers can exit.
	_, open := <-ch
	assert.False(t, open)

	// A second unsubscribe of the same id must be harmless.
	hub.Unsubscribe(id)

	hub.Publish([]byte("x"))
}
