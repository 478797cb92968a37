package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case got := <-ch:
		return got
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
		return Event{}
	}
}

func TestBusFanOut(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	first, unsubscribeFirst := bus.Subscribe()
	defer unsubscribeFirst()
	second, unsubscribeSecond := bus.Subscribe()
	defer unsubscribeSecond()

	published := New(TypeBookCreated, 4, map[string]any{"id": 1}).To(9)
	bus.Publish(published)

	for _, ch := range []<-chan Event{first, second} {
		got := receive(t, ch)
		assert.Equal(t, published.ID, got.ID)
		assert.Equal(t, int64(4), got.ActorID)
		assert.Equal(t, int64(9), got.RecipientID)
	}
}

func TestBusUnsubscribeIsIdempotent(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	ch, unsubscribe := bus.Subscribe()
	unsubscribe()
	unsubscribe()

	_, open := <-ch
	require.False(t, open)

	bus.Publish(New(TypeBookDeleted, 0, nil))
	assert.Zero(t, bus.Dropped())
}

func TestBusCountsDrops(t *testing.T) {
	t.Parallel()

	bus := NewBufferedBus(3)
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for i := 0; i < 5; i++ {
		bus.Publish(New(TypePostCreated, 1, i))
	}

	assert.Len(t, ch, 3)
	assert.Equal(t, int64(2), bus.Dropped())
	assert.Equal(t, 0, receive(t, ch).Payload)
}
