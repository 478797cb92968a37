package event

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

const defaultBuffer = 100

// InMemoryBus fans events out to buffered subscriber channels. Publish never
// blocks: a subscriber whose buffer is full misses the event.
type InMemoryBus struct {
	mu          sync.RWMutex
	nextID      uint64
	buffer      int
	subscribers map[uint64]chan Event
	dropped     atomic.Int64
}

func NewBus() *InMemoryBus {
	return NewBufferedBus(defaultBuffer)
}

func NewBufferedBus(buffer int) *InMemoryBus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &InMemoryBus{
		buffer:      buffer,
		subscribers: make(map[uint64]chan Event),
	}
}

func (b *InMemoryBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
			slog.Warn("event dropped for slow subscriber", "subscriber", id, "type", e.Type, "event_id", e.ID)
		}
	}
}

func (b *InMemoryBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan Event, b.buffer)
	b.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subscribers, id)
			close(ch)
		})
	}
}

// Dropped reports how many deliveries were skipped because a buffer was full.
func (b *InMemoryBus) Dropped() int64 {
	return b.dropped.Load()
}
