package services

import (
	"sync"

	"github.com/google/uuid"
)

// Broadcaster fans values out to subscribers. A subscriber that is not keeping
// up misses intermediate values but always gets the newer ones.
type Broadcaster[T any] struct {
	mu     sync.Mutex
	subs   map[string]chan T
	buffer int
}

func NewBroadcaster[T any](buffer int) *Broadcaster[T] {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broadcaster[T]{subs: make(map[string]chan T), buffer: buffer}
}

// Subscribe returns a receive channel and a cancel func that closes it.
func (b *Broadcaster[T]) Subscribe() (<-chan T, func()) {
	id := uuid.NewString()
	ch := make(chan T, b.buffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
			// drop the oldest value to make room
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
