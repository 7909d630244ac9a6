// Package bindables provides observable values with explicit subscription handles.
//
// A listener registered with BindValueChanged or BindCollectionChanged keeps firing
// until its Subscription is released. Owners must release subscriptions they no
// longer need, otherwise a discarded consumer keeps receiving updates.
package bindables

import "sync"

// Subscription is the disposable handle returned by every Bind* call.
type Subscription struct {
	once   sync.Once
	cancel func()
}

func newSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel}
}

// Unsubscribe detaches the listener. Safe to call more than once and on nil.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// ValueChangedEvent carries the transition of a Bindable.
type ValueChangedEvent[T any] struct {
	OldValue T
	NewValue T
}

type valueListener[T any] struct {
	id uint64
	fn func(ValueChangedEvent[T])
}

// Bindable is a value that notifies listeners when it changes.
// Listeners run synchronously on the goroutine calling SetValue, outside the lock.
type Bindable[T comparable] struct {
	mu        sync.Mutex
	value     T
	nextID    uint64
	listeners []valueListener[T]
}

func NewBindable[T comparable](initial T) *Bindable[T] {
	return &Bindable[T]{value: initial}
}

func (b *Bindable[T]) Value() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value
}

// SetValue stores v and notifies listeners if it differs from the current value.
func (b *Bindable[T]) SetValue(v T) {
	b.mu.Lock()
	old := b.value
	if old == v {
		b.mu.Unlock()
		return
	}
	b.value = v
	listeners := make([]valueListener[T], len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	ev := ValueChangedEvent[T]{OldValue: old, NewValue: v}
	for _, l := range listeners {
		l.fn(ev)
	}
}

// BindValueChanged registers fn. With runOnceImmediately the listener is invoked
// once with the current value before returning.
func (b *Bindable[T]) BindValueChanged(fn func(ValueChangedEvent[T]), runOnceImmediately bool) *Subscription {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, valueListener[T]{id: id, fn: fn})
	current := b.value
	b.mu.Unlock()

	if runOnceImmediately {
		fn(ValueChangedEvent[T]{OldValue: current, NewValue: current})
	}

	return newSubscription(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, l := range b.listeners {
			if l.id == id {
				b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
				return
			}
		}
	})
}

// BindTo makes b follow source until the returned subscription is released.
func (b *Bindable[T]) BindTo(source *Bindable[T]) *Subscription {
	return source.BindValueChanged(func(e ValueChangedEvent[T]) {
		b.SetValue(e.NewValue)
	}, true)
}

// ListenerCount is mostly useful for leak checks in tests.
func (b *Bindable[T]) ListenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
