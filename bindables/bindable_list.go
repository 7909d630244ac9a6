package bindables

import "sync"

type CollectionAction int

const (
	ActionAdd CollectionAction = iota
	ActionRemove
	ActionReplace
	ActionReset
)

func (a CollectionAction) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionReplace:
		return "replace"
	case ActionReset:
		return "reset"
	}
	return "unknown"
}

// CollectionChangedEvent describes one mutation of a BindableList.
// For ActionReplace, OldItems and NewItems hold exactly one element and Index its position.
type CollectionChangedEvent[T any] struct {
	Action   CollectionAction
	OldItems []T
	NewItems []T
	Index    int
}

type listListener[T any] struct {
	id uint64
	fn func(CollectionChangedEvent[T])
}

// BindableList is an ordered collection with change notification.
type BindableList[T any] struct {
	mu        sync.Mutex
	items     []T
	nextID    uint64
	listeners []listListener[T]
}

func NewBindableList[T any](items ...T) *BindableList[T] {
	l := &BindableList[T]{}
	l.items = append(l.items, items...)
	return l
}

// Items returns a copy of the current contents.
func (l *BindableList[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

func (l *BindableList[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

func (l *BindableList[T]) Add(items ...T) {
	if len(items) == 0 {
		return
	}
	l.mu.Lock()
	index := len(l.items)
	l.items = append(l.items, items...)
	l.mu.Unlock()

	l.notify(CollectionChangedEvent[T]{Action: ActionAdd, NewItems: cloneSlice(items), Index: index})
}

// RemoveFunc removes every item matching pred and returns how many were removed.
func (l *BindableList[T]) RemoveFunc(pred func(T) bool) int {
	l.mu.Lock()
	var removed []T
	kept := l.items[:0:0]
	for _, it := range l.items {
		if pred(it) {
			removed = append(removed, it)
			continue
		}
		kept = append(kept, it)
	}
	l.items = kept
	l.mu.Unlock()

	if len(removed) > 0 {
		l.notify(CollectionChangedEvent[T]{Action: ActionRemove, OldItems: removed, Index: -1})
	}
	return len(removed)
}

// ReplaceFunc swaps the first item matching pred for item.
func (l *BindableList[T]) ReplaceFunc(pred func(T) bool, item T) bool {
	l.mu.Lock()
	index := -1
	for i, it := range l.items {
		if pred(it) {
			index = i
			break
		}
	}
	if index < 0 {
		l.mu.Unlock()
		return false
	}
	old := l.items[index]
	l.items[index] = item
	l.mu.Unlock()

	l.notify(CollectionChangedEvent[T]{
		Action:   ActionReplace,
		OldItems: []T{old},
		NewItems: []T{item},
		Index:    index,
	})
	return true
}

// ReplaceAll swaps the whole contents and emits a single reset.
func (l *BindableList[T]) ReplaceAll(items []T) {
	l.mu.Lock()
	old := l.items
	l.items = cloneSlice(items)
	l.mu.Unlock()

	l.notify(CollectionChangedEvent[T]{Action: ActionReset, OldItems: old, NewItems: cloneSlice(items), Index: -1})
}

func (l *BindableList[T]) Clear() {
	l.ReplaceAll(nil)
}

// BindCollectionChanged registers fn. With runOnceImmediately the listener first
// receives a reset carrying the current contents.
func (l *BindableList[T]) BindCollectionChanged(fn func(CollectionChangedEvent[T]), runOnceImmediately bool) *Subscription {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.listeners = append(l.listeners, listListener[T]{id: id, fn: fn})
	current := cloneSlice(l.items)
	l.mu.Unlock()

	if runOnceImmediately {
		fn(CollectionChangedEvent[T]{Action: ActionReset, NewItems: current, Index: -1})
	}

	return newSubscription(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, ls := range l.listeners {
			if ls.id == id {
				l.listeners = append(l.listeners[:i:i], l.listeners[i+1:]...)
				return
			}
		}
	})
}

func (l *BindableList[T]) notify(ev CollectionChangedEvent[T]) {
	l.mu.Lock()
	listeners := make([]listListener[T], len(l.listeners))
	copy(listeners, l.listeners)
	l.mu.Unlock()

	for _, ls := range listeners {
		ls.fn(ev)
	}
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
