// Package observe has a small observable box. Readers either poll Get
// or subscribe for a channel of future sets.
package observe

import "sync"

type Value[T any] struct {
	mu   sync.Mutex
	val  T
	set  bool
	subs map[int]chan T
	next int
}

func NewValue[T any]() *Value[T] {
	return &Value[T]{subs: map[int]chan T{}}
}

// Get returns the latest value and whether one was ever set.
func (v *Value[T]) Get() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.val, v.set
}

// Set stores val and hands it to every subscriber. A subscriber whose
// buffer is full misses this set rather than blocking the writer.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.val = val
	v.set = true
	for _, ch := range v.subs {
		select {
		case ch <- val:
		default:
		}
	}
}

// Subscribe registers for sets happening after this call. The cancel
// func unregisters and closes the channel.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.next
	v.next++
	ch := make(chan T, 16)
	v.subs[id] = ch
	cancel := func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if c, ok := v.subs[id]; ok {
			delete(v.subs, id)
			close(c)
		}
	}
	return ch, cancel
}
