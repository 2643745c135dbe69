package store

import "sync"

// Store is a reactive state container. Set applies an update and notifies
// subscribers synchronously, in subscription order, before returning.
type Store[T any] struct {
	mu    sync.Mutex
	state T
	subs  map[int]func(T)
	order []int
	next  int
}

// New builds a store seeded with the initial state.
func New[T any](initial T) *Store[T] {
	return &Store[T]{
		state: initial,
		subs:  map[int]func(T){},
	}
}

// Get returns the current state.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Set applies the update function to the current state and notifies
// subscribers with the result. Listeners run outside the lock so they may
// call Get; they must not call Set re-entrantly.
func (s *Store[T]) Set(update func(T) T) {
	s.mu.Lock()
	s.state = update(s.state)
	next := s.state
	listeners := make([]func(T), 0, len(s.order))
	for _, id := range s.order {
		if fn, ok := s.subs[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

// Subscribe registers a listener and returns its unsubscribe handle.
func (s *Store[T]) Subscribe(fn func(T)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
