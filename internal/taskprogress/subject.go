package taskprogress

import (
	"slices"
	"sync"
)

// Subject is a single-slot observable value: the current value plus the
// list of subscribers told about every change.
//
// Set delivers to subscribers synchronously and in order; concurrent Sets
// are serialized so no subscriber ever sees values out of order. A
// subscriber may call Get but must not call Set.
type Subject[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[int]func(T)
	nextID int

	// deliverMu serializes Set calls end to end, including delivery.
	deliverMu sync.Mutex
}

// NewSubject creates a subject holding initial.
func NewSubject[T any](initial T) *Subject[T] {
	return &Subject[T]{value: initial, subs: make(map[int]func(T))}
}

// Get returns the current value.
func (s *Subject[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set stores v and delivers it to every subscriber.
func (s *Subject[T]) Set(v T) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	s.value = v
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	subs := make([]func(T), 0, len(ids))
	// deliver in subscription order
	slices.Sort(ids)
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Subscribe registers fn and immediately delivers the current value to it.
//
// Returns:
//   - func(): Unsubscribe; safe to call more than once
func (s *Subject[T]) Subscribe(fn func(T)) func() {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	current := s.value
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
