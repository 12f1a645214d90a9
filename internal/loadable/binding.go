package loadable

import "sync"

// Binding is the two-way contract between a Loader and the host that renders
// its state. Get returns the current state; Set replaces it.
//
// Hosts may call Set directly (for example to force Failed in a test or to
// reset a view); the Loader reads the slot through Get for its guards.
type Binding[T any] interface {
	Get() State[T]
	Set(State[T])
}

// Slot is a mutex-guarded Binding that notifies subscribers on every Set.
// The zero value is ready to use and holds Idle.
type Slot[T any] struct {
	mu     sync.RWMutex
	state  State[T]
	nextID int
	subs   map[int]func(State[T])

	// notifyMu serializes notifications so subscribers observe writes in order.
	notifyMu sync.Mutex
}

// NewSlot returns a Slot holding initial.
func NewSlot[T any](initial State[T]) *Slot[T] {
	return &Slot[T]{state: initial}
}

// Get returns the current state.
func (s *Slot[T]) Get() State[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Set replaces the current state and notifies subscribers synchronously.
func (s *Slot[T]) Set(state State[T]) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.state = state
	subs := make([]func(State[T]), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// Subscribe registers fn to be called with every new state. The returned
// function removes the subscription; calling it more than once is safe.
// Subscribers must not call Set on the same Slot.
func (s *Slot[T]) Subscribe(fn func(State[T])) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs == nil {
		s.subs = make(map[int]func(State[T]))
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
