// Package signal provides a small publish/subscribe value cell.
//
// A [Signal] holds one value and notifies its bindings whenever a Set call
// changes that value. Sets that do not change the value are absorbed, which
// lets producers (resize observers, scroll trackers) publish on every raw
// event while consumers only run on real changes.
//
//	cols := signal.New(1)
//	unbind := cols.Bind(func(n int) { sched.Request() })
//	cols.Set(3) // binding fires
//	cols.Set(3) // no change, binding does not fire
//	unbind()
//
// Bindings run synchronously on the goroutine that called Set, in
// registration order, after the signal's own lock has been released.
package signal

import "sync"

// Unbind removes a binding registered with [Signal.Bind].
// Calling it more than once is safe.
type Unbind func()

// Signal is a value cell with change notification. The zero value is not
// usable; construct with [New] or [NewFunc].
type Signal[T any] struct {
	mu       sync.RWMutex
	value    T
	version  uint64
	equal    func(a, b T) bool
	bindings []*binding[T]
}

type binding[T any] struct {
	fn     func(T)
	active bool
}

// New creates a signal for a comparable type. Change detection uses ==.
func New[T comparable](initial T) *Signal[T] {
	return NewFunc(initial, func(a, b T) bool { return a == b })
}

// NewFunc creates a signal with a custom equality. A nil equal treats every
// Set as a change, which suits values with identity semantics such as
// freshly built slices.
func NewFunc[T any](initial T, equal func(a, b T) bool) *Signal[T] {
	return &Signal[T]{value: initial, equal: equal}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Version returns a counter that increases on every accepted change.
func (s *Signal[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Set stores v and notifies bindings if v differs from the current value.
// It reports whether a change was published.
func (s *Signal[T]) Set(v T) bool {
	s.mu.Lock()
	if s.equal != nil && s.equal(s.value, v) {
		s.mu.Unlock()
		return false
	}
	s.value = v
	s.version++

	active := make([]*binding[T], 0, len(s.bindings))
	for _, b := range s.bindings {
		if b.active {
			active = append(active, b)
		}
	}
	s.bindings = active
	fns := make([]func(T), len(active))
	for i, b := range active {
		fns[i] = b.fn
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
	return true
}

// Bind registers fn to run on every published change.
func (s *Signal[T]) Bind(fn func(T)) Unbind {
	b := &binding[T]{fn: fn, active: true}

	s.mu.Lock()
	s.bindings = append(s.bindings, b)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		b.active = false
		s.mu.Unlock()
	}
}

// Bindings returns the number of active bindings.
func (s *Signal[T]) Bindings() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, b := range s.bindings {
		if b.active {
			n++
		}
	}
	return n
}
