// Package ksync provides the kernel's three synchronization primitives: a
// spin lock, an IRQ-masking lock, and a yielding counting semaphore. All
// three are grounded on original_source/src/sync.rs and
// original_source/src/platform/raspi3/semaphore.rs, expressed with Go
// generics instead of Rust's UnsafeCell+guard pattern.
package ksync

import "sync/atomic"

// Spin guards a value of type T with a compare-and-swap spin loop. Unlike
// sync.Mutex it never parks a goroutine — appropriate for code that may run
// with interrupts masked, where there is nothing to hand the CPU to.
type Spin[T any] struct {
	locked atomic.Bool
	value  T
}

// NewSpin constructs a Spin already holding value.
func NewSpin[T any](value T) *Spin[T] {
	return &Spin[T]{value: value}
}

// SpinGuard holds exclusive access to the guarded value until Unlock.
type SpinGuard[T any] struct {
	s *Spin[T]
}

// Lock spins with acquire-ordering compare-exchange until it observes the
// lock transition false -> true.
func (s *Spin[T]) Lock() *SpinGuard[T] {
	for !s.locked.CompareAndSwap(false, true) {
		// busy-wait: no scheduler to yield to while holding a spin lock
	}
	return &SpinGuard[T]{s: s}
}

// Get returns the guarded value.
func (g *SpinGuard[T]) Get() T {
	return g.s.value
}

// Set replaces the guarded value.
func (g *SpinGuard[T]) Set(v T) {
	g.s.value = v
}

// Unlock releases the lock with release-ordering.
func (g *SpinGuard[T]) Unlock() {
	g.s.locked.Store(false)
}
