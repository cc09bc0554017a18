package ksync

import "github.com/iansmith/mazarin-kernel/internal/arch"

// IRQLock guards state touched by both thread context and interrupt
// handlers — the scheduler, the object-handle tables, the physical page
// bitmap. Acquire masks interrupts (so no handler can observe a half-updated
// value on this core) before granting access; release restores whatever
// interrupt-mask state was in effect before acquire.
//
// Grounded on original_source/src/aarch64/interrupt.rs's IRQLock/IRQLockGuard.
type IRQLock[T any] struct {
	regs  arch.SystemRegisters
	value T
}

// NewIRQLock constructs a lock around value, using regs to mask/unmask
// interrupts on acquire/release.
func NewIRQLock[T any](regs arch.SystemRegisters, value T) *IRQLock[T] {
	return &IRQLock[T]{regs: regs, value: value}
}

// IRQLockGuard holds exclusive, interrupt-masked access until Unlock.
type IRQLockGuard[T any] struct {
	lock      *IRQLock[T]
	wasMasked bool
}

// Lock reads the current interrupt-mask bit, masks interrupts, and returns a
// guard that restores the prior state on Unlock.
func (l *IRQLock[T]) Lock() *IRQLockGuard[T] {
	wasMasked := l.regs.ReadDAIF()&arch.DAIFMaskIRQ != 0
	l.regs.WriteDAIFSet(arch.DAIFMaskIRQ)
	return &IRQLockGuard[T]{lock: l, wasMasked: wasMasked}
}

func (g *IRQLockGuard[T]) Get() T {
	return g.lock.value
}

func (g *IRQLockGuard[T]) Set(v T) {
	g.lock.value = v
}

// Unlock restores the interrupt-mask state observed at Lock time.
func (g *IRQLockGuard[T]) Unlock() {
	if !g.wasMasked {
		g.lock.regs.WriteDAIFClr(arch.DAIFMaskIRQ)
	}
}
