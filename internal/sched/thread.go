// Package sched implements the kernel's preemptive thread scheduler: a
// current-thread pointer, a FIFO ready queue, a sleep queue, and the
// exit/join state machine, grounded on
// original_source/src/platform/raspi3/scheduler.rs and
// original_source/src/platform/raspi3/thread.rs. Cyclic parent/child
// Arc<Thread> references in the source become an owning arena keyed by
// ThreadID, with children and parent stored as plain ids (§9 design note).
package sched

import (
	"errors"

	"github.com/iansmith/mazarin-kernel/internal/except"
	"github.com/iansmith/mazarin-kernel/internal/mmu"
)

// ThreadID uniquely and monotonically identifies a thread for its lifetime.
type ThreadID uint64

// ObjectHandle identifies a KernelObject within one thread's handle table.
type ObjectHandle uint64

// KernelObject is a polymorphic per-thread resource reachable by handle:
// files and the serial console both satisfy it (§3).
type KernelObject interface {
	Read(buffer []byte) (int, error)
	Write(buffer []byte) (int, error)
}

// Thread is the unit of scheduling (§3).
type Thread struct {
	ID           ThreadID
	Name         string
	StackPointer *except.Frame
	Status       Status

	Parent    ThreadID
	HasParent bool
	Children  []ThreadID

	Objects map[ObjectHandle]KernelObject

	KernelTable *mmu.Table
	UserTable   *mmu.Table
}

// ErrNoReadyThread reports that the ready queue was empty when a scheduling
// decision needed a next thread — a structural invariant violation, since a
// kernel with no runnable thread has nothing left to do (§4.5, §7).
var ErrNoReadyThread = errors.New("sched: no thread on ready queue")

// ErrUnknownThread reports a ThreadID with no corresponding arena entry.
var ErrUnknownThread = errors.New("sched: unknown thread id")

// ErrNotAChild reports a Join targeting an id that is not a child of the
// calling thread.
var ErrNotAChild = errors.New("sched: join target is not a child of the calling thread")
