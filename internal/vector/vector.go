// Package vector implements the Go side of the exception/interrupt entry
// path (§4.4): given a trapped frame and the syndrome/source the assembly
// vector decoded, route to the syscall dispatcher, the scheduler's tick
// handler, or a fatal diagnostic halt, then prepare the state the assembly
// needs to resume the new current thread. Grounded on the teacher's
// exceptions.go handleException switch-on-EC dispatch, generalized from a
// single flat function with inline UART prints into named methods that
// reuse this kernel's console/kpanic packages instead of direct UART pokes.
package vector

import (
	"github.com/iansmith/mazarin-kernel/internal/arch"
	"github.com/iansmith/mazarin-kernel/internal/console"
	"github.com/iansmith/mazarin-kernel/internal/except"
	"github.com/iansmith/mazarin-kernel/internal/kpanic"
	"github.com/iansmith/mazarin-kernel/internal/sched"
	"github.com/iansmith/mazarin-kernel/internal/syscall"
)

// TimerQuantum is the default rearm period for the scheduler tick (§4.4
// step 4: "rearms for the next quantum (default 1 ms)").
const TimerQuantum = 1000 // microseconds

// Vector holds everything the entry path needs to route a trap: the
// scheduler whose current-thread pointer decides what gets restored, the
// syscall dispatcher, the console for fault diagnostics, the register
// interface for installing a new address space, and the board's interrupt
// controller (an external collaborator per §1).
type Vector struct {
	Scheduler  *sched.Scheduler
	Dispatcher *syscall.Dispatcher
	Console    *console.Console
	Regs       arch.SystemRegisters
	Controller except.InterruptController

	installedTable uintptr
	haveInstalled  bool
}

// New constructs a Vector wiring together the kernel services the entry
// path consults under interrupt mask (§4.4 guarantee).
func New(scheduler *sched.Scheduler, dispatcher *syscall.Dispatcher, con *console.Console, regs arch.SystemRegisters, controller except.InterruptController) *Vector {
	return &Vector{
		Scheduler:  scheduler,
		Dispatcher: dispatcher,
		Console:    con,
		Regs:       regs,
		Controller: controller,
	}
}

// HandleSynchronous is called by the assembly vector for any synchronous
// exception, with esr the raw ESR_EL1 value read at trap time and frame the
// just-pushed saved register frame (§4.4 steps 1-3, 5). It decodes the
// exception class, routes supervisor calls to the syscall dispatcher, and
// halts the kernel on any other synchronous fault.
func (v *Vector) HandleSynchronous(frame *except.Frame, esr uint64) {
	ec := arch.ExceptionClass(esr)
	switch arch.ClassifySynchronous(ec) {
	case arch.CategorySupervisorCall:
		v.Dispatcher.Dispatch(frame)
	case arch.CategorySynchronousFault:
		kpanic.Fatal(v.Console, "synchronous fault: ec=%#x elr=%#x spsr=%#x", ec, frame.ELR, frame.SPSR)
		return
	}
	v.prepareReturn()
}

// HandleInterrupt is called by the assembly vector for an IRQ, after it has
// asked the interrupt controller which source fired (§4.4 step 2, step 4).
// The caller has already acknowledged the interrupt. A timer interrupt
// rearms the timer, wakes any sleeping threads whose wake time has passed,
// and runs one scheduler tick. Any other interrupt source is ignored — routing it to a
// specific driver is an external collaborator's concern (§1 non-goals).
func (v *Vector) HandleInterrupt(frame *except.Frame, source except.InterruptSource) {
	switch source {
	case except.InterruptSourceTimer:
		v.Controller.RearmTimer(TimerQuantum)
		v.Scheduler.WakeSleeping()
		if err := v.Scheduler.Schedule(); err != nil {
			kpanic.Fatal(v.Console, "timer tick: %v", err)
			return
		}
	case except.InterruptSourceOther:
		// Acknowledged by the caller already; no kernel-level handler for
		// non-timer sources is in scope.
	}
	v.prepareReturn()
}

// CurrentFrame returns the saved register frame of the thread the assembly
// restore path must resume (§4.4 step 6: "reads the scheduler's current
// thread, loads its saved stack-pointer, restores its frame").
func (v *Vector) CurrentFrame() *except.Frame {
	return v.Scheduler.CurrentThread().StackPointer
}

// prepareReturn installs the current thread's user translation table if it
// differs from whichever table was last installed, so the assembly return
// path resumes into the correct address space (§4.4 step 6: "switches the
// user translation-table base if the new current thread differs from the
// previous current").
func (v *Vector) prepareReturn() {
	current := v.Scheduler.CurrentThread()
	if current.UserTable == nil {
		return
	}
	base := current.UserTable.Base()
	if v.haveInstalled && base == v.installedTable {
		return
	}
	current.UserTable.Install(v.Regs)
	v.installedTable = base
	v.haveInstalled = true
}
