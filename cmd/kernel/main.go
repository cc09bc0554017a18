// Command kernel is the freestanding entry point linked into the board
// image. Grounded on the teacher's src/kernel.go: a KernelMain invoked
// directly by the boot/reset assembly stub (an external collaborator, §1
// non-goals) with board-supplied values, plus a dummy main() that exists
// only so `go build` accepts the package — main() is never reached on real
// hardware, exactly as the teacher documents at its own call site.
package main

import (
	"github.com/iansmith/mazarin-kernel/internal/arch"
	"github.com/iansmith/mazarin-kernel/internal/block"
	"github.com/iansmith/mazarin-kernel/internal/console"
	"github.com/iansmith/mazarin-kernel/internal/except"
	"github.com/iansmith/mazarin-kernel/internal/kernel"
	"github.com/iansmith/mazarin-kernel/internal/sched"
)

// heapRegionSize is a 64 MiB board RAM figure. Nothing reads it: the page
// allocator and heap span the heap slice the boot stub passes to
// KernelMain.
const heapRegionSize = 64 * 1024 * 1024

// BootThreadName is the name recorded for the bootstrap thread the kernel
// is already running on at the moment KernelMain is entered (§4.5).
const BootThreadName = "boot"

// KernelMain is called directly by the board's boot/reset assembly stub
// once it has dropped to EL1, installed the vector base register, and set
// up an initial stack (§1's declared external collaborator boundary). regs,
// controller, sink, timer, and blockDevice are board-specific drivers the
// stub constructs and hands in; this function never reaches into MMIO
// itself (§6: "the kernel never addresses MMIO directly").
//
//go:nosplit
//go:noinline
func KernelMain(regs arch.SystemRegisters, controller except.InterruptController, sink console.Sink, timer sched.Timer, heap []byte, blockDevice block.Device, volumeStart, volumeEnd block.Address) {
	regs.WriteDAIFSet(arch.DAIFMaskIRQ)

	k := kernel.Boot(kernel.Config{
		Registers:   regs,
		Controller:  controller,
		Sink:        sink,
		Timer:       timer,
		Memory:      heap,
		BlockDevice: blockDevice,
		VolumeStart: volumeStart,
		VolumeEnd:   volumeEnd,
		BootThread:  BootThreadName,
	})
	k.Console.Writefln("mazarin: boot thread %q running", BootThreadName)

	regs.WriteDAIFClr(arch.DAIFMaskIRQ)

	// From here, all forward progress is driven by the exception vector
	// assembly calling k.Vector.HandleSynchronous / HandleInterrupt and
	// restoring k.Vector.CurrentFrame() on every return; this function
	// itself never returns on real hardware.
	for {
	}
}

// main exists only to satisfy `go build`; the assembly boot stub calls
// KernelMain directly and never executes this function.
func main() {
	for {
	}
}
