// Package kernel bundles every kernel-core service into the single
// ambient instance the boot path constructs exactly once (§9 design note:
// "a single *kernel.Kernel constructed once in cmd/kernel/main.go's boot
// path"). Grounded on the teacher's own single-ambient-Kernel shape
// (src/mazboot/golang/main/kernel.go holds every piece of shared boot
// state as package-level values); here the same pieces are fields on one
// struct instead of package globals, since this kernel is not limited to
// a single translation unit the way the teacher's //go:linkname-heavy boot
// package is.
package kernel

import (
	"github.com/iansmith/mazarin-kernel/internal/arch"
	"github.com/iansmith/mazarin-kernel/internal/block"
	"github.com/iansmith/mazarin-kernel/internal/console"
	"github.com/iansmith/mazarin-kernel/internal/except"
	"github.com/iansmith/mazarin-kernel/internal/fat32"
	"github.com/iansmith/mazarin-kernel/internal/pagealloc"
	"github.com/iansmith/mazarin-kernel/internal/sched"
	"github.com/iansmith/mazarin-kernel/internal/syscall"
	"github.com/iansmith/mazarin-kernel/internal/vector"
)

// Config carries the external collaborators the boot path must supply
// before a Kernel can be constructed: the board's register access, its
// interrupt controller, its console sink, its free-running timer, its
// physical memory region backing the page allocator, and (optionally) the
// block device range a FAT32 volume is mounted from. All of these are
// board-specific drivers outside this kernel's scope (§1 non-goals, §6) —
// the boot stub assembles the real ones; tests and hosted builds supply
// fakes (§10, matching arch.FakeRegisters/block.MemoryDevice).
type Config struct {
	Registers   arch.SystemRegisters
	Controller  except.InterruptController
	Sink        console.Sink
	Timer       sched.Timer
	Memory      []byte
	BlockDevice block.Device
	VolumeStart block.Address
	VolumeEnd   block.Address
	BootThread  string
}

// Kernel is the one sanctioned piece of global kernel state (§9): every
// subsystem the exception entry path and the syscall dispatcher need,
// constructed once by Boot and then reached only through the package-level
// pointer Current, set exactly once before interrupts are unmasked.
type Kernel struct {
	Console    *console.Console
	Frames     *pagealloc.Allocator
	Scheduler  *sched.Scheduler
	Dispatcher *syscall.Dispatcher
	Vector     *vector.Vector
	Volume     *fat32.Volume
}

// Current is the single well-known location the exception entry trampoline
// reads to find the kernel (§9: "interrupt handlers retrieve it through a
// single well-known location"). Set exactly once, by Boot.
var Current *Kernel

// Boot constructs every kernel-core service from cfg and stores the result
// in Current. It must run with interrupts still masked; the caller unmasks
// them only after Boot returns (§4.4 guarantee: scheduler/object-table
// state is touched only with interrupts masked).
//
// Mounting a FAT32 volume is best-effort: if cfg.BlockDevice is nil or the
// scanned range contains no valid boot sector, the kernel continues without
// a file system (§7) rather than failing boot.
func Boot(cfg Config) *Kernel {
	con := console.New(cfg.Sink)
	frames := pagealloc.NewAllocator(cfg.Memory)
	scheduler := sched.NewScheduler(cfg.Timer, cfg.BootThread)

	var volume *fat32.Volume
	if cfg.BlockDevice != nil {
		if v, err := fat32.Mount(cfg.BlockDevice, cfg.VolumeStart, cfg.VolumeEnd); err == nil {
			volume = v
		} else {
			con.Writefln("boot: no FAT32 volume mounted: %v", err)
		}
	}

	dispatcher := syscall.New(scheduler, volume, con, frames)
	vec := vector.New(scheduler, dispatcher, con, cfg.Registers, cfg.Controller)

	k := &Kernel{
		Console:    con,
		Frames:     frames,
		Scheduler:  scheduler,
		Dispatcher: dispatcher,
		Vector:     vec,
		Volume:     volume,
	}
	Current = k
	return k
}
