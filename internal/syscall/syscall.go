// Package syscall implements the kernel's system-call dispatcher: decoding
// the closed syscall-number enumeration out of a trapped thread's saved
// frame, validating its arguments, and driving the scheduler and object
// table to produce the documented effect (§4.6). Grounded on
// original_source/src/syscall.rs and original_source/src/platform/raspi3/
// syscall_handler.rs, with the source's single giant match-on-number
// function split one case per method so each syscall's argument marshalling
// stays next to its own doc comment, in the style internal/sched already
// uses for one-method-per-transition.
package syscall

import (
	"strings"

	"github.com/iansmith/mazarin-kernel/internal/console"
	"github.com/iansmith/mazarin-kernel/internal/elf"
	"github.com/iansmith/mazarin-kernel/internal/except"
	"github.com/iansmith/mazarin-kernel/internal/fat32"
	"github.com/iansmith/mazarin-kernel/internal/kobj"
	"github.com/iansmith/mazarin-kernel/internal/kpanic"
	"github.com/iansmith/mazarin-kernel/internal/mmu"
	"github.com/iansmith/mazarin-kernel/internal/sched"
)

// Number is one of the closed set of syscall numbers the dispatcher accepts.
// Anything outside {1..10} is fatal at the vector (§6).
type Number uint64

const (
	Thread Number = 1
	Exit   Number = 2
	Wait   Number = 3
	Join   Number = 4
	Yield  Number = 5
	Open   Number = 6
	Close  Number = 7
	Read   Number = 8
	Write  Number = 9
	Exec   Number = 10
)

// StackTopVA is the fixed top of a new thread's user address space, where
// its single stack page is mapped (§4.6 Thread: "mapping the stack at the
// top of the user address space"). This is the same address §8's address-
// translation scenario exercises directly.
const StackTopVA = 0xFFFF_FFFF_FFFF_F000

// stackTopOfPage is the initial stack pointer for a freshly created thread:
// StackTopVA is already the final page below the 64-bit address space's
// upper bound, so the conventional "one past the last mapped byte" value
// would overflow; the mapped page's base address is used instead, which is
// where the board's runtime support code (an external collaborator per §1)
// is expected to establish its own frame before pushing anything.
const stackTopOfPage = StackTopVA

// maxThreadNameLen bounds how much of a NUL-terminated user-supplied thread
// name the dispatcher will copy in, since Thread's three-argument ABI
// carries no explicit name length.
const maxThreadNameLen = 64

// Dispatcher holds every kernel service the syscall table needs to touch:
// the scheduler (thread/object state), the mounted volume backing file:
// handles (nil if no volume mounted — Open("file:...") then always misses),
// the console backing stdio: handles, and a frame source for allocating a
// new thread's stack page and page tables.
type Dispatcher struct {
	Scheduler *sched.Scheduler
	Volume    *fat32.Volume
	Console   *console.Console
	Frames    mmu.FrameSource
}

// New constructs a Dispatcher. volume may be nil if no FAT32 volume mounted
// (§7: "the kernel may continue without a file system").
func New(scheduler *sched.Scheduler, volume *fat32.Volume, con *console.Console, frames mmu.FrameSource) *Dispatcher {
	return &Dispatcher{Scheduler: scheduler, Volume: volume, Console: con, Frames: frames}
}

// Dispatch reads frame's conventional syscall-number register and routes to
// the matching syscall implementation, writing a return value into frame's
// x0 slot before returning (§4.6). A syscall number outside {1..10} is a
// structural invariant violation (§6, §7) and halts the kernel via kpanic
// rather than returning.
func (d *Dispatcher) Dispatch(frame *except.Frame) {
	switch Number(frame.SyscallNumber()) {
	case Thread:
		d.thread(frame)
	case Exit:
		d.exit(frame)
	case Wait:
		d.wait(frame)
	case Join:
		d.join(frame)
	case Yield:
		d.yield(frame)
	case Open:
		d.open(frame)
	case Close:
		d.close(frame)
	case Read:
		d.read(frame)
	case Write:
		d.write(frame)
	case Exec:
		d.exec(frame)
	default:
		kpanic.Fatal(d.Console, "unknown syscall number %d", frame.SyscallNumber())
	}
}

// thread implements Thread(entry, name_ptr, arg): allocate a stack frame,
// build a fresh user table mapping it at StackTopVA, construct the child's
// initial saved frame with entry as its resume address and arg in its first
// argument slot, enqueue it Ready, and return its id (§4.6).
func (d *Dispatcher) thread(frame *except.Frame) {
	entry := frame.Arg(0)
	namePtr := frame.Arg(1)
	arg := frame.Arg(2)

	name := "thread"
	if current := d.Scheduler.CurrentThread(); current.UserTable != nil {
		if raw, err := current.UserTable.ReadAt(namePtr, maxThreadNameLen); err == nil {
			name = cString(raw)
		}
	}

	stackFrame, err := d.Frames.Allocate()
	if err != nil {
		// §7: "thread creation fails fatally when it cannot allocate a
		// stack frame."
		kpanic.Fatal(d.Console, "thread: out of physical frames for stack")
		return
	}

	userTable, err := mmu.New(d.Frames)
	if err != nil {
		kpanic.Fatal(d.Console, "thread: out of physical frames for user table")
		return
	}
	if err := userTable.MapUserPage(StackTopVA, uint64(stackFrame.Base)); err != nil {
		kpanic.Fatal(d.Console, "thread: failed mapping stack page: %v", err)
		return
	}

	childFrame := &except.Frame{}
	childFrame.ELR = entry
	childFrame.Regs[0] = arg
	childFrame.SP = stackTopOfPage // the mapped page's base; see stackTopOfPage

	id := d.Scheduler.AddThread(name, childFrame)
	if t, ok := d.Scheduler.Thread(id); ok {
		t.UserTable = userTable
	}

	frame.SetReturnValue(uint64(id))
}

// cString trims raw at its first NUL byte (or returns it unchanged if none
// is present within the copied window).
func cString(raw []byte) string {
	for i, b := range raw {
		if b == 0 {
			return string(raw[:i])
		}
	}
	return string(raw)
}

// exit implements Exit(code) (§4.5, §4.6).
func (d *Dispatcher) exit(frame *except.Frame) {
	code := frame.Arg(0)
	if err := d.Scheduler.ExitCurrentThread(code); err != nil {
		kpanic.Fatal(d.Console, "exit: %v", err)
	}
}

// wait implements Wait(micros): delay the current thread until
// now+micros (§4.6).
func (d *Dispatcher) wait(frame *except.Frame) {
	micros := frame.Arg(0)
	wake := d.Scheduler.Now() + micros
	if err := d.Scheduler.DelayCurrentThread(wake); err != nil {
		kpanic.Fatal(d.Console, "wait: %v", err)
	}
}

// join implements Join(id) (§4.5, §4.6). Joining a thread that is not a
// child of the caller is a structural invariant violation (§4.5 "fails-
// fatally").
func (d *Dispatcher) join(frame *except.Frame) {
	childID := sched.ThreadID(frame.Arg(0))
	if err := d.Scheduler.JoinCurrentThread(childID); err != nil {
		kpanic.Fatal(d.Console, "join: %v", err)
	}
}

// yield implements Yield: re-enqueue current at the ready-queue tail and
// switch (§4.6).
func (d *Dispatcher) yield(frame *except.Frame) {
	if err := d.Scheduler.YieldCurrentThread(); err != nil {
		kpanic.Fatal(d.Console, "yield: %v", err)
	}
}

// open implements Open(name_ptr, name_len): parse "<prefix>:<path>" and
// construct a File or Stdio object behind a fresh handle, or return 0 if the
// prefix is unknown or the path does not resolve (§4.6).
func (d *Dispatcher) open(frame *except.Frame) {
	namePtr := frame.Arg(0)
	nameLen := frame.Arg(1)

	current := d.Scheduler.CurrentThread()
	if current.UserTable == nil {
		frame.SetReturnValue(0)
		return
	}
	raw, err := current.UserTable.ReadAt(namePtr, int(nameLen))
	if err != nil {
		frame.SetReturnValue(0)
		return
	}

	prefix, path, ok := strings.Cut(string(raw), ":")
	if !ok {
		frame.SetReturnValue(0)
		return
	}

	switch prefix {
	case "file":
		if d.Volume == nil {
			frame.SetReturnValue(0)
			return
		}
		entry, found, err := d.Volume.Search(path)
		if err != nil || !found {
			frame.SetReturnValue(0)
			return
		}
		file, err := kobj.NewFile(d.Volume, entry)
		if err != nil {
			frame.SetReturnValue(0)
			return
		}
		frame.SetReturnValue(uint64(d.Scheduler.AddObject(file)))
	case "stdio":
		frame.SetReturnValue(uint64(d.Scheduler.AddObject(kobj.NewStdio(d.Console))))
	default:
		frame.SetReturnValue(0)
	}
}

// close implements Close(handle): remove the handle from the current
// thread's object table. Closing an unknown handle is a no-op (§4.6).
func (d *Dispatcher) close(frame *except.Frame) {
	d.Scheduler.CloseObject(sched.ObjectHandle(frame.Arg(0)))
}

// read implements Read(handle, buf_ptr, len): resolve handle, read into a
// kernel-side buffer, copy it out to the caller's buffer, and return the
// byte count. An invalid handle, or a user buffer that does not resolve,
// returns 0 rather than terminating the caller (§4.6, §7, §9 open
// question).
func (d *Dispatcher) read(frame *except.Frame) {
	handle := sched.ObjectHandle(frame.Arg(0))
	bufPtr := frame.Arg(1)
	length := frame.Arg(2)

	obj, ok := d.Scheduler.ObjectForHandle(handle)
	if !ok {
		frame.SetReturnValue(0)
		return
	}

	buf := make([]byte, length)
	n, err := obj.Read(buf)
	if err != nil {
		frame.SetReturnValue(0)
		return
	}

	current := d.Scheduler.CurrentThread()
	if current.UserTable != nil && n > 0 {
		if _, err := current.UserTable.WriteAt(bufPtr, buf[:n]); err != nil {
			frame.SetReturnValue(0)
			return
		}
	}
	frame.SetReturnValue(uint64(n))
}

// write implements Write(handle, buf_ptr, len), symmetric to read: copy the
// caller's buffer in, then hand it to the object (§4.6).
func (d *Dispatcher) write(frame *except.Frame) {
	handle := sched.ObjectHandle(frame.Arg(0))
	bufPtr := frame.Arg(1)
	length := frame.Arg(2)

	obj, ok := d.Scheduler.ObjectForHandle(handle)
	if !ok {
		frame.SetReturnValue(0)
		return
	}

	current := d.Scheduler.CurrentThread()
	var buf []byte
	if current.UserTable != nil {
		raw, err := current.UserTable.ReadAt(bufPtr, int(length))
		if err != nil {
			frame.SetReturnValue(0)
			return
		}
		buf = raw
	} else {
		buf = make([]byte, length)
	}

	n, err := obj.Write(buf)
	if err != nil {
		frame.SetReturnValue(0)
		return
	}
	frame.SetReturnValue(uint64(n))
}

// exec implements Exec(path_ptr, path_len): resolve and read the named
// file, parse its ELF64 header (§4.7a), and return 0 — program loading past
// header validation is an explicit non-goal (§1, §4.6), so a syntactically
// valid header still yields the same "not implemented" result a missing
// file would.
func (d *Dispatcher) exec(frame *except.Frame) {
	pathPtr := frame.Arg(0)
	pathLen := frame.Arg(1)

	current := d.Scheduler.CurrentThread()
	if current.UserTable == nil || d.Volume == nil {
		frame.SetReturnValue(0)
		return
	}

	raw, err := current.UserTable.ReadAt(pathPtr, int(pathLen))
	if err != nil {
		frame.SetReturnValue(0)
		return
	}

	entry, found, err := d.Volume.Search(string(raw))
	if err != nil || !found {
		frame.SetReturnValue(0)
		return
	}

	data := make([]byte, entry.FileSize)
	if _, err := d.Volume.ReadFile(entry, data); err != nil {
		frame.SetReturnValue(0)
		return
	}

	if _, err := elf.ParseHeader64(data); err != nil {
		frame.SetReturnValue(0)
		return
	}

	frame.SetReturnValue(0)
}
