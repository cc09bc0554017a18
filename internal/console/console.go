// Package console is the kernel's ambient logging surface: a thin wrapper
// over the external byte-stream sink (§6 "Console interface") used both for
// kernel diagnostics and by stdio: kernel objects. The board-specific sink
// (UART MMIO) is an external collaborator per §1's non-goals; this package
// only knows about the narrow Sink interface below, matching the teacher's
// own split between uartPutc (the real MMIO writer, out of scope here) and
// the formatting helpers layered on top of it.
package console

import (
	"fmt"
	"io"
)

// Sink is the external byte-stream collaborator this package formats onto:
// a single character writer and a newline helper, mirroring
// original_source/src/device/console.rs's Console trait.
type Sink interface {
	WriteChar(c byte)
	Newline()
}

// Console adapts a Sink into an io.Writer so fmt.Fprintf-style formatting
// can be used once the heap allocator is live, and exposes the Writef/
// Writefln helpers the rest of the kernel (and stdio: objects) call.
type Console struct {
	sink Sink
}

// New wraps sink in a Console.
func New(sink Sink) *Console {
	return &Console{sink: sink}
}

// Write implements io.Writer by pushing each byte to the sink one at a time,
// translating '\n' to the sink's Newline hook so the wire format matches
// what a direct WriteChar/Newline caller would produce.
func (c *Console) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			c.sink.Newline()
			continue
		}
		c.sink.WriteChar(b)
	}
	return len(p), nil
}

// Writef formats args per format without a trailing newline.
func (c *Console) Writef(format string, args ...interface{}) {
	fmt.Fprintf(c, format, args...)
}

// Writefln formats args per format followed by a newline.
func (c *Console) Writefln(format string, args ...interface{}) {
	fmt.Fprintf(c, format+"\n", args...)
}

var _ io.Writer = (*Console)(nil)

// DumpRegisters writes a human-readable dump of a saved frame's general
// registers, ELR and SPSR. Neither kpanic.Fatal nor the vector's
// synchronous-fault path calls it; they write a one-line diagnostic
// instead. Modeled on the register-table formatting style of
// gmofishsauce-wut4's terminal-emulated CPU dumps (style grounding only; no
// import, as noted in SPEC_FULL.md's domain-stack survey).
func (c *Console) DumpRegisters(regs [31]uint64, elr, spsr uint64) {
	c.Writefln("--- register dump ---")
	for i := 0; i < len(regs); i += 2 {
		if i+1 < len(regs) {
			c.Writefln("x%-2d = %#016x   x%-2d = %#016x", i, regs[i], i+1, regs[i+1])
		} else {
			c.Writefln("x%-2d = %#016x", i, regs[i])
		}
	}
	c.Writefln("elr  = %#016x", elr)
	c.Writefln("spsr = %#016x", spsr)
}
