// Package kpanic is the kernel's one sanctioned fatal path: a named helper
// rather than bare panic, mirroring the Rust source's panic!()/expect() call
// sites and the teacher's abortBoot halt helper (src/mazboot/golang/main/
// kernel.go). Every other fallible operation in this kernel returns
// (T, error); kpanic.Fatal is reserved for §7's "structural invariant
// broken at kernel entry" category, where recovery is explicitly undefined.
package kpanic

import (
	"fmt"
	"io"
)

// Halt is the action taken after a fatal diagnostic has been printed. The
// production default parks the core in a blink loop (never returns); tests
// override it to something observable instead of hanging the process.
var Halt = func() {
	for {
	}
}

// Fatal writes a "FATAL: " diagnostic to w and then calls Halt. It never
// returns under the production Halt; callers should treat it the same way
// they would a panic that is guaranteed not to be recovered.
func Fatal(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "FATAL: "+format+"\n", args...)
	Halt()
}
