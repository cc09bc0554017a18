package kpanic

import (
	"bytes"
	"strings"
	"testing"
)

func TestFatalWritesDiagnosticAndHalts(t *testing.T) {
	prevHalt := Halt
	defer func() { Halt = prevHalt }()

	halted := false
	Halt = func() { halted = true }

	var buf bytes.Buffer
	Fatal(&buf, "invalid syscall number %d", 42)

	if !halted {
		t.Fatalf("Fatal did not call Halt")
	}
	if got := buf.String(); !strings.Contains(got, "FATAL: invalid syscall number 42") {
		t.Fatalf("Fatal output = %q, want it to contain the formatted message", got)
	}
}
