// Package kobj provides the two concrete KernelObject implementations the
// Open syscall can construct: a FAT32 file and the serial console, grounded
// on original_source/src/platform/raspi3/kernel_object.rs. It lives above
// internal/sched so that sched stays free of a dependency on internal/fat32
// and internal/console (§9 design note: KernelObject interface and
// ObjectHandle type live in sched since Thread owns the handle table;
// concrete implementations live in a higher package that imports sched
// one-directionally).
package kobj

import (
	"github.com/iansmith/mazarin-kernel/internal/console"
	"github.com/iansmith/mazarin-kernel/internal/fat32"
)

// File is a read-only handle onto a FAT32 directory entry's bytes. The
// entry's full contents are read once at open time; Read then serves
// sequential slices from that in-memory copy.
type File struct {
	data   []byte
	offset int
}

// NewFile reads entry's full contents out of volume and wraps them as a
// sched.KernelObject.
func NewFile(volume *fat32.Volume, entry fat32.DirEntry) (*File, error) {
	data := make([]byte, entry.FileSize)
	if _, err := volume.ReadFile(entry, data); err != nil {
		return nil, err
	}
	return &File{data: data}, nil
}

// Read fills buffer starting from the object's current read offset and
// advances it, stopping at the file's end (§3 "read(buffer) -> bytes_read").
func (f *File) Read(buffer []byte) (int, error) {
	remaining := len(f.data) - f.offset
	if remaining <= 0 {
		return 0, nil
	}

	n := copy(buffer, f.data[f.offset:])
	f.offset += n
	return n, nil
}

// Write writes nothing and returns 0 with a nil error: the reader is
// read-only (§4.7 non-goal: no writes).
func (f *File) Write(buffer []byte) (int, error) {
	return 0, nil
}

// Stdio routes reads and writes through the serial console (§3).
type Stdio struct {
	console *console.Console
}

// NewStdio wraps c as a sched.KernelObject.
func NewStdio(c *console.Console) *Stdio {
	return &Stdio{console: c}
}

// Read is not supported by the console in this kernel; it reports no bytes
// available rather than blocking, matching the source's default
// KernelObject.read() of 0.
func (s *Stdio) Read(buffer []byte) (int, error) {
	return 0, nil
}

// Write sends buffer to the serial console.
func (s *Stdio) Write(buffer []byte) (int, error) {
	return s.console.Write(buffer)
}
