// Package mmu builds and walks the four-level AArch64 translation tables
// used to give each thread its own user address space. Grounded on
// original_source/src/platform/raspi3/page_table.rs's PageTable, with the
// level walk generalized from that file's four separately-named accessors
// (get_pgd/get_pud/get_pld/get_pte) to arch.DecomposeVA's level array.
package mmu

import (
	"errors"
	"unsafe"

	"github.com/iansmith/mazarin-kernel/internal/arch"
	"github.com/iansmith/mazarin-kernel/internal/pagealloc"
)

// ErrMisaligned is returned by MapUserPage when the virtual or physical
// address is not page-aligned (a nonzero in-page offset).
var ErrMisaligned = errors.New("mmu: address is not page-aligned")

// FrameSource is the narrow slice of pagealloc.Allocator the table manager
// needs: a place to get zeroed backing memory for new intermediate tables
// and leaf frames.
type FrameSource interface {
	Allocate() (pagealloc.Frame, error)
	Bytes(pagealloc.Frame) []byte
}

// table is the in-memory representation of one 512-entry translation table
// level, addressed directly through its physical (here, process) base
// address — mirrors page_table.rs's `type Table = [usize; 512]` plus the
// pointer casts its walk performs at every level.
type table [arch.PteCount]uint64

func tableAt(base uintptr) *table {
	return (*table)(unsafe.Pointer(base))
}

// Table is one thread's translation table root — either its kernel table or
// its user table per §3's data model. Both are built and walked identically;
// only the virtual addresses written into them differ by convention.
type Table struct {
	base   uintptr
	frames FrameSource
}

// New allocates a single zeroed frame as the table's top level (level 0)
// and returns a Table rooted there.
func New(frames FrameSource) (*Table, error) {
	frame, err := frames.Allocate()
	if err != nil {
		return nil, err
	}
	bytes := frames.Bytes(frame)
	for i := range bytes[:arch.TableSize] {
		bytes[i] = 0
	}
	return &Table{base: frame.Base, frames: frames}, nil
}

// Base returns the table's physical base address, the value installed into
// TTBR0 to activate this address space (§4.3 "installing a table").
func (t *Table) Base() uintptr {
	return t.base
}

// MapUserPage decomposes virtualAddr into four 9-bit level indices, walking
// t creating any missing intermediate tables (zeroed on allocation, linked
// in with the table-descriptor encoding), then writes a leaf entry for
// physicalAddr with user-read/write and access-flag bits set.
func (t *Table) MapUserPage(virtualAddr, physicalAddr uint64) error {
	idx := arch.DecomposeVA(virtualAddr)
	if idx.Offset != 0 {
		return ErrMisaligned
	}
	if physicalAddr&(1<<arch.PageShift-1) != 0 {
		return ErrMisaligned
	}

	current := tableAt(t.base)
	for level := 0; level < 3; level++ {
		entry := current[idx.Level[level]]

		var next *table
		if entry&arch.PteValid != 0 {
			next = tableAt(uintptr(entry & arch.PhysAddrMask))
		} else {
			frame, err := t.frames.Allocate()
			if err != nil {
				return err
			}
			bytes := t.frames.Bytes(frame)
			for i := range bytes[:arch.TableSize] {
				bytes[i] = 0
			}
			current[idx.Level[level]] = (uint64(frame.Base) & arch.PhysAddrMask) | arch.PteValid | arch.PteTable
			next = tableAt(frame.Base)
		}
		current = next
	}

	// Level 3 (leaf): a page descriptor, not a table descriptor, but the
	// architecture reuses the same valid+descriptor-type bit pattern.
	current[idx.Level[3]] = (physicalAddr & arch.PhysAddrMask) |
		arch.PteValid | arch.PteTable | arch.PteAF | arch.PteAPRWAny
	return nil
}

// IsAddrMapped performs a non-mutating walk of t, returning false as soon as
// any intermediate level (or the final leaf) is invalid.
func (t *Table) IsAddrMapped(virtualAddr uint64) bool {
	idx := arch.DecomposeVA(virtualAddr)

	current := tableAt(t.base)
	for level := 0; level < 4; level++ {
		entry := current[idx.Level[level]]
		if entry&arch.PteValid == 0 {
			return false
		}
		if level < 3 {
			current = tableAt(uintptr(entry & arch.PhysAddrMask))
		}
	}
	return true
}

// Install writes t's base address into the architectural TTBR0 register via
// regs, making it the active EL0 address space on this core. The hardware
// invalidates stale TLB entries per the platform's configured regime (§4.3);
// this call does not itself flush anything.
func (t *Table) Install(regs arch.SystemRegisters) {
	regs.WriteTTBR0(uint64(t.base))
}

// ErrNotMapped is returned by Translate, ReadAt, and WriteAt when virtualAddr
// falls outside every page mapped into the table.
var ErrNotMapped = errors.New("mmu: virtual address is not mapped")

// Translate performs the same non-mutating walk as IsAddrMapped but returns
// the resolved physical address (leaf frame base plus in-page offset)
// instead of a bare boolean. Used by syscall argument marshalling to turn a
// user pointer into kernel-addressable bytes (§4.6).
func (t *Table) Translate(virtualAddr uint64) (uint64, error) {
	idx := arch.DecomposeVA(virtualAddr)

	current := tableAt(t.base)
	for level := 0; level < 4; level++ {
		entry := current[idx.Level[level]]
		if entry&arch.PteValid == 0 {
			return 0, ErrNotMapped
		}
		if level < 3 {
			current = tableAt(uintptr(entry & arch.PhysAddrMask))
			continue
		}
		return (entry & arch.PhysAddrMask) | idx.Offset, nil
	}
	return 0, ErrNotMapped
}

const leafPageSize = uint64(1) << arch.PageShift

// ReadAt copies length bytes out of the address space starting at
// virtualAddr, translating one leaf page at a time so a read may span
// multiple mapped pages. It fails as soon as any page in the range is
// unmapped, mirroring a real page fault on a syscall argument buffer.
func (t *Table) ReadAt(virtualAddr uint64, length int) ([]byte, error) {
	out := make([]byte, 0, length)
	remaining := length
	va := virtualAddr

	for remaining > 0 {
		phys, err := t.Translate(va)
		if err != nil {
			return nil, err
		}

		inPage := int(va % leafPageSize)
		chunk := int(leafPageSize) - inPage
		if chunk > remaining {
			chunk = remaining
		}

		out = append(out, physBytes(phys, chunk)...)
		remaining -= chunk
		va += uint64(chunk)
	}
	return out, nil
}

// WriteAt copies data into the address space starting at virtualAddr,
// page-walking the same way ReadAt does, and returns the number of bytes
// written.
func (t *Table) WriteAt(virtualAddr uint64, data []byte) (int, error) {
	remaining := len(data)
	va := virtualAddr
	written := 0

	for remaining > 0 {
		phys, err := t.Translate(va)
		if err != nil {
			return written, err
		}

		inPage := int(va % leafPageSize)
		chunk := int(leafPageSize) - inPage
		if chunk > remaining {
			chunk = remaining
		}

		copy(physBytes(phys, chunk), data[written:written+chunk])
		written += chunk
		remaining -= chunk
		va += uint64(chunk)
	}
	return written, nil
}

// physBytes views length bytes of physical memory starting at addr as a Go
// byte slice. Physical addresses in this kernel are ordinary process
// addresses (the hosted test builds back frames with real Go memory, and
// the board's identity/offset mapping does the same in production), so this
// is the same unsafe-pointer idiom tableAt already uses one level up.
func physBytes(addr uint64, length int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), length)
}
