// Package heap implements the kernel's general-purpose allocator: a
// singly-linked first-fit free list with a sentinel head and no
// coalescing on free. Grounded on
// original_source/src/allocator/ll_alloc.rs; the decision to omit
// coalescing (left open by §9's open questions) follows the source exactly
// rather than the teacher's heap.go, which does coalesce.
package heap

import (
	"errors"
	"unsafe"
)

// ErrNoFit is returned by Allocate when no free block satisfies the request.
var ErrNoFit = errors.New("heap: no block large enough")

type freeBlock struct {
	size uint64
	next *freeBlock
}

var headerSize = uint(unsafe.Sizeof(freeBlock{}))

// Stats tracks the allocator's running accounting, per §8 property 2.
type Stats struct {
	FreeSpace uint64
	Blocks    int
	Allocs    uint64
	Frees     uint64
}

// Heap manages a single contiguous byte region as a free-list allocator.
type Heap struct {
	sentinel freeBlock // zero-size; sentinel.next heads the real free list
	stats    Stats
}

// New initializes a Heap over backing. The entire region starts as one free
// block.
func New(backing []byte) *Heap {
	h := &Heap{}
	h.initRegion(backing)
	return h
}

func (h *Heap) initRegion(backing []byte) {
	if uint(len(backing)) < headerSize {
		h.sentinel.next = nil
		return
	}
	block := (*freeBlock)(unsafe.Pointer(&backing[0]))
	block.size = uint64(len(backing))
	block.next = nil
	h.sentinel.next = block
	h.stats.Blocks = 1
	h.stats.FreeSpace = uint64(len(backing))
}

func alignUp(addr uintptr, align uint) uintptr {
	a := uintptr(align)
	return (addr + a - 1) &^ (a - 1)
}

// Allocate finds the first free block that fits size bytes aligned to
// align, splits off any leading/trailing slack (each kept only if it is
// itself at least one header's worth of space), and returns a pointer to
// the exact requested region.
func (h *Heap) Allocate(size uint, align uint) (unsafe.Pointer, error) {
	if size < headerSize {
		size = headerSize
	}
	if align < uint(unsafe.Alignof(freeBlock{})) {
		align = uint(unsafe.Alignof(freeBlock{}))
	}

	prev := &h.sentinel
	block := h.sentinel.next

	for block != nil {
		blockStart := uintptr(unsafe.Pointer(block))
		blockEnd := blockStart + uintptr(block.size)

		start := alignUp(blockStart, align)
		end := start + uintptr(size)

		if end <= blockEnd {
			leadingSlack := start - blockStart
			trailingSlack := blockEnd - end

			if (leadingSlack == 0 || leadingSlack >= uintptr(headerSize)) &&
				(trailingSlack == 0 || trailingSlack >= uintptr(headerSize)) {
				h.partition(prev, block, blockStart, blockEnd, start, end, leadingSlack, trailingSlack)
				h.stats.Allocs++
				return unsafe.Pointer(start), nil
			}
		}

		prev = block
		block = block.next
	}

	return nil, ErrNoFit
}

// partition removes block from the free list and relinks zero, one, or two
// new free blocks in its place: a leading remainder if leadingSlack > 0, and
// a trailing remainder if trailingSlack > 0.
func (h *Heap) partition(prev, block *freeBlock, blockStart, blockEnd, start, end, leadingSlack, trailingSlack uintptr) {
	h.stats.Blocks--
	h.stats.FreeSpace -= uint64(block.size)

	next := block.next
	tail := prev

	if leadingSlack > 0 {
		leading := (*freeBlock)(unsafe.Pointer(blockStart))
		leading.size = uint64(leadingSlack)
		tail.next = leading
		tail = leading
		h.stats.Blocks++
		h.stats.FreeSpace += uint64(leadingSlack)
	}

	if trailingSlack > 0 {
		trailing := (*freeBlock)(unsafe.Pointer(end))
		trailing.size = uint64(trailingSlack)
		tail.next = trailing
		tail = trailing
		h.stats.Blocks++
		h.stats.FreeSpace += uint64(trailingSlack)
	}

	tail.next = next
}

// Free inserts a new free-block header at start, covering size bytes, at
// the head of the free list. Coalescing with neighboring free blocks is
// intentionally not performed.
func (h *Heap) Free(start unsafe.Pointer, size uint) {
	if size < headerSize {
		size = headerSize
	}

	block := (*freeBlock)(start)
	block.size = uint64(size)
	block.next = h.sentinel.next
	h.sentinel.next = block

	h.stats.Blocks++
	h.stats.FreeSpace += uint64(size)
	h.stats.Frees++
}

// Stats returns a snapshot of the allocator's running accounting.
func (h *Heap) Stats() Stats {
	return h.stats
}
