package arch

// FakeRegisters is a hosted-GOOS stand-in for SystemRegisters, used by the
// arch, mmu and vector tests that need DAIF state or a translation-table
// base register without real hardware. Not used by the board boot path.
type FakeRegisters struct {
	daif  uint64
	ttbr0 uint64
}

// NewFakeRegisters returns a FakeRegisters with interrupts unmasked.
func NewFakeRegisters() *FakeRegisters {
	return &FakeRegisters{}
}

func (f *FakeRegisters) ReadDAIF() uint64 { return f.daif }

func (f *FakeRegisters) WriteDAIFSet(mask uint64) { f.daif |= mask }

func (f *FakeRegisters) WriteDAIFClr(mask uint64) { f.daif &^= mask }

func (f *FakeRegisters) WriteTTBR0(physBase uint64) { f.ttbr0 = physBase }

// TTBR0 returns the last physical base address installed by WriteTTBR0, for
// tests asserting a context switch actually changed the address space.
func (f *FakeRegisters) TTBR0() uint64 { return f.ttbr0 }
