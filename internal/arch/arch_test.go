package arch

import "testing"

func TestDecomposeVARoundTrip(t *testing.T) {
	cases := []uint64{
		0x0000_0000_0000_0000,
		0xFFFF_FFFF_FFFF_F000,
		0xFFFF_FFFF_FFFF_E000,
		0x0000_8000_0010_1000,
	}

	for _, va := range cases {
		idx := DecomposeVA(va)
		if idx.Offset != 0 {
			t.Fatalf("DecomposeVA(%#x).Offset = %#x, want 0 for page-aligned input", va, idx.Offset)
		}
		for lvl, v := range idx.Level {
			if v > VAIndexMask {
				t.Fatalf("DecomposeVA(%#x).Level[%d] = %#x exceeds 9-bit range", va, lvl, v)
			}
		}
	}
}

func TestDecomposeVAAdjacentPagesDifferAtL3(t *testing.T) {
	a := DecomposeVA(0xFFFF_FFFF_FFFF_F000)
	b := DecomposeVA(0xFFFF_FFFF_FFFF_E000)

	if a.Level[3] == b.Level[3] {
		t.Fatalf("adjacent pages should differ at L3: got %d == %d", a.Level[3], b.Level[3])
	}
	if a.Level[0] != b.Level[0] || a.Level[1] != b.Level[1] || a.Level[2] != b.Level[2] {
		t.Fatalf("adjacent pages within the same L2 table should share levels 0-2")
	}
}

func TestFakeRegistersDAIFRoundTrip(t *testing.T) {
	regs := NewFakeRegisters()

	if regs.ReadDAIF()&DAIFMaskIRQ != 0 {
		t.Fatalf("interrupts should start unmasked")
	}

	regs.WriteDAIFSet(DAIFMaskIRQ)
	if regs.ReadDAIF()&DAIFMaskIRQ == 0 {
		t.Fatalf("WriteDAIFSet should mask IRQ")
	}

	regs.WriteDAIFClr(DAIFMaskIRQ)
	if regs.ReadDAIF()&DAIFMaskIRQ != 0 {
		t.Fatalf("WriteDAIFClr should unmask IRQ")
	}
}

func TestFakeRegistersTTBR0(t *testing.T) {
	regs := NewFakeRegisters()
	regs.WriteTTBR0(0x4000_0000)

	if regs.TTBR0() != 0x4000_0000 {
		t.Fatalf("TTBR0() = %#x, want %#x", regs.TTBR0(), 0x4000_0000)
	}
}
