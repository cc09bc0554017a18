package bitfield

import "testing"

type threeField struct {
	A uint8  `bitfield:",3"`
	B bool   `bitfield:",1"`
	C uint32 `bitfield:",12"`
}

func TestPackUnpackPreservesOtherFields(t *testing.T) {
	cases := []threeField{
		{A: 0, B: false, C: 0},
		{A: 7, B: true, C: 4095},
		{A: 3, B: false, C: 1000},
		{A: 5, B: true, C: 1},
	}

	for _, want := range cases {
		packed, err := Pack(&want, &Config{NumBits: 16})
		if err != nil {
			t.Fatalf("Pack(%+v): %v", want, err)
		}

		var got threeField
		if err := Unpack(&got, packed); err != nil {
			t.Fatalf("Unpack: %v", err)
		}

		if got != want {
			t.Errorf("round trip: got %+v, want %+v (packed=0x%x)", got, want, packed)
		}
	}
}

func TestPackRejectsOversizedField(t *testing.T) {
	v := threeField{A: 0xFF} // 3-bit field, value overflows
	if _, err := Pack(&v, &Config{NumBits: 16}); err == nil {
		t.Fatalf("expected error for oversized field value")
	}
}

func TestSetGetPreservesWidth(t *testing.T) {
	// Property 9: for any field defined by a bit range, set(v).get() == v &
	// ((1<<width)-1), and other fields are unaffected.
	type onlyC struct {
		A uint8  `bitfield:",3"`
		C uint32 `bitfield:",12"`
	}

	for _, v := range []uint32{0, 1, 4095, 4096, 1 << 20} {
		s := onlyC{A: 5, C: v}
		packed, err := Pack(&s, &Config{NumBits: 16})
		if err != nil {
			t.Fatalf("Pack: %v", err)
		}
		var got onlyC
		if err := Unpack(&got, packed); err != nil {
			t.Fatalf("Unpack: %v", err)
		}
		want := v & ((1 << 12) - 1)
		if got.C != want {
			t.Errorf("C: got %d, want %d (masked from %d)", got.C, want, v)
		}
		if got.A != 5 {
			t.Errorf("A field disturbed: got %d, want 5", got.A)
		}
	}
}
