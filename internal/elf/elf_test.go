package elf

import (
	"encoding/binary"
	"testing"
)

func buildHeader(t *testing.T, entry uint64, phoff uint64, phsize, phnum uint16) []byte {
	t.Helper()
	buf := make([]byte, headerSize)
	copy(buf[0:4], magicNumber[:])
	buf[4] = byte(Class64)
	binary.LittleEndian.PutUint16(buf[16:], uint16(TypeExecutable))
	binary.LittleEndian.PutUint64(buf[24:], entry)
	binary.LittleEndian.PutUint64(buf[32:], phoff)
	binary.LittleEndian.PutUint16(buf[54:], phsize)
	binary.LittleEndian.PutUint16(buf[56:], phnum)
	return buf
}

func TestParseHeader64ValidHeader(t *testing.T) {
	buf := buildHeader(t, 0x40008000, headerSize, programHeaderSize, 1)

	h, err := ParseHeader64(buf)
	if err != nil {
		t.Fatalf("ParseHeader64: %v", err)
	}
	if h.EntryPoint != 0x40008000 {
		t.Fatalf("EntryPoint = %#x, want 0x40008000", h.EntryPoint)
	}
	if h.Type != TypeExecutable {
		t.Fatalf("Type = %v, want TypeExecutable", h.Type)
	}
	if h.ProgramHeaderCount != 1 {
		t.Fatalf("ProgramHeaderCount = %d, want 1", h.ProgramHeaderCount)
	}
}

func TestParseHeader64RejectsShortBuffer(t *testing.T) {
	_, err := ParseHeader64(make([]byte, headerSize-1))
	if err != ErrTooShort {
		t.Fatalf("ParseHeader64: got %v, want ErrTooShort", err)
	}
}

func TestParseHeader64RejectsBadMagic(t *testing.T) {
	buf := buildHeader(t, 0, headerSize, programHeaderSize, 0)
	buf[0] = 0x00

	_, err := ParseHeader64(buf)
	if err != ErrBadMagic {
		t.Fatalf("ParseHeader64: got %v, want ErrBadMagic", err)
	}
}

func TestParseHeader64RejectsUnsupportedClass(t *testing.T) {
	buf := buildHeader(t, 0, headerSize, programHeaderSize, 0)
	buf[4] = byte(Class32)

	_, err := ParseHeader64(buf)
	if err != ErrUnsupportedClass {
		t.Fatalf("ParseHeader64: got %v, want ErrUnsupportedClass", err)
	}
}

func TestProgramHeadersDecodesLoadableSegment(t *testing.T) {
	header := buildHeader(t, 0x40008000, headerSize, programHeaderSize, 1)

	ph := make([]byte, programHeaderSize)
	binary.LittleEndian.PutUint32(ph[0:], uint32(ProgramLoadable))
	binary.LittleEndian.PutUint64(ph[16:], 0x40008000)
	binary.LittleEndian.PutUint64(ph[32:], 0x1000)
	binary.LittleEndian.PutUint64(ph[40:], 0x2000)

	image := append(header, ph...)

	h, err := ParseHeader64(image)
	if err != nil {
		t.Fatalf("ParseHeader64: %v", err)
	}

	headers, err := ProgramHeaders(image, h)
	if err != nil {
		t.Fatalf("ProgramHeaders: %v", err)
	}
	if len(headers) != 1 {
		t.Fatalf("len(headers) = %d, want 1", len(headers))
	}
	if headers[0].Type != ProgramLoadable {
		t.Fatalf("Type = %v, want ProgramLoadable", headers[0].Type)
	}
	if headers[0].VirtualAddress != 0x40008000 {
		t.Fatalf("VirtualAddress = %#x, want 0x40008000", headers[0].VirtualAddress)
	}
	if headers[0].MemorySize != 0x2000 {
		t.Fatalf("MemorySize = %#x, want 0x2000", headers[0].MemorySize)
	}
}

func TestProgramHeadersRejectsTruncatedTable(t *testing.T) {
	header := buildHeader(t, 0, headerSize, programHeaderSize, 2)
	image := append(header, make([]byte, programHeaderSize)...) // only one entry present, header claims two

	if _, err := ProgramHeaders(image, headerMustParse(t, image)); err != ErrTooShort {
		t.Fatalf("ProgramHeaders: got %v, want ErrTooShort", err)
	}
}

func headerMustParse(t *testing.T, image []byte) Header64 {
	t.Helper()
	h, err := ParseHeader64(image)
	if err != nil {
		t.Fatalf("ParseHeader64: %v", err)
	}
	return h
}
