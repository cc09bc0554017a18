// Package elf parses the 64-bit ELF header and program headers of an
// executable image, grounded on
// original_source/src/elf.rs. Unlike the source's repr(C) transmute, parsing
// here is explicit field-by-field decoding with bounds checks, in the style
// this kernel's other on-disk formats (fat32) already use.
package elf

import (
	"encoding/binary"
	"errors"
)

var magicNumber = [4]byte{0x7F, 'E', 'L', 'F'}

// ErrTooShort reports a buffer too small to hold the structure being parsed.
var ErrTooShort = errors.New("elf: buffer too short")

// ErrBadMagic reports a missing ELF magic number.
var ErrBadMagic = errors.New("elf: missing magic number")

// ErrUnsupportedClass reports an identification block that isn't ELFCLASS64.
var ErrUnsupportedClass = errors.New("elf: unsupported file class")

// FileClass is the ELF identification's EI_CLASS field.
type FileClass uint8

const (
	ClassInvalid FileClass = 0x0
	Class32      FileClass = 0x1
	Class64      FileClass = 0x2
)

// ObjectType is the header's e_type field.
type ObjectType uint16

const (
	TypeNone             ObjectType = 0x0
	TypeRelocatable      ObjectType = 0x1
	TypeExecutable       ObjectType = 0x2
	TypeSharedObject     ObjectType = 0x3
	TypeCore             ObjectType = 0x4
)

const headerSize = 64

// Header64 is the fixed fields of a 64-bit ELF header this kernel reads
// (§4.7a). The Exec syscall only validates it; nothing in this kernel loads
// the image into a thread's address space.
type Header64 struct {
	Class               FileClass
	Type                ObjectType
	Machine             uint16
	EntryPoint          uint64
	ProgramHeaderOffset uint64
	SectionHeaderOffset uint64
	ELFHeaderSize       uint16
	ProgramHeaderSize   uint16
	ProgramHeaderCount  uint16
}

// ParseHeader64 decodes the ELF64 header at the start of buffer, validating
// the magic number and file class. It never panics: a short or malformed
// buffer is reported as an error.
func ParseHeader64(buffer []byte) (Header64, error) {
	if len(buffer) < headerSize {
		return Header64{}, ErrTooShort
	}

	if [4]byte(buffer[0:4]) != magicNumber {
		return Header64{}, ErrBadMagic
	}

	class := FileClass(buffer[4])
	if class != Class64 {
		return Header64{}, ErrUnsupportedClass
	}

	return Header64{
		Class:               class,
		Type:                ObjectType(binary.LittleEndian.Uint16(buffer[16:])),
		Machine:             binary.LittleEndian.Uint16(buffer[18:]),
		EntryPoint:          binary.LittleEndian.Uint64(buffer[24:]),
		ProgramHeaderOffset: binary.LittleEndian.Uint64(buffer[32:]),
		SectionHeaderOffset: binary.LittleEndian.Uint64(buffer[40:]),
		ELFHeaderSize:       binary.LittleEndian.Uint16(buffer[52:]),
		ProgramHeaderSize:   binary.LittleEndian.Uint16(buffer[54:]),
		ProgramHeaderCount:  binary.LittleEndian.Uint16(buffer[56:]),
	}, nil
}

// ProgramType is a program header's p_type field.
type ProgramType uint32

const (
	ProgramIgnored             ProgramType = 0x0
	ProgramLoadable            ProgramType = 0x1
	ProgramDynamic             ProgramType = 0x2
	ProgramInterpreter         ProgramType = 0x3
	ProgramNote                ProgramType = 0x4
	ProgramShlib               ProgramType = 0x5
	ProgramHeaderSelf          ProgramType = 0x6
	ProgramThreadLocalStorage  ProgramType = 0x7
)

const programHeaderSize = 56

// ProgramHeader describes one loadable (or otherwise typed) segment.
type ProgramHeader struct {
	Type            ProgramType
	Offset          uint64
	VirtualAddress  uint64
	FileSize        uint64
	MemorySize      uint64
}

// ParseProgramHeader decodes one program header entry from buffer.
func ParseProgramHeader(buffer []byte) (ProgramHeader, error) {
	if len(buffer) < programHeaderSize {
		return ProgramHeader{}, ErrTooShort
	}

	return ProgramHeader{
		Type:           ProgramType(binary.LittleEndian.Uint32(buffer[0:])),
		Offset:         binary.LittleEndian.Uint64(buffer[8:]),
		VirtualAddress: binary.LittleEndian.Uint64(buffer[16:]),
		FileSize:       binary.LittleEndian.Uint64(buffer[32:]),
		MemorySize:     binary.LittleEndian.Uint64(buffer[40:]),
	}, nil
}

// ProgramHeaders decodes every entry header.ProgramHeaderCount describes,
// reading from image starting at header.ProgramHeaderOffset.
func ProgramHeaders(image []byte, header Header64) ([]ProgramHeader, error) {
	headers := make([]ProgramHeader, 0, header.ProgramHeaderCount)

	for i := uint16(0); i < header.ProgramHeaderCount; i++ {
		start := header.ProgramHeaderOffset + uint64(i)*uint64(header.ProgramHeaderSize)
		end := start + programHeaderSize
		if end > uint64(len(image)) {
			return nil, ErrTooShort
		}

		ph, err := ParseProgramHeader(image[start:end])
		if err != nil {
			return nil, err
		}
		headers = append(headers, ph)
	}

	return headers, nil
}
