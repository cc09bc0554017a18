// Package fat32 implements the kernel's read-only FAT32 reader: boot-sector
// scan and validation, FAT cluster-chain walking, and directory traversal.
// Grounded on original_source/src/filesystem/fat32.rs and
// original_source/src/platform/raspi3/fat32.rs, unified into one package
// (the original source duplicates the boot-sector struct between a
// sector-device-agnostic version and a raspi3-emmc-specific one; this
// kernel's block.Device abstraction lets one definition serve both).
package fat32

import (
	"encoding/binary"
	"errors"

	"github.com/iansmith/mazarin-kernel/internal/block"
)

// bootSector is the 512-byte FAT32 BIOS parameter block, read directly out
// of a block.Sector by fixed byte offset rather than an unsafe struct cast —
// the idiomatic Go equivalent of the source's #[repr(C)] transmute.
type bootSector struct {
	raw block.Sector
}

const (
	offBytesPerSector     = 11
	offSectorsPerCluster  = 13
	offReservedSectors    = 14
	offNumberOfFATs       = 16
	offRootEntryCount     = 17
	offTotalSectors16     = 19
	offSectorsPerFAT32    = 36
	offRootCluster        = 44
	offFSInfoSector       = 48
	offTotalSectors32     = 32
	offSignatureWordStart = 510
)

func (b *bootSector) bytesPerSector() uint16 {
	return binary.LittleEndian.Uint16(b.raw[offBytesPerSector:])
}

func (b *bootSector) sectorsPerCluster() uint8 {
	return b.raw[offSectorsPerCluster]
}

func (b *bootSector) reservedSectors() uint16 {
	return binary.LittleEndian.Uint16(b.raw[offReservedSectors:])
}

func (b *bootSector) numberOfFATs() uint8 {
	return b.raw[offNumberOfFATs]
}

func (b *bootSector) rootEntryCount() uint16 {
	return binary.LittleEndian.Uint16(b.raw[offRootEntryCount:])
}

func (b *bootSector) totalSectors16() uint16 {
	return binary.LittleEndian.Uint16(b.raw[offTotalSectors16:])
}

func (b *bootSector) totalSectors32() uint32 {
	return binary.LittleEndian.Uint32(b.raw[offTotalSectors32:])
}

func (b *bootSector) sectorsPerFAT32() uint32 {
	return binary.LittleEndian.Uint32(b.raw[offSectorsPerFAT32:])
}

func (b *bootSector) rootCluster() uint32 {
	return binary.LittleEndian.Uint32(b.raw[offRootCluster:])
}

func (b *bootSector) fsInfoSector() uint16 {
	return binary.LittleEndian.Uint16(b.raw[offFSInfoSector:])
}

// ErrNotABootSector reports that a candidate sector failed one of §4.7's
// validation rules; scanForBootSector keeps reading sectors until one
// passes, or the scanned range is exhausted.
var ErrNotABootSector = errors.New("fat32: sector does not validate as a FAT32 boot sector")

// validate applies every rule in §4.7: the trailing 0x55 0xAA signature,
// an allowed bytes-per-sector, a power-of-two sectors-per-cluster, at least
// one reserved sector, one or two FATs, and the three FAT32-specific fields
// (zero 16-bit total sectors, nonzero 32-bit total sectors, zero root entry
// count).
func validate(raw block.Sector) (*bootSector, error) {
	b := &bootSector{raw: raw}

	if raw[offSignatureWordStart] != 0x55 || raw[offSignatureWordStart+1] != 0xAA {
		return nil, ErrNotABootSector
	}

	bps := b.bytesPerSector()
	if bps != 512 && bps != 1024 && bps != 2048 && bps != 4096 {
		return nil, ErrNotABootSector
	}

	spc := b.sectorsPerCluster()
	if spc == 0 || spc&(spc-1) != 0 {
		return nil, ErrNotABootSector
	}

	if b.reservedSectors() == 0 {
		return nil, ErrNotABootSector
	}

	fats := b.numberOfFATs()
	if fats != 1 && fats != 2 {
		return nil, ErrNotABootSector
	}

	if b.rootEntryCount() != 0 {
		return nil, ErrNotABootSector
	}
	if b.totalSectors16() != 0 {
		return nil, ErrNotABootSector
	}
	if b.totalSectors32() == 0 {
		return nil, ErrNotABootSector
	}

	return b, nil
}

// scanForBootSector reads sequential sectors in [start, end) until one
// validates, per §4.7's mount-time scan.
func scanForBootSector(dev block.Device, start, end block.Address) (block.Address, *bootSector, error) {
	for addr := start; addr < end; addr++ {
		sector, err := dev.ReadSector(addr)
		if err != nil {
			continue
		}
		if b, err := validate(sector); err == nil {
			return addr, b, nil
		}
	}
	return 0, nil, ErrNoVolume
}
