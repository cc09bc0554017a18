package fat32

import (
	"encoding/binary"
	"errors"

	"github.com/iansmith/mazarin-kernel/internal/block"
)

// ErrNoVolume is returned by Mount when no sector in the scanned range
// validates as a FAT32 boot sector (§7: "propagated as a single 'no valid
// volume in the scanned range' signal").
var ErrNoVolume = errors.New("fat32: no valid volume in scanned range")

// ErrUnsupportedSectorSize is returned by Mount for any bytes_per_sector
// other than 512. §6/§9 leave the source's mixed 512-assuming FAT-entry
// math unresolved for other sector sizes; this kernel rejects at mount
// rather than silently mis-parsing the FAT (§9 open-question decision).
var ErrUnsupportedSectorSize = errors.New("fat32: only 512-byte sectors are supported")

// ErrStructural reports a FAT entry that cannot appear mid-chain (Free,
// Defective, or Reserved) — a violated on-disk invariant, not a recoverable
// condition (§7 "structural invariants").
var ErrStructural = errors.New("fat32: unexpected FAT entry encountered mid-chain")

// Config is the subset of the boot sector's fields the rest of the reader
// needs, mirroring FAT32Config in both original_source files.
type Config struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumberOfFATs      uint8
	TotalSectors      uint32
	SectorsPerFAT     uint32
	RootCluster       uint32
	FSInfoSector      uint16
}

// Volume is a mounted, read-only FAT32 filesystem view over a block.Device.
type Volume struct {
	dev    block.Device
	config Config

	bootSector block.Address
	fatStart   block.Address
	dataStart  block.Address
}

// Mount scans sectors [start, end) on dev for a valid FAT32 boot sector and,
// if found, derives the FAT and data region start addresses (§4.7).
func Mount(dev block.Device, start, end block.Address) (*Volume, error) {
	addr, b, err := scanForBootSector(dev, start, end)
	if err != nil {
		return nil, err
	}

	if b.bytesPerSector() != 512 {
		return nil, ErrUnsupportedSectorSize
	}

	config := Config{
		BytesPerSector:    b.bytesPerSector(),
		SectorsPerCluster: b.sectorsPerCluster(),
		ReservedSectors:   b.reservedSectors(),
		NumberOfFATs:      b.numberOfFATs(),
		TotalSectors:      b.totalSectors32(),
		SectorsPerFAT:     b.sectorsPerFAT32(),
		RootCluster:       b.rootCluster(),
		FSInfoSector:      b.fsInfoSector(),
	}

	fatStart := addr + block.Address(config.ReservedSectors)
	dataStart := fatStart + block.Address(config.NumberOfFATs)*block.Address(config.SectorsPerFAT)

	return &Volume{
		dev:        dev,
		config:     config,
		bootSector: addr,
		fatStart:   fatStart,
		dataStart:  dataStart,
	}, nil
}

// Config returns the volume's derived configuration.
func (v *Volume) Config() Config {
	return v.config
}

// fatEntryKind classifies the low 28 bits of a raw FAT32 entry (§3).
type fatEntryKind int

const (
	fatFree fatEntryKind = iota
	fatAllocated
	fatDefective
	fatReserved
	fatEndOfFile
)

const fatEntryMask = 0x0FFF_FFFF

func classifyFATEntry(raw uint32) (fatEntryKind, uint32) {
	v := raw & fatEntryMask
	switch {
	case v == 0:
		return fatFree, 0
	case v >= 1 && v <= 0xFFF_FFF6:
		return fatAllocated, v
	case v == 0xFFF_FFF7:
		return fatDefective, 0
	case v >= 0xFFF_FFF8 && v <= 0xFFF_FFFE:
		return fatReserved, 0
	default: // 0xFFF_FFFF and anything else in range
		return fatEndOfFile, 0
	}
}

// fatEntry reads and classifies the FAT entry for cluster.
func (v *Volume) fatEntry(cluster uint32) (fatEntryKind, uint32, error) {
	const bytesPerEntry = 4

	entriesPerSector := uint32(v.config.BytesPerSector) / bytesPerEntry
	fatOffset := cluster * bytesPerEntry
	sectorNumber := v.fatStart + block.Address(fatOffset/uint32(v.config.BytesPerSector))
	entryInSector := cluster % entriesPerSector

	sector, err := v.dev.ReadSector(sectorNumber)
	if err != nil {
		return 0, 0, err
	}

	raw := binary.LittleEndian.Uint32(sector[entryInSector*bytesPerEntry:])
	kind, next := classifyFATEntry(raw)
	return kind, next, nil
}

// clusterToSector maps a cluster number to its first data sector (§4.7).
func (v *Volume) clusterToSector(cluster uint32) block.Address {
	return v.dataStart + block.Address(cluster-2)*block.Address(v.config.SectorsPerCluster)
}

// clusterChain walks the FAT starting at the given cluster, calling visit
// for each cluster in the chain. Walking stops on EndOfFile; Free,
// Defective, or Reserved encountered mid-chain is a structural error.
func (v *Volume) clusterChain(start uint32, visit func(cluster uint32) error) error {
	cluster := start
	for {
		if err := visit(cluster); err != nil {
			return err
		}

		kind, next, err := v.fatEntry(cluster)
		if err != nil {
			return err
		}

		switch kind {
		case fatEndOfFile:
			return nil
		case fatAllocated:
			cluster = next
		default:
			return ErrStructural
		}
	}
}
