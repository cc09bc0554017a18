package block

import "errors"

// ErrOutOfRange is returned by MemoryDevice.ReadSector for an address past
// the end of the backing image.
var ErrOutOfRange = errors.New("block: sector address out of range")

// MemoryDevice is a hosted-GOOS stand-in for the SD controller, backing
// Device with an in-memory image. Used by the fat32, kobj and syscall tests
// for hardware-free runs.
type MemoryDevice struct {
	image []byte
}

// NewMemoryDevice wraps image, a whole-disk byte slice, as a Device. image
// need not be a multiple of SectorSize; a short final sector reads as
// zero-padded.
func NewMemoryDevice(image []byte) *MemoryDevice {
	return &MemoryDevice{image: image}
}

func (d *MemoryDevice) ReadSector(addr Address) (Sector, error) {
	start := int(addr) * SectorSize
	if start < 0 || start >= len(d.image) {
		return Sector{}, ErrOutOfRange
	}

	var sector Sector
	end := start + SectorSize
	if end > len(d.image) {
		end = len(d.image)
	}
	copy(sector[:], d.image[start:end])
	return sector, nil
}
