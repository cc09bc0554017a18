// Package block is the read-only sector abstraction the FAT32 reader is
// built on, reached through the board's external memory controller (SD host
// controller) per §1's non-goals. Grounded on
// original_source/src/device/sector_device.rs.
package block

// SectorSize is the fixed sector size this kernel's FAT32 code paths
// assume (§6: "sector size 512 assumed in several derived paths").
const SectorSize = 512

// Sector is one raw block read from the device.
type Sector [SectorSize]byte

// Address names a sector by its linear index on the device.
type Address uint32

// Device is the external SD controller's read surface. The kernel performs
// no caching at this layer (§6).
type Device interface {
	ReadSector(addr Address) (Sector, error)
}
