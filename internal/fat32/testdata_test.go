package fat32

import "encoding/binary"

// fatImageBuilder assembles a minimal but structurally valid FAT32 image
// in memory, sector by sector, for use by this package's tests. It exists
// because the §8 scenarios need a real boot sector + FAT + root directory +
// file data laid out exactly as Mount/ReadDirectory/ReadFile expect, and
// original_source ships no canonical fixture to borrow.
type fatImageBuilder struct {
	sectorsPerCluster uint8
	reservedSectors   uint16
	numberOfFATs      uint8
	sectorsPerFAT     uint32
	rootCluster       uint32
	totalSectors      uint32

	image []byte
}

func newFatImageBuilder() *fatImageBuilder {
	return &fatImageBuilder{
		sectorsPerCluster: 1,
		reservedSectors:   2,
		numberOfFATs:      1,
		sectorsPerFAT:     4,
		rootCluster:       2,
		totalSectors:      64,
	}
}

func (f *fatImageBuilder) sectorOffset(addr int) int {
	return addr * 512
}

func (f *fatImageBuilder) ensureSize() {
	need := f.sectorOffset(int(f.totalSectors))
	if len(f.image) < need {
		grown := make([]byte, need)
		copy(grown, f.image)
		f.image = grown
	}
}

// buildBootSector writes sector 0 with every field §4.7 validates.
func (f *fatImageBuilder) buildBootSector() {
	f.ensureSize()
	b := f.image[f.sectorOffset(0) : f.sectorOffset(0)+512]

	binary.LittleEndian.PutUint16(b[11:], 512) // bytes per sector
	b[13] = f.sectorsPerCluster
	binary.LittleEndian.PutUint16(b[14:], f.reservedSectors)
	b[16] = f.numberOfFATs
	binary.LittleEndian.PutUint16(b[17:], 0) // root entry count: 0 for FAT32
	binary.LittleEndian.PutUint16(b[19:], 0) // total sectors (16-bit): 0 for FAT32
	binary.LittleEndian.PutUint32(b[32:], f.totalSectors)
	binary.LittleEndian.PutUint32(b[36:], f.sectorsPerFAT)
	binary.LittleEndian.PutUint32(b[44:], f.rootCluster)
	binary.LittleEndian.PutUint16(b[48:], 1) // FSInfo sector

	b[510] = 0x55
	b[511] = 0xAA
}

func (f *fatImageBuilder) fatSectorStart() int {
	return int(f.reservedSectors)
}

func (f *fatImageBuilder) dataSectorStart() int {
	return f.fatSectorStart() + int(f.numberOfFATs)*int(f.sectorsPerFAT)
}

// setFATEntry writes raw, unmasked, as the FAT entry for cluster, so tests
// can set the reserved high nibble too.
func (f *fatImageBuilder) setFATEntry(cluster uint32, raw uint32) {
	f.ensureSize()
	fatByteOffset := f.sectorOffset(f.fatSectorStart()) + int(cluster)*4
	binary.LittleEndian.PutUint32(f.image[fatByteOffset:], raw)
}

// clusterSectorStart returns the first sector address for a data cluster.
func (f *fatImageBuilder) clusterSectorStart(cluster uint32) int {
	return f.dataSectorStart() + int(cluster-2)*int(f.sectorsPerCluster)
}

// writeClusterSector writes data into the given sector within cluster
// (sectorWithinCluster must be < sectorsPerCluster).
func (f *fatImageBuilder) writeClusterSector(cluster uint32, sectorWithinCluster int, data []byte) {
	f.ensureSize()
	start := f.sectorOffset(f.clusterSectorStart(cluster) + sectorWithinCluster)
	copy(f.image[start:start+512], data)
}

// shortNameField encodes name (no dot, no lowercase) into the fixed 8+3
// space-padded on-disk form.
func shortNameField(base, ext string) [11]byte {
	var out [11]byte
	for i := range out {
		out[i] = ' '
	}
	copy(out[0:8], base)
	copy(out[8:11], ext)
	return out
}

// writeDirEntry writes one 32-byte directory entry at the given byte offset
// within a cluster sector buffer.
func writeDirEntry(sector []byte, offset int, base, ext string, attrs byte, firstCluster, fileSize uint32) {
	name := shortNameField(base, ext)
	copy(sector[offset:offset+11], name[:])
	sector[offset+11] = attrs
	binary.LittleEndian.PutUint16(sector[offset+20:], uint16(firstCluster>>16))
	binary.LittleEndian.PutUint16(sector[offset+26:], uint16(firstCluster))
	binary.LittleEndian.PutUint32(sector[offset+28:], fileSize)
}
