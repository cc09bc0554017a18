package fat32

import (
	"encoding/binary"
	"strings"

	"github.com/iansmith/mazarin-kernel/internal/block"
)

const (
	dirEntrySize = 32

	offName            = 0
	offAttributes      = 11
	offFirstClusterHi  = 20
	offFirstClusterLo  = 26
	offFileSize        = 28
)

// Attribute bits (§3, §4.7).
const (
	attrReadOnly = 1 << 0
	attrHidden   = 1 << 1
	attrSystem   = 1 << 2
	attrVolumeID = 1 << 3
	attrDir      = 1 << 4

	// attrLongNameMask is all four of read-only, hidden, system, and
	// volume-id — §4.7's redesigned rule for recognizing a long-name
	// record, distinct from the source's "any one of these" check.
	attrLongNameMask = attrReadOnly | attrHidden | attrSystem | attrVolumeID
)

// DirEntry is one parsed FAT32 directory entry: a short (8+3) name, size,
// and first cluster, reassembled from the high/low 16-bit halves (§3).
type DirEntry struct {
	Name        string
	IsDirectory bool
	FileSize    uint32
	FirstCluster uint32
}

func decodeShortName(raw [11]byte) string {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		if raw[i] != ' ' {
			b.WriteByte(raw[i])
		}
	}
	b.WriteByte('.')
	for i := 8; i < 11; i++ {
		if raw[i] != ' ' {
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}

func parseDirEntry(raw []byte) DirEntry {
	var name [11]byte
	copy(name[:], raw[offName:offName+11])

	attrs := raw[offAttributes]
	hi := binary.LittleEndian.Uint16(raw[offFirstClusterHi:])
	lo := binary.LittleEndian.Uint16(raw[offFirstClusterLo:])

	return DirEntry{
		Name:         decodeShortName(name),
		IsDirectory:  attrs&attrDir != 0,
		FileSize:     binary.LittleEndian.Uint32(raw[offFileSize:]),
		FirstCluster: uint32(hi)<<16 | uint32(lo),
	}
}

func isDirectoryEnd(raw []byte) bool {
	return raw[offName] == 0x00
}

func isDeleted(raw []byte) bool {
	return raw[offName] == 0xE5
}

func isLongNameRecord(raw []byte) bool {
	return raw[offAttributes]&attrLongNameMask == attrLongNameMask
}

func isVolumeID(raw []byte) bool {
	return raw[offAttributes]&attrVolumeID != 0
}

// ReadDirectory reads every live entry across the cluster chain starting at
// startCluster, stopping at the first end-of-directory marker and skipping
// deleted entries, long-name records, and volume-id entries (§4.7).
func (v *Volume) ReadDirectory(startCluster uint32) ([]DirEntry, error) {
	var entries []DirEntry

	entriesPerSector := int(v.config.BytesPerSector) / dirEntrySize

	stopped := false
	err := v.clusterChain(startCluster, func(cluster uint32) error {
		if stopped {
			return nil
		}

		firstSector := v.clusterToSector(cluster)
		for s := block.Address(0); s < block.Address(v.config.SectorsPerCluster); s++ {
			sector, err := v.dev.ReadSector(firstSector + s)
			if err != nil {
				return err
			}

			for i := 0; i < entriesPerSector; i++ {
				raw := sector[i*dirEntrySize : (i+1)*dirEntrySize]

				if isDirectoryEnd(raw) {
					stopped = true
					return nil
				}
				if isDeleted(raw) || isLongNameRecord(raw) || isVolumeID(raw) {
					continue
				}

				entries = append(entries, parseDirEntry(raw))
			}
		}
		return nil
	})

	return entries, err
}

// RootDirectory reads the volume's root directory.
func (v *Volume) RootDirectory() ([]DirEntry, error) {
	return v.ReadDirectory(v.config.RootCluster)
}

// ReadFile follows entry's cluster chain, copying up to
// min(entry.FileSize, len(buffer)) bytes into buffer, and returns the number
// of bytes read. Reads are idempotent and strictly read-only (§4.7).
func (v *Volume) ReadFile(entry DirEntry, buffer []byte) (int, error) {
	want := int(entry.FileSize)
	if want > len(buffer) {
		want = len(buffer)
	}

	read := 0
	err := v.clusterChain(entry.FirstCluster, func(cluster uint32) error {
		if read >= want {
			return nil
		}

		firstSector := v.clusterToSector(cluster)
		for s := block.Address(0); s < block.Address(v.config.SectorsPerCluster) && read < want; s++ {
			sector, err := v.dev.ReadSector(firstSector + s)
			if err != nil {
				return err
			}

			n := copy(buffer[read:want], sector[:])
			read += n
		}
		return nil
	})

	return read, err
}

// Search resolves a slash-separated path, matching uppercase short names
// exactly at every component (§9 open-question decision: case-sensitive,
// uppercase-only matching). Returns the matching entry, or false if any
// component is missing.
func (v *Volume) Search(path string) (DirEntry, bool, error) {
	components := strings.Split(strings.Trim(path, "/"), "/")

	cluster := v.config.RootCluster
	var found DirEntry

	for i, name := range components {
		entries, err := v.ReadDirectory(cluster)
		if err != nil {
			return DirEntry{}, false, err
		}

		var match *DirEntry
		for j := range entries {
			if entries[j].Name == name {
				match = &entries[j]
				break
			}
		}
		if match == nil {
			return DirEntry{}, false, nil
		}

		found = *match
		if i < len(components)-1 {
			if !match.IsDirectory {
				return DirEntry{}, false, nil
			}
			cluster = match.FirstCluster
		}
	}

	return found, true, nil
}
