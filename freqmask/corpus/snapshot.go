package corpus

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Snapshot format (versioned, little-endian):
// [magic 'FQSN'] [u32 version] [u64 n] then n (i64 id, u64 count) pairs
// sorted by id. The format is an implementation detail, not a contract;
// it only needs to round-trip a table byte-identically.

var snapshotMagic = [4]byte{'F', 'Q', 'S', 'N'}

const snapshotVersion uint32 = 1

// WriteSnapshot serializes a frequency table to w.
func WriteSnapshot(w io.Writer, t *FrequencyTable) error {
	if _, err := w.Write(snapshotMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, snapshotVersion); err != nil {
		return err
	}
	ids := t.IDs()
	if err := binary.Write(w, binary.LittleEndian, uint64(len(ids))); err != nil {
		return err
	}
	for _, id := range ids {
		if err := binary.Write(w, binary.LittleEndian, id); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, t.Get(id)); err != nil {
			return err
		}
	}
	return nil
}

// ReadSnapshot deserializes a frequency table written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*FrequencyTable, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, err
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("frequency snapshot: bad magic %q", magic[:])
	}
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("frequency snapshot: unsupported version %d", version)
	}
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	counts := make(map[int64]uint64, n)
	for i := uint64(0); i < n; i++ {
		var id int64
		var count uint64
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	return FrequencyTableFromCounts(counts), nil
}

// PersistSnapshot writes a table snapshot to path.
func PersistSnapshot(path string, t *FrequencyTable) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSnapshot(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadSnapshot reads a snapshot persisted with PersistSnapshot.
func LoadSnapshot(path string) (*FrequencyTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSnapshot(f)
}
