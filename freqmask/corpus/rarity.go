package corpus

import (
	"math"

	roaring "github.com/RoaringBitmap/roaring"
)

// RarityIndex answers "is this id rare" in O(1) without touching the
// count map in the hot path. It holds the complement bitmap of ids at
// or above the threshold, so ids absent from the corpus (count 0) are
// rare by construction.
type RarityIndex struct {
	common    *roaring.Bitmap
	threshold uint64
}

// NewRarityIndex derives a rarity index from a table and a threshold.
// An id is rare when its count is strictly below the threshold.
func NewRarityIndex(t *FrequencyTable, threshold uint64) *RarityIndex {
	common := roaring.New()
	for _, id := range t.IDs() {
		if id < 0 || id > math.MaxUint32 {
			continue
		}
		if t.Get(id) >= threshold {
			common.Add(uint32(id))
		}
	}
	return &RarityIndex{common: common, threshold: threshold}
}

// Rare reports whether id sits below the rarity threshold. Ids outside
// the uint32 vocab range were never counted and are treated as rare.
func (ri *RarityIndex) Rare(id int64) bool {
	if ri.threshold == 0 {
		return false
	}
	if id < 0 || id > math.MaxUint32 {
		return true
	}
	return !ri.common.Contains(uint32(id))
}

// Threshold returns the count threshold the index was built with.
func (ri *RarityIndex) Threshold() uint64 { return ri.threshold }
