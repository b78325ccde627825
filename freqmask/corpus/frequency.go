package corpus

import (
	"sort"
)

// FrequencyTable maps token ids to corpus occurrence counts. It is
// immutable after construction: rebuilding is the only way to update it.
// Lookups for ids never seen in the corpus return 0 (maximally rare).
type FrequencyTable struct {
	counts map[int64]uint64
	total  uint64
}

// FrequencyTableFromCounts copies counts into a new immutable table.
func FrequencyTableFromCounts(counts map[int64]uint64) *FrequencyTable {
	t := &FrequencyTable{counts: make(map[int64]uint64, len(counts))}
	for id, n := range counts {
		if n == 0 {
			continue
		}
		t.counts[id] = n
		t.total += n
	}
	return t
}

// Get returns the occurrence count for id, 0 when unseen.
func (t *FrequencyTable) Get(id int64) uint64 {
	return t.counts[id]
}

// Len returns the number of distinct ids with a non-zero count.
func (t *FrequencyTable) Len() int { return len(t.counts) }

// Total returns the sum of all counts.
func (t *FrequencyTable) Total() uint64 { return t.total }

// IDs returns all counted ids in ascending order.
func (t *FrequencyTable) IDs() []int64 {
	ids := make([]int64, 0, len(t.counts))
	for id := range t.counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
