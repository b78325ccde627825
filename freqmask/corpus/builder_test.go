package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/freqmask/freqmask/tokenizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokenizer(t *testing.T) tokenizer.Tokenizer {
	t.Helper()
	wp, err := tokenizer.NewWordPiece(
		[]string{"[PAD]", "[UNK]", "[CLS]", "[SEP]", "[MASK]", "the", "cat", "sat", "dog", "ran"}, 32)
	require.NoError(t, err)
	return wp
}

func TestBuilderWordLevelCounting(t *testing.T) {
	b := NewBuilder(testTokenizer(t))
	table, err := b.Build(context.Background(), []string{"the cat sat", "the dog ran"})
	require.NoError(t, err)

	assert.Equal(t, uint64(2), table.Get(5)) // the
	assert.Equal(t, uint64(1), table.Get(6)) // cat
	assert.Equal(t, uint64(1), table.Get(7)) // sat
	assert.Equal(t, uint64(1), table.Get(8)) // dog
	assert.Equal(t, uint64(1), table.Get(9)) // ran
	assert.Equal(t, 5, table.Len())
	assert.Equal(t, uint64(6), table.Total())
}

func TestBuilderUnseenIDIsZero(t *testing.T) {
	b := NewBuilder(testTokenizer(t))
	table, err := b.Build(context.Background(), []string{"the cat sat"})
	require.NoError(t, err)

	assert.Equal(t, uint64(0), table.Get(999))
	assert.Equal(t, uint64(0), table.Get(-1))
}

func TestBuilderIdempotent(t *testing.T) {
	docs := []string{"the cat sat", "the dog ran", "the the the"}
	b := NewBuilder(testTokenizer(t))

	first, err := b.Build(context.Background(), docs)
	require.NoError(t, err)
	second, err := b.Build(context.Background(), docs)
	require.NoError(t, err)

	require.Equal(t, first.IDs(), second.IDs())
	for _, id := range first.IDs() {
		assert.Equal(t, first.Get(id), second.Get(id))
	}
	assert.Equal(t, first.Total(), second.Total())
}

func TestBuilderEmptyAndBlankDocs(t *testing.T) {
	b := NewBuilder(testTokenizer(t))
	table, err := b.Build(context.Background(), []string{"", "   ", "\n\t"})
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

type failingTokenizer struct{ tokenizer.Tokenizer }

var errBoom = errors.New("boom")

func (failingTokenizer) EncodeWords(words []string) ([][]int64, error) { return nil, errBoom }

func TestBuilderTokenizeErrorPropagates(t *testing.T) {
	b := NewBuilder(failingTokenizer{})
	_, err := b.Build(context.Background(), []string{"the cat"})
	require.Error(t, err)
	assert.ErrorIs(t, err, tokenizer.ErrTokenize)
	assert.ErrorIs(t, err, errBoom)
}

func TestBuilderContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder(testTokenizer(t))
	_, err := b.Build(ctx, []string{"the cat", "the dog"})
	require.Error(t, err)
}

func TestRarityIndex(t *testing.T) {
	table := FrequencyTableFromCounts(map[int64]uint64{5: 2, 6: 1})
	ri := NewRarityIndex(table, 2)

	assert.False(t, ri.Rare(5))  // count 2 >= 2
	assert.True(t, ri.Rare(6))   // count 1 < 2
	assert.True(t, ri.Rare(999)) // unseen is maximally rare
	assert.True(t, ri.Rare(-1))

	none := NewRarityIndex(table, 0)
	assert.False(t, none.Rare(6))
	assert.False(t, none.Rare(999))
}

func TestSnapshotRoundTrip(t *testing.T) {
	table := FrequencyTableFromCounts(map[int64]uint64{5: 2, 6: 1, 900000: 42})
	path := filepath.Join(t.TempDir(), "freq.snap")

	require.NoError(t, PersistSnapshot(path, table))
	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)

	require.Equal(t, table.IDs(), loaded.IDs())
	for _, id := range table.IDs() {
		assert.Equal(t, table.Get(id), loaded.Get(id))
	}
	assert.Equal(t, table.Total(), loaded.Total())
}

func TestSnapshotRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.snap")
	require.NoError(t, os.WriteFile(path, []byte("NOPEnotasnapshot"), 0o644))

	_, err := LoadSnapshot(path)
	require.Error(t, err)
}
