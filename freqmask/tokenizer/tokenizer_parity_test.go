package tokenizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestVocab(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.txt")
	content := strings.Join(testVocab(), "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSugarWordPieceSpecialIDDiscovery(t *testing.T) {
	sw, err := NewSugarWordPiece(writeTestVocab(t), 32)
	require.NoError(t, err)

	maskID, ok := sw.MaskTokenID()
	require.True(t, ok)
	assert.Equal(t, int64(4), maskID)
	assert.ElementsMatch(t, []int64{0, 1, 2, 3, 4}, sw.SpecialTokenIDs())
}

func TestSugarWordPieceEncodeBatchParity(t *testing.T) {
	path := writeTestVocab(t)
	sw, err := NewSugarWordPiece(path, 32)
	require.NoError(t, err)
	wp, err := LoadWordPieceFromVocab(path, 32)
	require.NoError(t, err)

	texts := []string{"the cat sat", "the dog"}
	gotIDs, gotMasks, err := sw.EncodeBatch(texts)
	require.NoError(t, err)
	wantIDs, wantMasks, err := wp.EncodeBatch(texts)
	require.NoError(t, err)

	assert.Equal(t, wantIDs, gotIDs)
	assert.Equal(t, wantMasks, gotMasks)

	// [CLS] the cat sat [SEP] / [CLS] the dog [SEP] [PAD]
	assert.Equal(t, []int64{2, 5, 6, 7, 3}, gotIDs[0])
	assert.Equal(t, []int64{2, 5, 8, 3, 0}, gotIDs[1])
	assert.Equal(t, []int64{1, 1, 1, 1, 0}, gotMasks[1])
}

func TestSugarWordPieceEncodeWordsParity(t *testing.T) {
	path := writeTestVocab(t)
	sw, err := NewSugarWordPiece(path, 32)
	require.NoError(t, err)

	seqs, err := sw.EncodeWords([]string{"the", "dog", ""})
	require.NoError(t, err)
	require.Len(t, seqs, 3)
	assert.Equal(t, []int64{5}, seqs[0])
	assert.Equal(t, []int64{8}, seqs[1])
	assert.Empty(t, seqs[2])
}
