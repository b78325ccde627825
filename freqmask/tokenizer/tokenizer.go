package tokenizer

import (
	"fmt"
)

// Tokenizer converts raw text to model-ready token IDs and attention masks
type Tokenizer interface {
	// EncodeBatch tokenizes all texts together, padding to the longest
	// sequence in the batch and truncating at the tokenizer's max length.
	EncodeBatch(texts []string) (inputIDs [][]int64, attentionMasks [][]int64, err error)

	// EncodeWords tokenizes each word independently without adding any
	// special tokens. Used for corpus frequency counting.
	EncodeWords(words []string) ([][]int64, error)

	// MaskTokenID reports the reserved mask token id. The second return
	// is false when the vocabulary defines no mask token.
	MaskTokenID() (int64, bool)

	// SpecialTokenIDs lists the reserved ids (padding, boundaries, mask)
	// present in the vocabulary.
	SpecialTokenIDs() []int64
}

// Config holds basic tokenizer settings
type Config struct {
	MaxSeqLen int
}

// ErrUnsupported indicates the tokenizer could not be initialized
var ErrUnsupported = fmt.Errorf("unsupported tokenizer configuration")

// ErrTokenize marks a tokenization failure surfaced by a consumer so
// callers can discriminate it from other error kinds with errors.Is.
var ErrTokenize = fmt.Errorf("tokenization failed")
