package tokenizer

import (
	"bufio"
	"os"
	"strings"

	radix "github.com/armon/go-radix"
)

// WordPiece is a pure-Go vocab tokenizer with greedy longest-prefix
// sub-word matching. Continuation pieces are looked up with the "##"
// prefix, BERT style. For production-grade normalization use the
// sugarme-backed tokenizer instead.
type WordPiece struct {
	vocab     map[string]int64
	index     *radix.Tree
	unkID     int64
	clsID     int64
	sepID     int64
	padID     int64
	maskID    int64
	hasMask   bool
	maxSeqLen int
}

// NewWordPiece builds a tokenizer from an ordered token list; the id of
// each token is its index in the list.
func NewWordPiece(tokens []string, maxSeq int) (*WordPiece, error) {
	if maxSeq <= 0 {
		return nil, ErrUnsupported
	}
	vocab := make(map[string]int64, len(tokens))
	index := radix.New()
	for i, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		vocab[tok] = int64(i)
		index.Insert(tok, int64(i))
	}
	wp := &WordPiece{vocab: vocab, index: index, maxSeqLen: maxSeq}
	// Defaults mirror common BERT vocab layouts when markers are absent
	wp.unkID = lookupOr(vocab, "[UNK]", 100)
	wp.clsID = lookupOr(vocab, "[CLS]", 101)
	wp.sepID = lookupOr(vocab, "[SEP]", 102)
	wp.padID = lookupOr(vocab, "[PAD]", 0)
	if id, ok := vocab["[MASK]"]; ok {
		wp.maskID = id
		wp.hasMask = true
	}
	return wp, nil
}

// LoadWordPieceFromVocab reads a newline-delimited vocab file (one token
// per line, line number = token id).
func LoadWordPieceFromVocab(path string, maxSeq int) (*WordPiece, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tokens := make([]string, 0, 60000)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewWordPiece(tokens, maxSeq)
}

func lookupOr(vocab map[string]int64, tok string, fallback int64) int64 {
	if id, ok := vocab[tok]; ok {
		return id
	}
	return fallback
}

func (w *WordPiece) MaskTokenID() (int64, bool) { return w.maskID, w.hasMask }

func (w *WordPiece) SpecialTokenIDs() []int64 {
	ids := []int64{w.padID, w.clsID, w.sepID, w.unkID}
	if w.hasMask {
		ids = append(ids, w.maskID)
	}
	return ids
}

// wordToIDs runs greedy longest-prefix matching over one word. A word
// with any unmatchable remainder collapses to a single [UNK].
func (w *WordPiece) wordToIDs(word string) []int64 {
	pieces := make([]int64, 0, 4)
	rem := word
	first := true
	for len(rem) > 0 {
		key := rem
		if !first {
			key = "##" + rem
		}
		match, v, ok := w.index.LongestPrefix(key)
		consumed := len(match)
		if !first {
			consumed -= 2
		}
		if !ok || consumed <= 0 {
			return []int64{w.unkID}
		}
		pieces = append(pieces, v.(int64))
		rem = rem[consumed:]
		first = false
	}
	return pieces
}

func (w *WordPiece) EncodeWords(words []string) ([][]int64, error) {
	out := make([][]int64, len(words))
	for i, word := range words {
		if word == "" {
			out[i] = []int64{}
			continue
		}
		out[i] = w.wordToIDs(word)
	}
	return out, nil
}

func (w *WordPiece) EncodeBatch(texts []string) ([][]int64, [][]int64, error) {
	ids := make([][]int64, len(texts))
	longest := 0
	for i, t := range texts {
		seq := make([]int64, 0, w.maxSeqLen)
		seq = append(seq, w.clsID)
		for _, word := range strings.Fields(t) {
			seq = append(seq, w.wordToIDs(word)...)
			if len(seq) >= w.maxSeqLen-1 {
				seq = seq[:w.maxSeqLen-1]
				break
			}
		}
		seq = append(seq, w.sepID)
		ids[i] = seq
		if len(seq) > longest {
			longest = len(seq)
		}
	}
	// pad to longest in batch
	masks := make([][]int64, len(texts))
	for i, seq := range ids {
		mask := make([]int64, longest)
		padded := make([]int64, longest)
		copy(padded, seq)
		for j := range padded {
			if j < len(seq) {
				mask[j] = 1
			} else {
				padded[j] = w.padID
			}
		}
		ids[i] = padded
		masks[i] = mask
	}
	return ids, masks, nil
}
