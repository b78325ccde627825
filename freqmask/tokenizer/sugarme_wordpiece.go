package tokenizer

import (
	"bufio"
	"os"
	"path/filepath"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
	"github.com/sugarme/tokenizer/processor"
)

// SugarWordPiece wraps sugarme/tokenizer WordPiece (BERT-style)
type SugarWordPiece struct {
	t         *tk.Tokenizer
	maxSeqLen int
	clsID     int64
	sepID     int64
	padID     int64
	unkID     int64
	maskID    int64
	hasMask   bool
}

// NewSugarWordPiece loads vocab.txt and builds a BERT WordPiece tokenizer
func NewSugarWordPiece(vocabPath string, maxSeq int) (*SugarWordPiece, error) {
	if fi, err := os.Stat(vocabPath); err == nil && fi.IsDir() {
		vocabPath = filepath.Join(vocabPath, "vocab.txt")
	}
	var wp wordpiece.WordPiece
	if nw, err := wordpiece.NewWordPieceFromFile(vocabPath, "[UNK]"); err == nil {
		wp = nw
	} else {
		builder := wordpiece.NewWordPieceBuilder().Files(vocabPath)
		wp = builder.Build()
	}

	t := tk.NewTokenizer(wp)

	// Basic normalizer and pre-tokenizer similar to BERT
	t.WithNormalizer(normalizer.NewBertNormalizer(true, true, true, true))
	t.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())

	s := &SugarWordPiece{t: t, maxSeqLen: maxSeq}
	// Discover special token ids by line order in the vocab file
	s.clsID, s.sepID, s.padID, s.unkID = 101, 102, 0, 100
	if f, err := os.Open(vocabPath); err == nil {
		defer f.Close()
		var idx int64
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			switch scanner.Text() {
			case "[CLS]":
				s.clsID = idx
			case "[SEP]":
				s.sepID = idx
			case "[PAD]":
				s.padID = idx
			case "[UNK]":
				s.unkID = idx
			case "[MASK]":
				s.maskID = idx
				s.hasMask = true
			}
			idx++
		}
	}

	// Post-processor to add special tokens with discovered ids
	template := processor.NewBertProcessing(
		processor.PostToken{Value: "[SEP]", Id: int(s.sepID)},
		processor.PostToken{Value: "[CLS]", Id: int(s.clsID)},
	)
	t.WithPostProcessor(template)
	t.WithTruncation(&tk.TruncationParams{MaxLength: maxSeq})
	return s, nil
}

func (s *SugarWordPiece) MaskTokenID() (int64, bool) { return s.maskID, s.hasMask }

func (s *SugarWordPiece) SpecialTokenIDs() []int64 {
	ids := []int64{s.padID, s.clsID, s.sepID, s.unkID}
	if s.hasMask {
		ids = append(ids, s.maskID)
	}
	return ids
}

func (s *SugarWordPiece) EncodeBatch(texts []string) ([][]int64, [][]int64, error) {
	ids := make([][]int64, len(texts))
	longest := 0
	for i, txt := range texts {
		enc, err := s.t.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(txt)), true)
		if err != nil {
			return nil, nil, err
		}
		uids := enc.GetIds()
		n := len(uids)
		if n > s.maxSeqLen {
			n = s.maxSeqLen
		}
		row := make([]int64, n)
		for j := 0; j < n; j++ {
			row[j] = int64(uids[j])
		}
		ids[i] = row
		if n > longest {
			longest = n
		}
	}
	// pad to longest sequence in the batch
	masks := make([][]int64, len(texts))
	for i, row := range ids {
		padded := make([]int64, longest)
		mask := make([]int64, longest)
		copy(padded, row)
		for j := range padded {
			if j < len(row) {
				mask[j] = 1
			} else {
				padded[j] = s.padID
			}
		}
		ids[i] = padded
		masks[i] = mask
	}
	return ids, masks, nil
}

// EncodeWords tokenizes each word independently without special tokens.
func (s *SugarWordPiece) EncodeWords(words []string) ([][]int64, error) {
	out := make([][]int64, len(words))
	for i, word := range words {
		if word == "" {
			out[i] = []int64{}
			continue
		}
		enc, err := s.t.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(word)), false)
		if err != nil {
			return nil, err
		}
		uids := enc.GetIds()
		row := make([]int64, len(uids))
		for j, id := range uids {
			row[j] = int64(id)
		}
		out[i] = row
	}
	return out, nil
}
