package collate

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ZanzyTHEbar/freqmask/freqmask/corpus"
	"github.com/ZanzyTHEbar/freqmask/freqmask/tokenizer"

	roaring "github.com/RoaringBitmap/roaring"
)

// Batch is a model-ready training batch. InputIDs carries the masked
// ids, Labels the pre-masking ids; the two never alias. AttentionMask
// is passed through from the tokenizer verbatim.
type Batch struct {
	InputIDs      [][]int64
	Labels        [][]int64
	AttentionMask [][]int64
}

// Option configures a Collator at construction.
type Option func(*Collator)

// WithSeed makes masking deterministic: a fixed seed yields a
// bit-identical masking pattern given the same table, config and input
// order.
func WithSeed(seed int64) Option {
	return func(c *Collator) { c.rng = rand.New(rand.NewSource(seed)) }
}

// WithRand injects an external random source.
func WithRand(r *rand.Rand) Option {
	return func(c *Collator) { c.rng = r }
}

// Collator turns raw text examples into masked training batches,
// boosting the masking probability of corpus-rare tokens. It holds no
// mutable state across calls other than its random source, so it is
// safe to prepare batches from multiple collators concurrently but a
// single Collator must not be shared across goroutines.
type Collator struct {
	tok     tokenizer.Tokenizer
	table   *corpus.FrequencyTable
	rarity  *corpus.RarityIndex
	cfg     MaskingConfig
	maskID  int64
	special *roaring.Bitmap
	rng     *rand.Rand
}

// NewCollator validates the config and fails fast on a tokenizer
// without a mask token; no error surfaces per batch that could have
// surfaced here.
func NewCollator(tok tokenizer.Tokenizer, table *corpus.FrequencyTable, cfg MaskingConfig, opts ...Option) (*Collator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	maskID, ok := tok.MaskTokenID()
	if !ok {
		return nil, ErrMissingMaskToken
	}
	special := roaring.New()
	for _, id := range tok.SpecialTokenIDs() {
		if id >= 0 && id <= math.MaxUint32 {
			special.Add(uint32(id))
		}
	}
	c := &Collator{
		tok:     tok,
		table:   table,
		rarity:  corpus.NewRarityIndex(table, cfg.RareThreshold),
		cfg:     cfg,
		maskID:  maskID,
		special: special,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c, nil
}

// Collate tokenizes examples with batch padding, snapshots labels, then
// masks each position independently with the token's effective
// probability. One uniform draw is consumed per position in row-major
// order regardless of the outcome, so masking patterns stay comparable
// across configs for a given seed.
func (c *Collator) Collate(examples []string) (*Batch, error) {
	if len(examples) == 0 {
		return nil, ErrEmptyBatch
	}
	inputIDs, attnMask, err := c.tok.EncodeBatch(examples)
	if err != nil {
		return nil, fmt.Errorf("%w: batch: %w", tokenizer.ErrTokenize, err)
	}
	for i := range inputIDs {
		if len(inputIDs[i]) > c.cfg.MaxSeqLen {
			inputIDs[i] = inputIDs[i][:c.cfg.MaxSeqLen]
		}
		if i < len(attnMask) && len(attnMask[i]) > c.cfg.MaxSeqLen {
			attnMask[i] = attnMask[i][:c.cfg.MaxSeqLen]
		}
	}

	// snapshot labels before any mutation
	labels := make([][]int64, len(inputIDs))
	for i, row := range inputIDs {
		labels[i] = make([]int64, len(row))
		copy(labels[i], row)
	}

	for i := range inputIDs {
		for j, id := range inputIDs[i] {
			p := c.EffectiveProbability(id)
			draw := c.rng.Float64()
			if c.cfg.KeepSpecial && id >= 0 && id <= math.MaxUint32 && c.special.Contains(uint32(id)) {
				continue
			}
			if draw < p {
				inputIDs[i][j] = c.maskID
			}
		}
	}

	return &Batch{InputIDs: inputIDs, Labels: labels, AttentionMask: attnMask}, nil
}

// MaskID returns the mask token id substituted at masked positions.
func (c *Collator) MaskID() int64 { return c.maskID }

// EffectiveProbability returns the masking probability applied to id:
// the base probability, boosted for rare tokens and clamped to 1 unless
// the config opts out.
func (c *Collator) EffectiveProbability(id int64) float64 {
	p := c.cfg.BaseProbability
	if c.rarity.Rare(id) {
		p *= rareBoost
	}
	if c.cfg.ClampProbability && p > 1 {
		p = 1
	}
	return p
}
