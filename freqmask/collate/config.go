package collate

import (
	"errors"
	"fmt"
)

// Configuration errors are raised eagerly at construction, never
// deferred to a batch call.
var (
	ErrEmptyBatch       = errors.New("collate requires at least one example")
	ErrMissingMaskToken = errors.New("tokenizer does not define a mask token id")
	ErrBaseProbability  = errors.New("base mask probability must be in (0, 1)")
	ErrMaxSeqLen        = errors.New("max sequence length must be positive")
)

// rareBoost is the fixed multiplier applied to the base probability for
// tokens below the rarity threshold.
const rareBoost = 2.0

// MaskingConfig is an immutable masking policy. Changing policy mid-run
// means constructing a new collator with a new config.
type MaskingConfig struct {
	// BaseProbability is the per-position masking probability for common
	// tokens, in (0, 1).
	BaseProbability float64
	// RareThreshold is the corpus count below which a token is rare and
	// masked at rareBoost times the base probability.
	RareThreshold uint64
	// MaxSeqLen caps every sequence in a collated batch.
	MaxSeqLen int
	// ClampProbability caps the boosted probability at 1. Disabling it
	// leaves the raw base*boost value in the draw comparison.
	ClampProbability bool
	// KeepSpecial exempts the tokenizer's reserved ids (padding,
	// boundaries) from masking. Off by default: every position is
	// masked indiscriminately.
	KeepSpecial bool
}

// DefaultMaskingConfig returns the usual BERT-style masking settings.
func DefaultMaskingConfig() MaskingConfig {
	return MaskingConfig{
		BaseProbability:  0.15,
		RareThreshold:    5,
		MaxSeqLen:        512,
		ClampProbability: true,
	}
}

func (c MaskingConfig) validate() error {
	if c.BaseProbability <= 0 || c.BaseProbability >= 1 {
		return fmt.Errorf("%w: got %v", ErrBaseProbability, c.BaseProbability)
	}
	if c.MaxSeqLen <= 0 {
		return fmt.Errorf("%w: got %d", ErrMaxSeqLen, c.MaxSeqLen)
	}
	return nil
}
