package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/freqmask/freqmask/tokenizer"

	"github.com/sourcegraph/conc/pool"
)

// Builder produces a FrequencyTable from a raw text corpus. Frequency is
// counted at the word level before sub-word tokenization: each document
// is whitespace-split, every word is tokenized independently without
// special tokens, and each resulting sub-word id is counted once per
// word occurrence.
type Builder struct {
	tok        tokenizer.Tokenizer
	maxWorkers int
}

// NewBuilder creates a builder with a worker count tuned for the
// CPU-bound tokenization pass.
func NewBuilder(tok tokenizer.Tokenizer) *Builder {
	maxWorkers := min(max(runtime.NumCPU(), 2), 16)
	return &Builder{tok: tok, maxWorkers: maxWorkers}
}

// WithMaxWorkers overrides the worker count; values below 1 keep the
// computed default.
func (b *Builder) WithMaxWorkers(n int) *Builder {
	if n > 0 {
		b.maxWorkers = n
	}
	return b
}

// Build counts token occurrences across docs. Documents are processed
// concurrently; counting is commutative so the result is identical to a
// serial pass. Tokenizer failures propagate wrapped in
// tokenizer.ErrTokenize with the document index attached.
func (b *Builder) Build(ctx context.Context, docs []string) (*FrequencyTable, error) {
	start := time.Now()
	counts := make(map[int64]uint64)
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(b.maxWorkers).WithContext(ctx).WithCancelOnError()
	for i, doc := range docs {
		p.Go(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			words := strings.Fields(doc)
			if len(words) == 0 {
				return nil
			}
			seqs, err := b.tok.EncodeWords(words)
			if err != nil {
				return fmt.Errorf("%w: document %d: %w", tokenizer.ErrTokenize, i, err)
			}
			local := make(map[int64]uint64)
			for _, seq := range seqs {
				for _, id := range seq {
					local[id]++
				}
			}
			mu.Lock()
			for id, n := range local {
				counts[id] += n
			}
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	table := FrequencyTableFromCounts(counts)
	slog.Debug("Frequency table built",
		"docs", len(docs),
		"distinct_ids", table.Len(),
		"total_count", table.Total(),
		"duration", time.Since(start))
	return table, nil
}
