package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/ZanzyTHEbar/freqmask/freqmask/collate"
	"github.com/ZanzyTHEbar/freqmask/freqmask/model"

	"github.com/ZanzyTHEbar/assert-lib"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoDocuments = errors.New("training requires at least one document")
	ErrBatchSize   = errors.New("batch size must be positive")
	ErrEpochs      = errors.New("epoch count must be positive")
)

// Trainer drives a masked-LM experiment: per epoch it shuffles the
// document order, collates batches and feeds them to the model scorer.
// Preparation of batch N+1 overlaps with Forward on batch N; the
// collator is only ever touched by one preparation at a time so its
// random stream stays sequential.
type Trainer struct {
	collator      *collate.Collator
	model         model.Model
	assertHandler *assert.AssertHandler
	batchSize     int
	epochs        int
	rng           *rand.Rand
}

// Result summarizes one run.
type Result struct {
	RunID     uuid.UUID
	EpochLoss []float64
}

// NewTrainer wires a collator and a model scorer into an experiment
// loop. seed controls the per-epoch document shuffle only; masking
// randomness is owned by the collator.
func NewTrainer(c *collate.Collator, m model.Model, batchSize, epochs int, seed int64) (*Trainer, error) {
	if batchSize <= 0 {
		return nil, ErrBatchSize
	}
	if epochs <= 0 {
		return nil, ErrEpochs
	}
	return &Trainer{
		collator:      c,
		model:         m,
		assertHandler: assert.NewAssertHandler(),
		batchSize:     batchSize,
		epochs:        epochs,
		rng:           rand.New(rand.NewSource(seed)),
	}, nil
}

type prepared struct {
	batch *collate.Batch
	err   error
}

// Run executes the configured number of epochs over docs and returns
// the per-epoch mean loss.
func (t *Trainer) Run(ctx context.Context, docs []string) (*Result, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	runID := uuid.New()
	start := time.Now()
	result := &Result{RunID: runID, EpochLoss: make([]float64, 0, t.epochs)}

	for epoch := 0; epoch < t.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batches := t.shuffleBatches(docs)
		losses := make([]float64, 0, len(batches))

		next := make(chan prepared, 1)
		go t.prepare(batches[0], next)
		for bi := range batches {
			p := <-next
			if p.err != nil {
				return nil, fmt.Errorf("epoch %d batch %d: %w", epoch, bi, p.err)
			}
			if bi+1 < len(batches) {
				go t.prepare(batches[bi+1], next)
			}

			t.assertHandler.Assert(ctx, len(p.batch.Labels) == len(p.batch.InputIDs),
				"labels must parallel input ids")

			loss, err := t.model.Forward(ctx, p.batch)
			if err != nil {
				return nil, fmt.Errorf("epoch %d batch %d forward: %w", epoch, bi, err)
			}
			losses = append(losses, loss)
		}

		epochLoss := stat.Mean(losses, nil)
		result.EpochLoss = append(result.EpochLoss, epochLoss)
		slog.Info("Epoch complete",
			"run_id", runID,
			"epoch", epoch,
			"batches", len(batches),
			"mean_loss", epochLoss)
	}

	slog.Info("Run complete",
		"run_id", runID,
		"epochs", t.epochs,
		"duration", time.Since(start))
	return result, nil
}

// shuffleBatches deals docs into batchSize groups in a fresh random
// order drawn from the trainer's own rng.
func (t *Trainer) shuffleBatches(docs []string) [][]string {
	order := t.rng.Perm(len(docs))
	batches := make([][]string, 0, (len(docs)+t.batchSize-1)/t.batchSize)
	for lo := 0; lo < len(order); lo += t.batchSize {
		hi := min(lo+t.batchSize, len(order))
		batch := make([]string, 0, hi-lo)
		for _, idx := range order[lo:hi] {
			batch = append(batch, docs[idx])
		}
		batches = append(batches, batch)
	}
	return batches
}

func (t *Trainer) prepare(examples []string, out chan<- prepared) {
	b, err := t.collator.Collate(examples)
	out <- prepared{batch: b, err: err}
}
