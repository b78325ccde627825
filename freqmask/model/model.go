package model

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/freqmask/freqmask/collate"
)

// Model scores a masked batch: it returns the loss of predicting the
// original labels at the masked positions. Training-loop internals live
// with the model collaborator, not here.
type Model interface {
	Forward(ctx context.Context, batch *collate.Batch) (loss float64, err error)
}

// NewModel selects a loss scorer by name (e.g., "dev", "onnx").
// modelPath is only consulted by the onnx scorer. maskID identifies
// masked positions in a batch. Unknown providers fall back to the
// deterministic dev scorer.
func NewModel(providerName, modelPath string, maskID int64) Model {
	name := strings.ToLower(strings.TrimSpace(providerName))
	switch name {
	case "dev", "hash", "":
		return NewHashModel(maskID)
	case "onnx":
		return newONNXModel(modelPath, maskID)
	default:
		if strings.HasPrefix(name, "onnx") {
			return newONNXModel(modelPath, maskID)
		}
		return NewHashModel(maskID)
	}
}
