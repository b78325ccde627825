//go:build !onnx
// +build !onnx

package model

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/freqmask/freqmask/collate"
)

// onnxModel is a stub used when built without the "onnx" build tag.
type onnxModel struct{ maskID int64 }

func newONNXModel(modelPath string, maskID int64) Model { return &onnxModel{maskID: maskID} }

func (m *onnxModel) Forward(ctx context.Context, batch *collate.Batch) (float64, error) {
	return 0, fmt.Errorf("onnx model not available: build with -tags onnx and provide a masked-LM model")
}
