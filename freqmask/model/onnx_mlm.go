//go:build onnx
// +build onnx

package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/freqmask/freqmask/collate"

	ort "github.com/yalue/onnxruntime_go"
	"gonum.org/v1/gonum/floats"
)

// ONNX-backed masked-LM scorer under the onnx build tag. Runs the
// model's logits head and computes mean cross-entropy against the
// pre-masking labels at masked positions only.
type onnxModel struct {
	modelPath   string
	maskID      int64
	mu          sync.Mutex
	session     *ort.DynamicAdvancedSession
	inputNames  []string
	outputNames []string
}

func newONNXModel(modelPath string, maskID int64) Model {
	return &onnxModel{modelPath: modelPath, maskID: maskID}
}

func (m *onnxModel) ensureSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		return nil
	}
	if m.modelPath == "" {
		return fmt.Errorf("onnx model path is required")
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnx runtime: %w", err)
		}
	}
	ins, outs, err := ort.GetInputOutputInfo(m.modelPath)
	if err != nil {
		return fmt.Errorf("get IO info: %w", err)
	}
	var inputNames []string
	var idsName, maskName string
	for _, ii := range ins {
		n := strings.ToLower(ii.Name)
		if strings.Contains(n, "input_ids") || n == "ids" {
			idsName = ii.Name
		}
		if strings.Contains(n, "attention_mask") || n == "mask" {
			maskName = ii.Name
		}
	}
	if idsName != "" {
		inputNames = append(inputNames, idsName)
	}
	if maskName != "" {
		inputNames = append(inputNames, maskName)
	}
	// Fallback: take first two int tensor inputs
	if len(inputNames) == 0 {
		for _, ii := range ins {
			if ii.DataType == ort.TensorElementDataTypeInt64 {
				inputNames = append(inputNames, ii.Name)
				if len(inputNames) >= 2 {
					break
				}
			}
		}
	}
	if len(inputNames) == 0 {
		return fmt.Errorf("could not determine ONNX input names")
	}
	var outputNames []string
	for _, oi := range outs {
		if oi.DataType == ort.TensorElementDataTypeFloat {
			outputNames = append(outputNames, oi.Name)
			break
		}
	}
	if len(outputNames) == 0 {
		return fmt.Errorf("could not determine ONNX output name")
	}
	s, err := ort.NewDynamicAdvancedSession(m.modelPath, inputNames, outputNames, nil)
	if err != nil {
		return fmt.Errorf("create onnx session: %w", err)
	}
	m.session = s
	m.inputNames = inputNames
	m.outputNames = outputNames
	return nil
}

func (m *onnxModel) Forward(ctx context.Context, batch *collate.Batch) (float64, error) {
	if err := m.ensureSession(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rows := len(batch.InputIDs)
	if rows == 0 {
		return 0, fmt.Errorf("empty batch")
	}
	seq := len(batch.InputIDs[0])
	flatIDs := make([]int64, rows*seq)
	flatMask := make([]int64, rows*seq)
	for i := 0; i < rows; i++ {
		copy(flatIDs[i*seq:(i+1)*seq], batch.InputIDs[i])
		if i < len(batch.AttentionMask) {
			copy(flatMask[i*seq:(i+1)*seq], batch.AttentionMask[i])
		}
	}
	shape := ort.NewShape(int64(rows), int64(seq))
	idsTensor, err := ort.NewTensor(shape, flatIDs)
	if err != nil {
		return 0, fmt.Errorf("ids tensor: %w", err)
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor(shape, flatMask)
	if err != nil {
		return 0, fmt.Errorf("mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	inVals := make([]ort.Value, len(m.inputNames))
	for i, name := range m.inputNames {
		ln := strings.ToLower(name)
		if strings.Contains(ln, "attention_mask") || ln == "mask" {
			inVals[i] = maskTensor
		} else {
			inVals[i] = idsTensor
		}
	}
	outVals := make([]ort.Value, len(m.outputNames))
	if err := m.session.Run(inVals, outVals); err != nil {
		return 0, fmt.Errorf("onnx run: %w", err)
	}
	defer func() {
		for _, v := range outVals {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	t, ok := outVals[0].(*ort.Tensor[float32])
	if !ok {
		return 0, fmt.Errorf("unexpected output type")
	}
	logits := t.GetData()
	outShape := t.GetShape()
	if len(outShape) != 3 {
		return 0, fmt.Errorf("unexpected logits rank %d", len(outShape))
	}
	vocab := int(outShape[2])

	// mean cross-entropy over masked positions
	row := make([]float64, vocab)
	var loss float64
	masked := 0
	for i := 0; i < rows; i++ {
		for j := 0; j < seq; j++ {
			if batch.InputIDs[i][j] != m.maskID {
				continue
			}
			label := batch.Labels[i][j]
			if label < 0 || int(label) >= vocab {
				continue
			}
			start := (i*seq + j) * vocab
			for k := 0; k < vocab; k++ {
				row[k] = float64(logits[start+k])
			}
			loss += floats.LogSumExp(row) - row[label]
			masked++
		}
	}
	if masked == 0 {
		return 0, nil
	}
	return loss / float64(masked), nil
}
