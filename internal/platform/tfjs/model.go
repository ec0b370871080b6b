// Package tfjs loads TensorFlow.js layers-format models (model.json plus
// binary weight shards) and runs single-example inference on the CPU.
//
// Supported are Sequential models and Functional models whose layers form a
// single chain, built from InputLayer, Embedding, Dropout variants,
// Dense, Activation, Flatten, Global{Average,Max}Pooling1D, LSTM and
// Bidirectional(LSTM). Anything else is rejected at load time.
package tfjs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// Model is immutable after Load and safe for concurrent Predict calls.
type Model struct {
	layers []layer
}

// Load reads model.json at path and the weight shards it references.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}

	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("failed to decode model %s: %w", path, err)
	}
	if mf.Format != "" && mf.Format != "layers-model" {
		return nil, fmt.Errorf("unsupported model format %q", mf.Format)
	}
	if len(mf.ModelTopology) == 0 {
		return nil, fmt.Errorf("model %s has no modelTopology", path)
	}

	specs, err := parseTopology(mf.ModelTopology)
	if err != nil {
		return nil, err
	}

	weights, err := readWeights(filepath.Dir(path), mf.WeightsManifest)
	if err != nil {
		return nil, err
	}

	m := &Model{}
	for _, spec := range specs {
		l, err := buildLayer(spec, weights)
		if err != nil {
			return nil, err
		}
		if l != nil {
			m.layers = append(m.layers, l)
		}
	}
	if len(m.layers) == 0 {
		return nil, fmt.Errorf("model %s has no executable layers", path)
	}
	return m, nil
}

// Predict runs one example of token ids through the model and returns the
// final layer's output vector.
func (m *Model) Predict(ids []int32) ([]float32, error) {
	v := value{ids: ids}
	if _, ok := m.layers[0].(*embedding); !ok {
		vec := make([]float32, len(ids))
		for i, id := range ids {
			vec[i] = float32(id)
		}
		v = value{vec: vec}
	}

	for _, l := range m.layers {
		var err error
		if v, err = l.forward(v); err != nil {
			return nil, err
		}
	}

	if v.vec == nil {
		return nil, fmt.Errorf("model output is not a vector; add a pooling or Flatten layer")
	}
	return v.vec, nil
}

// LayerNames lists executable layers in order.
func (m *Model) LayerNames() []string {
	names := make([]string, len(m.layers))
	for i, l := range m.layers {
		names[i] = l.Name()
	}
	return names
}
