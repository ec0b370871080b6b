package tfjs

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

type weightGroup struct {
	Paths   []string     `json:"paths"`
	Weights []weightSpec `json:"weights"`
}

type weightSpec struct {
	Name         string        `json:"name"`
	Shape        []int         `json:"shape"`
	DType        string        `json:"dtype"`
	Quantization *quantization `json:"quantization,omitempty"`
}

type quantization struct {
	DType string  `json:"dtype"`
	Scale float32 `json:"scale"`
	Min   float32 `json:"min"`
}

// weight is a dense float32 tensor in row-major order.
type weight struct {
	shape []int
	data  []float32
}

func (w *weight) size() int { return numElements(w.shape) }

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// readWeights loads every manifest group from dir. Each group's shards are
// concatenated and its weights are laid out back to back in manifest order.
func readWeights(dir string, groups []weightGroup) (map[string]*weight, error) {
	out := make(map[string]*weight)
	for gi, g := range groups {
		var buf []byte
		for _, p := range g.Paths {
			b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(p)))
			if err != nil {
				return nil, fmt.Errorf("failed to read weight shard %s: %w", p, err)
			}
			buf = append(buf, b...)
		}

		offset := 0
		for _, spec := range g.Weights {
			w, n, err := decodeWeight(buf[offset:], spec)
			if err != nil {
				return nil, fmt.Errorf("weights group %d: %s: %w", gi, spec.Name, err)
			}
			out[spec.Name] = w
			offset += n
		}
		if offset != len(buf) {
			return nil, fmt.Errorf("weights group %d: %d trailing bytes", gi, len(buf)-offset)
		}
	}
	return out, nil
}

// decodeWeight returns the tensor and the number of bytes consumed.
func decodeWeight(buf []byte, spec weightSpec) (*weight, int, error) {
	n := numElements(spec.Shape)
	data := make([]float32, n)

	if q := spec.Quantization; q != nil {
		var width int
		switch q.DType {
		case "uint8":
			width = 1
		case "uint16":
			width = 2
		default:
			return nil, 0, fmt.Errorf("unsupported quantization dtype %q", q.DType)
		}
		need := n * width
		if len(buf) < need {
			return nil, 0, fmt.Errorf("need %d bytes, have %d", need, len(buf))
		}
		for i := range data {
			var v uint16
			if width == 1 {
				v = uint16(buf[i])
			} else {
				v = binary.LittleEndian.Uint16(buf[2*i:])
			}
			data[i] = float32(v)*q.Scale + q.Min
		}
		return &weight{shape: spec.Shape, data: data}, need, nil
	}

	if spec.DType != "" && spec.DType != "float32" {
		return nil, 0, fmt.Errorf("unsupported dtype %q", spec.DType)
	}
	need := n * 4
	if len(buf) < need {
		return nil, 0, fmt.Errorf("need %d bytes, have %d", need, len(buf))
	}
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return &weight{shape: spec.Shape, data: data}, need, nil
}

// layerWeights holds the weights that belong to one layer, keyed by the
// path remaining after the layer's own name segment.
type layerWeights map[string]*weight

// weightsFor picks the weights whose name contains layerName as a full path segment.
func weightsFor(all map[string]*weight, layerName string) layerWeights {
	out := make(layerWeights)
	for name, w := range all {
		segs := strings.Split(name, "/")
		for i, s := range segs {
			if s == layerName {
				out[strings.Join(segs[i+1:], "/")] = w
				break
			}
		}
	}
	return out
}

// find returns the weight whose last path segment is kind and whose path
// contains scope (when non-empty).
func (lw layerWeights) find(kind, scope string) (*weight, bool) {
	for key, w := range lw {
		segs := strings.Split(key, "/")
		if segs[len(segs)-1] != kind {
			continue
		}
		if scope != "" && !strings.Contains(key, scope) {
			continue
		}
		return w, true
	}
	return nil, false
}

func (lw layerWeights) require(layer, kind, scope string, shape ...int) (*weight, error) {
	w, ok := lw.find(kind, scope)
	if !ok {
		return nil, fmt.Errorf("layer %s: missing weight %q", layer, kind)
	}
	if len(shape) > 0 {
		if len(w.shape) != len(shape) {
			return nil, fmt.Errorf("layer %s: weight %s has rank %d, want %d", layer, kind, len(w.shape), len(shape))
		}
		for i, d := range shape {
			if d >= 0 && w.shape[i] != d {
				return nil, fmt.Errorf("layer %s: weight %s has shape %v, want %v", layer, kind, w.shape, shape)
			}
		}
	}
	return w, nil
}
