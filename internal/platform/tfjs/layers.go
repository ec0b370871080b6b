package tfjs

import (
	"fmt"

	"github.com/goccy/go-json"
)

// value is the activation flowing between layers for a single example.
// Exactly one of ids, seq or vec is set.
type value struct {
	ids  []int32
	seq  [][]float32
	vec  []float32
	mask []bool
}

type layer interface {
	Name() string
	forward(v value) (value, error)
}

// buildLayer turns a spec into an executable layer. It returns nil for
// layers that do nothing at inference time.
func buildLayer(spec layerSpec, all map[string]*weight) (layer, error) {
	var cfg layerConfig
	if err := json.Unmarshal(spec.Config, &cfg); err != nil {
		return nil, fmt.Errorf("layer %s: invalid config: %w", spec.ClassName, err)
	}
	name := cfg.Name
	if name == "" {
		name = spec.Name
	}
	lw := weightsFor(all, name)

	switch spec.ClassName {
	case "InputLayer", "Dropout", "SpatialDropout1D", "GaussianNoise", "GaussianDropout", "AlphaDropout":
		return nil, nil
	case "Embedding":
		return newEmbedding(name, cfg, lw)
	case "Dense":
		return newDense(name, cfg, lw)
	case "Activation":
		act, err := lookupActivation(cfg.Activation)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", name, err)
		}
		return &activationLayer{name: name, act: act}, nil
	case "Flatten":
		return &flatten{name: name}, nil
	case "GlobalAveragePooling1D":
		return &globalPool1D{name: name, average: true}, nil
	case "GlobalMaxPooling1D", "GlobalMaxPool1D":
		return &globalPool1D{name: name}, nil
	case "LSTM":
		return newLSTM(name, cfg, lw, "")
	case "Bidirectional":
		return newBidirectional(name, cfg, lw)
	default:
		return nil, fmt.Errorf("layer %s: unsupported layer class %q", name, spec.ClassName)
	}
}

type embedding struct {
	name      string
	inputDim  int
	outputDim int
	maskZero  bool
	table     []float32
}

func newEmbedding(name string, cfg layerConfig, lw layerWeights) (*embedding, error) {
	w, err := lw.require(name, "embeddings", "", -1, -1)
	if err != nil {
		return nil, err
	}
	return &embedding{
		name:      name,
		inputDim:  w.shape[0],
		outputDim: w.shape[1],
		maskZero:  cfg.MaskZero,
		table:     w.data,
	}, nil
}

func (e *embedding) Name() string { return e.name }

func (e *embedding) forward(v value) (value, error) {
	if v.ids == nil {
		return value{}, fmt.Errorf("layer %s: expects integer ids", e.name)
	}
	seq := make([][]float32, len(v.ids))
	var mask []bool
	if e.maskZero {
		mask = make([]bool, len(v.ids))
	}
	for t, id := range v.ids {
		if id < 0 || int(id) >= e.inputDim {
			return value{}, fmt.Errorf("layer %s: id %d out of range [0, %d)", e.name, id, e.inputDim)
		}
		row := make([]float32, e.outputDim)
		copy(row, e.table[int(id)*e.outputDim:(int(id)+1)*e.outputDim])
		seq[t] = row
		if mask != nil {
			mask[t] = id != 0
		}
	}
	return value{seq: seq, mask: mask}, nil
}

type dense struct {
	name   string
	in     int
	units  int
	kernel []float32
	bias   []float32
	act    activation
}

func newDense(name string, cfg layerConfig, lw layerWeights) (*dense, error) {
	k, err := lw.require(name, "kernel", "", -1, -1)
	if err != nil {
		return nil, err
	}
	d := &dense{name: name, in: k.shape[0], units: k.shape[1], kernel: k.data}
	if cfg.UseBias == nil || *cfg.UseBias {
		b, err := lw.require(name, "bias", "", d.units)
		if err != nil {
			return nil, err
		}
		d.bias = b.data
	}
	if d.act, err = lookupActivation(cfg.Activation); err != nil {
		return nil, fmt.Errorf("layer %s: %w", name, err)
	}
	return d, nil
}

func (d *dense) Name() string { return d.name }

func (d *dense) apply(x []float32) ([]float32, error) {
	if len(x) != d.in {
		return nil, fmt.Errorf("layer %s: input size %d, want %d", d.name, len(x), d.in)
	}
	out := make([]float32, d.units)
	if d.bias != nil {
		copy(out, d.bias)
	}
	for i, xi := range x {
		if xi == 0 {
			continue
		}
		row := d.kernel[i*d.units : (i+1)*d.units]
		for j, k := range row {
			out[j] += xi * k
		}
	}
	d.act(out)
	return out, nil
}

func (d *dense) forward(v value) (value, error) {
	switch {
	case v.vec != nil:
		out, err := d.apply(v.vec)
		return value{vec: out}, err
	case v.seq != nil:
		seq := make([][]float32, len(v.seq))
		for t, x := range v.seq {
			out, err := d.apply(x)
			if err != nil {
				return value{}, err
			}
			seq[t] = out
		}
		return value{seq: seq, mask: v.mask}, nil
	default:
		return value{}, fmt.Errorf("layer %s: expects float input", d.name)
	}
}

type activationLayer struct {
	name string
	act  activation
}

func (a *activationLayer) Name() string { return a.name }

func (a *activationLayer) forward(v value) (value, error) {
	switch {
	case v.vec != nil:
		a.act(v.vec)
	case v.seq != nil:
		for _, row := range v.seq {
			a.act(row)
		}
	default:
		return value{}, fmt.Errorf("layer %s: expects float input", a.name)
	}
	return v, nil
}

type flatten struct{ name string }

func (f *flatten) Name() string { return f.name }

func (f *flatten) forward(v value) (value, error) {
	if v.vec != nil {
		return v, nil
	}
	if v.seq == nil {
		return value{}, fmt.Errorf("layer %s: expects float input", f.name)
	}
	n := 0
	for _, row := range v.seq {
		n += len(row)
	}
	out := make([]float32, 0, n)
	for _, row := range v.seq {
		out = append(out, row...)
	}
	return value{vec: out}, nil
}

// globalPool1D reduces over time. Like tfjs, it ignores the mask.
type globalPool1D struct {
	name    string
	average bool
}

func (g *globalPool1D) Name() string { return g.name }

func (g *globalPool1D) forward(v value) (value, error) {
	if len(v.seq) == 0 {
		return value{}, fmt.Errorf("layer %s: expects a non-empty sequence", g.name)
	}
	out := make([]float32, len(v.seq[0]))
	copy(out, v.seq[0])
	for _, row := range v.seq[1:] {
		for j, x := range row {
			if g.average {
				out[j] += x
			} else if x > out[j] {
				out[j] = x
			}
		}
	}
	if g.average {
		n := float32(len(v.seq))
		for j := range out {
			out[j] /= n
		}
	}
	return value{vec: out}, nil
}
