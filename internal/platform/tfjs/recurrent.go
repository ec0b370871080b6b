package tfjs

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// lstm implements the Keras LSTM cell with gate order i, f, c, o.
type lstm struct {
	name            string
	units           int
	in              int
	kernel          []float32 // [in, 4*units]
	recurrent       []float32 // [units, 4*units]
	bias            []float32 // [4*units], optional
	act             func(float32) float32
	recAct          func(float32) float32
	returnSequences bool
	goBackwards     bool
}

// newLSTM builds an LSTM from weights under scope ("" for a plain layer,
// "forward"/"backward" inside a Bidirectional wrapper).
func newLSTM(name string, cfg layerConfig, lw layerWeights, scope string) (*lstm, error) {
	if cfg.Units <= 0 {
		return nil, fmt.Errorf("layer %s: units must be positive", name)
	}
	gates := 4 * cfg.Units

	k, err := lw.require(name, "kernel", scope, -1, gates)
	if err != nil {
		return nil, err
	}
	rk, err := lw.require(name, "recurrent_kernel", scope, cfg.Units, gates)
	if err != nil {
		return nil, err
	}

	l := &lstm{
		name:            name,
		units:           cfg.Units,
		in:              k.shape[0],
		kernel:          k.data,
		recurrent:       rk.data,
		returnSequences: cfg.ReturnSequences,
		goBackwards:     cfg.GoBackwards,
	}
	if cfg.UseBias == nil || *cfg.UseBias {
		b, err := lw.require(name, "bias", scope, gates)
		if err != nil {
			return nil, err
		}
		l.bias = b.data
	}

	actName := cfg.Activation
	if actName == "" {
		actName = "tanh"
	}
	recName := cfg.RecurrentActivation
	if recName == "" {
		recName = "sigmoid"
	}
	if l.act, err = scalarActivation(actName); err != nil {
		return nil, fmt.Errorf("layer %s: %w", name, err)
	}
	if l.recAct, err = scalarActivation(recName); err != nil {
		return nil, fmt.Errorf("layer %s: %w", name, err)
	}
	return l, nil
}

func (l *lstm) Name() string { return l.name }

func (l *lstm) forward(v value) (value, error) {
	outputs, last, err := l.run(v)
	if err != nil {
		return value{}, err
	}
	if l.returnSequences {
		return value{seq: outputs, mask: v.mask}, nil
	}
	return value{vec: last}, nil
}

// run returns per-step outputs in processing order and the final output.
// Masked steps carry the previous state and output forward unchanged.
func (l *lstm) run(v value) ([][]float32, []float32, error) {
	if v.seq == nil {
		return nil, nil, fmt.Errorf("layer %s: expects a sequence", l.name)
	}
	u := l.units
	h := make([]float32, u)
	c := make([]float32, u)
	z := make([]float32, 4*u)
	outputs := make([][]float32, 0, len(v.seq))

	n := len(v.seq)
	for step := 0; step < n; step++ {
		t := step
		if l.goBackwards {
			t = n - 1 - step
		}
		x := v.seq[t]
		if len(x) != l.in {
			return nil, nil, fmt.Errorf("layer %s: input size %d, want %d", l.name, len(x), l.in)
		}

		if v.mask == nil || v.mask[t] {
			if l.bias != nil {
				copy(z, l.bias)
			} else {
				clear(z)
			}
			for i, xi := range x {
				if xi == 0 {
					continue
				}
				row := l.kernel[i*4*u : (i+1)*4*u]
				for j, k := range row {
					z[j] += xi * k
				}
			}
			for i, hi := range h {
				if hi == 0 {
					continue
				}
				row := l.recurrent[i*4*u : (i+1)*4*u]
				for j, k := range row {
					z[j] += hi * k
				}
			}
			for j := 0; j < u; j++ {
				ig := l.recAct(z[j])
				fg := l.recAct(z[u+j])
				cand := l.act(z[2*u+j])
				og := l.recAct(z[3*u+j])
				c[j] = fg*c[j] + ig*cand
				h[j] = og * l.act(c[j])
			}
		}

		out := make([]float32, u)
		copy(out, h)
		outputs = append(outputs, out)
	}

	last := make([]float32, u)
	copy(last, h)
	return outputs, last, nil
}

type bidirectional struct {
	name      string
	forwardL  *lstm
	backwardL *lstm
	mergeMode string
}

func newBidirectional(name string, cfg layerConfig, lw layerWeights) (*bidirectional, error) {
	if cfg.Layer == nil || cfg.Layer.ClassName != "LSTM" {
		return nil, fmt.Errorf("layer %s: only Bidirectional(LSTM) is supported", name)
	}
	var inner layerConfig
	if err := json.Unmarshal(cfg.Layer.Config, &inner); err != nil {
		return nil, fmt.Errorf("layer %s: invalid wrapped layer: %w", name, err)
	}

	fwdCfg := inner
	fwdCfg.GoBackwards = false
	fwd, err := newLSTM(name, fwdCfg, lw, "forward")
	if err != nil {
		return nil, err
	}
	bwdCfg := inner
	bwdCfg.GoBackwards = true
	bwd, err := newLSTM(name, bwdCfg, lw, "backward")
	if err != nil {
		return nil, err
	}

	mode := "concat"
	if cfg.MergeMode != nil {
		mode = strings.ToLower(*cfg.MergeMode)
	}
	switch mode {
	case "concat", "sum", "ave", "mul":
	default:
		return nil, fmt.Errorf("layer %s: unsupported merge_mode %q", name, mode)
	}
	return &bidirectional{name: name, forwardL: fwd, backwardL: bwd, mergeMode: mode}, nil
}

func (b *bidirectional) Name() string { return b.name }

func (b *bidirectional) forward(v value) (value, error) {
	fSeq, fLast, err := b.forwardL.run(v)
	if err != nil {
		return value{}, err
	}
	bSeq, bLast, err := b.backwardL.run(v)
	if err != nil {
		return value{}, err
	}

	if !b.forwardL.returnSequences {
		return value{vec: b.merge(fLast, bLast)}, nil
	}
	// backward outputs come in reverse time order
	n := len(fSeq)
	seq := make([][]float32, n)
	for t := range fSeq {
		seq[t] = b.merge(fSeq[t], bSeq[n-1-t])
	}
	return value{seq: seq, mask: v.mask}, nil
}

func (b *bidirectional) merge(f, bw []float32) []float32 {
	switch b.mergeMode {
	case "sum", "ave", "mul":
		out := make([]float32, len(f))
		for i := range f {
			switch b.mergeMode {
			case "sum":
				out[i] = f[i] + bw[i]
			case "ave":
				out[i] = (f[i] + bw[i]) / 2
			case "mul":
				out[i] = f[i] * bw[i]
			}
		}
		return out
	default:
		out := make([]float32, 0, len(f)+len(bw))
		out = append(out, f...)
		return append(out, bw...)
	}
}
