package tfjs

import (
	"fmt"
	"math"
)

// activation transforms xs in place.
type activation func(xs []float32)

func lookupActivation(name string) (activation, error) {
	switch name {
	case "", "linear":
		return func([]float32) {}, nil
	case "relu":
		return relu, nil
	case "sigmoid":
		return sigmoid, nil
	case "hard_sigmoid":
		return hardSigmoid, nil
	case "tanh":
		return tanh, nil
	case "softmax":
		return softmax, nil
	case "softplus":
		return softplus, nil
	case "elu":
		return elu, nil
	default:
		return nil, fmt.Errorf("unsupported activation %q", name)
	}
}

func relu(xs []float32) {
	for i, x := range xs {
		if x < 0 {
			xs[i] = 0
		}
	}
}

func sigmoid(xs []float32) {
	for i, x := range xs {
		xs[i] = sigmoidScalar(x)
	}
}

func sigmoidScalar(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}

// hardSigmoid uses the Keras/tfjs definition clip(0.2x+0.5, 0, 1).
func hardSigmoid(xs []float32) {
	for i, x := range xs {
		xs[i] = hardSigmoidScalar(x)
	}
}

func hardSigmoidScalar(x float32) float32 {
	y := 0.2*x + 0.5
	switch {
	case y < 0:
		return 0
	case y > 1:
		return 1
	default:
		return y
	}
}

func tanh(xs []float32) {
	for i, x := range xs {
		xs[i] = float32(math.Tanh(float64(x)))
	}
}

func softmax(xs []float32) {
	if len(xs) == 0 {
		return
	}
	maxV := xs[0]
	for _, x := range xs[1:] {
		if x > maxV {
			maxV = x
		}
	}
	var sum float64
	for i, x := range xs {
		e := math.Exp(float64(x - maxV))
		xs[i] = float32(e)
		sum += e
	}
	for i := range xs {
		xs[i] = float32(float64(xs[i]) / sum)
	}
}

func softplus(xs []float32) {
	for i, x := range xs {
		xs[i] = float32(math.Log1p(math.Exp(float64(x))))
	}
}

func elu(xs []float32) {
	for i, x := range xs {
		if x < 0 {
			xs[i] = float32(math.Expm1(float64(x)))
		}
	}
}

// scalarActivation returns the element-wise form used inside recurrent cells.
func scalarActivation(name string) (func(float32) float32, error) {
	switch name {
	case "", "tanh":
		return func(x float32) float32 { return float32(math.Tanh(float64(x))) }, nil
	case "sigmoid":
		return sigmoidScalar, nil
	case "hard_sigmoid":
		return hardSigmoidScalar, nil
	case "relu":
		return func(x float32) float32 { return max(x, 0) }, nil
	case "linear":
		return func(x float32) float32 { return x }, nil
	default:
		return nil, fmt.Errorf("unsupported recurrent activation %q", name)
	}
}
