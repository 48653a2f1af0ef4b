package nn

import (
	"fmt"
	"math"
)

// Output activations.
const (
	OutputLinear  = "linear"
	OutputSoftmax = "softmax"
)

// Activate applies the named hidden-layer activation.
func Activate(name string, x float64) (float64, error) {
	switch name {
	case "identity", OutputLinear:
		return x, nil
	case "relu":
		if x > 0 {
			return x, nil
		}
		return 0, nil
	case "tanh":
		return math.Tanh(x), nil
	case "sigmoid":
		return 1 / (1 + math.Exp(-x)), nil
	default:
		return 0, fmt.Errorf("unsupported activation: %s", name)
	}
}

// Derivative returns the slope of the named activation at x.
func Derivative(name string, x float64) (float64, error) {
	switch name {
	case "identity", OutputLinear:
		return 1, nil
	case "relu":
		if x > 0 {
			return 1, nil
		}
		return 0, nil
	case "tanh":
		y := math.Tanh(x)
		return 1 - (y * y), nil
	case "sigmoid":
		s := 1 / (1 + math.Exp(-x))
		return s * (1 - s), nil
	default:
		return 0, fmt.Errorf("unsupported derivative: %s", name)
	}
}

// Softmax normalises a row of scores in place.
func Softmax(row []float64) {
	if len(row) == 0 {
		return
	}
	hi := row[0]
	for _, v := range row[1:] {
		if v > hi {
			hi = v
		}
	}
	sum := 0.0
	for i, v := range row {
		row[i] = math.Exp(v - hi)
		sum += row[i]
	}
	for i := range row {
		row[i] /= sum
	}
}

// softmaxBackward turns dL/dy into dL/dz for one softmax row.
func softmaxBackward(y, grad []float64) {
	dot := 0.0
	for i := range y {
		dot += grad[i] * y[i]
	}
	for i := range y {
		grad[i] = y[i] * (grad[i] - dot)
	}
}
