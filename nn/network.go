// Package nn is a small fully connected network trained with Adam on a
// mean squared error loss. It backs the agent's action-value estimators.
package nn

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// ErrShape reports matrices whose dimensions do not fit the network.
var ErrShape = errors.New("nn: shape mismatch")

// Config describes the architecture and optimiser of a Network.
type Config struct {
	Inputs       int
	Hidden       []int
	Outputs      int
	Activation   string // hidden layers, default relu
	Output       string // linear or softmax, default linear
	LearningRate float64
	Seed         int64
}

// Validate checks the architecture.
func (c Config) Validate() error {
	if c.Inputs <= 0 {
		return errors.New("inputs must be positive")
	}
	if c.Outputs <= 0 {
		return errors.New("outputs must be positive")
	}
	for i, h := range c.Hidden {
		if h <= 0 {
			return fmt.Errorf("hidden layer %d must have positive width", i)
		}
	}
	if c.LearningRate <= 0 {
		return errors.New("learning_rate must be positive")
	}
	if _, err := Activate(c.activation(), 0); err != nil {
		return err
	}
	switch c.output() {
	case OutputLinear, OutputSoftmax:
	default:
		return fmt.Errorf("unsupported output activation: %s", c.Output)
	}
	return nil
}

func (c Config) activation() string {
	if c.Activation == "" {
		return "relu"
	}
	return c.Activation
}

func (c Config) output() string {
	if c.Output == "" {
		return OutputLinear
	}
	return c.Output
}

// sizes lists the width of every layer, inputs first.
func (c Config) sizes() []int {
	s := make([]int, 0, len(c.Hidden)+2)
	s = append(s, c.Inputs)
	s = append(s, c.Hidden...)
	return append(s, c.Outputs)
}

type layer struct {
	w *mat.Dense // in x out
	b *mat.Dense // 1 x out
}

// Network is a multilayer perceptron. It is not safe for concurrent use.
type Network struct {
	cfg    Config
	layers []layer
	opt    *adam
}

// New builds a network with Glorot-uniform weights and zero biases.
func New(cfg Config) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Activation = cfg.activation()
	cfg.Output = cfg.output()
	cfg.Hidden = append([]int(nil), cfg.Hidden...)

	rng := rand.New(rand.NewSource(cfg.Seed))
	sizes := cfg.sizes()
	n := &Network{cfg: cfg}
	for i := 0; i < len(sizes)-1; i++ {
		in, out := sizes[i], sizes[i+1]
		limit := math.Sqrt(6 / float64(in+out))
		data := make([]float64, in*out)
		for j := range data {
			data[j] = (rng.Float64()*2 - 1) * limit
		}
		n.layers = append(n.layers, layer{
			w: mat.NewDense(in, out, data),
			b: mat.NewDense(1, out, nil),
		})
	}
	n.opt = newAdam(cfg.LearningRate, n.params())
	return n, nil
}

// Config returns the network's architecture.
func (n *Network) Config() Config {
	c := n.cfg
	c.Hidden = append([]int(nil), c.Hidden...)
	return c
}

func (n *Network) params() []*mat.Dense {
	p := make([]*mat.Dense, 0, 2*len(n.layers))
	for _, l := range n.layers {
		p = append(p, l.w, l.b)
	}
	return p
}

// Predict returns one row of outputs per row of states.
func (n *Network) Predict(states *mat.Dense) (*mat.Dense, error) {
	if states == nil {
		return nil, fmt.Errorf("%w: nil input", ErrShape)
	}
	if _, c := states.Dims(); c != n.cfg.Inputs {
		return nil, fmt.Errorf("%w: input has %d columns, want %d", ErrShape, c, n.cfg.Inputs)
	}
	acts, _, err := n.forward(states)
	if err != nil {
		return nil, err
	}
	return acts[len(acts)-1], nil
}

// forward returns the activations of every layer (inputs first) and the
// pre-activations of every non-input layer.
func (n *Network) forward(x *mat.Dense) ([]*mat.Dense, []*mat.Dense, error) {
	acts := []*mat.Dense{x}
	zs := make([]*mat.Dense, 0, len(n.layers))
	last := len(n.layers) - 1

	for i, l := range n.layers {
		var z mat.Dense
		z.Mul(acts[i], l.w)
		bias := l.b.RawRowView(0)
		rows, _ := z.Dims()
		for r := 0; r < rows; r++ {
			row := z.RawRowView(r)
			for c := range row {
				row[c] += bias[c]
			}
		}
		zs = append(zs, &z)

		a := mat.DenseCopyOf(&z)
		if i == last {
			if n.cfg.Output == OutputSoftmax {
				for r := 0; r < rows; r++ {
					Softmax(a.RawRowView(r))
				}
			}
		} else {
			var err error
			a.Apply(func(_, _ int, v float64) float64 {
				y, aerr := Activate(n.cfg.Activation, v)
				if aerr != nil {
					err = aerr
				}
				return y
			}, a)
			if err != nil {
				return nil, nil, err
			}
		}
		acts = append(acts, a)
	}
	return acts, zs, nil
}

// Loss is the mean squared error over every output of every row.
func (n *Network) Loss(states, targets *mat.Dense) (float64, error) {
	y, err := n.Predict(states)
	if err != nil {
		return 0, err
	}
	if err := n.checkTargets(y, targets); err != nil {
		return 0, err
	}
	var diff mat.Dense
	diff.Sub(y, targets)
	r, c := diff.Dims()
	sum := 0.0
	for _, v := range diff.RawMatrix().Data {
		sum += v * v
	}
	return sum / float64(r*c), nil
}

func (n *Network) checkTargets(y, targets *mat.Dense) error {
	if targets == nil {
		return fmt.Errorf("%w: nil targets", ErrShape)
	}
	yr, yc := y.Dims()
	tr, tc := targets.Dims()
	if yr != tr || yc != tc {
		return fmt.Errorf("%w: targets are %dx%d, want %dx%d", ErrShape, tr, tc, yr, yc)
	}
	return nil
}

// Fit runs epochs passes over states in mini-batches of batchSize rows,
// taken in order, with one Adam step per mini-batch.
func (n *Network) Fit(states, targets *mat.Dense, batchSize, epochs int) error {
	if states == nil || targets == nil {
		return fmt.Errorf("%w: nil batch", ErrShape)
	}
	rows, cols := states.Dims()
	if cols != n.cfg.Inputs {
		return fmt.Errorf("%w: input has %d columns, want %d", ErrShape, cols, n.cfg.Inputs)
	}
	tr, tc := targets.Dims()
	if tr != rows || tc != n.cfg.Outputs {
		return fmt.Errorf("%w: targets are %dx%d, want %dx%d", ErrShape, tr, tc, rows, n.cfg.Outputs)
	}
	if batchSize <= 0 || batchSize > rows {
		batchSize = rows
	}
	if epochs <= 0 {
		epochs = 1
	}

	for e := 0; e < epochs; e++ {
		for start := 0; start < rows; start += batchSize {
			end := start + batchSize
			if end > rows {
				end = rows
			}
			x := states.Slice(start, end, 0, cols).(*mat.Dense)
			t := targets.Slice(start, end, 0, tc).(*mat.Dense)
			if err := n.step(x, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// step back-propagates one mini-batch and applies the optimiser.
func (n *Network) step(x, t *mat.Dense) error {
	acts, zs, err := n.forward(x)
	if err != nil {
		return err
	}
	y := acts[len(acts)-1]
	rows, outs := y.Dims()

	// dL/dy for the mean over rows and outputs
	delta := mat.NewDense(rows, outs, nil)
	delta.Sub(y, t)
	delta.Scale(2/float64(rows*outs), delta)
	if n.cfg.Output == OutputSoftmax {
		for r := 0; r < rows; r++ {
			softmaxBackward(y.RawRowView(r), delta.RawRowView(r))
		}
	}

	grads := make([]*mat.Dense, 2*len(n.layers))
	for i := len(n.layers) - 1; i >= 0; i-- {
		l := n.layers[i]

		var gw mat.Dense
		gw.Mul(acts[i].T(), delta)
		_, c := delta.Dims()
		gb := mat.NewDense(1, c, nil)
		for j := 0; j < c; j++ {
			gb.Set(0, j, mat.Sum(delta.ColView(j)))
		}
		grads[2*i] = &gw
		grads[2*i+1] = gb

		if i == 0 {
			break
		}
		prev := &mat.Dense{}
		prev.Mul(delta, l.w.T())
		z := zs[i-1]
		prev.Apply(func(r, c int, v float64) float64 {
			d, derr := Derivative(n.cfg.Activation, z.At(r, c))
			if derr != nil {
				err = derr
			}
			return v * d
		}, prev)
		if err != nil {
			return err
		}
		delta = prev
	}

	n.opt.apply(n.params(), grads)
	return nil
}

// Weights returns a deep copy of every parameter: weights then biases,
// layer by layer.
func (n *Network) Weights() []*mat.Dense {
	p := n.params()
	out := make([]*mat.Dense, len(p))
	for i, m := range p {
		out[i] = mat.DenseCopyOf(m)
	}
	return out
}

// SetWeights replaces every parameter. All shapes are checked before any
// value is copied.
func (n *Network) SetWeights(w []*mat.Dense) error {
	p := n.params()
	if len(w) != len(p) {
		return fmt.Errorf("%w: got %d parameter matrices, want %d", ErrShape, len(w), len(p))
	}
	for i := range p {
		if w[i] == nil {
			return fmt.Errorf("%w: parameter %d is nil", ErrShape, i)
		}
		r, c := p[i].Dims()
		wr, wc := w[i].Dims()
		if r != wr || c != wc {
			return fmt.Errorf("%w: parameter %d is %dx%d, want %dx%d", ErrShape, i, wr, wc, r, c)
		}
	}
	for i := range p {
		p[i].Copy(w[i])
	}
	return nil
}
