package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-7
)

// adam keeps first and second moment estimates for every parameter.
type adam struct {
	lr   float64
	step int
	m    []*mat.Dense
	v    []*mat.Dense
}

func newAdam(lr float64, params []*mat.Dense) *adam {
	o := &adam{lr: lr}
	o.reset(params)
	return o
}

func (o *adam) reset(params []*mat.Dense) {
	o.step = 0
	o.m = make([]*mat.Dense, len(params))
	o.v = make([]*mat.Dense, len(params))
	for i, p := range params {
		r, c := p.Dims()
		o.m[i] = mat.NewDense(r, c, nil)
		o.v[i] = mat.NewDense(r, c, nil)
	}
}

// apply moves each parameter against its gradient.
func (o *adam) apply(params, grads []*mat.Dense) {
	o.step++
	t := float64(o.step)
	lr := o.lr * math.Sqrt(1-math.Pow(adamBeta2, t)) / (1 - math.Pow(adamBeta1, t))

	for i, p := range params {
		g := grads[i].RawMatrix()
		m := o.m[i].RawMatrix()
		v := o.v[i].RawMatrix()
		w := p.RawMatrix()
		for r := 0; r < w.Rows; r++ {
			for c := 0; c < w.Cols; c++ {
				gi := r*g.Stride + c
				mi := r*m.Stride + c
				vi := r*v.Stride + c
				m.Data[mi] = adamBeta1*m.Data[mi] + (1-adamBeta1)*g.Data[gi]
				v.Data[vi] = adamBeta2*v.Data[vi] + (1-adamBeta2)*g.Data[gi]*g.Data[gi]
				w.Data[r*w.Stride+c] -= lr * m.Data[mi] / (math.Sqrt(v.Data[vi]) + adamEpsilon)
			}
		}
	}
}
