package agent

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Policy is an epsilon-greedy action selector with multiplicative decay.
type Policy struct {
	epsilon float64
	min     float64
	decay   float64
	rng     *rand.Rand
}

// NewPolicy returns a policy starting at epsilon and decaying towards min.
func NewPolicy(epsilon, min, decay float64, rng *rand.Rand) *Policy {
	return &Policy{
		epsilon: epsilon,
		min:     min,
		decay:   decay,
		rng:     rng,
	}
}

// Epsilon returns the current exploration rate.
func (p *Policy) Epsilon() float64 { return p.epsilon }

// Decay shrinks epsilon by one step, never below its floor.
func (p *Policy) Decay() {
	if p.epsilon > p.min {
		p.epsilon = math.Max(p.min, p.epsilon*p.decay)
	}
}

// SelectAction explores with probability epsilon when explore is set and
// otherwise returns the action with the highest estimated value. Ties go
// to the lowest index.
func (p *Policy) SelectAction(state []float64, actions []Action, est Estimator, explore bool) (Action, error) {
	if len(actions) == 0 {
		return NoAction, errors.New("select action: empty action space")
	}
	if explore && p.rng.Float64() < p.epsilon {
		return actions[p.rng.Intn(len(actions))], nil
	}
	if len(state) == 0 {
		return NoAction, errors.New("select action: empty state")
	}

	in := mat.NewDense(1, len(state), append([]float64(nil), state...))
	q, err := est.Predict(in)
	if err != nil {
		return NoAction, fmt.Errorf("select action: %w", err)
	}
	if _, c := q.Dims(); c == 0 {
		return NoAction, errors.New("select action: estimator returned no values")
	}
	return Action(floats.MaxIdx(mat.Row(nil, 0, q))), nil
}
