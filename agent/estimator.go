package agent

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Estimator approximates action values: one row of states in, one row of
// action values out.
type Estimator interface {
	Predict(states *mat.Dense) (*mat.Dense, error)
	Fit(states, targets *mat.Dense, batchSize, epochs int) error

	// Weights returns a copy of every parameter.
	Weights() []*mat.Dense
	// SetWeights replaces every parameter or, on error, none of them.
	SetWeights(w []*mat.Dense) error
}

// Persister is implemented by estimators that can be checkpointed.
type Persister interface {
	Save(path string) error
	Load(path string) error
}

// Sync copies every parameter of online into target.
func Sync(online, target Estimator) error {
	if err := target.SetWeights(online.Weights()); err != nil {
		return fmt.Errorf("sync target estimator: %w", err)
	}
	return nil
}

func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("empty batch")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(r), cols)
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}
