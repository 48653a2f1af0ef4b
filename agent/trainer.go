package agent

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/fxdqn/replay"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Sampler is the read side of the transition store.
type Sampler interface {
	Len() int
	Sample(n int) (replay.Batch, error)
}

// Trainer turns sampled transitions into regression targets and runs one
// fitting pass of the online estimator.
type Trainer struct {
	gamma     float64
	batchSize int
	minSize   int
	hold      int
}

// NewTrainer builds a trainer from the agent hyperparameters.
func NewTrainer(cfg Config) *Trainer {
	return &Trainer{
		gamma:     cfg.DiscountFactor,
		batchSize: cfg.BatchSize,
		minSize:   cfg.MinReplaySize,
		hold:      int(cfg.HoldAction),
	}
}

// Update samples a batch and fits online once. It does nothing until the
// store holds the minimum number of transitions.
func (t *Trainer) Update(store Sampler, online, target Estimator) error {
	size := store.Len()
	if size < t.minSize {
		return nil
	}
	n := t.batchSize
	if size < n {
		n = size
	}

	batch, err := store.Sample(n)
	if errors.Is(err, replay.ErrInsufficientData) {
		return nil
	}
	if err != nil {
		return err
	}
	return t.Train(batch, online, target)
}

// Train fits online on the TD targets of batch.
func (t *Trainer) Train(batch replay.Batch, online, target Estimator) error {
	states, targets, err := TDTargets(batch, online, target, t.gamma, t.hold)
	if err != nil {
		return err
	}
	if err := online.Fit(states, targets, batch.Len(), 1); err != nil {
		return fmt.Errorf("fit online estimator: %w", err)
	}
	return nil
}

// TDTargets returns the batch states and their regression targets.
//
// Targets start from online's current prediction. The taken action's value
// becomes the observed reward. For non-terminal transitions the hold index
// additionally receives reward + gamma * max(target(next_state)): once a
// position is open the only legal follow-up is to hold, so the continuation
// is credited there whichever action was taken.
func TDTargets(batch replay.Batch, online, target Estimator, gamma float64, hold int) (*mat.Dense, *mat.Dense, error) {
	states, err := denseFromRows(batch.States)
	if err != nil {
		return nil, nil, fmt.Errorf("states: %w", err)
	}
	next, err := denseFromRows(batch.NextStates)
	if err != nil {
		return nil, nil, fmt.Errorf("next states: %w", err)
	}

	predicted, err := online.Predict(states)
	if err != nil {
		return nil, nil, fmt.Errorf("predict online: %w", err)
	}
	bootstrapped, err := target.Predict(next)
	if err != nil {
		return nil, nil, fmt.Errorf("predict target: %w", err)
	}

	rows, cols := predicted.Dims()
	if rows != batch.Len() {
		return nil, nil, fmt.Errorf("online returned %d rows for %d transitions", rows, batch.Len())
	}
	if hold < 0 || hold >= cols {
		return nil, nil, fmt.Errorf("hold action %d outside %d action values", hold, cols)
	}

	targets := mat.DenseCopyOf(predicted)
	for i := 0; i < rows; i++ {
		r := batch.Rewards[i]
		targets.Set(i, batch.Actions[i], r)
		if batch.Dones[i] {
			continue
		}
		future := floats.Max(mat.Row(nil, i, bootstrapped))
		targets.Set(i, hold, r+gamma*future)
	}
	return states, targets, nil
}
