package agent

import (
	"errors"
	"fmt"
)

// Config is the immutable set of hyperparameters handed to the agent at
// construction. It is passed by value and never modified afterwards.
type Config struct {
	// Train selects training mode. In evaluation mode the policy never
	// explores, nothing is learned and the weights file is loaded once.
	Train bool

	DiscountFactor float64
	LearningRate   float64

	EpsilonInitial float64
	EpsilonMin     float64
	EpsilonDecay   float64

	BatchSize      int
	ReplayCapacity int
	MinReplaySize  int // training starts once the store holds this many transitions

	// HoldAction is the "do nothing" action. Bootstrapped values of
	// non-terminal transitions are always written to this index.
	HoldAction Action

	CheckpointEvery int // closed trades between weight saves and charts
	PlotEvery       int // closed trades between points of the accumulated chart

	WeightsPath string
	Seed        int64
}

// DefaultConfig returns the hyperparameters of the reference EUR/USD agent.
func DefaultConfig() Config {
	return Config{
		Train:           true,
		DiscountFactor:  0.99,
		LearningRate:    0.001,
		EpsilonInitial:  1.0,
		EpsilonMin:      0.01,
		EpsilonDecay:    0.999,
		BatchSize:       300,
		ReplayCapacity:  1000,
		MinReplaySize:   100,
		HoldAction:      2,
		CheckpointEvery: 50,
		PlotEvery:       20,
		WeightsPath:     "save_model/eur_usd_dqn.msgpack",
		Seed:            1,
	}
}

// Validate checks the hyperparameters for internal consistency.
func (c Config) Validate() error {
	if c.DiscountFactor < 0 || c.DiscountFactor > 1 {
		return errors.New("discount_factor must be between 0 and 1")
	}
	if c.LearningRate <= 0 {
		return errors.New("learning_rate must be positive")
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay >= 1 {
		return errors.New("epsilon_decay must be between 0 and 1 (exclusive)")
	}
	if c.EpsilonMin < 0 || c.EpsilonMin > c.EpsilonInitial {
		return errors.New("epsilon_min must be between 0 and epsilon")
	}
	if c.EpsilonInitial > 1 {
		return errors.New("epsilon must not exceed 1")
	}
	if c.BatchSize <= 0 {
		return errors.New("batch_size must be positive")
	}
	if c.ReplayCapacity <= 0 {
		return errors.New("replay_capacity must be positive")
	}
	if c.MinReplaySize <= 0 || c.MinReplaySize > c.ReplayCapacity {
		return fmt.Errorf("min_replay_size must be between 1 and replay_capacity (%d)", c.ReplayCapacity)
	}
	if c.HoldAction < 0 {
		return errors.New("hold_action must not be negative")
	}
	if c.CheckpointEvery <= 0 {
		return errors.New("checkpoint_every must be positive")
	}
	if c.PlotEvery <= 0 {
		return errors.New("plot_every must be positive")
	}
	if !c.Train && c.WeightsPath == "" {
		return errors.New("weights_path is required in evaluation mode")
	}
	return nil
}
