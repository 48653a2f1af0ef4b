package agent

import (
	"errors"
	"time"
)

// ErrDataExhausted is returned by an Environment once its price series is
// consumed. It is the only condition that ends a run normally.
var ErrDataExhausted = errors.New("environment: data exhausted")

// Action indexes the environment's finite action set.
type Action int

// NoAction is sent to the environment while a position is open; the
// policy is not consulted for these steps.
const NoAction Action = -1

// Info tells why an episode ended.
type Info string

const (
	InfoNone       Info = ""
	InfoStopLoss   Info = "sl_hit"
	InfoTakeProfit Info = "tp_hit"
)

// StepResult is the outcome of a single Environment.Step.
type StepResult struct {
	State  []float64
	Reward float64
	Done   bool
	Info   Info
}

// Environment is the simulated market the agent trades against.
type Environment interface {
	Reset() ([]float64, error)
	Step(a Action) (StepResult, error)

	ActionSpace() []Action
	StateDim() int
	OpenPositionExists() bool
	Balance() float64
	EntryPrice() float64
	TradeHighest() float64
	TradeLowest() float64
	CurrentTime() time.Time
}

// TradeDescriber is optionally implemented by environments that can name
// the instrument and the side of the trade that just closed.
type TradeDescriber interface {
	Instrument() string
	Short() bool
}
