package agent

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// linearEstimator maps states to action values through a single weight
// matrix. Fit nudges every weight so that online and target drift apart.
type linearEstimator struct {
	w *mat.Dense

	fits     int
	sets     int
	saves    []string
	loads    []string
	loadErr  error
	fitErr   error
	lastFit  *mat.Dense
	fitBatch int
}

func newLinear(stateDim, actions int) *linearEstimator {
	data := make([]float64, stateDim*actions)
	for i := range data {
		data[i] = float64(i%7) * 0.1
	}
	return &linearEstimator{w: mat.NewDense(stateDim, actions, data)}
}

func (l *linearEstimator) Predict(states *mat.Dense) (*mat.Dense, error) {
	_, c := states.Dims()
	r, _ := l.w.Dims()
	if c != r {
		return nil, fmt.Errorf("state has %d values, want %d", c, r)
	}
	var out mat.Dense
	out.Mul(states, l.w)
	return &out, nil
}

func (l *linearEstimator) Fit(states, targets *mat.Dense, batchSize, epochs int) error {
	l.fits++
	l.fitBatch = batchSize
	if l.fitErr != nil {
		return l.fitErr
	}
	if targets != nil {
		l.lastFit = mat.DenseCopyOf(targets)
	}
	r, c := l.w.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			l.w.Set(i, j, l.w.At(i, j)+0.01)
		}
	}
	return nil
}

func (l *linearEstimator) Weights() []*mat.Dense {
	return []*mat.Dense{mat.DenseCopyOf(l.w)}
}

func (l *linearEstimator) SetWeights(w []*mat.Dense) error {
	if len(w) != 1 {
		return errors.New("want one matrix")
	}
	r, c := w[0].Dims()
	wr, wc := l.w.Dims()
	if r != wr || c != wc {
		return errors.New("shape mismatch")
	}
	l.sets++
	l.w.Copy(w[0])
	return nil
}

func (l *linearEstimator) Save(path string) error {
	l.saves = append(l.saves, path)
	return nil
}

func (l *linearEstimator) Load(path string) error {
	l.loads = append(l.loads, path)
	return l.loadErr
}

// plainEstimator hides the Persister methods of its embedded estimator.
type plainEstimator struct {
	Estimator
}

// scriptedEnv opens a trade on long or short, closes it after holdFor
// further steps, alternating take-profit and stop-loss. Hold without a
// position ends the episode. After budget steps it reports exhaustion.
type scriptedEnv struct {
	dim     int
	budget  int
	holdFor int

	open     bool
	short    bool
	held     int
	closed   int
	balance  float64
	entry    float64
	now      time.Time
	resets   int
	actions  []Action
	breaches int // policy actions while open, NoAction while flat
}

func newScriptedEnv(budget, holdFor int) *scriptedEnv {
	return &scriptedEnv{
		dim:     4,
		budget:  budget,
		holdFor: holdFor,
		balance: 10000,
		now:     time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC),
	}
}

func (e *scriptedEnv) state() []float64 {
	s := make([]float64, e.dim)
	for i := range s {
		s[i] = float64(len(e.actions)%5) + float64(i)*0.25
	}
	return s
}

func (e *scriptedEnv) Reset() ([]float64, error) {
	if e.budget <= 0 {
		return nil, ErrDataExhausted
	}
	e.resets++
	e.open = false
	return e.state(), nil
}

func (e *scriptedEnv) Step(a Action) (StepResult, error) {
	if e.budget <= 0 {
		return StepResult{}, ErrDataExhausted
	}
	e.budget--
	e.actions = append(e.actions, a)
	e.now = e.now.Add(time.Hour)

	if e.open {
		if a != NoAction {
			e.breaches++
		}
		e.held++
		if e.held < e.holdFor {
			return StepResult{State: e.state()}, nil
		}
		e.open = false
		e.closed++
		if e.closed%2 == 1 {
			e.balance += 100
			return StepResult{State: e.state(), Reward: 10, Done: true, Info: InfoTakeProfit}, nil
		}
		e.balance -= 50
		return StepResult{State: e.state(), Reward: -5, Done: true, Info: InfoStopLoss}, nil
	}

	switch a {
	case 0, 1:
		e.open = true
		e.short = a == 1
		e.held = 0
		e.entry = 1.1
		return StepResult{State: e.state()}, nil
	case 2:
		return StepResult{State: e.state(), Done: true}, nil
	default:
		e.breaches++
		return StepResult{}, fmt.Errorf("action %d without a position", a)
	}
}

func (e *scriptedEnv) ActionSpace() []Action { return []Action{0, 1, 2} }
func (e *scriptedEnv) StateDim() int { return e.dim }
func (e *scriptedEnv) OpenPositionExists() bool { return e.open }
func (e *scriptedEnv) Balance() float64 { return e.balance }
func (e *scriptedEnv) EntryPrice() float64 { return e.entry }
func (e *scriptedEnv) TradeHighest() float64 { return e.entry + 0.001 }
func (e *scriptedEnv) TradeLowest() float64 { return e.entry - 0.0005 }
func (e *scriptedEnv) CurrentTime() time.Time { return e.now }
func (e *scriptedEnv) Instrument() string { return "EUR_USD" }
func (e *scriptedEnv) Short() bool { return e.short }

type recordingReporter struct {
	reports []Report
}

func (r *recordingReporter) Report(rep Report) error {
	r.reports = append(r.reports, rep)
	return nil
}

func (r *recordingReporter) finals() int {
	n := 0
	for _, rep := range r.reports {
		if rep.Final {
			n++
		}
	}
	return n
}
