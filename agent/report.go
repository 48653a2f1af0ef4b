package agent

import "time"

// Point is one sample of the balance curve.
type Point struct {
	Trade   int
	Time    time.Time
	Balance float64
}

// Report is a performance snapshot emitted at checkpoints.
type Report struct {
	Train bool
	Final bool

	// Accumulated is the whole-run curve, sampled every PlotEvery trades.
	Accumulated []Point
	// Window holds every trade closed since the previous checkpoint. It is
	// empty for final and evaluation reports.
	Window []Point
	From   int
	To     int
}

// Reporter turns performance snapshots into artifacts. It has no influence
// on learning.
type Reporter interface {
	Report(r Report) error
}

// Summary describes a finished (or interrupted) run.
type Summary struct {
	RunID       string
	Episodes    int
	Steps       int
	Trades      int
	Won         int
	Lost        int
	ProfitPips  float64
	LossPips    float64
	Balance     float64
	Epsilon     float64
	ReplaySize  int
	ReplayCap   int
	Checkpoints int
}

// NetPips is accumulated profit minus accumulated loss.
func (s Summary) NetPips() float64 { return s.ProfitPips - s.LossPips }
