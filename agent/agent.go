// Package agent implements a DQN trader: epsilon-greedy exploration,
// experience replay, TD-target training against a lagged target estimator
// and the episode loop that drives a trading environment.
package agent

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/fxdqn/internal/id"
	"github.com/rustyeddy/fxdqn/journal"
	"github.com/rustyeddy/fxdqn/replay"
)

// Agent owns the transition store, the exploration state and the estimator
// pair. It is driven by Run from a single goroutine.
type Agent struct {
	cfg    Config
	env    Environment
	online Estimator
	target Estimator

	policy  *Policy
	store   *replay.Buffer
	trainer *Trainer

	journal  journal.Journal
	reporter Reporter
	log      zerolog.Logger

	runID        string
	dataset      string
	started      time.Time
	startBalance float64

	stats       Summary
	accumulated []Point
	window      []Point
	windowFrom  int
}

// New builds an agent. In training mode target is synchronised with
// online; in evaluation mode the online weights are loaded from
// cfg.WeightsPath instead and target is never touched.
func New(cfg Config, env Environment, online, target Estimator) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent config: %w", err)
	}
	if env == nil || online == nil || target == nil {
		return nil, errors.New("environment and both estimators are required")
	}
	if !hasAction(env.ActionSpace(), cfg.HoldAction) {
		return nil, fmt.Errorf("hold action %d is not in the action space", cfg.HoldAction)
	}

	store, err := replay.NewBuffer(cfg.ReplayCapacity, rand.New(rand.NewSource(cfg.Seed+1)))
	if err != nil {
		return nil, err
	}

	a := &Agent{
		cfg:          cfg,
		env:          env,
		online:       online,
		target:       target,
		policy:       NewPolicy(cfg.EpsilonInitial, cfg.EpsilonMin, cfg.EpsilonDecay, rand.New(rand.NewSource(cfg.Seed))),
		store:        store,
		trainer:      NewTrainer(cfg),
		journal:      journal.Discard{},
		log:          zerolog.Nop(),
		runID:        id.New(),
		startBalance: env.Balance(),
	}
	a.stats.RunID = a.runID

	if !cfg.Train {
		p, ok := online.(Persister)
		if !ok {
			return nil, errors.New("evaluation mode needs an estimator that can load weights")
		}
		if err := p.Load(cfg.WeightsPath); err != nil {
			return nil, fmt.Errorf("load weights: %w", err)
		}
		return a, nil
	}

	if err := Sync(online, target); err != nil {
		return nil, err
	}
	return a, nil
}

// SetJournal sets where closed trades, equity snapshots and the run
// summary are recorded.
func (a *Agent) SetJournal(j journal.Journal) {
	if j == nil {
		j = journal.Discard{}
	}
	a.journal = j
}

// SetReporter sets the collaborator that receives performance snapshots.
func (a *Agent) SetReporter(r Reporter) { a.reporter = r }

// SetLogger sets the agent's logger.
func (a *Agent) SetLogger(l zerolog.Logger) {
	a.log = l.With().Str("run_id", a.runID).Logger()
}

// SetDataset names the price data in the run record.
func (a *Agent) SetDataset(name string) { a.dataset = name }

// RunID identifies this run in the journal.
func (a *Agent) RunID() string { return a.runID }

// Epsilon returns the current exploration rate.
func (a *Agent) Epsilon() float64 { return a.policy.Epsilon() }

// Run plays episodes until the environment runs out of data, then writes a
// final checkpoint. It returns a nil error on exhaustion. A cancelled ctx
// is observed between episodes; the final checkpoint is still written.
func (a *Agent) Run(ctx context.Context) (Summary, error) {
	a.started = time.Now()
	a.log.Info().
		Bool("train", a.cfg.Train).
		Int("state_dim", a.env.StateDim()).
		Float64("balance", a.startBalance).
		Msg("run started")

	for {
		if err := ctx.Err(); err != nil {
			if ferr := a.finish(); ferr != nil {
				return a.summary(), ferr
			}
			return a.summary(), err
		}

		err := a.episode()
		if errors.Is(err, ErrDataExhausted) {
			a.log.Info().Int("episodes", a.stats.Episodes).Msg("price data exhausted")
			if err := a.finish(); err != nil {
				return a.summary(), err
			}
			return a.summary(), nil
		}
		if err != nil {
			return a.summary(), err
		}
		a.stats.Episodes++
	}
}

// episode runs one trade lifecycle, from reset to done.
func (a *Agent) episode() error {
	state, err := a.env.Reset()
	if err != nil {
		return err
	}

	for {
		action := NoAction
		if !a.env.OpenPositionExists() {
			action, err = a.policy.SelectAction(state, a.env.ActionSpace(), a.online, a.cfg.Train)
			if err != nil {
				return err
			}
		}

		res, err := a.env.Step(action)
		if err != nil {
			return err
		}
		a.stats.Steps++

		if a.cfg.Train && action != NoAction {
			a.store.Append(replay.Transition{
				State:     state,
				Action:    int(action),
				Reward:    res.Reward,
				NextState: res.State,
				Done:      res.Done,
			})
			a.policy.Decay()
			if err := a.trainer.Update(a.store, a.online, a.target); err != nil {
				return err
			}
		}
		state = res.State

		if !res.Done {
			continue
		}
		if a.cfg.Train {
			if err := Sync(a.online, a.target); err != nil {
				return err
			}
		}
		if res.Info == InfoNone {
			return nil
		}
		return a.closeTrade(res)
	}
}

// closeTrade books a stop-loss or take-profit exit.
func (a *Agent) closeTrade(res StepResult) error {
	short := false
	instrument := ""
	if d, ok := a.env.(TradeDescriber); ok {
		short = d.Short()
		instrument = d.Instrument()
	}

	var peak float64
	switch res.Info {
	case InfoStopLoss:
		peak = a.env.TradeLowest()
		if short {
			peak = a.env.TradeHighest()
		}
		a.stats.LossPips -= res.Reward
		a.stats.Lost++
	case InfoTakeProfit:
		peak = a.env.TradeHighest()
		if short {
			peak = a.env.TradeLowest()
		}
		a.stats.ProfitPips += res.Reward
		a.stats.Won++
	default:
		return fmt.Errorf("unknown trade outcome %q", res.Info)
	}
	a.stats.Trades++
	n := a.stats.Trades

	when := a.env.CurrentTime()
	balance := a.env.Balance()
	side := "long"
	if short {
		side = "short"
	}

	err := a.journal.RecordTrade(journal.TradeRecord{
		TradeID:    id.At(when),
		RunID:      a.runID,
		Episode:    a.stats.Episodes,
		Instrument: instrument,
		Side:       side,
		EntryPrice: a.env.EntryPrice(),
		PeakPrice:  peak,
		CloseTime:  when,
		RewardPips: res.Reward,
		Balance:    balance,
		Reason:     string(res.Info),
	})
	if err != nil {
		return fmt.Errorf("record trade: %w", err)
	}
	err = a.journal.RecordEquity(journal.EquitySnapshot{
		RunID:   a.runID,
		Time:    when,
		Trades:  n,
		Balance: balance,
	})
	if err != nil {
		return fmt.Errorf("record equity: %w", err)
	}

	pt := Point{Trade: n, Time: when, Balance: balance}
	a.window = append(a.window, pt)
	if n%a.cfg.PlotEvery == 0 {
		a.accumulated = append(a.accumulated, pt)
	}

	a.log.Info().
		Int("trade", n).
		Str("outcome", string(res.Info)).
		Float64("pips", res.Reward).
		Float64("entry", a.env.EntryPrice()).
		Float64("peak", peak).
		Float64("balance", balance).
		Float64("acc_profit", a.stats.ProfitPips).
		Float64("acc_loss", a.stats.LossPips).
		Float64("epsilon", a.policy.Epsilon()).
		Msg("trade closed")

	if n%a.cfg.CheckpointEvery == 0 {
		return a.checkpoint(false)
	}
	return nil
}

// checkpoint emits charts and, when training, saves the online weights.
func (a *Agent) checkpoint(final bool) error {
	a.stats.Checkpoints++

	if a.reporter != nil {
		r := Report{
			Train:       a.cfg.Train,
			Final:       final,
			Accumulated: append([]Point(nil), a.accumulated...),
		}
		if a.cfg.Train && !final {
			r.Window = append([]Point(nil), a.window...)
			r.From = a.windowFrom
			r.To = a.stats.Trades
		}
		if err := a.reporter.Report(r); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	a.window = a.window[:0]
	a.windowFrom = a.stats.Trades

	if a.cfg.Train {
		if p, ok := a.online.(Persister); ok && a.cfg.WeightsPath != "" {
			if err := p.Save(a.cfg.WeightsPath); err != nil {
				return fmt.Errorf("save weights: %w", err)
			}
		}
	}

	a.log.Debug().
		Bool("final", final).
		Int("trades", a.stats.Trades).
		Int("replay", a.store.Len()).
		Msg("checkpoint written")
	return nil
}

// finish writes the final checkpoint and the run record.
func (a *Agent) finish() error {
	if err := a.checkpoint(true); err != nil {
		return err
	}

	s := a.summary()
	mode := "eval"
	if a.cfg.Train {
		mode = "train"
	}
	instrument := ""
	if d, ok := a.env.(TradeDescriber); ok {
		instrument = d.Instrument()
	}
	weights := ""
	if a.cfg.Train {
		weights = a.cfg.WeightsPath
	}

	err := a.journal.RecordRun(journal.RunRecord{
		RunID:        a.runID,
		Created:      a.started,
		Mode:         mode,
		Instrument:   instrument,
		Dataset:      a.dataset,
		Episodes:     s.Episodes,
		Steps:        s.Steps,
		Trades:       s.Trades,
		Wins:         s.Won,
		Losses:       s.Lost,
		ProfitPips:   s.ProfitPips,
		LossPips:     s.LossPips,
		StartBalance: a.startBalance,
		EndBalance:   s.Balance,
		Epsilon:      s.Epsilon,
		WeightsPath:  weights,
	})
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	a.log.Info().
		Int("episodes", s.Episodes).
		Int("trades", s.Trades).
		Float64("acc_profit", s.ProfitPips).
		Float64("acc_loss", s.LossPips).
		Float64("balance", s.Balance).
		Dur("elapsed", time.Since(a.started)).
		Msg("run finished")
	return nil
}

func (a *Agent) summary() Summary {
	s := a.stats
	s.Balance = a.env.Balance()
	s.Epsilon = a.policy.Epsilon()
	s.ReplaySize = a.store.Len()
	s.ReplayCap = a.store.Cap()
	return s
}

func hasAction(actions []Action, want Action) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}
