package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxdqn/agent"
	"github.com/rustyeddy/fxdqn/config"
	"github.com/rustyeddy/fxdqn/internal/logger"
	"github.com/rustyeddy/fxdqn/journal"
	"github.com/rustyeddy/fxdqn/market"
	"github.com/rustyeddy/fxdqn/nn"
	"github.com/rustyeddy/fxdqn/report"
	"github.com/rustyeddy/fxdqn/sim"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the agent until the candle data is exhausted",
	Long: `Train a fresh network on the configured candles.

Weights are saved and charts written every checkpoint.every closed trades
and once more when the data runs out or the run is interrupted.

Examples:
  fxdqn train -f fxdqn.yaml
  fxdqn train --data ./data/eurusd_h1.csv --stats`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgent(cmd, true)
	},
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate saved weights without exploring or learning",
	Long: `Load saved weights and trade the configured candles greedily.

Examples:
  fxdqn eval -f fxdqn.yaml --weights save_model/eur_usd_dqn.msgpack --data ./data/eurusd_test.csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgent(cmd, false)
	},
}

var (
	runData    string
	runWeights string
	runStats   bool
)

func init() {
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(evalCmd)

	for _, c := range []*cobra.Command{trainCmd, evalCmd} {
		c.Flags().StringVar(&runData, "data", "", "candle CSV (overrides environment.data_path)")
		c.Flags().StringVar(&runWeights, "weights", "", "weights file (overrides checkpoint.weights_path)")
		c.Flags().BoolVar(&runStats, "stats", false, "print candle set statistics before running")
	}
}

func runAgent(cmd *cobra.Command, train bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runData != "" {
		cfg.Environment.DataPath = runData
	}
	if runWeights != "" {
		cfg.Checkpoint.WeightsPath = runWeights
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)

	cs, err := cfg.Environment.CandleSet()
	if err != nil {
		return fmt.Errorf("load candles: %w", err)
	}
	if runStats {
		cs.PrintStats(cmd.OutOrStdout())
	}

	a, env, closer, err := buildAgent(cfg, cs, train, log)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := a.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run: %w", err)
	}
	if err != nil {
		log.Warn().Msg("run interrupted")
	}

	m := marketState{Equity: env.Equity(), Remaining: env.Remaining(), Booked: len(env.Trades())}
	log.Info().
		Int("candles_left", m.Remaining).
		Int("trades_booked", m.Booked).
		Float64("equity", m.Equity).
		Msg("market closed")
	if m.Booked != sum.Trades {
		log.Warn().Int("booked", m.Booked).Int("counted", sum.Trades).Msg("trade count mismatch")
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(sum, train, cs.Instrument.Name, m))
	return nil
}

// buildAgent wires the environment, both networks, the journal and the
// chart reporter. The returned closer releases the journal.
func buildAgent(cfg *config.Config, cs *market.CandleSet, train bool, log zerolog.Logger) (*agent.Agent, *sim.Env, io.Closer, error) {
	env, err := sim.New(cfg.Env(), cs.Candles)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("environment: %w", err)
	}
	env.SetLogger(log)

	ncfg := cfg.NetworkConfig(env.StateDim(), len(env.ActionSpace()))
	online, err := nn.New(ncfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("online network: %w", err)
	}
	target, err := nn.New(ncfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("target network: %w", err)
	}

	a, err := agent.New(cfg.AgentConfig(train), env, online, target)
	if err != nil {
		return nil, nil, nil, err
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return nil, nil, nil, err
	}
	a.SetJournal(j)
	a.SetLogger(log)
	a.SetDataset(cs.Source)
	a.SetReporter(report.New(cfg.Checkpoint.PerformanceDir, cs.Instrument.Pair()))

	log.Info().
		Str("run_id", a.RunID()).
		Str("instrument", cs.Instrument.Name).
		Str("dataset", cs.Source).
		Int("candles", cs.Len()).
		Bool("train", train).
		Msg("agent ready")
	return a, env, j, nil
}

func openJournal(c config.JournalConfig) (journal.Journal, error) {
	switch c.Type {
	case "sqlite":
		j, err := journal.NewSQLite(c.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open journal db: %w", err)
		}
		return j, nil
	case "csv":
		j, err := journal.NewCSV(c.TradesFile, c.EquityFile)
		if err != nil {
			return nil, fmt.Errorf("open journal csv: %w", err)
		}
		return j, nil
	default:
		return journal.Discard{}, nil
	}
}
