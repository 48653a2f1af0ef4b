package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxdqn/internal/id"
	"github.com/rustyeddy/fxdqn/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display records from the SQLite trade journal.

Subcommands:
  trades - List closed trades, optionally for one run
  trade  - Get details of a specific trade by ID
  runs   - List recorded training and evaluation runs
  stats  - Win/loss and pip totals of one run
  equity - Balance after every closed trade of one run

Examples:
  fxdqn journal trades --run 01HZX...
  fxdqn journal trade 01HZY...
  fxdqn journal runs --db ./fxdqn.db --org-dir ./notes
  fxdqn journal equity --run 01HZX...`,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List closed trades",
	Args:  cobra.NoArgs,
	RunE:  runJournalTrades,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the trades of one run",
	Args:  cobra.NoArgs,
	RunE:  runJournalStats,
}

var journalEquityCmd = &cobra.Command{
	Use:   "equity",
	Short: "Show the balance curve of one run",
	Args:  cobra.NoArgs,
	RunE:  runJournalEquity,
}

var (
	journalDBPath string
	journalRunID  string
	journalOrgDir string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalStatsCmd)
	journalCmd.AddCommand(journalEquityCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./fxdqn.db", "path to SQLite journal DB")
	journalTradesCmd.Flags().StringVar(&journalRunID, "run", "", "only trades of this run")
	journalRunsCmd.Flags().StringVar(&journalOrgDir, "org-dir", "", "also write each run to <dir>/<run-id>.org")
	journalStatsCmd.Flags().StringVar(&journalRunID, "run", "", "run id")
	_ = journalStatsCmd.MarkFlagRequired("run")
	journalEquityCmd.Flags().StringVar(&journalRunID, "run", "", "run id")
	_ = journalEquityCmd.MarkFlagRequired("run")
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListTrades(journalRunID)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	if _, err := id.Time(args[0]); err != nil {
		return fmt.Errorf("invalid trade id %q: %w", args[0], err)
	}

	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns()
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	if journalOrgDir != "" {
		if err := os.MkdirAll(journalOrgDir, 0o755); err != nil {
			return err
		}
	}
	for _, r := range runs {
		s, err := journal.FormatRunOrg(r)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), s)

		if journalOrgDir != "" {
			if err := journal.WriteRunOrg(filepath.Join(journalOrgDir, r.RunID+".org"), r); err != nil {
				return fmt.Errorf("write run %s: %w", r.RunID, err)
			}
		}
	}
	return nil
}

func runJournalStats(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	s, err := j.Stats(journalRunID)
	if err != nil {
		return fmt.Errorf("query stats: %w", err)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run:      %s\n", journalRunID)
	fmt.Fprintf(w, "trades:   %d (%d won, %d lost)\n", s.Trades, s.Wins, s.Losses)
	fmt.Fprintf(w, "profit:   %.1f pips\n", s.ProfitPips)
	fmt.Fprintf(w, "loss:     %.1f pips\n", s.LossPips)
	fmt.Fprintf(w, "net:      %+.1f pips\n", s.ProfitPips-s.LossPips)
	return nil
}

func runJournalEquity(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	curve, err := j.ListEquity(journalRunID)
	if err != nil {
		return fmt.Errorf("query equity: %w", err)
	}
	if len(curve) == 0 {
		return fmt.Errorf("no equity recorded for run %s", journalRunID)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-7s %-17s %12s\n", "trades", "time", "balance")
	for _, e := range curve {
		fmt.Fprintf(w, "%-7d %-17s %12.2f\n", e.Trades, e.Time.UTC().Format("2006-01-02 15:04"), e.Balance)
	}
	return nil
}
