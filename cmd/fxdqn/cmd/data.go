package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxdqn/market"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Inspect and convert candle data",
	Long: `Load the configured candles (CSV, Dukascopy .bi5 ticks or the
synthetic series), apply environment.timeframe and work with the result.

Examples:
  fxdqn data export --data ./dukas/EURUSD --out eurusd_h1.csv
  fxdqn data export -f fxdqn.yaml --out train.csv --stats`,
}

var dataExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the configured candles to a CSV file",
	Args:  cobra.NoArgs,
	RunE:  runDataExport,
}

var (
	dataIn    string
	dataOut   string
	dataStats bool
)

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataExportCmd)

	dataExportCmd.Flags().StringVar(&dataIn, "data", "", "candle CSV or tick data (overrides environment.data_path)")
	dataExportCmd.Flags().StringVarP(&dataOut, "out", "o", "", "CSV file to write")
	dataExportCmd.Flags().BoolVar(&dataStats, "stats", false, "print candle set statistics")
	_ = dataExportCmd.MarkFlagRequired("out")
}

func runDataExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dataIn != "" {
		cfg.Environment.DataPath = dataIn
	}

	cs, err := cfg.Environment.CandleSet()
	if err != nil {
		return fmt.Errorf("load candles: %w", err)
	}
	if dataStats {
		cs.PrintStats(cmd.OutOrStdout())
	}

	f, err := os.Create(dataOut)
	if err != nil {
		return err
	}
	if err := market.WriteCandlesCSV(f, cs.Candles); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", dataOut, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d candles from %s to %s\n", cs.Len(), cs.Source, dataOut)
	return nil
}
