package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxdqn/config"
)

var rootCmd = &cobra.Command{
	Use:   "fxdqn",
	Short: "A deep Q-learning agent for simulated forex trading",
	Long: `fxdqn trains and evaluates a deep Q-network that trades one
forex instrument on historical or synthetic candles.

It provides tools for:
  - Training with experience replay and a target network
  - Evaluating saved weights on held-out data
  - Journaling every closed trade to SQLite or CSV
  - Charting the balance curve at every checkpoint`,
	SilenceUsage: true,
}

var (
	configFile string
	envFiles   []string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "f", "", "config file (YAML or JSON); defaults are used when empty")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, ".env files to load before FXDQN_* overrides (default ./.env)")
}

// loadConfig reads the config file, applies the environment and validates.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		c, err := config.LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	cfg.ApplyEnv(envFiles...)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
