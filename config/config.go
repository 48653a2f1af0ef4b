package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/fxdqn/agent"
	"github.com/rustyeddy/fxdqn/market"
	"github.com/rustyeddy/fxdqn/nn"
	"github.com/rustyeddy/fxdqn/sim"
)

// Config represents the complete run configuration
type Config struct {
	Agent       AgentConfig       `json:"agent" yaml:"agent"`
	Network     NetworkConfig     `json:"network" yaml:"network"`
	Environment EnvironmentConfig `json:"environment" yaml:"environment"`
	Checkpoint  CheckpointConfig  `json:"checkpoint" yaml:"checkpoint"`
	Journal     JournalConfig     `json:"journal" yaml:"journal"`
	Log         LogConfig         `json:"log" yaml:"log"`
}

// AgentConfig contains the learning hyperparameters
type AgentConfig struct {
	DiscountFactor float64 `json:"discount_factor" yaml:"discount_factor"`
	LearningRate   float64 `json:"learning_rate" yaml:"learning_rate"`
	Epsilon        float64 `json:"epsilon" yaml:"epsilon"`
	EpsilonMin     float64 `json:"epsilon_min" yaml:"epsilon_min"`
	EpsilonDecay   float64 `json:"epsilon_decay" yaml:"epsilon_decay"`
	BatchSize      int     `json:"batch_size" yaml:"batch_size"`
	ReplayCapacity int     `json:"replay_capacity" yaml:"replay_capacity"`
	MinReplaySize  int     `json:"min_replay_size" yaml:"min_replay_size"`
	HoldAction     int     `json:"hold_action" yaml:"hold_action"`
	Seed           int64   `json:"seed" yaml:"seed"`
}

// NetworkConfig contains the value network architecture
type NetworkConfig struct {
	Hidden     []int  `json:"hidden" yaml:"hidden"`
	Activation string `json:"activation" yaml:"activation"`
	Output     string `json:"output" yaml:"output"` // linear or softmax
}

// EnvironmentConfig contains the simulated account and its market data
type EnvironmentConfig struct {
	Instrument      string  `json:"instrument" yaml:"instrument"`
	AccountCurrency string  `json:"account_currency" yaml:"account_currency"`
	Balance         float64 `json:"balance" yaml:"balance"`
	Lot             float64 `json:"lot" yaml:"lot"`
	RiskPercent     float64 `json:"risk_percent" yaml:"risk_percent"` // 0 trades a fixed lot
	StopPips        float64 `json:"stop_pips" yaml:"stop_pips"`
	TakeProfitPips  float64 `json:"take_profit_pips" yaml:"take_profit_pips"`
	SpreadPips      float64 `json:"spread_pips" yaml:"spread_pips"`
	Window          int     `json:"window" yaml:"window"`
	FastEMA         int     `json:"fast_ema" yaml:"fast_ema"`
	SlowEMA         int     `json:"slow_ema" yaml:"slow_ema"`
	ATRPeriod       int     `json:"atr_period" yaml:"atr_period"`
	RSIPeriod       int     `json:"rsi_period" yaml:"rsi_period"`
	ResolveOnEntry  bool    `json:"resolve_on_entry" yaml:"resolve_on_entry"`

	DataPath  string          `json:"data_path,omitempty" yaml:"data_path,omitempty"`
	Timeframe string          `json:"timeframe,omitempty" yaml:"timeframe,omitempty"` // aggregate to e.g. H1
	Synthetic SyntheticConfig `json:"synthetic" yaml:"synthetic"`
}

// SyntheticConfig generates candles when no data_path is set
type SyntheticConfig struct {
	Candles   int    `json:"candles" yaml:"candles"`
	Seed      int64  `json:"seed" yaml:"seed"`
	Start     string `json:"start" yaml:"start"` // RFC3339
	Timeframe string `json:"timeframe" yaml:"timeframe"`
}

// CheckpointConfig contains weight and chart output parameters
type CheckpointConfig struct {
	WeightsPath    string `json:"weights_path" yaml:"weights_path"`
	PerformanceDir string `json:"performance_dir" yaml:"performance_dir"`
	Every          int    `json:"every" yaml:"every"`
	PlotEvery      int    `json:"plot_every" yaml:"plot_every"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LogConfig contains logger parameters
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads the given .env files (./.env when none are named) and
// applies FXDQN_* overrides. Missing .env files are not an error.
func (c *Config) ApplyEnv(files ...string) {
	_ = godotenv.Load(files...)

	c.Environment.Instrument = getEnv("FXDQN_INSTRUMENT", c.Environment.Instrument)
	c.Environment.DataPath = getEnv("FXDQN_DATA", c.Environment.DataPath)
	c.Checkpoint.WeightsPath = getEnv("FXDQN_WEIGHTS", c.Checkpoint.WeightsPath)
	c.Checkpoint.PerformanceDir = getEnv("FXDQN_PERFORMANCE_DIR", c.Checkpoint.PerformanceDir)
	c.Journal.DBPath = getEnv("FXDQN_JOURNAL_DB", c.Journal.DBPath)
	c.Log.Level = getEnv("FXDQN_LOG_LEVEL", c.Log.Level)
	c.Log.Pretty = getEnvAsBool("FXDQN_LOG_PRETTY", c.Log.Pretty)
	c.Agent.Seed = int64(getEnvAsInt("FXDQN_SEED", int(c.Agent.Seed)))
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Checkpoint.Every <= 0 {
		return fmt.Errorf("checkpoint.every must be positive")
	}
	if c.Checkpoint.PlotEvery <= 0 {
		return fmt.Errorf("checkpoint.plot_every must be positive")
	}
	if err := c.AgentConfig(true).Validate(); err != nil {
		return fmt.Errorf("agent.%w", err)
	}

	if c.Environment.Instrument == "" {
		return fmt.Errorf("environment.instrument is required")
	}
	if _, err := market.Lookup(c.Environment.Instrument); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if err := c.Env().Validate(); err != nil {
		return fmt.Errorf("environment.%w", err)
	}
	if c.Environment.Timeframe != "" {
		if _, err := market.ParseTimeframe(c.Environment.Timeframe); err != nil {
			return fmt.Errorf("environment.timeframe: %w", err)
		}
	}
	if c.Environment.DataPath == "" {
		if err := c.Environment.Synthetic.validate(); err != nil {
			return err
		}
	}

	// The layer widths are checked against a placeholder input size.
	if err := c.NetworkConfig(1, 1).Validate(); err != nil {
		return fmt.Errorf("network.%w", err)
	}
	if c.Agent.HoldAction != int(sim.ActionHold) {
		return fmt.Errorf("agent.hold_action must be %d, the environment's hold action", sim.ActionHold)
	}

	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

func (s SyntheticConfig) validate() error {
	if s.Candles <= 0 {
		return fmt.Errorf("environment.synthetic.candles must be positive when no data_path is set")
	}
	if _, err := market.ParseTimeframe(s.Timeframe); err != nil {
		return fmt.Errorf("environment.synthetic.timeframe: %w", err)
	}
	if s.Start != "" {
		if _, err := time.Parse(time.RFC3339, s.Start); err != nil {
			return fmt.Errorf("environment.synthetic.start: %w", err)
		}
	}
	return nil
}

// AgentConfig converts to the immutable agent configuration.
func (c *Config) AgentConfig(train bool) agent.Config {
	return agent.Config{
		Train:           train,
		DiscountFactor:  c.Agent.DiscountFactor,
		LearningRate:    c.Agent.LearningRate,
		EpsilonInitial:  c.Agent.Epsilon,
		EpsilonMin:      c.Agent.EpsilonMin,
		EpsilonDecay:    c.Agent.EpsilonDecay,
		BatchSize:       c.Agent.BatchSize,
		ReplayCapacity:  c.Agent.ReplayCapacity,
		MinReplaySize:   c.Agent.MinReplaySize,
		HoldAction:      agent.Action(c.Agent.HoldAction),
		CheckpointEvery: c.Checkpoint.Every,
		PlotEvery:       c.Checkpoint.PlotEvery,
		WeightsPath:     c.Checkpoint.WeightsPath,
		Seed:            c.Agent.Seed,
	}
}

// NetworkConfig builds the value network configuration for the given
// state and action sizes.
func (c *Config) NetworkConfig(inputs, outputs int) nn.Config {
	return nn.Config{
		Inputs:       inputs,
		Hidden:       append([]int(nil), c.Network.Hidden...),
		Outputs:      outputs,
		Activation:   c.Network.Activation,
		Output:       c.Network.Output,
		LearningRate: c.Agent.LearningRate,
		Seed:         c.Agent.Seed,
	}
}

// Env converts to the environment configuration.
func (c *Config) Env() sim.Config {
	e := c.Environment
	return sim.Config{
		Instrument:      e.Instrument,
		AccountCurrency: e.AccountCurrency,
		Balance:         e.Balance,
		Lot:             e.Lot,
		RiskPercent:     e.RiskPercent,
		StopPips:        e.StopPips,
		TakeProfitPips:  e.TakeProfitPips,
		SpreadPips:      e.SpreadPips,
		Window:          e.Window,
		FastEMA:         e.FastEMA,
		SlowEMA:         e.SlowEMA,
		ATRPeriod:       e.ATRPeriod,
		RSIPeriod:       e.RSIPeriod,
		ResolveOnEntry:  e.ResolveOnEntry,
	}
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	a := agent.DefaultConfig()
	e := sim.DefaultConfig()
	return &Config{
		Agent: AgentConfig{
			DiscountFactor: a.DiscountFactor,
			LearningRate:   a.LearningRate,
			Epsilon:        a.EpsilonInitial,
			EpsilonMin:     a.EpsilonMin,
			EpsilonDecay:   a.EpsilonDecay,
			BatchSize:      a.BatchSize,
			ReplayCapacity: a.ReplayCapacity,
			MinReplaySize:  a.MinReplaySize,
			HoldAction:     int(a.HoldAction),
			Seed:           a.Seed,
		},
		Network: NetworkConfig{
			Hidden:     []int{64, 64},
			Activation: "relu",
			Output:     nn.OutputLinear,
		},
		Environment: EnvironmentConfig{
			Instrument:      e.Instrument,
			AccountCurrency: e.AccountCurrency,
			Balance:         e.Balance,
			Lot:             e.Lot,
			StopPips:        e.StopPips,
			TakeProfitPips:  e.TakeProfitPips,
			SpreadPips:      e.SpreadPips,
			Window:          e.Window,
			FastEMA:         e.FastEMA,
			SlowEMA:         e.SlowEMA,
			ATRPeriod:       e.ATRPeriod,
			RSIPeriod:       e.RSIPeriod,
			Synthetic: SyntheticConfig{
				Candles:   5000,
				Seed:      7,
				Start:     "2024-01-01T00:00:00Z",
				Timeframe: "H1",
			},
		},
		Checkpoint: CheckpointConfig{
			WeightsPath:    a.WeightsPath,
			PerformanceDir: "performances",
			Every:          a.CheckpointEvery,
			PlotEvery:      a.PlotEvery,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./fxdqn.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
