package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxdqn/agent"
	"github.com/rustyeddy/fxdqn/config"
	"github.com/rustyeddy/fxdqn/journal"
	"github.com/rustyeddy/fxdqn/market"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		configFile, runData, runWeights, runStats = "", "", "", false
		journalRunID, configForce = "", false
		dataIn, dataOut, dataStats = "", "", false
		journalOrgDir = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func smallConfig(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Agent.BatchSize = 16
	cfg.Agent.ReplayCapacity = 200
	cfg.Agent.MinReplaySize = 20
	cfg.Network.Hidden = []int{8}
	cfg.Environment.Synthetic.Candles = 400
	cfg.Checkpoint.WeightsPath = filepath.Join(dir, "weights.msgpack")
	cfg.Checkpoint.PerformanceDir = filepath.Join(dir, "performances")
	cfg.Checkpoint.Every = 5
	cfg.Checkpoint.PlotEvery = 1
	cfg.Journal.DBPath = filepath.Join(dir, "fxdqn.db")
	cfg.Log.Level = "error"

	path := filepath.Join(dir, "fxdqn.yaml")
	require.NoError(t, cfg.SaveToFile(path))
	return path, cfg
}

func TestTrainEvalAndJournal(t *testing.T) {
	path, cfg := smallConfig(t)

	out, err := execute(t, "train", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "EUR_USD training")
	assert.FileExists(t, cfg.Checkpoint.WeightsPath)
	assert.FileExists(t, filepath.Join(cfg.Checkpoint.PerformanceDir, "eurusd_dqn.html"))

	out, err = execute(t, "eval", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "EUR_USD evaluation")
	assert.FileExists(t, filepath.Join(cfg.Checkpoint.PerformanceDir, "eurusd_dqn_test_data.html"))

	out, err = execute(t, "journal", "runs", "--db", cfg.Journal.DBPath)
	require.NoError(t, err)
	assert.Contains(t, out, "DQN train")
	assert.Contains(t, out, "DQN eval")

	out, err = execute(t, "journal", "trades", "--db", cfg.Journal.DBPath)
	require.NoError(t, err)
	assert.Contains(t, out, "** Trade: EUR_USD")

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	require.NoError(t, err)
	runs, err := j.ListRuns()
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.Len(t, runs, 2)

	var trained journal.RunRecord
	for _, r := range runs {
		if r.Mode == "train" {
			trained = r
		}
	}
	require.Positive(t, trained.Trades)

	orgDir := filepath.Join(t.TempDir(), "notes")
	_, err = execute(t, "journal", "runs", "--db", cfg.Journal.DBPath, "--org-dir", orgDir)
	require.NoError(t, err)
	org, err := os.ReadFile(filepath.Join(orgDir, trained.RunID+".org"))
	require.NoError(t, err)
	assert.Contains(t, string(org), ":RUN_ID:      "+trained.RunID)

	out, err = execute(t, "journal", "equity", "--db", cfg.Journal.DBPath, "--run", trained.RunID)
	require.NoError(t, err)
	assert.Contains(t, out, "balance")
	assert.Contains(t, out, fmt.Sprintf("%.2f", trained.EndBalance))

	_, err = execute(t, "journal", "equity", "--db", cfg.Journal.DBPath, "--run", "NOPE")
	assert.ErrorContains(t, err, "no equity recorded")

	_, err = execute(t, "journal", "trade", "--db", cfg.Journal.DBPath, "not-a-ulid")
	assert.ErrorContains(t, err, "invalid trade id")
}

func TestDataExport(t *testing.T) {
	path, _ := smallConfig(t)
	out := filepath.Join(t.TempDir(), "candles.csv")

	stdout, err := execute(t, "data", "export", "-f", path, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote 400 candles from synthetic")

	cs, err := market.NewCandleSet("EUR_USD", out)
	require.NoError(t, err)
	assert.Equal(t, 400, cs.Len())

	// the export loads back as training data
	stdout, err = execute(t, "data", "export", "-f", path, "--data", out, "--out", filepath.Join(t.TempDir(), "again.csv"), "--stats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote 400 candles from candles.csv")

	_, err = execute(t, "data", "export", "-f", path, "--data", filepath.Join(t.TempDir(), "missing.csv"), "--out", out)
	assert.ErrorContains(t, err, "load candles")
}

func TestEvalWithoutWeightsFails(t *testing.T) {
	path, _ := smallConfig(t)
	_, err := execute(t, "eval", "-f", path, "--weights", filepath.Join(t.TempDir(), "missing.msgpack"))
	assert.Error(t, err)
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fxdqn.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	_, err = execute(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	out, err = execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	require.NoError(t, os.WriteFile(path, []byte("agent:\n  batch_size: -1\n"), 0644))
	_, err = execute(t, "config", "validate", "-f", path)
	assert.ErrorContains(t, err, "agent.batch_size")
}

func TestRenderSummary(t *testing.T) {
	s := agent.Summary{
		RunID:      "01TEST",
		Episodes:   12,
		Steps:      40,
		Trades:     4,
		Won:        3,
		Lost:       1,
		ProfitPips: 90,
		LossPips:   20,
		Balance:    10350,
		Epsilon:    0.95,
		ReplaySize: 30,
		ReplayCap:  200,
	}
	out := renderSummary(s, true, "EUR_USD", marketState{Equity: 10362.5, Remaining: 3, Booked: 4})
	assert.Contains(t, out, "EUR_USD training")
	assert.Contains(t, out, "10362.50")
	assert.Contains(t, out, "3 candles")
	assert.Contains(t, out, "+70.0")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "epsilon")
	assert.Contains(t, out, "30/200 transitions")

	out = renderSummary(s, false, "EUR_USD", marketState{})
	assert.NotContains(t, out, "epsilon")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fxdqn version "+version)
}
