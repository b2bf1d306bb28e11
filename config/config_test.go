package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/polyagent/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 600, cfg.Agent.ScanIntervalSeconds)
	assert.InDelta(t, 50.0, cfg.Agent.StartingBankroll, 1e-9)
	assert.InDelta(t, 0.50, cfg.Agent.DeathThresholdUSD, 1e-9)
	assert.InDelta(t, 0.08, cfg.Trading.MinEdge, 1e-9)
	assert.InDelta(t, 0.06, cfg.Trading.MaxPositionPct, 1e-9)
	assert.InDelta(t, 0.25, cfg.Trading.KellyMultiplier, 1e-9)
	assert.Equal(t, "https://clob.polymarket.com", cfg.API.CLOBBase)
	assert.Equal(t, 10*time.Minute, cfg.ScanInterval())
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
agent:
  scan_interval_seconds: 300
  starting_bankroll: 100
trading:
  min_edge: 0.12
  max_slippage_pct: 0.03
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Agent.ScanIntervalSeconds)
	assert.InDelta(t, 100.0, cfg.Agent.StartingBankroll, 1e-9)
	assert.InDelta(t, 0.12, cfg.Trading.MinEdge, 1e-9)
	assert.InDelta(t, 0.03, cfg.Trading.MaxSlippagePct, 1e-9)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Lo no especificado conserva el default.
	assert.InDelta(t, 0.25, cfg.Trading.KellyMultiplier, 1e-9)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agent:\n  starting_bankroll: 100\n"), 0o644))

	t.Setenv("STARTING_BANKROLL", "75")
	t.Setenv("MIN_EDGE_PERCENT", "10")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 75.0, cfg.Agent.StartingBankroll, 1e-9)
	assert.InDelta(t, 0.10, cfg.Trading.MinEdge, 1e-9)
}

func TestLoad_BadYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agent: [not a map"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestValidate_RequiresCredentials(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	cfg.Wallet.PrivateKey = ""
	cfg.Wallet.AnthropicAPIKey = ""
	require.Error(t, cfg.Validate())

	cfg.Wallet.PrivateKey = "0xabc"
	require.Error(t, cfg.Validate())

	cfg.Wallet.AnthropicAPIKey = "sk-ant-test"
	require.NoError(t, cfg.Validate())
}
