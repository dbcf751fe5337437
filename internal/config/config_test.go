package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaults tests the baseline configuration values.
func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, DefaultExplorerURL, cfg.Explorer.API)
	assert.Equal(t, "regular", cfg.Fees.DefaultLevel)
	assert.Equal(t, int64(1), cfg.Fees.MinCustomSatsPerByte)
	assert.Equal(t, int64(1000), cfg.Fees.MaxCustomSatsPerByte)
	assert.Equal(t, "USD", cfg.Display.Currency)
	assert.Equal(t, "error", cfg.Logging.Level)
}

// TestSaveLoad tests the YAML round trip.
func TestSaveLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Defaults()
	cfg.Network = "testnet"
	cfg.Fees.DefaultLevel = "priority"
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "testnet", loaded.Network)
	assert.Equal(t, "priority", loaded.Fees.DefaultLevel)

	// Fields absent from the file keep their defaults
	assert.Equal(t, int64(1000), loaded.Fees.MaxCustomSatsPerByte)
}

// TestLoad_MissingFile tests that a missing config file is an error the
// caller can fall back from.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

// TestWalletsDir tests wallet directory resolution.
func TestWalletsDir(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	cfg.Home = "/var/lib/satsend"
	assert.Equal(t, "/var/lib/satsend/wallets", cfg.WalletsDir())
}

// TestApplyEnvironment tests environment overrides. Not parallel: mutates
// process environment.
func TestApplyEnvironment(t *testing.T) {
	t.Setenv(EnvNetwork, "TESTNET")
	t.Setenv(EnvFeeLevel, "Priority")
	t.Setenv(EnvCurrency, "eur")
	t.Setenv(EnvVerbose, "yes")
	t.Setenv(EnvExplorerAPI, "  https://example.com/api  ")

	cfg := Defaults()
	ApplyEnvironment(cfg)

	assert.Equal(t, "testnet", cfg.Network)
	assert.Equal(t, "priority", cfg.Fees.DefaultLevel)
	assert.Equal(t, "EUR", cfg.Display.Currency)
	assert.True(t, cfg.Display.Verbose)
	assert.Equal(t, "https://example.com/api", cfg.Explorer.API)
}

// TestParseBool tests the permissive boolean parser.
func TestParseBool(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"1", "true", "yes", "on", "TRUE", " Yes "} {
		assert.True(t, parseBool(v), "value %q", v)
	}
	for _, v := range []string{"0", "false", "no", "off", "", "maybe"} {
		assert.False(t, parseBool(v), "value %q", v)
	}
}

// TestSanitizeURL tests copy-paste artifact cleanup.
func TestSanitizeURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com/api", SanitizeURL("  https://example.com/api  "))
}

// TestExpandHome tests tilde expansion.
func TestExpandHome(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".satsend"), expandHome("~/.satsend"))
	assert.Equal(t, "/absolute/path", expandHome("/absolute/path"))
}
