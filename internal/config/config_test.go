package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.bayut.com", cfg.Feed.BayutBaseURL)
	assert.Equal(t, "https://api.dubizzle.com", cfg.Feed.DubizzleBaseURL)
	assert.Equal(t, 60, cfg.Feed.TimeoutSecs)
	assert.InDelta(t, 2.0, cfg.Feed.RatePerSec, 0.001)
	assert.Equal(t, 1048, cfg.Bitrix.ListingsEntityTypeID)
	assert.Equal(t, "file", cfg.Ledger.Driver)
	assert.Equal(t, "processed_leads.txt", cfg.Ledger.Path)
	assert.Equal(t, 1, cfg.Owner.DefaultOwnerID)
	assert.Equal(t, []int{3, 268}, cfg.Owner.ExcludedUserIDs)
	assert.Equal(t, 1945, cfg.Owner.UnknownUserID)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
feed:
  auth_token: token-123
  since: "2026-08-01"
bitrix:
  webhook_url: https://portal.bitrix24.com/rest/1/abc
ledger:
  driver: sqlite
  path: leads.db
owner:
  default_owner_id: 500
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "token-123", cfg.Feed.AuthToken)
	assert.Equal(t, "2026-08-01", cfg.Feed.Since)
	assert.Equal(t, "https://portal.bitrix24.com/rest/1/abc", cfg.Bitrix.WebhookURL)
	assert.Equal(t, "sqlite", cfg.Ledger.Driver)
	assert.Equal(t, "leads.db", cfg.Ledger.Path)
	assert.Equal(t, 500, cfg.Owner.DefaultOwnerID)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Unset keys keep their defaults.
	assert.Equal(t, []int{3, 268}, cfg.Owner.ExcludedUserIDs)
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("VSERVE_FEED_AUTH_TOKEN", "env-token")
	t.Setenv("VSERVE_LEDGER_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Feed.AuthToken)
	assert.Equal(t, "postgres", cfg.Ledger.Driver)
}

func validConfig() *Config {
	return &Config{
		Feed:   FeedConfig{AuthToken: "t"},
		Bitrix: BitrixConfig{WebhookURL: "https://portal.bitrix24.com/rest/1/abc"},
		Ledger: LedgerConfig{Driver: "file", Path: "processed_leads.txt"},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Feed.AuthToken = ""
	assert.ErrorContains(t, cfg.Validate(), "auth_token")

	cfg = validConfig()
	cfg.Bitrix.WebhookURL = ""
	assert.ErrorContains(t, cfg.Validate(), "webhook_url")

	cfg = validConfig()
	cfg.Ledger.Path = ""
	assert.ErrorContains(t, cfg.Validate(), "ledger.path")

	cfg = validConfig()
	cfg.Ledger.Driver = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "database_url")

	cfg = validConfig()
	cfg.Ledger.Driver = "redis"
	assert.ErrorContains(t, cfg.Validate(), "unknown ledger driver")
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))

	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })
}
