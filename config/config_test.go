package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"strata/native/vault"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, "strata", cfg.Service)
	require.Equal(t, "info", cfg.LogLevel)
	params, err := cfg.Engine.Parameters()
	require.NoError(t, err)
	require.Equal(t, vault.DefaultParams(), params)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
Service = "strata-test"
LogLevel = "debug"

[engine]
MinCRBps = 12000
TargetCRBps = 16000
StableMintFeeBps = 40
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "strata-test", cfg.Service)
	params, err := cfg.Engine.Parameters()
	require.NoError(t, err)
	require.Equal(t, uint64(12_000), params.MinCRBps)
	require.Equal(t, uint64(16_000), params.TargetCRBps)
	require.Equal(t, uint64(40), params.StableMintFeeBps)
	// Unset fields keep their defaults.
	require.Equal(t, vault.DefaultParams().StableRedeemFeeBps, params.StableRedeemFeeBps)
	require.Equal(t, vault.DefaultParams().MinLSTDeposit, params.MinLSTDeposit)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
[engine]
MysteryKnob = 1
`)
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "MysteryKnob")
}

func TestParametersRejectsInvalidBounds(t *testing.T) {
	cfg := EngineConfig{MinCRBps: 16_000, TargetCRBps: 15_000}
	_, err := cfg.Parameters()
	require.ErrorIs(t, err, vault.ErrInvalidParameter)

	cfg = EngineConfig{StableMintFeeBps: 900}
	_, err = cfg.Parameters()
	require.ErrorIs(t, err, vault.ErrInvalidParameter)
}
