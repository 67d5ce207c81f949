// Package config loads the engine's TOML configuration and converts it into
// runtime parameter sets.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"strata/native/vault"
)

// Config is the top-level configuration document.
type Config struct {
	Service  string       `toml:"Service"`
	Env      string       `toml:"Env"`
	LogLevel string       `toml:"LogLevel"`
	Engine   EngineConfig `toml:"engine"`
}

// EngineConfig carries the governed engine parameters. Zero values fall back
// to the launch defaults during normalisation so a partial file stays valid.
type EngineConfig struct {
	MinCRBps                   uint64 `toml:"MinCRBps"`
	TargetCRBps                uint64 `toml:"TargetCRBps"`
	StableMintFeeBps           uint64 `toml:"StableMintFeeBps"`
	StableRedeemFeeBps         uint64 `toml:"StableRedeemFeeBps"`
	LevMintFeeBps              uint64 `toml:"LevMintFeeBps"`
	LevRedeemFeeBps            uint64 `toml:"LevRedeemFeeBps"`
	FeeMinMultiplierBps        uint64 `toml:"FeeMinMultiplierBps"`
	FeeMaxMultiplierBps        uint64 `toml:"FeeMaxMultiplierBps"`
	UncertaintyMaxBps          uint64 `toml:"UncertaintyMaxBps"`
	MaxOracleStalenessSlots    uint64 `toml:"MaxOracleStalenessSlots"`
	MaxConfBps                 uint64 `toml:"MaxConfBps"`
	MaxLstStaleEpochs          uint64 `toml:"MaxLstStaleEpochs"`
	MaxRoundingReserveLamports uint64 `toml:"MaxRoundingReserveLamports"`
	MinLSTDeposit              uint64 `toml:"MinLSTDeposit"`
	MinStableMint              uint64 `toml:"MinStableMint"`
	MinLevMint                 uint64 `toml:"MinLevMint"`
	MinLSTOut                  uint64 `toml:"MinLSTOut"`
	MinProtocolTVL             uint64 `toml:"MinProtocolTVL"`
}

// Load reads the configuration from the given path. A missing file yields the
// defaults rather than an error so tooling can run without a config.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		normalised := cfg.Normalise()
		return &normalised, nil
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	for _, undecoded := range meta.Undecoded() {
		return nil, fmt.Errorf("config file %s contains unknown field %s", path, undecoded.String())
	}
	normalised := cfg.Normalise()
	return &normalised, nil
}

// Normalise applies defaults to unset fields.
func (c Config) Normalise() Config {
	cfg := c
	if strings.TrimSpace(cfg.Service) == "" {
		cfg.Service = "strata"
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	cfg.Engine = cfg.Engine.Normalise()
	return cfg
}

// Normalise fills zero-valued engine fields with the launch defaults.
func (ec EngineConfig) Normalise() EngineConfig {
	defaults := vault.DefaultParams()
	cfg := ec
	if cfg.MinCRBps == 0 {
		cfg.MinCRBps = defaults.MinCRBps
	}
	if cfg.TargetCRBps == 0 {
		cfg.TargetCRBps = defaults.TargetCRBps
	}
	if cfg.StableMintFeeBps == 0 {
		cfg.StableMintFeeBps = defaults.StableMintFeeBps
	}
	if cfg.StableRedeemFeeBps == 0 {
		cfg.StableRedeemFeeBps = defaults.StableRedeemFeeBps
	}
	if cfg.LevMintFeeBps == 0 {
		cfg.LevMintFeeBps = defaults.LevMintFeeBps
	}
	if cfg.LevRedeemFeeBps == 0 {
		cfg.LevRedeemFeeBps = defaults.LevRedeemFeeBps
	}
	if cfg.FeeMinMultiplierBps == 0 {
		cfg.FeeMinMultiplierBps = defaults.FeeMinMultiplierBps
	}
	if cfg.FeeMaxMultiplierBps == 0 {
		cfg.FeeMaxMultiplierBps = defaults.FeeMaxMultiplierBps
	}
	if cfg.UncertaintyMaxBps == 0 {
		cfg.UncertaintyMaxBps = defaults.UncertaintyMaxBps
	}
	if cfg.MaxOracleStalenessSlots == 0 {
		cfg.MaxOracleStalenessSlots = defaults.MaxOracleStalenessSlots
	}
	if cfg.MaxConfBps == 0 {
		cfg.MaxConfBps = defaults.MaxConfBps
	}
	if cfg.MaxLstStaleEpochs == 0 {
		cfg.MaxLstStaleEpochs = defaults.MaxLstStaleEpochs
	}
	if cfg.MaxRoundingReserveLamports == 0 {
		cfg.MaxRoundingReserveLamports = defaults.MaxRoundingReserveLamports
	}
	if cfg.MinLSTDeposit == 0 {
		cfg.MinLSTDeposit = defaults.MinLSTDeposit
	}
	if cfg.MinStableMint == 0 {
		cfg.MinStableMint = defaults.MinStableMint
	}
	if cfg.MinLevMint == 0 {
		cfg.MinLevMint = defaults.MinLevMint
	}
	if cfg.MinLSTOut == 0 {
		cfg.MinLSTOut = defaults.MinLSTOut
	}
	if cfg.MinProtocolTVL == 0 {
		cfg.MinProtocolTVL = defaults.MinProtocolTVL
	}
	return cfg
}

// Parameters converts the configuration into the validated runtime set.
func (ec EngineConfig) Parameters() (vault.Params, error) {
	cfg := ec.Normalise()
	params := vault.Params{
		MinCRBps:                   cfg.MinCRBps,
		TargetCRBps:                cfg.TargetCRBps,
		StableMintFeeBps:           cfg.StableMintFeeBps,
		StableRedeemFeeBps:         cfg.StableRedeemFeeBps,
		LevMintFeeBps:              cfg.LevMintFeeBps,
		LevRedeemFeeBps:            cfg.LevRedeemFeeBps,
		FeeMinMultiplierBps:        cfg.FeeMinMultiplierBps,
		FeeMaxMultiplierBps:        cfg.FeeMaxMultiplierBps,
		UncertaintyMaxBps:          cfg.UncertaintyMaxBps,
		MaxOracleStalenessSlots:    cfg.MaxOracleStalenessSlots,
		MaxConfBps:                 cfg.MaxConfBps,
		MaxLstStaleEpochs:          cfg.MaxLstStaleEpochs,
		MaxRoundingReserveLamports: cfg.MaxRoundingReserveLamports,
		MinLSTDeposit:              cfg.MinLSTDeposit,
		MinStableMint:              cfg.MinStableMint,
		MinLevMint:                 cfg.MinLevMint,
		MinLSTOut:                  cfg.MinLSTOut,
		MinProtocolTVL:             cfg.MinProtocolTVL,
	}
	if err := params.Validate(); err != nil {
		return vault.Params{}, err
	}
	return params, nil
}
