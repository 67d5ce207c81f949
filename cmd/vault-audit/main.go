package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"strata/config"
	"strata/observability/logging"
)

type auditReport struct {
	Service string `json:"service"`
	Risk    struct {
		MinCRBps    uint64 `json:"minCrBps"`
		TargetCRBps uint64 `json:"targetCrBps"`
	} `json:"risk"`
	Fees struct {
		StableMintBps     uint64 `json:"stableMintBps"`
		StableRedeemBps   uint64 `json:"stableRedeemBps"`
		LevMintBps        uint64 `json:"levMintBps"`
		LevRedeemBps      uint64 `json:"levRedeemBps"`
		MinMultiplierBps  uint64 `json:"minMultiplierBps"`
		MaxMultiplierBps  uint64 `json:"maxMultiplierBps"`
		UncertaintyMaxBps uint64 `json:"uncertaintyMaxBps"`
	} `json:"fees"`
	Freshness struct {
		MaxOracleStalenessSlots uint64 `json:"maxOracleStalenessSlots"`
		MaxConfBps              uint64 `json:"maxConfBps"`
		MaxLstStaleEpochs       uint64 `json:"maxLstStaleEpochs"`
	} `json:"freshness"`
	Dust struct {
		MinLSTDeposit  uint64 `json:"minLstDeposit"`
		MinStableMint  uint64 `json:"minStableMint"`
		MinLevMint     uint64 `json:"minLevMint"`
		MinLSTOut      uint64 `json:"minLstOut"`
		MinProtocolTVL uint64 `json:"minProtocolTvl"`
	} `json:"dust"`
	MaxRoundingReserveLamports uint64 `json:"maxRoundingReserveLamports"`
}

func main() {
	configPath := flag.String("config", "./config.toml", "Path to engine configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Service, cfg.Env, logging.ParseLevel(cfg.LogLevel))

	params, err := cfg.Engine.Parameters()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to validate engine parameters: %v\n", err)
		os.Exit(1)
	}

	report := auditReport{Service: cfg.Service}
	report.Risk.MinCRBps = params.MinCRBps
	report.Risk.TargetCRBps = params.TargetCRBps
	report.Fees.StableMintBps = params.StableMintFeeBps
	report.Fees.StableRedeemBps = params.StableRedeemFeeBps
	report.Fees.LevMintBps = params.LevMintFeeBps
	report.Fees.LevRedeemBps = params.LevRedeemFeeBps
	report.Fees.MinMultiplierBps = params.FeeMinMultiplierBps
	report.Fees.MaxMultiplierBps = params.FeeMaxMultiplierBps
	report.Fees.UncertaintyMaxBps = params.UncertaintyMaxBps
	report.Freshness.MaxOracleStalenessSlots = params.MaxOracleStalenessSlots
	report.Freshness.MaxConfBps = params.MaxConfBps
	report.Freshness.MaxLstStaleEpochs = params.MaxLstStaleEpochs
	report.Dust.MinLSTDeposit = params.MinLSTDeposit
	report.Dust.MinStableMint = params.MinStableMint
	report.Dust.MinLevMint = params.MinLevMint
	report.Dust.MinLSTOut = params.MinLSTOut
	report.Dust.MinProtocolTVL = params.MinProtocolTVL
	report.MaxRoundingReserveLamports = params.MaxRoundingReserveLamports

	output, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode report: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(output))
}
