package vault

import (
	"encoding/hex"
	"fmt"
)

// Key identifies an account within the host runtime. Thirty-two bytes to
// match the runtime's public-key width.
type Key [32]byte

// String renders the key as lowercase hex for logs and journal records.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// IsZero reports whether the key is the all-zero placeholder.
func (k Key) IsZero() bool {
	return k == Key{}
}

// KeyFromString parses a hex-encoded key.
func KeyFromString(s string) (Key, error) {
	var k Key
	raw, err := hex.DecodeString(s)
	if err != nil {
		return k, fmt.Errorf("vault: invalid key %q: %w", s, err)
	}
	if len(raw) != len(k) {
		return k, fmt.Errorf("vault: invalid key length %d", len(raw))
	}
	copy(k[:], raw)
	return k, nil
}

// GlobalState is the singleton balance-sheet record. It is created once by
// Initialize and mutated only by the engine. User operations commit a
// candidate copy only after the invariant checks pass; admin operations swap
// in an updated copy directly.
type GlobalState struct {
	// Version is the schema tag, starting at 1.
	Version uint64
	// Authority may perform admin operations; Treasury receives fee tokens.
	Authority Key
	Treasury  Key
	// Token identities fixed at initialization.
	StableMint       Key
	LevMint          Key
	SupportedLSTMint Key
	// Vault custodies the LST collateral; VaultAuthority signs its transfers.
	Vault          Key
	VaultAuthority Key
	// TotalLSTAmount mirrors the vault's LST balance in base units.
	TotalLSTAmount uint64
	// StableSupply tracks the stable mint (6 decimals); LevSupply tracks the
	// lev mint (9 decimals).
	StableSupply uint64
	LevSupply    uint64
	// Risk thresholds in basis points, target >= min >= 10000.
	MinCRBps    uint64
	TargetCRBps uint64
	// Base fees per operation, each capped at MaxBaseFeeBps.
	StableMintFeeBps   uint64
	StableRedeemFeeBps uint64
	LevMintFeeBps      uint64
	LevRedeemFeeBps    uint64
	// Dynamic fee multiplier bounds.
	FeeMinMultiplierBps uint64
	FeeMaxMultiplierBps uint64
	// Oracle uncertainty scaler, derived from confidence at each price update.
	UncertaintyIndexBps uint64
	UncertaintyMaxBps   uint64
	// Integer-division residue retained in the vault's favor.
	RoundingReserveLamports    uint64
	MaxRoundingReserveLamports uint64
	// Freshness policy.
	MaxOracleStalenessSlots uint64
	MaxConfBps              uint64
	MaxLstStaleEpochs       uint64
	// Freshness cursors.
	LastTVLUpdateSlot    uint64
	LastOracleUpdateSlot uint64
	LastLstSyncEpoch     uint64
	// Oracle snapshot: SOL/USD price (6 decimals), LST-to-SOL rate
	// (9 decimals) and the reported confidence interval in USD.
	SolPriceUSD         uint64
	LstToSolRate        uint64
	OracleConfidenceUSD uint64
	// Admin kill switches.
	MintPaused   bool
	RedeemPaused bool
	// OperationCounter strictly increases across successful user operations.
	OperationCounter uint64
	// Dust floors and the minimum protocol TVL.
	MinLSTDeposit  uint64
	MinStableMint  uint64
	MinLevMint     uint64
	MinLSTOut      uint64
	MinProtocolTVL uint64
}

// Clone returns a deep copy used as the staging record for in-flight
// operations.
func (s *GlobalState) Clone() *GlobalState {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// MaxBaseFeeBps bounds every configured base fee.
const MaxBaseFeeBps uint64 = 500

// Params carries the governed engine parameters applied at initialization.
type Params struct {
	MinCRBps                   uint64
	TargetCRBps                uint64
	StableMintFeeBps           uint64
	StableRedeemFeeBps         uint64
	LevMintFeeBps              uint64
	LevRedeemFeeBps            uint64
	FeeMinMultiplierBps        uint64
	FeeMaxMultiplierBps        uint64
	UncertaintyMaxBps          uint64
	MaxOracleStalenessSlots    uint64
	MaxConfBps                 uint64
	MaxLstStaleEpochs          uint64
	MaxRoundingReserveLamports uint64
	MinLSTDeposit              uint64
	MinStableMint              uint64
	MinLevMint                 uint64
	MinLSTOut                  uint64
	MinProtocolTVL             uint64
}

// DefaultParams returns the launch parameter set.
func DefaultParams() Params {
	return Params{
		MinCRBps:                   13_000,
		TargetCRBps:                15_000,
		StableMintFeeBps:           50,
		StableRedeemFeeBps:         25,
		LevMintFeeBps:              30,
		LevRedeemFeeBps:            15,
		FeeMinMultiplierBps:        10_000,
		FeeMaxMultiplierBps:        40_000,
		UncertaintyMaxBps:          20_000,
		MaxOracleStalenessSlots:    300,
		MaxConfBps:                 100,
		MaxLstStaleEpochs:          2,
		MaxRoundingReserveLamports: 1_000_000,
		MinLSTDeposit:              100_000,
		MinStableMint:              1_000,
		MinLevMint:                 1_000_000,
		MinLSTOut:                  1_000,
		MinProtocolTVL:             1_000_000,
	}
}

// Validate checks the parameter bounds the engine refuses to run without.
func (p Params) Validate() error {
	if p.MinCRBps < BPSPrecision {
		return fmt.Errorf("%w: MinCRBps %d below %d", ErrInvalidParameter, p.MinCRBps, BPSPrecision)
	}
	if p.TargetCRBps < p.MinCRBps {
		return fmt.Errorf("%w: TargetCRBps %d below MinCRBps %d", ErrInvalidParameter, p.TargetCRBps, p.MinCRBps)
	}
	for _, fee := range []uint64{p.StableMintFeeBps, p.StableRedeemFeeBps, p.LevMintFeeBps, p.LevRedeemFeeBps} {
		if fee > MaxBaseFeeBps {
			return fmt.Errorf("%w: base fee %d above %d bps", ErrInvalidParameter, fee, MaxBaseFeeBps)
		}
	}
	if p.FeeMinMultiplierBps == 0 || p.FeeMinMultiplierBps > BPSPrecision {
		return fmt.Errorf("%w: FeeMinMultiplierBps %d outside (0, %d]", ErrInvalidParameter, p.FeeMinMultiplierBps, BPSPrecision)
	}
	if p.FeeMaxMultiplierBps < BPSPrecision {
		return fmt.Errorf("%w: FeeMaxMultiplierBps %d below %d", ErrInvalidParameter, p.FeeMaxMultiplierBps, BPSPrecision)
	}
	if p.UncertaintyMaxBps < BPSPrecision {
		return fmt.Errorf("%w: UncertaintyMaxBps %d below %d", ErrInvalidParameter, p.UncertaintyMaxBps, BPSPrecision)
	}
	return nil
}

// Genesis bundles everything Initialize needs to create the global state.
type Genesis struct {
	Authority        Key
	Treasury         Key
	StableMint       Key
	LevMint          Key
	SupportedLSTMint Key
	Vault            Key
	VaultAuthority   Key
	Params           Params
	// Initial oracle snapshot.
	SolPriceUSD         uint64
	LstToSolRate        uint64
	OracleConfidenceUSD uint64
}
