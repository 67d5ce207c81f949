package vault

import (
	"context"
	"log/slog"
	"sync"
)

// Emitter receives typed events after each successful operation. Emission is
// best-effort; an emitter must not fail the operation.
type Emitter interface {
	Emit(ctx context.Context, event any)
}

// Initialized is emitted once when the global state is created.
type Initialized struct {
	Authority        Key
	StableMint       Key
	LevMint          Key
	SupportedLSTMint Key
	MinCRBps         uint64
	TargetCRBps      uint64
	Slot             uint64
}

// StableMinted is emitted after a successful stable mint.
type StableMinted struct {
	User         Key
	LSTDeposited uint64
	StableMinted uint64
	Fee          uint64
	FeeBps       uint64
	OldTVLSol    uint64
	NewTVLSol    uint64
	OldCRBps     uint64
	NewCRBps     uint64
	SolPriceUSD  uint64
	Slot         uint64
}

// StableRedeemed is emitted after a successful stable redemption, including
// haircut-mode exits.
type StableRedeemed struct {
	User         Key
	StableBurned uint64
	LSTReceived  uint64
	Fee          uint64
	FeeBps       uint64
	Haircut      bool
	HaircutBps   uint64
	OldTVLSol    uint64
	NewTVLSol    uint64
	OldCRBps     uint64
	NewCRBps     uint64
	SolPriceUSD  uint64
	Slot         uint64
}

// LevMinted is emitted after a successful lev mint.
type LevMinted struct {
	User         Key
	LSTDeposited uint64
	LevMinted    uint64
	Fee          uint64
	FeeBps       uint64
	NavSol       uint64
	OldTVLSol    uint64
	NewTVLSol    uint64
	OldCRBps     uint64
	NewCRBps     uint64
	Slot         uint64
}

// LevRedeemed is emitted after a successful lev redemption.
type LevRedeemed struct {
	User        Key
	LevBurned   uint64
	LSTReceived uint64
	Fee         uint64
	FeeBps      uint64
	NavSol      uint64
	OldTVLSol   uint64
	NewTVLSol   uint64
	OldCRBps    uint64
	NewCRBps    uint64
	Slot        uint64
}

// ParametersUpdated is emitted when the authority adjusts the risk thresholds.
type ParametersUpdated struct {
	MinCRBps    uint64
	TargetCRBps uint64
	Slot        uint64
}

// PricesUpdated is emitted when the authority refreshes the oracle snapshot.
type PricesUpdated struct {
	SolPriceUSD         uint64
	LstToSolRate        uint64
	OracleConfidenceUSD uint64
	UncertaintyIndexBps uint64
	Slot                uint64
}

// ExchangeRateSynced is emitted when the LST-rate cursor refreshes.
type ExchangeRateSynced struct {
	Epoch uint64
	Slot  uint64
}

// PauseToggled is emitted when the kill switches change.
type PauseToggled struct {
	MintPaused   bool
	RedeemPaused bool
	Slot         uint64
}

// TreasuryUpdated is emitted when the fee destination changes.
type TreasuryUpdated struct {
	Treasury Key
	Slot     uint64
}

// LogEmitter writes events through the structured logger.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter wraps the supplied logger; nil falls back to slog.Default.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

// Emit implements Emitter.
func (e *LogEmitter) Emit(ctx context.Context, event any) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger.InfoContext(ctx, "vault event", slog.String("type", eventName(event)), slog.Any("event", event))
}

func eventName(event any) string {
	switch event.(type) {
	case Initialized:
		return "initialized"
	case StableMinted:
		return "stable_minted"
	case StableRedeemed:
		return "stable_redeemed"
	case LevMinted:
		return "lev_minted"
	case LevRedeemed:
		return "lev_redeemed"
	case ParametersUpdated:
		return "parameters_updated"
	case PricesUpdated:
		return "prices_updated"
	case ExchangeRateSynced:
		return "exchange_rate_synced"
	case PauseToggled:
		return "pause_toggled"
	case TreasuryUpdated:
		return "treasury_updated"
	default:
		return "unknown"
	}
}

// MemoryEmitter collects events for assertions in tests.
type MemoryEmitter struct {
	mu     sync.Mutex
	events []any
}

// NewMemoryEmitter constructs an empty collector.
func NewMemoryEmitter() *MemoryEmitter {
	return &MemoryEmitter{}
}

// Emit implements Emitter.
func (e *MemoryEmitter) Emit(_ context.Context, event any) {
	e.mu.Lock()
	e.events = append(e.events, event)
	e.mu.Unlock()
}

// Events returns a copy of everything emitted so far.
func (e *MemoryEmitter) Events() []any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]any{}, e.events...)
}
