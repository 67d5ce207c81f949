// Package vault implements the accounting and risk engine of the dual-token
// collateral pool: one shared LST vault backing a USD-pegged stable token
// (senior tranche) and a leveraged equity token (junior tranche).
package vault

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"strata/native/fees"
	"strata/observability/metrics"
)

// Engine executes the mint/redeem state machine against the singleton global
// state. Every public operation runs its gate sequence, stages effects
// through the token ledger, enforces the invariants and only then commits the
// candidate state. Operations are serialized; overlapping entry is rejected
// with ErrReentrancy rather than queued.
type Engine struct {
	mu      sync.Mutex
	state   *GlobalState
	ledger  TokenLedger
	runtime Runtime
	journal *Journal
	emitter Emitter
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewEngine constructs an engine bound to the supplied ledger and runtime
// adapters. The engine starts uninitialized; Initialize creates the state.
func NewEngine(ledger TokenLedger, runtime Runtime) *Engine {
	return &Engine{
		ledger:  ledger,
		runtime: runtime,
		logger:  slog.Default(),
		tracer:  otel.Tracer("strata/native/vault"),
	}
}

// SetLogger overrides the structured logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if e == nil || logger == nil {
		return
	}
	e.logger = logger
}

// SetEmitter installs an event emitter. Nil disables emission.
func (e *Engine) SetEmitter(emitter Emitter) {
	if e == nil {
		return
	}
	e.emitter = emitter
}

// SetJournal installs the operations journal. Appends become part of the
// commit: a journal failure aborts the operation.
func (e *Engine) SetJournal(journal *Journal) {
	if e == nil {
		return
	}
	e.journal = journal
}

// State returns a copy of the current global state for observers.
func (e *Engine) State() (*GlobalState, error) {
	if e == nil {
		return nil, ErrNotInitialized
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, ErrNotInitialized
	}
	return e.state.Clone(), nil
}

// Pricing derives the balance-sheet view from the current state.
func (e *Engine) Pricing() (Pricing, error) {
	if e == nil {
		return Pricing{}, ErrNotInitialized
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return Price(e.state)
}

// Initialize creates the global state. A second call fails with
// ErrAlreadyInitialized regardless of arguments.
func (e *Engine) Initialize(ctx context.Context, genesis Genesis) error {
	if e == nil {
		return ErrNotInitialized
	}
	ctx, span := e.tracer.Start(ctx, "vault.Initialize")
	defer span.End()
	if !e.mu.TryLock() {
		return ErrReentrancy
	}
	defer e.mu.Unlock()
	if e.state != nil {
		return ErrAlreadyInitialized
	}
	if err := genesis.Params.Validate(); err != nil {
		return err
	}
	if genesis.SolPriceUSD == 0 || genesis.LstToSolRate == 0 {
		return ErrZeroAmount
	}
	slot := e.runtime.CurrentSlot()
	p := genesis.Params
	treasury := genesis.Treasury
	if treasury.IsZero() {
		treasury = genesis.Authority
	}
	e.state = &GlobalState{
		Version:                    1,
		Authority:                  genesis.Authority,
		Treasury:                   treasury,
		StableMint:                 genesis.StableMint,
		LevMint:                    genesis.LevMint,
		SupportedLSTMint:           genesis.SupportedLSTMint,
		Vault:                      genesis.Vault,
		VaultAuthority:             genesis.VaultAuthority,
		MinCRBps:                   p.MinCRBps,
		TargetCRBps:                p.TargetCRBps,
		StableMintFeeBps:           p.StableMintFeeBps,
		StableRedeemFeeBps:         p.StableRedeemFeeBps,
		LevMintFeeBps:              p.LevMintFeeBps,
		LevRedeemFeeBps:            p.LevRedeemFeeBps,
		FeeMinMultiplierBps:        p.FeeMinMultiplierBps,
		FeeMaxMultiplierBps:        p.FeeMaxMultiplierBps,
		UncertaintyMaxBps:          p.UncertaintyMaxBps,
		MaxRoundingReserveLamports: p.MaxRoundingReserveLamports,
		MaxOracleStalenessSlots:    p.MaxOracleStalenessSlots,
		MaxConfBps:                 p.MaxConfBps,
		MaxLstStaleEpochs:          p.MaxLstStaleEpochs,
		LastTVLUpdateSlot:          slot,
		LastOracleUpdateSlot:       slot,
		LastLstSyncEpoch:           e.runtime.CurrentEpoch(),
		SolPriceUSD:                genesis.SolPriceUSD,
		LstToSolRate:               genesis.LstToSolRate,
		OracleConfidenceUSD:        genesis.OracleConfidenceUSD,
		MinLSTDeposit:              p.MinLSTDeposit,
		MinStableMint:              p.MinStableMint,
		MinLevMint:                 p.MinLevMint,
		MinLSTOut:                  p.MinLSTOut,
		MinProtocolTVL:             p.MinProtocolTVL,
	}
	e.state.UncertaintyIndexBps = uncertaintyIndexBps(genesis.OracleConfidenceUSD, genesis.SolPriceUSD, p.UncertaintyMaxBps)
	e.emit(ctx, Initialized{
		Authority:        genesis.Authority,
		StableMint:       genesis.StableMint,
		LevMint:          genesis.LevMint,
		SupportedLSTMint: genesis.SupportedLSTMint,
		MinCRBps:         p.MinCRBps,
		TargetCRBps:      p.TargetCRBps,
		Slot:             slot,
	})
	e.logger.InfoContext(ctx, "vault initialized",
		slog.Uint64("min_cr_bps", p.MinCRBps),
		slog.Uint64("target_cr_bps", p.TargetCRBps),
		slog.Uint64("slot", slot))
	return nil
}

const (
	gateMint = iota
	gateRedeem
)

// gateUserOp runs the entry checks shared by every user operation: the
// engine must be initialized, the instruction must be top-level, the
// relevant pause flag must be clear and the oracle snapshot fresh. Returns
// the current slot for downstream bookkeeping.
func (e *Engine) gateUserOp(kind int) (uint64, error) {
	if e.state == nil {
		return 0, ErrNotInitialized
	}
	if e.runtime.InstructionIndex() != 0 {
		return 0, ErrInvalidCPIContext
	}
	switch kind {
	case gateMint:
		if e.state.MintPaused {
			return 0, ErrMintPaused
		}
	case gateRedeem:
		if e.state.RedeemPaused {
			return 0, ErrRedeemPaused
		}
	}
	if err := e.checkFreshness(e.state); err != nil {
		return 0, err
	}
	return e.runtime.CurrentSlot(), nil
}

// convDown is MulDivDown with residue accounting: every inexact division
// leaves sub-unit value behind in the vault's favor, tallied per lamport.
func convDown(a, b, c uint64, dust *uint64) (uint64, error) {
	q, exact, err := mulDiv(a, b, c)
	if err != nil {
		return 0, err
	}
	if !exact && dust != nil {
		*dust++
	}
	return q, nil
}

// applyRoundingReserve folds the operation's residue tally into the reserve,
// saturating at the configured ceiling.
func applyRoundingReserve(next *GlobalState, dust uint64) {
	reserve := next.RoundingReserveLamports + dust
	if reserve < next.RoundingReserveLamports || reserve > next.MaxRoundingReserveLamports {
		reserve = next.MaxRoundingReserveLamports
	}
	next.RoundingReserveLamports = reserve
}

func feeSchedule(s *GlobalState, base uint64, dir fees.Direction, crBps uint64) fees.Schedule {
	return fees.Schedule{
		BaseFeeBps:          base,
		Direction:           dir,
		CRBps:               crBps,
		TargetCRBps:         s.TargetCRBps,
		MinCRBps:            s.MinCRBps,
		MinMultiplierBps:    s.FeeMinMultiplierBps,
		MaxMultiplierBps:    s.FeeMaxMultiplierBps,
		UncertaintyIndexBps: s.UncertaintyIndexBps,
		UncertaintyMaxBps:   s.UncertaintyMaxBps,
	}
}

func uncertaintyIndexBps(confidenceUSD, solPriceUSD, maxBps uint64) uint64 {
	if confidenceUSD == 0 || solPriceUSD == 0 {
		return 0
	}
	index, err := MulDivDown(confidenceUSD, BPSPrecision, solPriceUSD)
	if err != nil || index > maxBps {
		return maxBps
	}
	return index
}

// commit executes the staged effects, enforces invariants, appends the
// journal record and swaps in the candidate state. Any failure discards the
// ledger effects through the Transactional interface when available.
func (e *Engine) commit(ctx context.Context, next *GlobalState, haircut bool, record *OperationRecord, event any, effects func() error) error {
	prev := e.state
	tx, _ := e.ledger.(Transactional)
	if tx != nil {
		tx.Begin()
	}
	abort := func(err error) error {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}
	if err := effects(); err != nil {
		return abort(err)
	}
	if err := e.enforceInvariants(prev, next, haircut); err != nil {
		return abort(err)
	}
	if e.journal != nil {
		if err := e.journal.Append(record); err != nil {
			return abort(err)
		}
	}
	if tx != nil {
		tx.Commit()
	}
	e.state = next
	view, err := Price(next)
	if err == nil {
		metrics.Vault().ObserveState(view.TVLSol, view.CRBps, view.CRBps == CRInfinite, next.RoundingReserveLamports)
	}
	metrics.Vault().OperationCommitted(record.Kind, record.FeeBps)
	e.emit(ctx, event)
	e.logger.InfoContext(ctx, "vault operation committed",
		slog.String("kind", record.Kind),
		slog.Uint64("counter", record.Counter),
		slog.String("user", record.User.String()),
		slog.Uint64("amount_in", record.AmountIn),
		slog.Uint64("amount_out", record.AmountOut),
		slog.Uint64("fee", record.Fee),
		slog.Uint64("fee_bps", record.FeeBps),
		slog.Bool("haircut", record.Haircut))
	return nil
}

func (e *Engine) emit(ctx context.Context, event any) {
	if e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(ctx, event)
}

func opAttributes(user Key, amount uint64) trace.SpanStartEventOption {
	return trace.WithAttributes(
		attribute.String("vault.user", user.String()),
		attribute.String("vault.amount", strconv.FormatUint(amount, 10)),
	)
}
