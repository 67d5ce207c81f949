package vault

import (
	"context"
	"fmt"
	"log/slog"

	"strata/native/oracle"
)

// UpdateParameters adjusts the risk thresholds. Authority only.
func (e *Engine) UpdateParameters(ctx context.Context, caller Key, minCRBps, targetCRBps uint64) error {
	ctx, span := e.tracer.Start(ctx, "vault.UpdateParameters")
	defer span.End()
	if !e.mu.TryLock() {
		return ErrReentrancy
	}
	defer e.mu.Unlock()
	if e.state == nil {
		return ErrNotInitialized
	}
	if caller != e.state.Authority {
		return ErrUnauthorized
	}
	if minCRBps < BPSPrecision {
		return fmt.Errorf("%w: min CR %d below %d bps", ErrInvalidParameter, minCRBps, BPSPrecision)
	}
	if targetCRBps < minCRBps {
		return fmt.Errorf("%w: target CR %d below min CR %d", ErrInvalidParameter, targetCRBps, minCRBps)
	}
	next := e.state.Clone()
	next.MinCRBps = minCRBps
	next.TargetCRBps = targetCRBps
	e.state = next
	slot := e.runtime.CurrentSlot()
	e.emit(ctx, ParametersUpdated{MinCRBps: minCRBps, TargetCRBps: targetCRBps, Slot: slot})
	e.logger.InfoContext(ctx, "risk parameters updated",
		slog.Uint64("min_cr_bps", minCRBps),
		slog.Uint64("target_cr_bps", targetCRBps))
	return nil
}

// UpdatePrices refreshes the oracle snapshot and the staleness cursor
// atomically, re-deriving the uncertainty index from the reported confidence.
// Authority only; zero price or rate is rejected.
func (e *Engine) UpdatePrices(ctx context.Context, caller Key, solPriceUSD, lstToSolRate, confidenceUSD uint64) error {
	ctx, span := e.tracer.Start(ctx, "vault.UpdatePrices")
	defer span.End()
	if !e.mu.TryLock() {
		return ErrReentrancy
	}
	defer e.mu.Unlock()
	if e.state == nil {
		return ErrNotInitialized
	}
	if caller != e.state.Authority {
		return ErrUnauthorized
	}
	if solPriceUSD == 0 || lstToSolRate == 0 {
		return ErrZeroAmount
	}
	slot := e.runtime.CurrentSlot()
	next := e.state.Clone()
	next.SolPriceUSD = solPriceUSD
	next.LstToSolRate = lstToSolRate
	next.OracleConfidenceUSD = confidenceUSD
	next.UncertaintyIndexBps = uncertaintyIndexBps(confidenceUSD, solPriceUSD, next.UncertaintyMaxBps)
	next.LastOracleUpdateSlot = slot
	e.state = next
	e.emit(ctx, PricesUpdated{
		SolPriceUSD:         solPriceUSD,
		LstToSolRate:        lstToSolRate,
		OracleConfidenceUSD: confidenceUSD,
		UncertaintyIndexBps: next.UncertaintyIndexBps,
		Slot:                slot,
	})
	e.logger.InfoContext(ctx, "oracle snapshot updated",
		slog.Uint64("sol_price_usd", solPriceUSD),
		slog.Uint64("lst_to_sol_rate", lstToSolRate),
		slog.Uint64("confidence_usd", confidenceUSD),
		slog.Uint64("slot", slot))
	return nil
}

// RefreshPrices pulls the latest observation from the supplied source and
// applies it through UpdatePrices.
func (e *Engine) RefreshPrices(ctx context.Context, caller Key, source oracle.Source) error {
	if source == nil {
		return fmt.Errorf("vault: price source required")
	}
	snapshot, err := source.Latest()
	if err != nil {
		return fmt.Errorf("vault: reading price source: %w", err)
	}
	return e.UpdatePrices(ctx, caller, snapshot.SolPriceUSD, snapshot.LstToSolRate, snapshot.ConfidenceUSD)
}

// SyncExchangeRate refreshes the LST-rate staleness cursor. Permissionless:
// the rate itself only moves through UpdatePrices, this merely attests the
// cache was reconciled against the stake pool this epoch.
func (e *Engine) SyncExchangeRate(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "vault.SyncExchangeRate")
	defer span.End()
	if !e.mu.TryLock() {
		return ErrReentrancy
	}
	defer e.mu.Unlock()
	if e.state == nil {
		return ErrNotInitialized
	}
	epoch := e.runtime.CurrentEpoch()
	slot := e.runtime.CurrentSlot()
	next := e.state.Clone()
	next.LastLstSyncEpoch = epoch
	e.state = next
	e.emit(ctx, ExchangeRateSynced{Epoch: epoch, Slot: slot})
	e.logger.InfoContext(ctx, "exchange rate cursor synced", slog.Uint64("epoch", epoch))
	return nil
}

// SetPause toggles the emergency kill switches. Authority only.
func (e *Engine) SetPause(ctx context.Context, caller Key, mintPaused, redeemPaused bool) error {
	ctx, span := e.tracer.Start(ctx, "vault.SetPause")
	defer span.End()
	if !e.mu.TryLock() {
		return ErrReentrancy
	}
	defer e.mu.Unlock()
	if e.state == nil {
		return ErrNotInitialized
	}
	if caller != e.state.Authority {
		return ErrUnauthorized
	}
	next := e.state.Clone()
	next.MintPaused = mintPaused
	next.RedeemPaused = redeemPaused
	e.state = next
	slot := e.runtime.CurrentSlot()
	e.emit(ctx, PauseToggled{MintPaused: mintPaused, RedeemPaused: redeemPaused, Slot: slot})
	e.logger.WarnContext(ctx, "pause flags toggled",
		slog.Bool("mint_paused", mintPaused),
		slog.Bool("redeem_paused", redeemPaused))
	return nil
}

// UpdateTreasury changes the fee destination. Authority only.
func (e *Engine) UpdateTreasury(ctx context.Context, caller, treasury Key) error {
	ctx, span := e.tracer.Start(ctx, "vault.UpdateTreasury")
	defer span.End()
	if !e.mu.TryLock() {
		return ErrReentrancy
	}
	defer e.mu.Unlock()
	if e.state == nil {
		return ErrNotInitialized
	}
	if caller != e.state.Authority {
		return ErrUnauthorized
	}
	if treasury.IsZero() {
		return fmt.Errorf("%w: treasury key required", ErrInvalidParameter)
	}
	next := e.state.Clone()
	next.Treasury = treasury
	e.state = next
	e.emit(ctx, TreasuryUpdated{Treasury: treasury, Slot: e.runtime.CurrentSlot()})
	e.logger.InfoContext(ctx, "treasury updated", slog.String("treasury", treasury.String()))
	return nil
}
