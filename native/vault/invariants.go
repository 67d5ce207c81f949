package vault

import "fmt"

// balanceSheetTolerance returns the rounding slack allowed between TVL and
// liability plus equity: one basis point of TVL, floored at 1000 lamports.
func balanceSheetTolerance(tvlSol uint64) uint64 {
	tol := tvlSol / BPSPrecision
	if tol < 1_000 {
		tol = 1_000
	}
	return tol
}

// enforceInvariants asserts the non-negotiable post-operation rules against
// the candidate state and the ledger's actual holdings. A failure here means
// a defect, not a user error; the caller discards all staged effects.
func (e *Engine) enforceInvariants(prev, next *GlobalState, haircut bool) error {
	vaultBalance, err := e.ledger.Balance(next.SupportedLSTMint, next.Vault)
	if err != nil {
		return fmt.Errorf("vault: reading vault balance: %w", err)
	}
	if vaultBalance != next.TotalLSTAmount {
		return fmt.Errorf("%w: vault holds %d, tracked %d", ErrVaultDesynced, vaultBalance, next.TotalLSTAmount)
	}
	stableSupply, err := e.ledger.Supply(next.StableMint)
	if err != nil {
		return fmt.Errorf("vault: reading stable supply: %w", err)
	}
	if stableSupply != next.StableSupply {
		return fmt.Errorf("%w: stable mint %d, tracked %d", ErrSupplyDesynced, stableSupply, next.StableSupply)
	}
	levSupply, err := e.ledger.Supply(next.LevMint)
	if err != nil {
		return fmt.Errorf("vault: reading lev supply: %w", err)
	}
	if levSupply != next.LevSupply {
		return fmt.Errorf("%w: lev mint %d, tracked %d", ErrSupplyDesynced, levSupply, next.LevSupply)
	}

	view, err := Price(next)
	if err != nil {
		return err
	}
	if view.Solvent() {
		total, err := addChecked(view.LiabilitySol, view.EquitySol)
		if err != nil {
			return err
		}
		var diff uint64
		if view.TVLSol > total {
			diff = view.TVLSol - total
		} else {
			diff = total - view.TVLSol
		}
		if diff > balanceSheetTolerance(view.TVLSol) {
			return fmt.Errorf("%w: tvl %d, liability %d, equity %d", ErrBalanceSheetViolation, view.TVLSol, view.LiabilitySol, view.EquitySol)
		}
	} else if view.EquitySol != 0 {
		// Insolvent books carry zero equity; liability legitimately exceeds
		// TVL until the haircut exits or prices recover.
		return fmt.Errorf("%w: insolvent book reports equity %d", ErrBalanceSheetViolation, view.EquitySol)
	}

	if next.OperationCounter != prev.OperationCounter+1 {
		return fmt.Errorf("%w: %d -> %d", ErrCounterRegression, prev.OperationCounter, next.OperationCounter)
	}
	if next.MinCRBps < BPSPrecision || next.TargetCRBps < next.MinCRBps {
		return fmt.Errorf("%w: min %d, target %d", ErrInvalidParameter, next.MinCRBps, next.TargetCRBps)
	}
	if !haircut && view.CRBps != CRInfinite && view.CRBps < next.MinCRBps && crWorsened(prev, view) {
		return fmt.Errorf("%w: post-op CR %d below %d", ErrCollateralRatioTooLow, view.CRBps, next.MinCRBps)
	}
	if next.RoundingReserveLamports > next.MaxRoundingReserveLamports {
		return fmt.Errorf("%w: %d above %d", ErrRoundingReserveExceeded, next.RoundingReserveLamports, next.MaxRoundingReserveLamports)
	}
	return nil
}

// crWorsened reports whether the operation pushed CR down relative to the
// pre-state, which is the only case the post-op floor re-checks. Risk-reducing
// exits from an already distressed book are permitted.
func crWorsened(prev *GlobalState, post Pricing) bool {
	preView, err := Price(prev)
	if err != nil {
		return true
	}
	if preView.CRBps == CRInfinite {
		return post.CRBps != CRInfinite
	}
	return post.CRBps < preView.CRBps
}
