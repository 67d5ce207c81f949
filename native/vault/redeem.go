package vault

import (
	"context"

	"strata/native/fees"
	"strata/observability/metrics"
)

// RedeemStable burns stable tokens and pays out LST at par. While the book is
// solvent the regular path applies the dynamic redeem fee; once CR drops
// below 100% the haircut path pays pro-rata with zero fee so senior holders
// retain a priority exit.
func (e *Engine) RedeemStable(ctx context.Context, user Key, stableIn, minLSTOut uint64) (record *OperationRecord, err error) {
	ctx, span := e.tracer.Start(ctx, "vault.RedeemStable", opAttributes(user, stableIn))
	defer span.End()
	defer func() {
		if err != nil {
			metrics.Vault().OperationFailed(OpRedeemStable)
		}
	}()
	if !e.mu.TryLock() {
		return nil, ErrReentrancy
	}
	defer e.mu.Unlock()

	slot, err := e.gateUserOp(gateRedeem)
	if err != nil {
		return nil, err
	}
	s := e.state
	if stableIn == 0 {
		return nil, ErrZeroAmount
	}
	pre, err := Price(s)
	if err != nil {
		return nil, err
	}
	balance, err := e.ledger.Balance(s.StableMint, user)
	if err != nil {
		return nil, err
	}
	if balance < stableIn {
		return nil, ErrInsufficientSupply
	}
	if !pre.Solvent() {
		return e.redeemStableHaircut(ctx, user, stableIn, minLSTOut, slot, pre)
	}

	var dust uint64
	solOut, err := convDown(stableIn, SOLPrecision, s.SolPriceUSD, &dust)
	if err != nil {
		return nil, err
	}
	lstGross, err := convDown(solOut, SOLPrecision, s.LstToSolRate, &dust)
	if err != nil {
		return nil, err
	}
	feeBps := fees.Apply(feeSchedule(s, s.StableRedeemFeeBps, fees.RiskReducing, pre.CRBps))
	feeLST, err := MulDivUp(lstGross, feeBps, BPSPrecision)
	if err != nil {
		return nil, err
	}
	userLST, err := subChecked(lstGross, feeLST, ErrMathOverflow)
	if err != nil {
		return nil, err
	}
	if userLST < s.MinLSTOut {
		return nil, ErrAmountTooSmall
	}
	if userLST < minLSTOut {
		return nil, ErrSlippageExceeded
	}
	if lstGross > s.TotalLSTAmount {
		return nil, ErrInsufficientCollateral
	}

	next := s.Clone()
	if next.StableSupply, err = subChecked(s.StableSupply, stableIn, ErrInsufficientSupply); err != nil {
		return nil, err
	}
	next.TotalLSTAmount = s.TotalLSTAmount - lstGross
	post, err := Price(next)
	if err != nil {
		return nil, err
	}
	if err := checkMinimumTVL(next, post); err != nil {
		return nil, err
	}
	next.OperationCounter = s.OperationCounter + 1
	next.LastTVLUpdateSlot = slot
	applyRoundingReserve(next, dust)

	record = &OperationRecord{
		Counter:     next.OperationCounter,
		Kind:        OpRedeemStable,
		User:        user,
		AmountIn:    stableIn,
		AmountOut:   userLST,
		Fee:         feeLST,
		FeeBps:      feeBps,
		CRBeforeBps: pre.CRBps,
		CRAfterBps:  post.CRBps,
		Slot:        slot,
	}
	event := StableRedeemed{
		User:         user,
		StableBurned: stableIn,
		LSTReceived:  userLST,
		Fee:          feeLST,
		FeeBps:       feeBps,
		OldTVLSol:    pre.TVLSol,
		NewTVLSol:    post.TVLSol,
		OldCRBps:     pre.CRBps,
		NewCRBps:     post.CRBps,
		SolPriceUSD:  s.SolPriceUSD,
		Slot:         slot,
	}
	err = e.commit(ctx, next, false, record, event, func() error {
		if err := e.ledger.Burn(s.StableMint, user, stableIn); err != nil {
			return err
		}
		if err := e.ledger.Transfer(s.SupportedLSTMint, s.Vault, user, userLST); err != nil {
			return err
		}
		if feeLST > 0 {
			return e.ledger.Transfer(s.SupportedLSTMint, s.Vault, s.Treasury, feeLST)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// redeemStableHaircut pays a senior exit pro-rata while the book is
// insolvent. Zero fee: senior holders absorb the haircut, not an extra tax.
// Caller holds the lock and has verified balances and the zero-amount gate.
func (e *Engine) redeemStableHaircut(ctx context.Context, user Key, stableIn, minLSTOut, slot uint64, pre Pricing) (*OperationRecord, error) {
	s := e.state
	haircutBps := pre.CRBps
	if haircutBps > BPSPrecision {
		haircutBps = BPSPrecision
	}
	var dust uint64
	solPar, err := convDown(stableIn, SOLPrecision, s.SolPriceUSD, &dust)
	if err != nil {
		return nil, err
	}
	solAfterHaircut, err := convDown(solPar, haircutBps, BPSPrecision, &dust)
	if err != nil {
		return nil, err
	}
	lstOut, err := convDown(solAfterHaircut, SOLPrecision, s.LstToSolRate, &dust)
	if err != nil {
		return nil, err
	}
	if lstOut < minLSTOut {
		return nil, ErrSlippageExceeded
	}
	if lstOut > s.TotalLSTAmount {
		return nil, ErrInsufficientCollateral
	}

	next := s.Clone()
	if next.StableSupply, err = subChecked(s.StableSupply, stableIn, ErrInsufficientSupply); err != nil {
		return nil, err
	}
	next.TotalLSTAmount = s.TotalLSTAmount - lstOut
	post, err := Price(next)
	if err != nil {
		return nil, err
	}
	next.OperationCounter = s.OperationCounter + 1
	next.LastTVLUpdateSlot = slot
	applyRoundingReserve(next, dust)

	record := &OperationRecord{
		Counter:     next.OperationCounter,
		Kind:        OpRedeemStable,
		User:        user,
		AmountIn:    stableIn,
		AmountOut:   lstOut,
		CRBeforeBps: pre.CRBps,
		CRAfterBps:  post.CRBps,
		Haircut:     true,
		Slot:        slot,
	}
	event := StableRedeemed{
		User:         user,
		StableBurned: stableIn,
		LSTReceived:  lstOut,
		Haircut:      true,
		HaircutBps:   haircutBps,
		OldTVLSol:    pre.TVLSol,
		NewTVLSol:    post.TVLSol,
		OldCRBps:     pre.CRBps,
		NewCRBps:     post.CRBps,
		SolPriceUSD:  s.SolPriceUSD,
		Slot:         slot,
	}
	err = e.commit(ctx, next, true, record, event, func() error {
		if err := e.ledger.Burn(s.StableMint, user, stableIn); err != nil {
			return err
		}
		return e.ledger.Transfer(s.SupportedLSTMint, s.Vault, user, lstOut)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// RedeemLev burns lev tokens and pays out LST at the current NAV. Lev is the
// junior tranche: while the book is insolvent there is no equity to pay and
// the redemption fails outright. Risk-increasing: the post-op CR floor holds.
func (e *Engine) RedeemLev(ctx context.Context, user Key, levIn, minLSTOut uint64) (record *OperationRecord, err error) {
	ctx, span := e.tracer.Start(ctx, "vault.RedeemLev", opAttributes(user, levIn))
	defer span.End()
	defer func() {
		if err != nil {
			metrics.Vault().OperationFailed(OpRedeemLev)
		}
	}()
	if !e.mu.TryLock() {
		return nil, ErrReentrancy
	}
	defer e.mu.Unlock()

	slot, err := e.gateUserOp(gateRedeem)
	if err != nil {
		return nil, err
	}
	s := e.state
	if levIn == 0 {
		return nil, ErrZeroAmount
	}
	pre, err := Price(s)
	if err != nil {
		return nil, err
	}
	if !pre.Solvent() {
		return nil, ErrInsolventProtocol
	}
	balance, err := e.ledger.Balance(s.LevMint, user)
	if err != nil {
		return nil, err
	}
	if balance < levIn {
		return nil, ErrInsufficientSupply
	}

	var dust uint64
	solOut, err := convDown(levIn, pre.LevNavSol, SOLPrecision, &dust)
	if err != nil {
		return nil, err
	}
	lstGross, err := convDown(solOut, SOLPrecision, s.LstToSolRate, &dust)
	if err != nil {
		return nil, err
	}
	feeBps := fees.Apply(feeSchedule(s, s.LevRedeemFeeBps, fees.RiskIncreasing, pre.CRBps))
	feeLST, err := MulDivUp(lstGross, feeBps, BPSPrecision)
	if err != nil {
		return nil, err
	}
	userLST, err := subChecked(lstGross, feeLST, ErrMathOverflow)
	if err != nil {
		return nil, err
	}
	if userLST < s.MinLSTOut {
		return nil, ErrAmountTooSmall
	}
	if userLST < minLSTOut {
		return nil, ErrSlippageExceeded
	}
	if lstGross > s.TotalLSTAmount {
		return nil, ErrInsufficientCollateral
	}

	next := s.Clone()
	if next.LevSupply, err = subChecked(s.LevSupply, levIn, ErrInsufficientSupply); err != nil {
		return nil, err
	}
	next.TotalLSTAmount = s.TotalLSTAmount - lstGross
	post, err := Price(next)
	if err != nil {
		return nil, err
	}
	if post.CRBps != CRInfinite && post.CRBps < s.MinCRBps {
		return nil, ErrCollateralRatioTooLow
	}
	if err := checkMinimumTVL(next, post); err != nil {
		return nil, err
	}
	next.OperationCounter = s.OperationCounter + 1
	next.LastTVLUpdateSlot = slot
	applyRoundingReserve(next, dust)

	record = &OperationRecord{
		Counter:     next.OperationCounter,
		Kind:        OpRedeemLev,
		User:        user,
		AmountIn:    levIn,
		AmountOut:   userLST,
		Fee:         feeLST,
		FeeBps:      feeBps,
		CRBeforeBps: pre.CRBps,
		CRAfterBps:  post.CRBps,
		Slot:        slot,
	}
	event := LevRedeemed{
		User:        user,
		LevBurned:   levIn,
		LSTReceived: userLST,
		Fee:         feeLST,
		FeeBps:      feeBps,
		NavSol:      pre.LevNavSol,
		OldTVLSol:   pre.TVLSol,
		NewTVLSol:   post.TVLSol,
		OldCRBps:    pre.CRBps,
		NewCRBps:    post.CRBps,
		Slot:        slot,
	}
	err = e.commit(ctx, next, false, record, event, func() error {
		if err := e.ledger.Burn(s.LevMint, user, levIn); err != nil {
			return err
		}
		if err := e.ledger.Transfer(s.SupportedLSTMint, s.Vault, user, userLST); err != nil {
			return err
		}
		if feeLST > 0 {
			return e.ledger.Transfer(s.SupportedLSTMint, s.Vault, s.Treasury, feeLST)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// checkMinimumTVL rejects redemptions that would strand a residual book
// below the minimum protocol TVL. A full exit (both supplies zero) may drain
// the vault entirely.
func checkMinimumTVL(next *GlobalState, post Pricing) error {
	if next.StableSupply == 0 && next.LevSupply == 0 {
		return nil
	}
	if post.TVLSol < next.MinProtocolTVL {
		return ErrBelowMinimumTVL
	}
	return nil
}
