package vault

import (
	"context"

	"strata/native/fees"
	"strata/observability/metrics"
)

// MintStable deposits LST collateral and mints stable tokens at par with the
// deposit's USD value, net of the dynamic fee. Risk-increasing: the post-op
// collateral ratio must stay at or above the minimum.
func (e *Engine) MintStable(ctx context.Context, user Key, lstIn, minStableOut uint64) (record *OperationRecord, err error) {
	ctx, span := e.tracer.Start(ctx, "vault.MintStable", opAttributes(user, lstIn))
	defer span.End()
	defer func() {
		if err != nil {
			metrics.Vault().OperationFailed(OpMintStable)
		}
	}()
	if !e.mu.TryLock() {
		return nil, ErrReentrancy
	}
	defer e.mu.Unlock()

	slot, err := e.gateUserOp(gateMint)
	if err != nil {
		return nil, err
	}
	s := e.state
	if lstIn == 0 {
		return nil, ErrZeroAmount
	}
	if lstIn < s.MinLSTDeposit {
		return nil, ErrAmountTooSmall
	}
	pre, err := Price(s)
	if err != nil {
		return nil, err
	}

	var dust uint64
	solIn, err := convDown(lstIn, s.LstToSolRate, SOLPrecision, &dust)
	if err != nil {
		return nil, err
	}
	usdGross, err := convDown(solIn, s.SolPriceUSD, SOLPrecision, &dust)
	if err != nil {
		return nil, err
	}
	feeBps := fees.Apply(feeSchedule(s, s.StableMintFeeBps, fees.RiskIncreasing, pre.CRBps))
	feeStable, err := MulDivUp(usdGross, feeBps, BPSPrecision)
	if err != nil {
		return nil, err
	}
	userStable, err := subChecked(usdGross, feeStable, ErrMathOverflow)
	if err != nil {
		return nil, err
	}
	if userStable < s.MinStableMint {
		return nil, ErrAmountTooSmall
	}
	if userStable < minStableOut {
		return nil, ErrSlippageExceeded
	}
	balance, err := e.ledger.Balance(s.SupportedLSTMint, user)
	if err != nil {
		return nil, err
	}
	if balance < lstIn {
		return nil, ErrInsufficientCollateral
	}

	next := s.Clone()
	if next.TotalLSTAmount, err = addChecked(s.TotalLSTAmount, lstIn); err != nil {
		return nil, err
	}
	if next.StableSupply, err = addChecked(s.StableSupply, usdGross); err != nil {
		return nil, err
	}
	post, err := Price(next)
	if err != nil {
		return nil, err
	}
	if post.CRBps != CRInfinite && post.CRBps < s.MinCRBps {
		return nil, ErrCollateralRatioTooLow
	}
	next.OperationCounter = s.OperationCounter + 1
	next.LastTVLUpdateSlot = slot
	applyRoundingReserve(next, dust)

	record = &OperationRecord{
		Counter:     next.OperationCounter,
		Kind:        OpMintStable,
		User:        user,
		AmountIn:    lstIn,
		AmountOut:   userStable,
		Fee:         feeStable,
		FeeBps:      feeBps,
		CRBeforeBps: pre.CRBps,
		CRAfterBps:  post.CRBps,
		Slot:        slot,
	}
	event := StableMinted{
		User:         user,
		LSTDeposited: lstIn,
		StableMinted: userStable,
		Fee:          feeStable,
		FeeBps:       feeBps,
		OldTVLSol:    pre.TVLSol,
		NewTVLSol:    post.TVLSol,
		OldCRBps:     pre.CRBps,
		NewCRBps:     post.CRBps,
		SolPriceUSD:  s.SolPriceUSD,
		Slot:         slot,
	}
	err = e.commit(ctx, next, false, record, event, func() error {
		if err := e.ledger.Transfer(s.SupportedLSTMint, user, s.Vault, lstIn); err != nil {
			return err
		}
		if err := e.ledger.Mint(s.StableMint, user, userStable); err != nil {
			return err
		}
		if feeStable > 0 {
			return e.ledger.Mint(s.StableMint, s.Treasury, feeStable)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// MintLev deposits LST collateral and mints lev tokens at the current NAV,
// or one-to-one with the deposit's SOL value for the bootstrap mint.
// Risk-reducing: no post-op CR floor applies.
func (e *Engine) MintLev(ctx context.Context, user Key, lstIn, minLevOut uint64) (record *OperationRecord, err error) {
	ctx, span := e.tracer.Start(ctx, "vault.MintLev", opAttributes(user, lstIn))
	defer span.End()
	defer func() {
		if err != nil {
			metrics.Vault().OperationFailed(OpMintLev)
		}
	}()
	if !e.mu.TryLock() {
		return nil, ErrReentrancy
	}
	defer e.mu.Unlock()

	slot, err := e.gateUserOp(gateMint)
	if err != nil {
		return nil, err
	}
	s := e.state
	if lstIn == 0 {
		return nil, ErrZeroAmount
	}
	if lstIn < s.MinLSTDeposit {
		return nil, ErrAmountTooSmall
	}
	pre, err := Price(s)
	if err != nil {
		return nil, err
	}

	var dust uint64
	solIn, err := convDown(lstIn, s.LstToSolRate, SOLPrecision, &dust)
	if err != nil {
		return nil, err
	}
	var levGross uint64
	if s.LevSupply == 0 {
		levGross = solIn
	} else {
		if pre.LevNavSol == 0 {
			return nil, ErrInsolventProtocol
		}
		levGross, err = convDown(solIn, SOLPrecision, pre.LevNavSol, &dust)
		if err != nil {
			return nil, err
		}
	}
	feeBps := fees.Apply(feeSchedule(s, s.LevMintFeeBps, fees.RiskReducing, pre.CRBps))
	feeLev, err := MulDivUp(levGross, feeBps, BPSPrecision)
	if err != nil {
		return nil, err
	}
	userLev, err := subChecked(levGross, feeLev, ErrMathOverflow)
	if err != nil {
		return nil, err
	}
	if userLev < s.MinLevMint {
		return nil, ErrAmountTooSmall
	}
	if userLev < minLevOut {
		return nil, ErrSlippageExceeded
	}
	balance, err := e.ledger.Balance(s.SupportedLSTMint, user)
	if err != nil {
		return nil, err
	}
	if balance < lstIn {
		return nil, ErrInsufficientCollateral
	}

	next := s.Clone()
	if next.TotalLSTAmount, err = addChecked(s.TotalLSTAmount, lstIn); err != nil {
		return nil, err
	}
	if next.LevSupply, err = addChecked(s.LevSupply, levGross); err != nil {
		return nil, err
	}
	post, err := Price(next)
	if err != nil {
		return nil, err
	}
	next.OperationCounter = s.OperationCounter + 1
	next.LastTVLUpdateSlot = slot
	applyRoundingReserve(next, dust)

	record = &OperationRecord{
		Counter:     next.OperationCounter,
		Kind:        OpMintLev,
		User:        user,
		AmountIn:    lstIn,
		AmountOut:   userLev,
		Fee:         feeLev,
		FeeBps:      feeBps,
		CRBeforeBps: pre.CRBps,
		CRAfterBps:  post.CRBps,
		Slot:        slot,
	}
	event := LevMinted{
		User:         user,
		LSTDeposited: lstIn,
		LevMinted:    userLev,
		Fee:          feeLev,
		FeeBps:       feeBps,
		NavSol:       pre.LevNavSol,
		OldTVLSol:    pre.TVLSol,
		NewTVLSol:    post.TVLSol,
		OldCRBps:     pre.CRBps,
		NewCRBps:     post.CRBps,
		Slot:         slot,
	}
	err = e.commit(ctx, next, false, record, event, func() error {
		if err := e.ledger.Transfer(s.SupportedLSTMint, user, s.Vault, lstIn); err != nil {
			return err
		}
		if err := e.ledger.Mint(s.LevMint, user, userLev); err != nil {
			return err
		}
		if feeLev > 0 {
			return e.ledger.Mint(s.LevMint, s.Treasury, feeLev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
