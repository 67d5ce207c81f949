package vault

// Pricing is the read-only balance-sheet view every gate and fee computation
// consumes. All SOL figures are in lamports, the ratio in basis points.
type Pricing struct {
	TVLSol       uint64
	LiabilitySol uint64
	EquitySol    uint64
	CRBps        uint64
	LevNavSol    uint64
}

// Solvent reports whether TVL still covers the outstanding liability.
func (p Pricing) Solvent() bool {
	return p.TVLSol >= p.LiabilitySol
}

// Price derives the pricing view from a state snapshot. Pure; never mutates.
func Price(s *GlobalState) (Pricing, error) {
	if s == nil {
		return Pricing{}, ErrNotInitialized
	}
	tvl, err := TVLSol(s.TotalLSTAmount, s.LstToSolRate)
	if err != nil {
		return Pricing{}, err
	}
	liability, err := LiabilitySol(s.StableSupply, s.SolPriceUSD)
	if err != nil {
		return Pricing{}, err
	}
	equity := EquitySol(tvl, liability)
	nav, err := LevNavSol(equity, s.LevSupply)
	if err != nil {
		return Pricing{}, err
	}
	return Pricing{
		TVLSol:       tvl,
		LiabilitySol: liability,
		EquitySol:    equity,
		CRBps:        CollateralRatioBps(tvl, liability),
		LevNavSol:    nav,
	}, nil
}
