package vault

import (
	"context"
	"errors"
	"testing"
)

// crashToInsolvency drives the levered book under water: $50/SOL leaves
// 140 SOL of TVL against 200 SOL of liability, CR 7000.
func crashToInsolvency(t *testing.T, env *testEnv) {
	t.Helper()
	setupLeveredBook(t, env)
	if err := env.engine.UpdatePrices(context.Background(), authorityKey, 50*USDPrecision, SOLPrecision, 0); err != nil {
		t.Fatalf("update prices: %v", err)
	}
	view, err := env.engine.Pricing()
	if err != nil {
		t.Fatalf("pricing: %v", err)
	}
	if view.CRBps != 7_000 {
		t.Fatalf("setup CR = %d, want 7000", view.CRBps)
	}
}

func TestHaircutRedeemPaysProRata(t *testing.T) {
	env := newTestEnv(t)
	crashToInsolvency(t, env)
	ctx := context.Background()

	userStableBefore, _ := env.ledger.Balance(stableMint, userKey)
	treasuryBefore, _ := env.ledger.Balance(lstMint, treasuryKey)

	record, err := env.engine.RedeemStable(ctx, userKey, 250*USDPrecision, 1)
	if err != nil {
		t.Fatalf("haircut redeem: %v", err)
	}
	if !record.Haircut {
		t.Fatalf("expected haircut mode")
	}
	// $250 of par is 5 SOL; at 70% recovery the exit pays 3.5 SOL of LST.
	if record.AmountOut != 3_500_000_000 {
		t.Fatalf("lst out = %d", record.AmountOut)
	}
	// Zero fee on the haircut path: senior holders absorb the haircut, not
	// an additional tax.
	if record.Fee != 0 || record.FeeBps != 0 {
		t.Fatalf("haircut charged a fee: %d (%d bps)", record.Fee, record.FeeBps)
	}
	treasuryAfter, _ := env.ledger.Balance(lstMint, treasuryKey)
	if treasuryAfter != treasuryBefore {
		t.Fatalf("treasury received %d during haircut", treasuryAfter-treasuryBefore)
	}
	// The burn is exact.
	userStableAfter, _ := env.ledger.Balance(stableMint, userKey)
	if userStableBefore-userStableAfter != 250*USDPrecision {
		t.Fatalf("burned %d, want %d", userStableBefore-userStableAfter, 250*USDPrecision)
	}
	env.checkPostOp(t, 2)

	// The pro-rata exit keeps the recovery rate flat for remaining holders.
	view, _ := env.engine.Pricing()
	if view.CRBps != 7_000 {
		t.Fatalf("post-haircut CR = %d, want 7000", view.CRBps)
	}
}

func TestHaircutHonorsSlippageFloor(t *testing.T) {
	env := newTestEnv(t)
	crashToInsolvency(t, env)
	_, err := env.engine.RedeemStable(context.Background(), userKey, 250*USDPrecision, 4_000_000_000)
	if !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("expected slippage rejection, got %v", err)
	}
}

func TestHaircutIsTheOnlyInsolventExit(t *testing.T) {
	env := newTestEnv(t)
	crashToInsolvency(t, env)
	ctx := context.Background()
	// Lev is junior: no equity remains to pay out.
	if _, err := env.engine.RedeemLev(ctx, userKey, 1*SOLPrecision, 1); !errors.Is(err, ErrInsolventProtocol) {
		t.Fatalf("expected insolvency rejection, got %v", err)
	}
	// Minting lev against a zero NAV is equally impossible.
	if _, err := env.engine.MintLev(ctx, userKey, 1*SOLPrecision, 1); !errors.Is(err, ErrInsolventProtocol) {
		t.Fatalf("expected insolvent mint rejection, got %v", err)
	}
}
