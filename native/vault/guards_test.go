package vault

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestRedeemRejectsSubMinimumTVL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.engine.UpdatePrices(ctx, authorityKey, 100*USDPrecision, SOLPrecision, 0); err != nil {
		t.Fatalf("update prices: %v", err)
	}
	if _, err := env.engine.MintLev(ctx, userKey, 2_000_000, 1); err != nil {
		t.Fatalf("mint lev: %v", err)
	}
	// Leaving half a milli-SOL of TVL behind a live supply is rejected.
	if _, err := env.engine.RedeemLev(ctx, userKey, 1_500_000, 1); !errors.Is(err, ErrBelowMinimumTVL) {
		t.Fatalf("expected minimum TVL rejection, got %v", err)
	}
}

func TestFullExitMayDrainVault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.engine.UpdatePrices(ctx, authorityKey, 100*USDPrecision, SOLPrecision, 0); err != nil {
		t.Fatalf("update prices: %v", err)
	}
	minted, err := env.engine.MintLev(ctx, userKey, 10*SOLPrecision, 1)
	if err != nil {
		t.Fatalf("mint lev: %v", err)
	}
	treasuryLev, _ := env.ledger.Balance(levMint, treasuryKey)
	// Redeem both holdings of the lev supply: user first, then treasury.
	if _, err := env.engine.RedeemLev(ctx, userKey, minted.AmountOut, 1); err != nil {
		t.Fatalf("redeem user lev: %v", err)
	}
	if _, err := env.engine.RedeemLev(ctx, treasuryKey, treasuryLev, 1); err != nil {
		t.Fatalf("redeem treasury lev: %v", err)
	}
	state, _ := env.engine.State()
	if state.LevSupply != 0 {
		t.Fatalf("lev supply = %d", state.LevSupply)
	}
}

type reentrantLedger struct {
	*MemoryLedger
	engine *Engine
}

func (l *reentrantLedger) Transfer(token, from, to Key, amount uint64) error {
	// A hostile adapter re-entering the engine must be turned away.
	if err := l.engine.SyncExchangeRate(context.Background()); !errors.Is(err, ErrReentrancy) {
		return fmt.Errorf("nested call slipped through: %v", err)
	}
	return l.MemoryLedger.Transfer(token, from, to, amount)
}

func TestReentrantAdapterIsBlocked(t *testing.T) {
	ledger := &reentrantLedger{MemoryLedger: NewMemoryLedger()}
	runtime := NewManualRuntime()
	engine := NewEngine(ledger, runtime)
	ledger.engine = engine
	genesis := Genesis{
		Authority:        authorityKey,
		Treasury:         treasuryKey,
		StableMint:       stableMint,
		LevMint:          levMint,
		SupportedLSTMint: lstMint,
		Vault:            vaultKey,
		VaultAuthority:   vaultAuth,
		Params:           DefaultParams(),
		SolPriceUSD:      100 * USDPrecision,
		LstToSolRate:     SOLPrecision,
	}
	if err := engine.Initialize(context.Background(), genesis); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	ledger.Fund(lstMint, userKey, 10*SOLPrecision)
	// The outer operation still succeeds; only the nested entry is refused.
	if _, err := engine.MintLev(context.Background(), userKey, 1*SOLPrecision, 1); err != nil {
		t.Fatalf("mint lev: %v", err)
	}
}

func TestLevMintPricesAtNav(t *testing.T) {
	env := newTestEnv(t)
	setupLeveredBook(t, env)
	// The book sits at NAV 1.0: 40 SOL of equity over 40 lev.
	record, err := env.engine.MintLev(context.Background(), userKey, 10*SOLPrecision, 1)
	if err != nil {
		t.Fatalf("mint lev: %v", err)
	}
	// 10 SOL of value at NAV 1.0 is 10 lev gross; the 30 bps base applies
	// because minting lev reduces risk and CR sits below target.
	if record.FeeBps != 30 {
		t.Fatalf("fee bps = %d", record.FeeBps)
	}
	if record.AmountOut != 9_970_000_000 {
		t.Fatalf("user lev = %d", record.AmountOut)
	}
	state, _ := env.engine.State()
	if state.LevSupply != 50*SOLPrecision {
		t.Fatalf("lev supply = %d", state.LevSupply)
	}
}
