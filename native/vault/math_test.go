package vault

import (
	"errors"
	"math"
	"testing"
)

func TestMulDivRounding(t *testing.T) {
	down, err := MulDivDown(10, 3, 4)
	if err != nil || down != 7 {
		t.Fatalf("MulDivDown(10,3,4) = %d, %v", down, err)
	}
	up, err := MulDivUp(10, 3, 4)
	if err != nil || up != 8 {
		t.Fatalf("MulDivUp(10,3,4) = %d, %v", up, err)
	}
	// Exact division adds no rounding in either direction.
	down, _ = MulDivDown(10, 4, 4)
	up, _ = MulDivUp(10, 4, 4)
	if down != 10 || up != 10 {
		t.Fatalf("exact division changed: down=%d up=%d", down, up)
	}
}

func TestMulDivZeroDivisor(t *testing.T) {
	if _, err := MulDivDown(10, 3, 0); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}
	if _, err := MulDivUp(10, 3, 0); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}
}

func TestMulDivOverflow(t *testing.T) {
	if _, err := MulDivDown(math.MaxUint64, math.MaxUint64, 1); !errors.Is(err, ErrMathOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if _, err := MulDivUp(math.MaxUint64, 2, 1); !errors.Is(err, ErrMathOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	// The widening intermediate keeps large-but-representable results exact.
	got, err := MulDivDown(math.MaxUint64, 1_000_000, 1_000_000)
	if err != nil || got != math.MaxUint64 {
		t.Fatalf("widening intermediate: %d, %v", got, err)
	}
}

func TestCollateralRatioBps(t *testing.T) {
	cases := []struct {
		name      string
		tvl       uint64
		liability uint64
		want      uint64
	}{
		{"two hundred percent", 200 * SOLPrecision, 100 * SOLPrecision, 20_000},
		{"exactly 150 percent", 150 * SOLPrecision, 100 * SOLPrecision, 15_000},
		{"undercollateralized", 120 * SOLPrecision, 100 * SOLPrecision, 12_000},
		{"no liability", 100 * SOLPrecision, 0, CRInfinite},
	}
	for _, tc := range cases {
		if got := CollateralRatioBps(tc.tvl, tc.liability); got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestEquitySolSaturates(t *testing.T) {
	if got := EquitySol(200*SOLPrecision, 100*SOLPrecision); got != 100*SOLPrecision {
		t.Fatalf("solvent equity: %d", got)
	}
	if got := EquitySol(80*SOLPrecision, 100*SOLPrecision); got != 0 {
		t.Fatalf("insolvent equity should floor at zero, got %d", got)
	}
}

func TestLiabilitySolRoundsUp(t *testing.T) {
	// 100,000 USD at $100/SOL is exactly 1,000 SOL.
	liability, err := LiabilitySol(100_000*USDPrecision, 100*USDPrecision)
	if err != nil || liability != 1_000*SOLPrecision {
		t.Fatalf("liability = %d, %v", liability, err)
	}
	// An inexact division overstates rather than understates the debt.
	liability, err = LiabilitySol(1, 3*USDPrecision)
	if err != nil {
		t.Fatalf("liability: %v", err)
	}
	if liability != 334 {
		t.Fatalf("expected ceil(1e9/3e6) = 334, got %d", liability)
	}
	if _, err := LiabilitySol(1, 0); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}
	if got, err := LiabilitySol(0, 0); err != nil || got != 0 {
		t.Fatalf("zero supply should short-circuit: %d, %v", got, err)
	}
}

func TestLevNavSol(t *testing.T) {
	// 100 SOL of equity across 100 lev units prices at par.
	nav, err := LevNavSol(100*SOLPrecision, 100*SOLPrecision)
	if err != nil || nav != SOLPrecision {
		t.Fatalf("nav = %d, %v", nav, err)
	}
	// Zero supply prices the bootstrap mint at par.
	nav, err = LevNavSol(0, 0)
	if err != nil || nav != SOLPrecision {
		t.Fatalf("bootstrap nav = %d, %v", nav, err)
	}
	// Insolvency zeroes the NAV through the equity floor.
	nav, err = LevNavSol(EquitySol(90*SOLPrecision, 100*SOLPrecision), 50*SOLPrecision)
	if err != nil || nav != 0 {
		t.Fatalf("insolvent nav = %d, %v", nav, err)
	}
}

func TestEquityAbsorbsPriceDrop(t *testing.T) {
	liability := uint64(100 * SOLPrecision)
	levSupply := uint64(100 * SOLPrecision)

	nav, _ := LevNavSol(EquitySol(200*SOLPrecision, liability), levSupply)
	if nav != SOLPrecision {
		t.Fatalf("initial nav = %d", nav)
	}
	// A 40% TVL drop lands entirely on equity.
	nav, _ = LevNavSol(EquitySol(120*SOLPrecision, liability), levSupply)
	if nav != SOLPrecision/5 {
		t.Fatalf("post-drop nav = %d, want %d", nav, SOLPrecision/5)
	}
	// A 60% drop wipes equity out.
	nav, _ = LevNavSol(EquitySol(80*SOLPrecision, liability), levSupply)
	if nav != 0 {
		t.Fatalf("wiped nav = %d", nav)
	}
}

func TestPriceView(t *testing.T) {
	s := &GlobalState{
		TotalLSTAmount: 200 * SOLPrecision,
		StableSupply:   10_000 * USDPrecision,
		LevSupply:      100 * SOLPrecision,
		SolPriceUSD:    100 * USDPrecision,
		LstToSolRate:   SOLPrecision,
	}
	view, err := Price(s)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if view.TVLSol != 200*SOLPrecision {
		t.Fatalf("tvl = %d", view.TVLSol)
	}
	if view.LiabilitySol != 100*SOLPrecision {
		t.Fatalf("liability = %d", view.LiabilitySol)
	}
	if view.EquitySol != 100*SOLPrecision {
		t.Fatalf("equity = %d", view.EquitySol)
	}
	if view.CRBps != 20_000 {
		t.Fatalf("cr = %d", view.CRBps)
	}
	if view.LevNavSol != SOLPrecision {
		t.Fatalf("nav = %d", view.LevNavSol)
	}
	if !view.Solvent() {
		t.Fatalf("expected solvent view")
	}
}

func TestPriceViewNil(t *testing.T) {
	if _, err := Price(nil); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
}
