package vault

import (
	"math"

	"github.com/holiman/uint256"
)

// Precision constants shared by all balance-sheet arithmetic. LST and SOL
// amounts carry nine decimals, stable-token amounts carry six, and ratios are
// expressed in basis points.
const (
	SOLPrecision uint64 = 1_000_000_000
	USDPrecision uint64 = 1_000_000
	BPSPrecision uint64 = 10_000
)

// CRInfinite is the sentinel collateral ratio reported while no liability is
// outstanding.
const CRInfinite = math.MaxUint64

func mulDiv(a, b, c uint64) (quot uint64, exact bool, err error) {
	if c == 0 {
		return 0, false, ErrDivisionByZero
	}
	prod := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	div := uint256.NewInt(c)
	q := new(uint256.Int).Div(prod, div)
	if !q.IsUint64() {
		return 0, false, ErrMathOverflow
	}
	rem := new(uint256.Int).Mod(prod, div)
	return q.Uint64(), rem.IsZero(), nil
}

// MulDivDown computes floor(a*b/c) using a 256-bit intermediate so the
// product can never wrap. The result must fit in 64 bits.
func MulDivDown(a, b, c uint64) (uint64, error) {
	q, _, err := mulDiv(a, b, c)
	return q, err
}

// MulDivUp computes ceil(a*b/c) using a 256-bit intermediate. Used wherever
// rounding must favor protocol solvency.
func MulDivUp(a, b, c uint64) (uint64, error) {
	q, exact, err := mulDiv(a, b, c)
	if err != nil {
		return 0, err
	}
	if exact {
		return q, nil
	}
	if q == math.MaxUint64 {
		return 0, ErrMathOverflow
	}
	return q + 1, nil
}

func addChecked(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrMathOverflow
	}
	return a + b, nil
}

func subChecked(a, b uint64, insufficient error) (uint64, error) {
	if b > a {
		return 0, insufficient
	}
	return a - b, nil
}

// TVLSol values an LST holding in SOL terms under the supplied exchange rate.
func TVLSol(totalLST, lstToSolRate uint64) (uint64, error) {
	return MulDivDown(totalLST, lstToSolRate, SOLPrecision)
}

// LiabilitySol values the outstanding stable supply in SOL at the oracle
// price. Rounds up: overstating the debt keeps the accounting conservative.
func LiabilitySol(stableSupply, solPriceUSD uint64) (uint64, error) {
	if stableSupply == 0 {
		return 0, nil
	}
	if solPriceUSD == 0 {
		return 0, ErrDivisionByZero
	}
	return MulDivUp(stableSupply, SOLPrecision, solPriceUSD)
}

// EquitySol is the residual claim of lev holders, floored at zero so an
// insolvent book never reports negative equity.
func EquitySol(tvl, liability uint64) uint64 {
	if tvl < liability {
		return 0
	}
	return tvl - liability
}

// CollateralRatioBps reports TVL over liability in basis points, or
// CRInfinite when no debt exists.
func CollateralRatioBps(tvl, liability uint64) uint64 {
	if liability == 0 {
		return CRInfinite
	}
	cr, err := MulDivDown(tvl, BPSPrecision, liability)
	if err != nil {
		return CRInfinite
	}
	return cr
}

// LevNavSol prices one lev unit in SOL. A zero supply prices the bootstrap
// mint at par so a donation cannot inflate the first minter's entry price.
func LevNavSol(equity, levSupply uint64) (uint64, error) {
	if levSupply == 0 {
		return SOLPrecision, nil
	}
	return MulDivDown(equity, SOLPrecision, levSupply)
}
