// Package fees derives the effective fee for vault operations from the
// collateral ratio and the oracle-uncertainty index. The engine is a pure
// function over a snapshot record so callers can simulate fees without
// touching state.
package fees

import (
	"fmt"

	"github.com/holiman/uint256"
)

// BPSPrecision is the basis-point scale shared with the vault package.
const BPSPrecision uint64 = 10_000

// UncertaintyK converts the uncertainty index into a multiplier premium: each
// K basis points of index add one full unit (10000 bps) to the multiplier.
const UncertaintyK uint64 = 1_000

// Direction labels how an operation moves the collateral ratio. Fees scale up
// for risk-increasing flow and never exceed par for risk-reducing flow.
type Direction int

const (
	// RiskIncreasing marks operations that worsen CR: minting stable, redeeming lev.
	RiskIncreasing Direction = iota
	// RiskReducing marks operations that improve CR: minting lev, redeeming stable.
	RiskReducing
)

// String implements fmt.Stringer for log and journal output.
func (d Direction) String() string {
	switch d {
	case RiskIncreasing:
		return "risk_increasing"
	case RiskReducing:
		return "risk_reducing"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Schedule is the snapshot the fee engine evaluates. All fields are in basis
// points. TargetCRBps must be >= MinCRBps and MaxMultiplierBps >=
// MinMultiplierBps; the vault engine validates both at initialization.
type Schedule struct {
	BaseFeeBps          uint64
	Direction           Direction
	CRBps               uint64
	TargetCRBps         uint64
	MinCRBps            uint64
	MinMultiplierBps    uint64
	MaxMultiplierBps    uint64
	UncertaintyIndexBps uint64
	UncertaintyMaxBps   uint64
}

// Apply returns the effective fee in basis points for the supplied schedule.
// The result equals BaseFeeBps whenever CR is at or above target and no
// uncertainty premium applies (risk-increasing flow with a non-zero
// uncertainty index pays that premium at any CR), scales
// monotonically as CR falls toward the minimum, and is bounded by
// BaseFeeBps*MaxMultiplierBps/BPSPrecision.
func Apply(s Schedule) uint64 {
	return mulDivDown(s.BaseFeeBps, Multiplier(s), BPSPrecision)
}

// Multiplier composes the CR-derived and uncertainty-derived multipliers,
// sanitises the result by direction and clamps it to the configured bounds.
func Multiplier(s Schedule) uint64 {
	total := mulDivDown(crMultiplier(s), uncertaintyMultiplier(s), BPSPrecision)
	switch s.Direction {
	case RiskIncreasing:
		if total < BPSPrecision {
			total = BPSPrecision
		}
	case RiskReducing:
		if total > BPSPrecision {
			total = BPSPrecision
		}
	}
	return clamp(total, s.MinMultiplierBps, s.MaxMultiplierBps)
}

// crMultiplier interpolates linearly between par at the target CR and the
// directional bound at the minimum CR, pinned outside that band.
func crMultiplier(s Schedule) uint64 {
	if s.CRBps >= s.TargetCRBps {
		return BPSPrecision
	}
	span := s.TargetCRBps - s.MinCRBps
	switch s.Direction {
	case RiskIncreasing:
		if s.CRBps <= s.MinCRBps || span == 0 {
			return s.MaxMultiplierBps
		}
		rise := s.MaxMultiplierBps - BPSPrecision
		return BPSPrecision + mulDivDown(s.TargetCRBps-s.CRBps, rise, span)
	case RiskReducing:
		if s.CRBps <= s.MinCRBps || span == 0 {
			return s.MinMultiplierBps
		}
		fall := BPSPrecision - s.MinMultiplierBps
		return BPSPrecision - mulDivDown(s.TargetCRBps-s.CRBps, fall, span)
	default:
		return BPSPrecision
	}
}

// uncertaintyMultiplier charges risk-increasing flow for oracle uncertainty.
// Risk-reducing flow never receives an uncertainty-driven discount.
func uncertaintyMultiplier(s Schedule) uint64 {
	if s.Direction != RiskIncreasing {
		return BPSPrecision
	}
	premium := mulDivDown(s.UncertaintyIndexBps, BPSPrecision, UncertaintyK)
	return clamp(BPSPrecision+premium, BPSPrecision, s.UncertaintyMaxBps)
}

func clamp(v, lo, hi uint64) uint64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// mulDivDown is floor(a*b/c) over a 256-bit intermediate. Inputs here are
// bounded well below 2^64 so the quotient always fits; a zero divisor yields
// zero rather than an error because every call site passes either a constant
// scale or a CR span already checked to be non-zero.
func mulDivDown(a, b, c uint64) uint64 {
	if c == 0 {
		return 0
	}
	prod := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	prod.Div(prod, uint256.NewInt(c))
	if !prod.IsUint64() {
		return 0
	}
	return prod.Uint64()
}
