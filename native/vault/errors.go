package vault

import "errors"

var (
	// ErrUnauthorized indicates the caller key does not match the configured authority.
	ErrUnauthorized = errors.New("vault: authority mismatch")
	// ErrInvalidCPIContext indicates the operation was not invoked as the top-level instruction.
	ErrInvalidCPIContext = errors.New("vault: instruction must be top-level, not invoked via CPI")
	// ErrConstraintAddress indicates an account key does not match the expected address.
	ErrConstraintAddress = errors.New("vault: account key does not match expected address")
	// ErrMintPaused indicates minting is halted by the administrator.
	ErrMintPaused = errors.New("vault: minting paused")
	// ErrRedeemPaused indicates redemptions are halted by the administrator.
	ErrRedeemPaused = errors.New("vault: redemptions paused")
	// ErrZeroAmount indicates the supplied amount was zero.
	ErrZeroAmount = errors.New("vault: amount must be greater than zero")
	// ErrAmountTooSmall indicates the amount fell below the configured dust floor.
	ErrAmountTooSmall = errors.New("vault: amount below dust floor")
	// ErrSlippageExceeded indicates the computed output fell below the caller's minimum.
	ErrSlippageExceeded = errors.New("vault: output below requested minimum")
	// ErrInsufficientCollateral indicates the LST balance cannot cover the operation.
	ErrInsufficientCollateral = errors.New("vault: insufficient LST balance")
	// ErrInsufficientSupply indicates the token balance cannot cover the burn.
	ErrInsufficientSupply = errors.New("vault: insufficient token balance to burn")
	// ErrCollateralRatioTooLow indicates the operation would leave CR below the minimum.
	ErrCollateralRatioTooLow = errors.New("vault: collateral ratio below minimum")
	// ErrInsolventProtocol indicates TVL no longer covers the outstanding liability.
	ErrInsolventProtocol = errors.New("vault: protocol insolvent, equity exhausted")
	// ErrBelowMinimumTVL indicates the operation would strand a sub-minimal TVL.
	ErrBelowMinimumTVL = errors.New("vault: operation would leave TVL below protocol minimum")
	// ErrOraclePriceStale indicates the SOL/USD snapshot exceeded its staleness budget.
	ErrOraclePriceStale = errors.New("vault: oracle price stale")
	// ErrOracleConfidenceTooWide indicates the oracle confidence interval is too wide to trust.
	ErrOracleConfidenceTooWide = errors.New("vault: oracle confidence interval too wide")
	// ErrLstRateStale indicates the LST exchange-rate cache has not been synced recently enough.
	ErrLstRateStale = errors.New("vault: LST exchange rate stale")
	// ErrInvalidParameter indicates a governance parameter fell outside its bounds.
	ErrInvalidParameter = errors.New("vault: invalid parameter")
	// ErrAlreadyInitialized indicates the global state has already been created.
	ErrAlreadyInitialized = errors.New("vault: already initialized")
	// ErrNotInitialized indicates the engine has no global state yet.
	ErrNotInitialized = errors.New("vault: not initialized")
	// ErrMathOverflow indicates a computation exceeded the 64-bit domain.
	ErrMathOverflow = errors.New("vault: math overflow")
	// ErrDivisionByZero indicates a division by zero was attempted.
	ErrDivisionByZero = errors.New("vault: division by zero")
	// ErrReentrancy indicates a nested or concurrent operation entry was blocked.
	ErrReentrancy = errors.New("vault: reentrant operation blocked")

	// Invariant violations. These signal a defect rather than a user error and
	// abort the operation before state commits.

	// ErrVaultDesynced indicates the vault token balance diverged from the tracked total.
	ErrVaultDesynced = errors.New("vault: vault balance desynchronised from tracked total")
	// ErrSupplyDesynced indicates an on-chain mint supply diverged from the tracked supply.
	ErrSupplyDesynced = errors.New("vault: token supply desynchronised from tracked supply")
	// ErrBalanceSheetViolation indicates TVL, liability and equity stopped reconciling.
	ErrBalanceSheetViolation = errors.New("vault: balance sheet violation, TVL != liability + equity")
	// ErrCounterRegression indicates the operation counter failed to advance.
	ErrCounterRegression = errors.New("vault: operation counter regression")
	// ErrRoundingReserveExceeded indicates the rounding reserve outgrew its ceiling.
	ErrRoundingReserveExceeded = errors.New("vault: rounding reserve above maximum")
)
