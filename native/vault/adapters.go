package vault

// TokenLedger abstracts the token primitives of the host runtime. The engine
// validates every precondition before calling out, so implementations only
// need to move balances; production adapters wrap the runtime's token
// program, tests use MemoryLedger.
type TokenLedger interface {
	// Transfer moves token units between holders.
	Transfer(token, from, to Key, amount uint64) error
	// Mint creates token units for the holder under the vault authority.
	Mint(token, to Key, amount uint64) error
	// Burn destroys token units held by the holder.
	Burn(token, from Key, amount uint64) error
	// Supply reports the current total supply of the token.
	Supply(token Key) (uint64, error)
	// Balance reports the holder's balance of the token.
	Balance(token, holder Key) (uint64, error)
}

// Transactional is implemented by ledgers that can stage effects and discard
// them when a post-effect invariant check fails. Hosted runtimes provide
// transactional account writes natively; the in-memory double implements this
// interface instead.
type Transactional interface {
	Begin()
	Commit()
	Rollback()
}

// Runtime exposes the host sysvars the operation gates consult.
type Runtime interface {
	// CurrentSlot returns the current slot, the unit of oracle staleness.
	CurrentSlot() uint64
	// CurrentEpoch returns the current epoch, the unit of LST-rate staleness.
	CurrentEpoch() uint64
	// InstructionIndex reports the position of the in-flight instruction
	// within the surrounding transaction. Zero means top-level entry.
	InstructionIndex() uint64
}
