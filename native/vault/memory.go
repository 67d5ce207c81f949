package vault

import (
	"fmt"
	"sync"
)

type balanceKey struct {
	token  Key
	holder Key
}

// MemoryLedger is an in-memory token ledger used by the test harness and by
// incident-response tooling that replays operations offline. It implements
// Transactional so the engine can discard staged effects.
type MemoryLedger struct {
	mu       sync.Mutex
	supplies map[Key]uint64
	balances map[balanceKey]uint64
	staged   *ledgerSnapshot
}

type ledgerSnapshot struct {
	supplies map[Key]uint64
	balances map[balanceKey]uint64
}

// NewMemoryLedger constructs an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		supplies: make(map[Key]uint64),
		balances: make(map[balanceKey]uint64),
	}
}

// Fund credits a holder directly, bypassing supply accounting of the vault
// engine. Test setup only.
func (l *MemoryLedger) Fund(token, holder Key, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[balanceKey{token, holder}] += amount
	l.supplies[token] += amount
}

// Begin snapshots the ledger so Rollback can restore it.
func (l *MemoryLedger) Begin() {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap := &ledgerSnapshot{
		supplies: make(map[Key]uint64, len(l.supplies)),
		balances: make(map[balanceKey]uint64, len(l.balances)),
	}
	for k, v := range l.supplies {
		snap.supplies[k] = v
	}
	for k, v := range l.balances {
		snap.balances[k] = v
	}
	l.staged = snap
}

// Commit discards the staged snapshot, keeping all effects.
func (l *MemoryLedger) Commit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.staged = nil
}

// Rollback restores the ledger to the snapshot taken at Begin.
func (l *MemoryLedger) Rollback() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.staged == nil {
		return
	}
	l.supplies = l.staged.supplies
	l.balances = l.staged.balances
	l.staged = nil
}

// Transfer moves token units between holders.
func (l *MemoryLedger) Transfer(token, from, to Key, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fromKey := balanceKey{token, from}
	if l.balances[fromKey] < amount {
		return fmt.Errorf("memory ledger: transfer of %d exceeds balance %d", amount, l.balances[fromKey])
	}
	l.balances[fromKey] -= amount
	l.balances[balanceKey{token, to}] += amount
	return nil
}

// Mint creates token units for the holder.
func (l *MemoryLedger) Mint(token, to Key, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.supplies[token] += amount
	l.balances[balanceKey{token, to}] += amount
	return nil
}

// Burn destroys token units held by the holder.
func (l *MemoryLedger) Burn(token, from Key, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fromKey := balanceKey{token, from}
	if l.balances[fromKey] < amount {
		return fmt.Errorf("memory ledger: burn of %d exceeds balance %d", amount, l.balances[fromKey])
	}
	if l.supplies[token] < amount {
		return fmt.Errorf("memory ledger: burn of %d exceeds supply %d", amount, l.supplies[token])
	}
	l.balances[fromKey] -= amount
	l.supplies[token] -= amount
	return nil
}

// Supply reports the token's total supply.
func (l *MemoryLedger) Supply(token Key) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.supplies[token], nil
}

// Balance reports the holder's balance.
func (l *MemoryLedger) Balance(token, holder Key) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[balanceKey{token, holder}], nil
}

// ManualRuntime is a settable Runtime double for deterministic tests.
type ManualRuntime struct {
	mu    sync.RWMutex
	slot  uint64
	epoch uint64
	index uint64
}

// NewManualRuntime starts at slot and epoch zero with a top-level
// instruction index.
func NewManualRuntime() *ManualRuntime {
	return &ManualRuntime{}
}

// SetSlot pins the current slot.
func (r *ManualRuntime) SetSlot(slot uint64) {
	r.mu.Lock()
	r.slot = slot
	r.mu.Unlock()
}

// AdvanceSlots moves the slot cursor forward.
func (r *ManualRuntime) AdvanceSlots(delta uint64) {
	r.mu.Lock()
	r.slot += delta
	r.mu.Unlock()
}

// SetEpoch pins the current epoch.
func (r *ManualRuntime) SetEpoch(epoch uint64) {
	r.mu.Lock()
	r.epoch = epoch
	r.mu.Unlock()
}

// SetInstructionIndex simulates invocation depth within a transaction.
func (r *ManualRuntime) SetInstructionIndex(index uint64) {
	r.mu.Lock()
	r.index = index
	r.mu.Unlock()
}

// CurrentSlot implements Runtime.
func (r *ManualRuntime) CurrentSlot() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slot
}

// CurrentEpoch implements Runtime.
func (r *ManualRuntime) CurrentEpoch() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.epoch
}

// InstructionIndex implements Runtime.
func (r *ManualRuntime) InstructionIndex() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index
}
