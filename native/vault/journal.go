package vault

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
)

// Storage abstracts the key-value state access required by the operations
// journal.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVAppend(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
}

var (
	opRecordPrefix = []byte("vault/ops/")
	opIndexKey     = []byte("vault/ops/index")
)

// Operation kinds recorded in the journal.
const (
	OpMintStable   = "mint_stable"
	OpRedeemStable = "redeem_stable"
	OpMintLev      = "mint_lev"
	OpRedeemLev    = "redeem_lev"
)

// OperationRecord captures the externally observable outcome of one user
// operation. The counter gives observers the strict serial order of commits.
type OperationRecord struct {
	Counter     uint64
	Kind        string
	User        Key
	AmountIn    uint64
	AmountOut   uint64
	Fee         uint64
	FeeBps      uint64
	CRBeforeBps uint64
	CRAfterBps  uint64
	Haircut     bool
	Slot        uint64
}

type opIndexEntry struct {
	Counter uint64
}

// Journal persists operation records in the underlying key-value store with
// append-only semantics keyed by the operation counter.
type Journal struct {
	store Storage
}

// NewJournal constructs a journal bound to the provided storage backend.
func NewJournal(store Storage) *Journal {
	return &Journal{store: store}
}

// Append stores the record. A record may only be written once per counter.
func (j *Journal) Append(record *OperationRecord) error {
	if j == nil {
		return fmt.Errorf("journal not initialised")
	}
	if record == nil {
		return fmt.Errorf("journal: record must not be nil")
	}
	key := opKey(record.Counter)
	var existing OperationRecord
	ok, err := j.store.KVGet(key, &existing)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("journal: operation %d already recorded", record.Counter)
	}
	if err := j.store.KVPut(key, record); err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(opIndexEntry{Counter: record.Counter})
	if err != nil {
		return err
	}
	return j.store.KVAppend(opIndexKey, encoded)
}

// Get retrieves a record by operation counter.
func (j *Journal) Get(counter uint64) (*OperationRecord, bool, error) {
	if j == nil {
		return nil, false, fmt.Errorf("journal not initialised")
	}
	var record OperationRecord
	ok, err := j.store.KVGet(opKey(counter), &record)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return &record, true, nil
}

// List returns up to limit records with counters at or above fromCounter in
// ascending counter order. A non-positive limit returns everything.
func (j *Journal) List(fromCounter uint64, limit int) ([]*OperationRecord, error) {
	if j == nil {
		return nil, fmt.Errorf("journal not initialised")
	}
	entries, err := j.loadIndex()
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, k int) bool { return entries[i].Counter < entries[k].Counter })
	records := make([]*OperationRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.Counter < fromCounter {
			continue
		}
		record, ok, err := j.Get(entry.Counter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		records = append(records, record)
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, nil
}

// LastCounter reports the highest recorded counter, or zero when empty.
func (j *Journal) LastCounter() (uint64, error) {
	if j == nil {
		return 0, fmt.Errorf("journal not initialised")
	}
	entries, err := j.loadIndex()
	if err != nil {
		return 0, err
	}
	var last uint64
	for _, entry := range entries {
		if entry.Counter > last {
			last = entry.Counter
		}
	}
	return last, nil
}

func (j *Journal) loadIndex() ([]opIndexEntry, error) {
	var raw [][]byte
	if err := j.store.KVGetList(opIndexKey, &raw); err != nil {
		return nil, err
	}
	entries := make([]opIndexEntry, 0, len(raw))
	for _, encoded := range raw {
		if len(encoded) == 0 {
			continue
		}
		var entry opIndexEntry
		if err := rlp.DecodeBytes(encoded, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func opKey(counter uint64) []byte {
	suffix := strconv.FormatUint(counter, 10)
	key := make([]byte, len(opRecordPrefix)+len(suffix))
	copy(key, opRecordPrefix)
	copy(key[len(opRecordPrefix):], suffix)
	return key
}

// MemoryStorage is an RLP-backed in-memory Storage implementation for tests
// and offline tooling.
type MemoryStorage struct {
	mu    sync.Mutex
	kv    map[string][]byte
	lists map[string][][]byte
}

// NewMemoryStorage constructs an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		kv:    make(map[string][]byte),
		lists: make(map[string][][]byte),
	}
}

// KVGet implements Storage.
func (s *MemoryStorage) KVGet(key []byte, out interface{}) (bool, error) {
	s.mu.Lock()
	raw, ok := s.kv[string(key)]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVPut implements Storage.
func (s *MemoryStorage) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.kv[string(key)] = encoded
	s.mu.Unlock()
	return nil
}

// KVAppend implements Storage.
func (s *MemoryStorage) KVAppend(key []byte, value []byte) error {
	s.mu.Lock()
	s.lists[string(key)] = append(s.lists[string(key)], append([]byte{}, value...))
	s.mu.Unlock()
	return nil
}

// KVGetList implements Storage.
func (s *MemoryStorage) KVGetList(key []byte, out interface{}) error {
	target, ok := out.(*[][]byte)
	if !ok {
		return fmt.Errorf("memory storage: unsupported list target %T", out)
	}
	s.mu.Lock()
	entries := s.lists[string(key)]
	copied := make([][]byte, len(entries))
	for i, entry := range entries {
		copied[i] = append([]byte{}, entry...)
	}
	s.mu.Unlock()
	*target = copied
	return nil
}
