package vault

import (
	"strings"
	"testing"
)

func TestJournalAppendAndGet(t *testing.T) {
	journal := NewJournal(NewMemoryStorage())
	record := &OperationRecord{
		Counter:     1,
		Kind:        OpMintStable,
		User:        testKey(0x10),
		AmountIn:    1_000,
		AmountOut:   990,
		Fee:         10,
		FeeBps:      100,
		CRBeforeBps: CRInfinite,
		CRAfterBps:  15_000,
		Slot:        42,
	}
	if err := journal.Append(record); err != nil {
		t.Fatalf("append: %v", err)
	}
	fetched, ok, err := journal.Get(1)
	if err != nil || !ok {
		t.Fatalf("get: %v ok=%v", err, ok)
	}
	if *fetched != *record {
		t.Fatalf("round trip mismatch: %+v", fetched)
	}
	if _, ok, _ := journal.Get(2); ok {
		t.Fatalf("unexpected record for counter 2")
	}
}

func TestJournalRejectsDuplicateCounter(t *testing.T) {
	journal := NewJournal(NewMemoryStorage())
	if err := journal.Append(&OperationRecord{Counter: 7, Kind: OpMintLev}); err != nil {
		t.Fatalf("append: %v", err)
	}
	err := journal.Append(&OperationRecord{Counter: 7, Kind: OpRedeemLev})
	if err == nil || !strings.Contains(err.Error(), "already recorded") {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}

func TestJournalListOrdersAndLimits(t *testing.T) {
	journal := NewJournal(NewMemoryStorage())
	for _, counter := range []uint64{3, 1, 2} {
		if err := journal.Append(&OperationRecord{Counter: counter, Kind: OpMintLev}); err != nil {
			t.Fatalf("append %d: %v", counter, err)
		}
	}
	records, err := journal.List(0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 || records[0].Counter != 1 || records[2].Counter != 3 {
		t.Fatalf("unexpected ordering: %+v", records)
	}
	records, err = journal.List(2, 1)
	if err != nil {
		t.Fatalf("list from 2: %v", err)
	}
	if len(records) != 1 || records[0].Counter != 2 {
		t.Fatalf("unexpected page: %+v", records)
	}
	last, err := journal.LastCounter()
	if err != nil || last != 3 {
		t.Fatalf("last counter %d, %v", last, err)
	}
}
