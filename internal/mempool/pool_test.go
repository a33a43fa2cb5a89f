package mempool

import (
	"testing"
	"time"

	"github.com/klingnet-sim/ledgersim/pkg/tx"
	"github.com/klingnet-sim/ledgersim/pkg/types"
)

func TestAdd_Basic(t *testing.T) {
	p := New(10, time.Hour)
	txn := tx.New("alice", "bob", 10, 1, 0)
	if err := p.Add(txn); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if !p.Has(txn.Hash()) {
		t.Error("Has() should report the admitted transaction")
	}
	if p.Count() != 1 {
		t.Errorf("Count() = %d, want 1", p.Count())
	}
}

func TestAdd_Duplicate(t *testing.T) {
	p := New(10, time.Hour)
	txn := tx.New("alice", "bob", 10, 1, 0)
	if err := p.Add(txn); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if err := p.Add(txn); err != ErrAlreadyExists {
		t.Errorf("Add() duplicate = %v, want ErrAlreadyExists", err)
	}
}

func TestAdd_EvictsLowestFeeWhenFull(t *testing.T) {
	p := New(2, time.Hour)
	low := tx.New("alice", "bob", 10, 1, 0)
	high := tx.New("carol", "dave", 10, 2, 0)
	if err := p.Add(low); err != nil {
		t.Fatalf("Add(low) error: %v", err)
	}
	if err := p.Add(high); err != nil {
		t.Fatalf("Add(high) error: %v", err)
	}

	incoming := tx.New("erin", "frank", 10, 5, 0)
	if err := p.Add(incoming); err != nil {
		t.Fatalf("Add(incoming) error: %v", err)
	}

	if p.Has(low.Hash()) {
		t.Error("lowest-fee entry should have been evicted")
	}
	if !p.Has(high.Hash()) || !p.Has(incoming.Hash()) {
		t.Error("higher-fee and incoming entries should remain")
	}
}

func TestAdd_RejectsOnTieFee(t *testing.T) {
	p := New(1, time.Hour)
	existing := tx.New("alice", "bob", 10, 3, 0)
	if err := p.Add(existing); err != nil {
		t.Fatalf("Add(existing) error: %v", err)
	}

	incoming := tx.New("carol", "dave", 10, 3, 0)
	if err := p.Add(incoming); err != ErrFull {
		t.Errorf("Add(tie fee) = %v, want ErrFull", err)
	}
	if !p.Has(existing.Hash()) {
		t.Error("existing entry should survive a tie-fee incoming transaction")
	}
}

func TestAdd_RejectsWhenFullAndLowerFee(t *testing.T) {
	p := New(1, time.Hour)
	existing := tx.New("alice", "bob", 10, 5, 0)
	if err := p.Add(existing); err != nil {
		t.Fatalf("Add(existing) error: %v", err)
	}

	incoming := tx.New("carol", "dave", 10, 1, 0)
	if err := p.Add(incoming); err != ErrFull {
		t.Errorf("Add(lower fee) = %v, want ErrFull", err)
	}
}

func TestRemove(t *testing.T) {
	p := New(10, time.Hour)
	txn := tx.New("alice", "bob", 10, 1, 0)
	_ = p.Add(txn)
	p.Remove(txn.Hash())
	if p.Has(txn.Hash()) {
		t.Error("Remove() should drop the transaction")
	}
}

func TestRemoveMany(t *testing.T) {
	p := New(10, time.Hour)
	t1 := tx.New("alice", "bob", 10, 1, 0)
	t2 := tx.New("carol", "dave", 10, 1, 0)
	_ = p.Add(t1)
	_ = p.Add(t2)
	p.RemoveMany([]types.Hash{t1.Hash(), t2.Hash()})
	if p.Has(t1.Hash()) || p.Has(t2.Hash()) {
		t.Error("RemoveMany() should drop all listed hashes")
	}
}

func TestTop_SortsDescendingByFee(t *testing.T) {
	p := New(10, time.Hour)
	low := tx.New("alice", "bob", 10, 1, 0)
	mid := tx.New("carol", "dave", 10, 3, 0)
	high := tx.New("erin", "frank", 10, 5, 0)
	_ = p.Add(low)
	_ = p.Add(mid)
	_ = p.Add(high)

	top := p.Top(2)
	if len(top) != 2 {
		t.Fatalf("Top(2) length = %d, want 2", len(top))
	}
	if top[0].Fee != 5 || top[1].Fee != 3 {
		t.Errorf("Top(2) fees = [%v, %v], want [5, 3]", top[0].Fee, top[1].Fee)
	}
}

func TestTop_NMoreThanSize(t *testing.T) {
	p := New(10, time.Hour)
	txn := tx.New("alice", "bob", 10, 1, 0)
	_ = p.Add(txn)
	top := p.Top(50)
	if len(top) != 1 {
		t.Errorf("Top(50) length = %d, want 1", len(top))
	}
}

func TestCleanupExpired(t *testing.T) {
	p := New(10, time.Millisecond)
	txn := tx.New("alice", "bob", 10, 1, 0)
	_ = p.Add(txn)
	time.Sleep(5 * time.Millisecond)

	removed := p.CleanupExpired()
	if removed != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", removed)
	}
	if p.Has(txn.Hash()) {
		t.Error("expired entry should be removed")
	}
}

func TestStats(t *testing.T) {
	p := New(10, time.Hour)
	t1 := tx.New("alice", "bob", 10, 2, 0)
	t2 := tx.New("carol", "dave", 10, 4, 0)
	_ = p.Add(t1)
	_ = p.Add(t2)

	stats := p.Stats()
	if stats.Size != 2 {
		t.Errorf("Stats().Size = %d, want 2", stats.Size)
	}
	if stats.MaxSize != 10 {
		t.Errorf("Stats().MaxSize = %d, want 10", stats.MaxSize)
	}
	if stats.TotalFees != 6 {
		t.Errorf("Stats().TotalFees = %v, want 6", stats.TotalFees)
	}
	if stats.AvgFee != 3 {
		t.Errorf("Stats().AvgFee = %v, want 3", stats.AvgFee)
	}
}

func TestStats_Empty(t *testing.T) {
	p := New(10, time.Hour)
	stats := p.Stats()
	if stats.Size != 0 || stats.TotalFees != 0 || stats.AvgFee != 0 {
		t.Errorf("Stats() on empty pool = %+v, want all zero", stats)
	}
}
