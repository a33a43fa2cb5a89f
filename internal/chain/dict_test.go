package chain

import (
	"testing"

	"github.com/klingnet-sim/ledgersim/pkg/block"
)

func TestToDict_BlocksFromDicts_RoundTrip(t *testing.T) {
	l := newTestLedger(t)
	b := mineBlock(t, l, "miner-1", nil, 0)
	if err := l.Append(b); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	d := l.ToDict(3)
	if d.Difficulty != 3 {
		t.Errorf("ToDict().Difficulty = %d, want 3", d.Difficulty)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("ToDict().Chain has %d blocks, want 2", len(d.Chain))
	}
	acc, ok := d.State["miner-1"]
	if !ok || acc.Balance != 50 {
		t.Errorf("ToDict().State[miner-1] = %+v, want balance 50", acc)
	}

	blocks, err := BlocksFromDicts(d.Chain)
	if err != nil {
		t.Fatalf("BlocksFromDicts() error: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("BlocksFromDicts() returned %d blocks, want 2", len(blocks))
	}
	if blocks[1].Hash() != b.Hash() {
		t.Error("BlocksFromDicts() should reproduce the original block hash")
	}
}

func TestBlocksFromDicts_PropagatesMalformedBlock(t *testing.T) {
	bad := block.Dict{Index: 0}
	_, err := BlocksFromDicts([]block.Dict{bad})
	if err == nil {
		t.Error("BlocksFromDicts() should fail on a malformed block dict")
	}
}
