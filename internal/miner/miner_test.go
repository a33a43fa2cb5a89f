package miner

import (
	"context"
	"testing"
	"time"

	"github.com/klingnet-sim/ledgersim/internal/consensus"
	"github.com/klingnet-sim/ledgersim/pkg/block"
	"github.com/klingnet-sim/ledgersim/pkg/tx"
	"github.com/klingnet-sim/ledgersim/pkg/types"
)

type fakeChain struct {
	index uint64
	hash  types.Hash
}

func (f *fakeChain) TipIndex() uint64   { return f.index }
func (f *fakeChain) TipHash() types.Hash { return f.hash }

type fakeMempool struct {
	txs []*tx.Transaction
}

func (f *fakeMempool) Top(n int) []*tx.Transaction {
	if n > len(f.txs) {
		n = len(f.txs)
	}
	return f.txs[:n]
}

func TestMineNext_BuildsCoinbaseWithFeesAndReward(t *testing.T) {
	chain := &fakeChain{index: 0}
	pool := &fakeMempool{txs: []*tx.Transaction{
		tx.New("alice", "bob", 10, 2, 0),
		tx.New("carol", "dave", 10, 3, 0),
	}}
	engine := consensus.NewPoW(1, 1, 8, time.Second, 10, false)
	m := New(chain, pool, engine, "miner-1", 50, 10, "node-1", nil)

	b, err := m.MineNext(context.Background(), 0)
	if err != nil {
		t.Fatalf("MineNext() error: %v", err)
	}
	if b.Transactions[0].Receiver != "miner-1" {
		t.Errorf("coinbase receiver = %s, want miner-1", b.Transactions[0].Receiver)
	}
	if b.Transactions[0].Amount != 55 {
		t.Errorf("coinbase amount = %v, want 55 (50 reward + 5 fees)", b.Transactions[0].Amount)
	}
	if b.Index != 1 {
		t.Errorf("Index = %d, want 1", b.Index)
	}
}

func TestMineNext_RespectsMaxTxPerBlock(t *testing.T) {
	chain := &fakeChain{index: 0}
	pool := &fakeMempool{txs: []*tx.Transaction{
		tx.New("a", "b", 1, 1, 0),
		tx.New("c", "d", 1, 1, 0),
		tx.New("e", "f", 1, 1, 0),
	}}
	engine := consensus.NewPoW(1, 1, 8, time.Second, 10, false)
	m := New(chain, pool, engine, "miner-1", 10, 2, "node-1", nil)

	b, err := m.MineNext(context.Background(), 0)
	if err != nil {
		t.Fatalf("MineNext() error: %v", err)
	}
	if len(b.Transactions) != 3 {
		t.Errorf("len(Transactions) = %d, want 3 (1 coinbase + 2 mempool)", len(b.Transactions))
	}
}

func TestMineNext_DiscardsStaleResult(t *testing.T) {
	chain := &fakeChain{index: 0}
	pool := &fakeMempool{}
	engine := &tipAdvancingEngine{chain: chain}
	m := New(chain, pool, engine, "miner-1", 10, 10, "node-1", nil)

	_, err := m.MineNext(context.Background(), 0)
	if err != ErrStale {
		t.Errorf("MineNext() = %v, want ErrStale", err)
	}
}

func TestMineNext_RejectsWhenNotProposer(t *testing.T) {
	chain := &fakeChain{index: 0}
	pool := &fakeMempool{}
	engine := consensus.NewRoundRobin()
	m := New(chain, pool, engine, "miner-1", 10, 10, "node-1", func() []string {
		return []string{"node-1", "node-2"}
	})

	// round 1 (nextIndex): sorted [node-1, node-2], 1 % 2 == 1 -> node-2
	_, err := m.MineNext(context.Background(), 0)
	if err != ErrNotProposer {
		t.Errorf("MineNext() = %v, want ErrNotProposer", err)
	}
}

func TestMineNext_CancelledContext(t *testing.T) {
	chain := &fakeChain{index: 0}
	pool := &fakeMempool{}
	engine := consensus.NewPoW(64, 1, 64, time.Second, 10, false)
	m := New(chain, pool, engine, "miner-1", 10, 10, "node-1", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.MineNext(ctx, 0)
	if err != ErrCancelled {
		t.Errorf("MineNext() = %v, want ErrCancelled", err)
	}
}

func TestMineNext_MaxItersExhausted(t *testing.T) {
	chain := &fakeChain{index: 0}
	pool := &fakeMempool{}
	engine := consensus.NewPoW(64, 1, 64, time.Second, 10, false)
	m := New(chain, pool, engine, "miner-1", 10, 10, "node-1", nil)

	_, err := m.MineNext(context.Background(), 1)
	if err != ErrExhausted {
		t.Errorf("MineNext() = %v, want ErrExhausted", err)
	}
}

// tipAdvancingEngine always succeeds Solve but bumps the chain's tip
// beforehand, simulating a race where another block lands mid-search.
type tipAdvancingEngine struct {
	chain *fakeChain
}

func (e *tipAdvancingEngine) CurrentDifficulty() int                   { return 0 }
func (e *tipAdvancingEngine) CanPropose(string, []string, uint64) bool { return true }
func (e *tipAdvancingEngine) Solve(ctx context.Context, b *block.Block, maxIters uint64) bool {
	e.chain.index++
	return true
}
func (e *tipAdvancingEngine) OnBlockMined(time.Duration) {}
