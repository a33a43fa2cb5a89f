package node

import (
	"context"
	"testing"
	"time"

	"github.com/klingnet-sim/ledgersim/internal/chain"
	"github.com/klingnet-sim/ledgersim/internal/consensus"
	"github.com/klingnet-sim/ledgersim/internal/gossip"
	"github.com/klingnet-sim/ledgersim/internal/mempool"
	"github.com/klingnet-sim/ledgersim/pkg/tx"
	"github.com/klingnet-sim/ledgersim/pkg/types"
)

func newLedger(t *testing.T) *chain.Ledger {
	t.Helper()
	l, err := chain.New(chain.BuildGenesis(1000, 0))
	if err != nil {
		t.Fatalf("chain.New() error: %v", err)
	}
	return l
}

func waitForCond(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

// buildNode wires a Controller whose gossip layer's Handler is the
// Controller itself (resolving the circular New(layer)/New(controller)
// dependency by constructing the layer with the controller after the fact
// is not possible since Layer.handler is set at construction; instead we
// build the layer first with a forwarding shim).
type handlerShim struct {
	target *Controller
}

func (h *handlerShim) HandleEnvelope(env gossip.Envelope) {
	h.target.HandleEnvelope(env)
}

func buildNode(t *testing.T, nodeID string) *Controller {
	t.Helper()
	shim := &handlerShim{}
	layer := gossip.New(nodeID, "127.0.0.1", 0, shim)
	eng := consensus.NewPoW(0, 0, 8, 10*time.Second, 5, false)
	pool := mempool.New(1000, time.Hour)
	ledger := newLedger(t)
	c := New(nodeID, types.Address(nodeID), ledger, pool, eng, 50, 100, layer)
	shim.target = c
	if err := c.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	return c
}

func TestSubmit_AdmitsAndBroadcasts(t *testing.T) {
	a := buildNode(t, "node-a")
	b := buildNode(t, "node-b")
	if err := a.ConnectToPeer("127.0.0.1", b.gossip.Port()); err != nil {
		t.Fatalf("ConnectToPeer() error: %v", err)
	}
	waitForCond(t, time.Second, func() bool { return a.gossip.PeerCount() == 1 && b.gossip.PeerCount() == 1 })

	block1, err := a.MineNext(context.Background(), 0)
	if err != nil {
		t.Fatalf("MineNext() error: %v", err)
	}
	waitForCond(t, time.Second, func() bool { return b.ledger.Length() == 2 })
	_ = block1

	txn := tx.New("node-a", "bob", 10, 1, 0)
	if err := a.Submit(txn); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	waitForCond(t, time.Second, func() bool { return b.pool.Has(txn.Hash()) })
	if !a.pool.Has(txn.Hash()) {
		t.Error("Submit() should admit the transaction to the submitter's own mempool")
	}
}

func TestMineNext_TwoNodePropagation(t *testing.T) {
	a := buildNode(t, "node-a")
	b := buildNode(t, "node-b")
	if err := a.ConnectToPeer("127.0.0.1", b.gossip.Port()); err != nil {
		t.Fatalf("ConnectToPeer() error: %v", err)
	}
	waitForCond(t, time.Second, func() bool { return a.gossip.PeerCount() == 1 && b.gossip.PeerCount() == 1 })

	mined, err := a.MineNext(context.Background(), 0)
	if err != nil {
		t.Fatalf("MineNext() error: %v", err)
	}

	waitForCond(t, time.Second, func() bool { return b.ledger.Length() == 2 })
	if b.ledger.TipHash() != mined.Hash() {
		t.Error("b's tip should equal a's newly mined block")
	}
}

func TestMineNext_RejectsConcurrentAttempts(t *testing.T) {
	a := buildNode(t, "node-a")

	results := make(chan error, 2)
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		go func() {
			<-start
			_, err := a.MineNext(context.Background(), 0)
			results <- err
		}()
	}
	close(start)

	r1, r2 := <-results, <-results
	rejections := 0
	for _, r := range []error{r1, r2} {
		if r != nil {
			rejections++
		}
	}
	if rejections != 1 {
		t.Errorf("expected exactly one concurrent MineNext to be rejected, got %d rejections", rejections)
	}
}

func TestHandleNewBlock_RequestsChainWhenBehind(t *testing.T) {
	a := buildNode(t, "node-a")
	b := buildNode(t, "node-b")
	if err := a.ConnectToPeer("127.0.0.1", b.gossip.Port()); err != nil {
		t.Fatalf("ConnectToPeer() error: %v", err)
	}
	waitForCond(t, time.Second, func() bool { return a.gossip.PeerCount() == 1 && b.gossip.PeerCount() == 1 })

	// b sees a's first block, then is crashed while a mines two more, so it
	// falls two blocks behind. After b restarts and a reconnects, a's next
	// NEW_BLOCK lands past b's tip; b cannot append it and requests a's chain.
	if _, err := a.MineNext(context.Background(), 0); err != nil {
		t.Fatalf("MineNext() 1 error: %v", err)
	}
	waitForCond(t, time.Second, func() bool { return b.ledger.Length() == 2 })

	b.gossip.Crash() // b can no longer receive NEW_BLOCK, but a can still mine ahead
	if _, err := a.MineNext(context.Background(), 0); err != nil {
		t.Fatalf("MineNext() 2 error: %v", err)
	}
	if _, err := a.MineNext(context.Background(), 0); err != nil {
		t.Fatalf("MineNext() 3 error: %v", err)
	}
	if err := b.Restart(); err != nil {
		t.Fatalf("Restart() error: %v", err)
	}
	if err := a.ConnectToPeer("127.0.0.1", b.gossip.Port()); err != nil {
		t.Fatalf("reconnect ConnectToPeer() error: %v", err)
	}
	if _, err := a.MineNext(context.Background(), 0); err != nil {
		t.Fatalf("MineNext() 4 error: %v", err)
	}

	waitForCond(t, 2*time.Second, func() bool { return b.ledger.Length() == 5 })
	if b.ledger.TipHash() != a.ledger.TipHash() {
		t.Error("b should converge to a's chain after reconnecting and syncing")
	}
}

func TestStatus_ReflectsLedgerAndMempool(t *testing.T) {
	a := buildNode(t, "node-a")
	st := a.Status()
	if st.NodeID != "node-a" {
		t.Errorf("Status().NodeID = %q, want node-a", st.NodeID)
	}
	if st.ChainLength != 1 {
		t.Errorf("Status().ChainLength = %d, want 1", st.ChainLength)
	}
	if st.IsMining {
		t.Error("Status().IsMining should be false before any mining attempt")
	}

	if _, err := a.MineNext(context.Background(), 0); err != nil {
		t.Fatalf("MineNext() error: %v", err)
	}
	st = a.Status()
	if st.ChainLength != 2 {
		t.Errorf("Status().ChainLength after mining = %d, want 2", st.ChainLength)
	}
	if st.Balance != 50 {
		t.Errorf("Status().Balance = %v, want 50", st.Balance)
	}
}
