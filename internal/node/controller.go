// Package node implements the NodeController: it wires the Ledger,
// Mempool, Miner and GossipLayer together, dispatches inbound gossip
// envelopes, and drives the per-node mining lifecycle.
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klingnet-sim/ledgersim/internal/chain"
	"github.com/klingnet-sim/ledgersim/internal/consensus"
	"github.com/klingnet-sim/ledgersim/internal/gossip"
	"github.com/klingnet-sim/ledgersim/internal/log"
	"github.com/klingnet-sim/ledgersim/internal/mempool"
	"github.com/klingnet-sim/ledgersim/internal/miner"
	"github.com/klingnet-sim/ledgersim/pkg/block"
	"github.com/klingnet-sim/ledgersim/pkg/tx"
	"github.com/klingnet-sim/ledgersim/pkg/types"
)

// State is the node's lifecycle state.
type State int

const (
	StateCreated State = iota
	StateStarted
	StateStopped
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// Controller wires the Ledger, Mempool, Miner and GossipLayer for a single
// node and drives its lifecycle and mining.
type Controller struct {
	nodeID       string
	minerAddress types.Address

	ledger *chain.Ledger
	pool   *mempool.Pool
	eng    consensus.Engine
	miner  *miner.Miner
	gossip *gossip.Layer

	mu                sync.Mutex
	state             State
	autoMineEnabled   bool
	autoMineThreshold int
	mining            bool
	cancelMining      context.CancelFunc
}

// New constructs a Controller. maxTxPerBlock bounds how many mempool
// transactions the miner snapshots per attempt.
func New(nodeID string, minerAddress types.Address, ledger *chain.Ledger, pool *mempool.Pool, eng consensus.Engine, blockReward float64, maxTxPerBlock int, gossipLayer *gossip.Layer) *Controller {
	c := &Controller{
		nodeID:       nodeID,
		minerAddress: minerAddress,
		ledger:       ledger,
		pool:         pool,
		eng:          eng,
		gossip:       gossipLayer,
		state:        StateCreated,
	}
	c.miner = miner.New(ledger, pool, eng, minerAddress, blockReward, maxTxPerBlock, nodeID, c.knownIDs)
	return c
}

func (c *Controller) knownIDs() []string {
	ids := append([]string{c.nodeID}, c.gossip.PeerIDs()...)
	return ids
}

// Start opens the gossip listener and transitions created/stopped -> started.
func (c *Controller) Start() error {
	if err := c.gossip.Start(); err != nil {
		return err
	}
	c.mu.Lock()
	c.state = StateStarted
	c.mu.Unlock()
	return nil
}

// Stop cancels any in-progress mining and crashes the gossip layer,
// closing all peer connections and the listener. The Ledger and Mempool
// are preserved.
func (c *Controller) Stop() {
	c.cancelCurrentMining()
	c.gossip.Crash()
	c.mu.Lock()
	c.state = StateStopped
	c.mu.Unlock()
}

// Crash is equivalent to Stop but records the crashed state distinctly,
// matching the external fault injector's crashed transition.
func (c *Controller) Crash() {
	c.cancelCurrentMining()
	c.gossip.Crash()
	c.mu.Lock()
	c.state = StateCrashed
	c.mu.Unlock()
}

// Restart reopens the gossip layer (clearing its seen-set) after a crash or
// stop, preserving the existing Ledger and Mempool.
func (c *Controller) Restart() error {
	if err := c.gossip.Restart(); err != nil {
		return err
	}
	c.mu.Lock()
	c.state = StateStarted
	c.mu.Unlock()
	return nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ConnectToPeer dials a peer and immediately requests its chain, matching
// the reference client's connect-then-sync behaviour.
func (c *Controller) ConnectToPeer(host string, port int) error {
	peerID, err := c.gossip.ConnectToPeer(host, port)
	if err != nil {
		return err
	}
	return c.gossip.SendTo(peerID, gossip.KindGetChain, map[string]any{})
}

// EnableAutoMine arms automatic mining attempts once the mempool reaches
// threshold pending transactions.
func (c *Controller) EnableAutoMine(threshold int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoMineEnabled = true
	c.autoMineThreshold = threshold
}

// DisableAutoMine disarms automatic mining.
func (c *Controller) DisableAutoMine() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoMineEnabled = false
}

// Submit validates tx against the ledger, admits it to the mempool, and
// broadcasts it as NEW_TX.
func (c *Controller) Submit(t *tx.Transaction) error {
	if err := c.ledger.CanApply(t); err != nil {
		return fmt.Errorf("node: submit rejected: %w", err)
	}
	if err := c.pool.Add(t); err != nil {
		return fmt.Errorf("node: submit rejected: %w", err)
	}
	return c.broadcastTx(t)
}

func (c *Controller) broadcastTx(t *tx.Transaction) error {
	return c.gossip.Broadcast(gossip.KindNewTx, gossip.NewTxData{Transaction: mustMarshal(t.ToDict())})
}

func (c *Controller) broadcastBlock(b *block.Block) error {
	return c.gossip.Broadcast(gossip.KindNewBlock, gossip.NewBlockData{Block: mustMarshal(b.ToDict())})
}

func mustMarshal(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

// MineNext attempts a single mining round. Concurrent invocations are
// rejected: only one active mining attempt is permitted per node. On
// success the block is appended, its transactions purged from the
// mempool, and NEW_BLOCK is broadcast. maxIters bounds the number of
// nonces tried before giving up; 0 means unlimited.
func (c *Controller) MineNext(ctx context.Context, maxIters uint64) (*block.Block, error) {
	if !c.tryBeginMining() {
		return nil, miner.ErrNotProposer
	}
	defer c.endMining()

	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelMining = cancel
	c.mu.Unlock()
	defer cancel()

	candidate, err := c.miner.MineNext(ctx, maxIters)
	if err != nil {
		return nil, err
	}

	if err := c.ledger.Append(candidate); err != nil {
		log.Miner.Error().Err(err).Uint64("index", candidate.Index).Msg("mined block failed to append")
		return nil, err
	}
	c.pool.RemoveMany(candidate.TxHashes())
	if err := c.broadcastBlock(candidate); err != nil {
		log.Miner.Warn().Err(err).Msg("failed to broadcast mined block")
	}
	return candidate, nil
}

func (c *Controller) tryBeginMining() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mining {
		return false
	}
	c.mining = true
	return true
}

func (c *Controller) endMining() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mining = false
	c.cancelMining = nil
}

func (c *Controller) cancelCurrentMining() {
	c.mu.Lock()
	cancel := c.cancelMining
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Controller) isMining() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mining
}

// maybeAutoMine launches a mining attempt in the background if auto-mine is
// enabled, no attempt is already active, and the mempool has reached the
// configured threshold.
func (c *Controller) maybeAutoMine() {
	c.mu.Lock()
	enabled := c.autoMineEnabled
	threshold := c.autoMineThreshold
	already := c.mining
	c.mu.Unlock()

	if !enabled || already || c.pool.Count() < threshold {
		return
	}
	go func() {
		if _, err := c.MineNext(context.Background(), 0); err != nil {
			log.Miner.Debug().Err(err).Msg("auto-mine attempt did not produce a block")
		}
	}()
}
