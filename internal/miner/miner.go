// Package miner assembles and solves candidate blocks.
package miner

import (
	"context"
	"errors"
	"time"

	"github.com/klingnet-sim/ledgersim/internal/consensus"
	"github.com/klingnet-sim/ledgersim/pkg/block"
	"github.com/klingnet-sim/ledgersim/pkg/tx"
	"github.com/klingnet-sim/ledgersim/pkg/types"
)

// Errors returned by MineNext.
var (
	ErrNotProposer = errors.New("miner: not the designated proposer for this round")
	ErrCancelled   = errors.New("miner: mining was cancelled before a solution was found")
	ErrExhausted   = errors.New("miner: exhausted max_iters before finding a solution")
	ErrStale       = errors.New("miner: chain tip advanced during mining, discarding solution")
)

// ChainView is the read-only slice of the Ledger the miner needs.
type ChainView interface {
	TipIndex() uint64
	TipHash() types.Hash
}

// MempoolView is the read-only slice of the Mempool the miner needs.
type MempoolView interface {
	Top(n int) []*tx.Transaction
}

// Miner assembles a candidate block from the mempool and drives the
// consensus engine to seal it.
type Miner struct {
	chain         ChainView
	mempool       MempoolView
	engine        consensus.Engine
	minerAddress  types.Address
	blockReward   float64
	maxTxPerBlock int
	nodeID        string
	knownIDs      func() []string
}

// New constructs a Miner. knownIDs is consulted on every attempt (not
// cached) so that peer membership changes take effect immediately; it may
// be nil for engines that ignore CanPropose's id set (proof-of-work).
func New(chain ChainView, mempool MempoolView, engine consensus.Engine, minerAddress types.Address, blockReward float64, maxTxPerBlock int, nodeID string, knownIDs func() []string) *Miner {
	return &Miner{
		chain:         chain,
		mempool:       mempool,
		engine:        engine,
		minerAddress:  minerAddress,
		blockReward:   blockReward,
		maxTxPerBlock: maxTxPerBlock,
		nodeID:        nodeID,
		knownIDs:      knownIDs,
	}
}

// MineNext attempts a single mining round: snapshot up to maxTxPerBlock
// mempool transactions, prepend a coinbase for blockReward plus their fees,
// and search for a satisfying nonce. It checks the engine's cancellation
// signal at the engine's own bounded interval and discards the result if
// the chain tip advanced past the candidate's parent while searching.
// maxIters bounds the number of nonces the engine will try; 0 means
// unlimited.
func (m *Miner) MineNext(ctx context.Context, maxIters uint64) (*block.Block, error) {
	tipIndex := m.chain.TipIndex()
	tipHash := m.chain.TipHash()
	nextIndex := tipIndex + 1

	var ids []string
	if m.knownIDs != nil {
		ids = m.knownIDs()
	}
	if !m.engine.CanPropose(m.nodeID, ids, nextIndex) {
		return nil, ErrNotProposer
	}

	txs := m.mempool.Top(m.maxTxPerBlock)
	var totalFees float64
	for _, t := range txs {
		totalFees += t.Fee
	}

	coinbase := tx.NewCoinbase(m.minerAddress, m.blockReward+totalFees)
	all := make([]*tx.Transaction, 0, len(txs)+1)
	all = append(all, coinbase)
	all = append(all, txs...)

	candidate := block.New(nextIndex, tipHash, nowSeconds(), m.engine.CurrentDifficulty(), all)

	start := time.Now()
	if ok := m.engine.Solve(ctx, candidate, maxIters); !ok {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, ErrExhausted
	}
	solveTime := time.Since(start)

	if m.chain.TipIndex() != tipIndex {
		return nil, ErrStale
	}

	m.engine.OnBlockMined(solveTime)
	return candidate, nil
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
