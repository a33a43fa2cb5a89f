// Package chain implements the Ledger: the validated chain of blocks plus
// the materialised account state, and the longest-chain fork-choice rule.
package chain

import (
	"fmt"
	"sync"

	"github.com/klingnet-sim/ledgersim/pkg/block"
	"github.com/klingnet-sim/ledgersim/pkg/tx"
	"github.com/klingnet-sim/ledgersim/pkg/types"
)

// OrphanReporter is the seam the external metrics collaborator implements
// to observe blocks displaced by a chain replacement.
type OrphanReporter interface {
	ReportOrphan(b *block.Block)
}

// Ledger owns one node's canonical chain and its materialised account
// state. State is always a deterministic function of the chain.
type Ledger struct {
	mu    sync.Mutex
	chain []*block.Block
	state State

	orphanReporter OrphanReporter
}

// New constructs a Ledger from a genesis block, validating the genesis
// invariants and building the initial state from it.
func New(genesis *block.Block) (*Ledger, error) {
	state, err := buildStateFromChain([]*block.Block{genesis})
	if err != nil {
		return nil, err
	}
	return &Ledger{
		chain: []*block.Block{genesis},
		state: state,
	}, nil
}

// SetOrphanReporter registers the collaborator notified of blocks displaced
// by a future ReplaceChain. Pass nil to disable reporting.
func (l *Ledger) SetOrphanReporter(r OrphanReporter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orphanReporter = r
}

func (l *Ledger) tipLocked() *block.Block {
	return l.chain[len(l.chain)-1]
}

// Tip returns the chain's last block.
func (l *Ledger) Tip() *block.Block {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tipLocked()
}

// TipHash returns the hash of the chain's last block.
func (l *Ledger) TipHash() types.Hash {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tipLocked().Hash()
}

// TipIndex returns the index of the chain's last block.
func (l *Ledger) TipIndex() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tipLocked().Index
}

// Length returns the number of blocks in the chain.
func (l *Ledger) Length() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.chain)
}

// Balance returns addr's current balance, 0 if never seen.
func (l *Ledger) Balance(addr types.Address) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.balance(addr)
}

// Nonce returns addr's current nonce, 0 if never seen.
func (l *Ledger) Nonce(addr types.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.nonce(addr)
}

// GetBlock returns the block at the given height, if present.
func (l *Ledger) GetBlock(index uint64) (*block.Block, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index >= uint64(len(l.chain)) {
		return nil, false
	}
	return l.chain[index], true
}

// Transaction searches the chain for a transaction by hash, returning it
// and the height of the block that contains it. The search is linear since
// there is no persistence layer to index against.
func (l *Ledger) Transaction(h types.Hash) (*tx.Transaction, uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.chain {
		for _, t := range b.Transactions {
			if t.Hash() == h {
				return t, b.Index, true
			}
		}
	}
	return nil, 0, false
}

// CanApply validates a transaction against the current state without
// mutating it: signature, sufficient balance, and matching nonce for
// non-coinbase transactions; structural checks only for coinbase.
func (l *Ledger) CanApply(t *tx.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return validateAgainstState(l.state, t)
}

// Append validates b against the current tip and state and, if valid,
// extends the chain. Validation and application are atomic: either the
// whole block applies or none of it does.
func (l *Ledger) Append(b *block.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tip := l.tipLocked()
	if err := b.ValidateStructure(); err != nil {
		return fmt.Errorf("%w: %v", ErrStructuralInvalid, err)
	}
	if b.Index != tip.Index+1 || b.PrevHash != tip.Hash() {
		return ErrBadLink
	}

	scratch := l.state.clone()
	for _, t := range b.Transactions {
		if err := validateAgainstState(scratch, t); err != nil {
			return err
		}
		applyToState(scratch, t)
	}

	l.chain = append(l.chain, b)
	l.state = scratch
	return nil
}

// buildStateFromChain replays blocks from genesis, fully validating
// structure, linkage and per-transaction state as it goes, and returns the
// resulting state. It never mutates any existing Ledger.
func buildStateFromChain(blocks []*block.Block) (State, error) {
	if len(blocks) == 0 {
		return nil, ErrStructuralInvalid
	}
	genesis := blocks[0]
	if err := ValidateGenesis(genesis); err != nil {
		return nil, err
	}

	state := newState()
	for _, t := range genesis.Transactions {
		applyToState(state, t)
	}

	prevIndex := genesis.Index
	prevHash := genesis.Hash()
	for _, b := range blocks[1:] {
		if err := b.ValidateStructure(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStructuralInvalid, err)
		}
		if b.Index != prevIndex+1 || b.PrevHash != prevHash {
			return nil, ErrBadLink
		}
		for _, t := range b.Transactions {
			if err := validateAgainstState(state, t); err != nil {
				return nil, err
			}
			applyToState(state, t)
		}
		prevIndex = b.Index
		prevHash = b.Hash()
	}
	return state, nil
}
