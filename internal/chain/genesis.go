package chain

import (
	"errors"

	"github.com/klingnet-sim/ledgersim/pkg/block"
	"github.com/klingnet-sim/ledgersim/pkg/tx"
	"github.com/klingnet-sim/ledgersim/pkg/types"
)

// GenesisSender is the sentinel receiver of the genesis block's coinbase.
const GenesisSender types.Address = "GENESIS"

// ErrBadGenesis is returned when a block offered as genesis fails the
// genesis-specific invariants.
var ErrBadGenesis = errors.New("chain: invalid genesis block")

// BuildGenesis constructs the canonical genesis block: index 0,
// prev_hash all zeros, a single coinbase of amount 0 to GENESIS. It is
// mined in place, same as any other block, so it satisfies its own
// stamped difficulty.
func BuildGenesis(timestamp float64, difficulty int) *block.Block {
	coinbase := tx.NewCoinbase(GenesisSender, 0)
	b := block.New(0, types.Hash{}, timestamp, difficulty, []*tx.Transaction{coinbase})
	for nonce := uint64(0); ; nonce++ {
		b.Nonce = nonce
		if b.MeetsDifficulty() {
			break
		}
	}
	return b
}

// ValidateGenesis checks that b satisfies the genesis-specific invariants:
// index 0, zero prev_hash, single coinbase of amount 0.
func ValidateGenesis(b *block.Block) error {
	if b.Index != 0 {
		return ErrBadGenesis
	}
	if !b.PrevHash.IsZero() {
		return ErrBadGenesis
	}
	if len(b.Transactions) != 1 {
		return ErrBadGenesis
	}
	if !b.Transactions[0].IsCoinbase() || b.Transactions[0].Amount != 0 {
		return ErrBadGenesis
	}
	if err := b.ValidateStructure(); err != nil {
		return ErrBadGenesis
	}
	return nil
}
