package block

import "errors"

// Structural validation errors — checked independent of chain state. The
// Ledger layers prev-hash linkage and per-transaction state checks on top.
var (
	ErrEmptyBlock       = errors.New("block: must contain at least a coinbase transaction")
	ErrMissingCoinbase  = errors.New("block: transactions[0] must be the coinbase")
	ErrExtraCoinbase    = errors.New("block: only transactions[0] may be coinbase")
	ErrMerkleMismatch   = errors.New("block: merkle_root does not match computed root")
	ErrInsufficientPoW  = errors.New("block: hash does not satisfy difficulty")
	ErrInvalidTx        = errors.New("block: contains a structurally invalid transaction")
)

// ValidateStructure checks the block-level invariants that do not depend on
// chain state: transactions[0] is the coinbase and no other transaction is,
// merkle_root matches the computed root over transactions, the hash
// satisfies the declared difficulty, and every transaction passes its own
// structural validation.
func (b *Block) ValidateStructure() error {
	if len(b.Transactions) == 0 {
		return ErrEmptyBlock
	}
	if !b.Transactions[0].IsCoinbase() {
		return ErrMissingCoinbase
	}
	for _, t := range b.Transactions[1:] {
		if t.IsCoinbase() {
			return ErrExtraCoinbase
		}
	}
	if MerkleRoot(b.TxHashes()) != b.MerkleRoot {
		return ErrMerkleMismatch
	}
	if !b.MeetsDifficulty() {
		return ErrInsufficientPoW
	}
	for _, t := range b.Transactions {
		if err := t.ValidateStructure(); err != nil {
			return ErrInvalidTx
		}
	}
	return nil
}
