package block

import (
	"github.com/klingnet-sim/ledgersim/pkg/tx"
	"github.com/klingnet-sim/ledgersim/pkg/types"
)

// Dict is the wire schema for a block: header fields, transactions as
// tx.Dict, and an advisory hash the receiver must recompute.
type Dict struct {
	Index        uint64    `json:"index"`
	Transactions []tx.Dict `json:"transactions"`
	PreviousHash string    `json:"previous_hash"`
	Timestamp    float64   `json:"timestamp"`
	Nonce        uint64    `json:"nonce"`
	Difficulty   int       `json:"difficulty"`
	Hash         string    `json:"hash"`
	MerkleRoot   string    `json:"merkle_root"`
}

// ToDict serialises a block for the wire.
func (b *Block) ToDict() Dict {
	txs := make([]tx.Dict, len(b.Transactions))
	for i, t := range b.Transactions {
		txs[i] = t.ToDict()
	}
	return Dict{
		Index:        b.Index,
		Transactions: txs,
		PreviousHash: b.PrevHash.String(),
		Timestamp:    b.Timestamp,
		Nonce:        b.Nonce,
		Difficulty:   b.Difficulty,
		Hash:         b.Hash().String(),
		MerkleRoot:   b.MerkleRoot.String(),
	}
}

// FromDict reconstructs a block from its wire form. All fields — including
// the merkle root and hash — are taken from the dict as given; callers MUST
// validate the result (ValidateStructure in this package recomputes and checks the
// merkle root, and the hash is always recomputed from (*Block).Hash()).
func FromDict(d Dict) (*Block, error) {
	prevHash, err := types.HexToHash(d.PreviousHash)
	if err != nil {
		return nil, err
	}
	merkleRoot, err := types.HexToHash(d.MerkleRoot)
	if err != nil {
		return nil, err
	}
	txs := make([]*tx.Transaction, len(d.Transactions))
	for i, td := range d.Transactions {
		txs[i] = tx.FromDict(td)
	}
	return &Block{
		Index:        d.Index,
		PrevHash:     prevHash,
		Timestamp:    d.Timestamp,
		Nonce:        d.Nonce,
		Difficulty:   d.Difficulty,
		MerkleRoot:   merkleRoot,
		Transactions: txs,
	}, nil
}
