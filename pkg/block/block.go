// Package block defines the block type, its merkle tree and its
// proof-of-work identity.
package block

import (
	"strings"

	"github.com/klingnet-sim/ledgersim/internal/canon"
	"github.com/klingnet-sim/ledgersim/pkg/crypto"
	"github.com/klingnet-sim/ledgersim/pkg/tx"
	"github.com/klingnet-sim/ledgersim/pkg/types"
)

// Block is a validated unit of the chain: a header plus its transactions.
type Block struct {
	Index        uint64            `json:"index"`
	PrevHash     types.Hash        `json:"prev_hash"`
	Timestamp    float64           `json:"timestamp"`
	Nonce        uint64            `json:"nonce"`
	Difficulty   int               `json:"difficulty"`
	MerkleRoot   types.Hash        `json:"merkle_root"`
	Transactions []*tx.Transaction `json:"transactions"`
}

// headerFields is the subset of the block hashed for its identity.
type headerFields struct {
	Index      uint64 `json:"index"`
	MerkleRoot string `json:"merkle_root"`
	PrevHash   string `json:"prev_hash"`
	Timestamp  float64 `json:"timestamp"`
	Nonce      uint64 `json:"nonce"`
	Difficulty int    `json:"difficulty"`
}

// New builds a block from its header fields and transactions, computing the
// merkle root over the transaction hashes.
func New(index uint64, prevHash types.Hash, timestamp float64, difficulty int, txs []*tx.Transaction) *Block {
	leaves := make([]types.Hash, len(txs))
	for i, t := range txs {
		leaves[i] = t.Hash()
	}
	return &Block{
		Index:        index,
		PrevHash:     prevHash,
		Timestamp:    timestamp,
		Nonce:        0,
		Difficulty:   difficulty,
		MerkleRoot:   MerkleRoot(leaves),
		Transactions: txs,
	}
}

// Hash computes the block's identity: hex SHA-256 over the header fields in
// canonical encoding. The transactions themselves are represented only
// through the merkle root.
func (b *Block) Hash() types.Hash {
	hf := headerFields{
		Index:      b.Index,
		MerkleRoot: b.MerkleRoot.String(),
		PrevHash:   b.PrevHash.String(),
		Timestamp:  b.Timestamp,
		Nonce:      b.Nonce,
		Difficulty: b.Difficulty,
	}
	buf, err := canon.Marshal(hf)
	if err != nil {
		panic(err)
	}
	return crypto.Hash(buf)
}

// MeetsDifficulty reports whether the block's hash begins with at least
// Difficulty leading hex zeros.
func (b *Block) MeetsDifficulty() bool {
	return HashMeetsDifficulty(b.Hash(), b.Difficulty)
}

// HashMeetsDifficulty reports whether h begins with at least difficulty
// leading hex zero characters.
func HashMeetsDifficulty(h types.Hash, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	s := h.String()
	if difficulty > len(s) {
		return false
	}
	return strings.Count(s[:difficulty], "0") == difficulty
}

// TxHashes returns the hashes of the block's transactions, in order.
func (b *Block) TxHashes() []types.Hash {
	hashes := make([]types.Hash, len(b.Transactions))
	for i, t := range b.Transactions {
		hashes[i] = t.Hash()
	}
	return hashes
}
