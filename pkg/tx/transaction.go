// Package tx defines the transaction type and its canonical hash, signing
// and validation rules for the account-model ledger.
package tx

import (
	"github.com/klingnet-sim/ledgersim/internal/canon"
	"github.com/klingnet-sim/ledgersim/pkg/crypto"
	"github.com/klingnet-sim/ledgersim/pkg/types"
)

// CoinbaseSender is the sentinel sender identifying a block-reward
// transaction. Coinbase transactions skip signature verification and are
// the only transactions whose amount may be zero.
const CoinbaseSender types.Address = "COINBASE"

// Transaction is an immutable transfer of value from sender to receiver.
type Transaction struct {
	Sender    types.Address `json:"sender"`
	Receiver  types.Address `json:"receiver"`
	Amount    float64       `json:"amount"`
	Fee       float64       `json:"fee"`
	Nonce     uint64        `json:"nonce"`
	Signature string        `json:"signature,omitempty"`
}

// hashFields is the subset of a transaction hashed for identity: every
// field except the signature and the hash itself.
type hashFields struct {
	Sender   string  `json:"sender"`
	Receiver string  `json:"receiver"`
	Amount   float64 `json:"amount"`
	Fee      float64 `json:"fee"`
	Nonce    uint64  `json:"nonce"`
}

// Hash computes the transaction's identity: hex SHA-256 of its canonical
// serialisation excluding the signature and cached hash.
func (t *Transaction) Hash() types.Hash {
	payload := hashFields{
		Sender:   string(t.Sender),
		Receiver: string(t.Receiver),
		Amount:   t.Amount,
		Fee:      t.Fee,
		Nonce:    t.Nonce,
	}
	b, err := canon.Marshal(payload)
	if err != nil {
		// hashFields only contains primitive types; Marshal cannot fail.
		panic(err)
	}
	return crypto.Hash(b)
}

// IsCoinbase reports whether this is a block-reward transaction.
func (t *Transaction) IsCoinbase() bool {
	return t.Sender == CoinbaseSender
}

// Sign sets the signature field to the keyed-hash placeholder signature
// over the transaction's hash, keyed by the sender identifier.
func (t *Transaction) Sign() {
	h := t.Hash()
	t.Signature = crypto.Sign(string(t.Sender), h[:])
}

// VerifySignature checks the signature field against the recomputed hash.
// Coinbase transactions always verify (placeholder signature, no check).
func (t *Transaction) VerifySignature() bool {
	if t.IsCoinbase() {
		return true
	}
	h := t.Hash()
	return crypto.Verify(string(t.Sender), h[:], t.Signature)
}
