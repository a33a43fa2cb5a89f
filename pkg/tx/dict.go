package tx

import "github.com/klingnet-sim/ledgersim/pkg/types"

// Dict is the wire schema for a transaction: every field of Transaction
// plus an advisory hash. The hash carried over the wire is never trusted —
// the receiver recomputes it from the other fields.
type Dict struct {
	Sender    types.Address `json:"sender"`
	Receiver  types.Address `json:"receiver"`
	Amount    float64       `json:"amount"`
	Fee       float64       `json:"fee"`
	Nonce     uint64        `json:"nonce"`
	Signature string        `json:"signature"`
	Hash      string        `json:"hash"`
}

// ToDict serialises a transaction for the wire, including its freshly
// computed hash.
func (t *Transaction) ToDict() Dict {
	h := t.Hash()
	return Dict{
		Sender:    t.Sender,
		Receiver:  t.Receiver,
		Amount:    t.Amount,
		Fee:       t.Fee,
		Nonce:     t.Nonce,
		Signature: t.Signature,
		Hash:      h.String(),
	}
}

// FromDict reconstructs a transaction from its wire form. The inbound hash
// field is ignored; callers should use (*Transaction).Hash() on the result.
func FromDict(d Dict) *Transaction {
	return &Transaction{
		Sender:    d.Sender,
		Receiver:  d.Receiver,
		Amount:    d.Amount,
		Fee:       d.Fee,
		Nonce:     d.Nonce,
		Signature: d.Signature,
	}
}
