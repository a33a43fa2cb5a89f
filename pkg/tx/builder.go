package tx

import "github.com/klingnet-sim/ledgersim/pkg/types"

// NewCoinbase builds the block-reward transaction for a newly mined block.
// Its signature is the fixed placeholder token "coinbase" since coinbase
// transactions skip signature verification entirely.
func NewCoinbase(receiver types.Address, reward float64) *Transaction {
	return &Transaction{
		Sender:    CoinbaseSender,
		Receiver:  receiver,
		Amount:    reward,
		Fee:       0,
		Nonce:     0,
		Signature: "coinbase",
	}
}

// New builds and signs a transaction from the given fields.
func New(sender, receiver types.Address, amount, fee float64, nonce uint64) *Transaction {
	t := &Transaction{
		Sender:   sender,
		Receiver: receiver,
		Amount:   amount,
		Fee:      fee,
		Nonce:    nonce,
	}
	t.Sign()
	return t
}
