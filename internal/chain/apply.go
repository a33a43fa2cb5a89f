package chain

import (
	"fmt"

	"github.com/klingnet-sim/ledgersim/pkg/tx"
)

// validateAgainstState checks a transaction's state-dependent invariants
// against s without mutating it: signature (delegated to
// tx.ValidateStructure, already checked at admission, re-checked here for
// safety), sufficient balance for amount+fee, and a matching nonce.
// Coinbase transactions are admitted by structural checks only.
func validateAgainstState(s State, t *tx.Transaction) error {
	if t.IsCoinbase() {
		if err := t.ValidateStructure(); err != nil {
			return fmt.Errorf("%w: %v", ErrStateInvalid, err)
		}
		return nil
	}
	if err := t.ValidateStructure(); err != nil {
		return fmt.Errorf("%w: %v", ErrStateInvalid, err)
	}
	acc := s[t.Sender]
	balance, nonce := 0.0, uint64(0)
	if acc != nil {
		balance, nonce = acc.Balance, acc.Nonce
	}
	if balance < t.Amount+t.Fee {
		return fmt.Errorf("%w: insufficient balance", ErrStateInvalid)
	}
	if t.Nonce != nonce {
		return fmt.Errorf("%w: nonce mismatch", ErrStateInvalid)
	}
	return nil
}

// applyToState mutates s per the transaction: sender balance decreases by
// amount+fee, receiver balance increases by amount, sender nonce advances
// by one. Coinbase only credits the receiver. The caller MUST have already
// validated the transaction against s.
func applyToState(s State, t *tx.Transaction) {
	receiver := s.account(t.Receiver)
	receiver.Balance += t.Amount

	if t.IsCoinbase() {
		return
	}
	sender := s.account(t.Sender)
	sender.Balance -= t.Amount + t.Fee
	sender.Nonce = t.Nonce + 1
}
