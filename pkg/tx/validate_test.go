package tx

import (
	"errors"
	"testing"
)

func TestValidateStructure_Valid(t *testing.T) {
	txn := New("alice", "bob", 10, 1, 0)
	if err := txn.ValidateStructure(); err != nil {
		t.Errorf("ValidateStructure() = %v, want nil", err)
	}
}

func TestValidateStructure_SelfTransfer(t *testing.T) {
	txn := New("alice", "alice", 10, 1, 0)
	if err := txn.ValidateStructure(); !errors.Is(err, ErrSelfTransfer) {
		t.Errorf("ValidateStructure() = %v, want ErrSelfTransfer", err)
	}
}

func TestValidateStructure_NegativeAmount(t *testing.T) {
	txn := &Transaction{Sender: "alice", Receiver: "bob", Amount: -5, Fee: 1}
	txn.Sign()
	if err := txn.ValidateStructure(); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("ValidateStructure() = %v, want ErrNegativeAmount", err)
	}
}

func TestValidateStructure_ZeroAmountNonCoinbase(t *testing.T) {
	txn := &Transaction{Sender: "alice", Receiver: "bob", Amount: 0, Fee: 1}
	txn.Sign()
	if err := txn.ValidateStructure(); !errors.Is(err, ErrZeroAmount) {
		t.Errorf("ValidateStructure() = %v, want ErrZeroAmount", err)
	}
}

func TestValidateStructure_NegativeFee(t *testing.T) {
	txn := &Transaction{Sender: "alice", Receiver: "bob", Amount: 10, Fee: -1}
	txn.Sign()
	if err := txn.ValidateStructure(); !errors.Is(err, ErrNegativeFee) {
		t.Errorf("ValidateStructure() = %v, want ErrNegativeFee", err)
	}
}

func TestValidateStructure_BadSignature(t *testing.T) {
	txn := New("alice", "bob", 10, 1, 0)
	txn.Signature = "garbage"
	if err := txn.ValidateStructure(); !errors.Is(err, ErrBadSignature) {
		t.Errorf("ValidateStructure() = %v, want ErrBadSignature", err)
	}
}

func TestValidateStructure_CoinbaseZeroAmountAllowed(t *testing.T) {
	cb := NewCoinbase("GENESIS", 0)
	if err := cb.ValidateStructure(); err != nil {
		t.Errorf("ValidateStructure() on genesis coinbase = %v, want nil", err)
	}
}

func TestValidateStructure_CoinbaseSkipsSignatureCheck(t *testing.T) {
	cb := NewCoinbase("miner-1", 50)
	cb.Signature = "anything"
	if err := cb.ValidateStructure(); err != nil {
		t.Errorf("ValidateStructure() on coinbase = %v, want nil", err)
	}
}

func TestValidateStructure_EmptySender(t *testing.T) {
	txn := &Transaction{Sender: "", Receiver: "bob", Amount: 1, Fee: 0}
	if err := txn.ValidateStructure(); !errors.Is(err, ErrEmptySender) {
		t.Errorf("ValidateStructure() = %v, want ErrEmptySender", err)
	}
}
