package chain

import "testing"

func TestState_CloneIsIndependent(t *testing.T) {
	s := newState()
	s.account("alice").Balance = 100

	clone := s.clone()
	clone.account("alice").Balance = 5
	clone.account("bob").Balance = 1

	if s.balance("alice") != 100 {
		t.Errorf("mutating a clone must not affect the original: alice = %v, want 100", s.balance("alice"))
	}
	if s.balance("bob") != 0 {
		t.Error("mutating a clone must not affect the original: bob should be absent")
	}
}

func TestState_BalanceAndNonceDefaultToZero(t *testing.T) {
	s := newState()
	if s.balance("nobody") != 0 {
		t.Errorf("balance of unseen address = %v, want 0", s.balance("nobody"))
	}
	if s.nonce("nobody") != 0 {
		t.Errorf("nonce of unseen address = %d, want 0", s.nonce("nobody"))
	}
}

func TestState_AccountCreatesOnFirstAccess(t *testing.T) {
	s := newState()
	acc := s.account("alice")
	acc.Balance = 42
	if s.account("alice").Balance != 42 {
		t.Error("account() should return the same *Account on repeated calls")
	}
}
