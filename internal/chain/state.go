package chain

import "github.com/klingnet-sim/ledgersim/pkg/types"

// Account is the materialised state of a single address: its balance and
// the next nonce it must present.
type Account struct {
	Balance float64
	Nonce   uint64
}

// State is the account-model ledger state: address -> {balance, nonce}.
// It is deterministically derivable from the chain and is a cache, not the
// source of truth.
type State map[types.Address]*Account

func newState() State {
	return make(State)
}

// clone returns a deep copy, used to validate a candidate extension without
// mutating the live state until it is known to succeed.
func (s State) clone() State {
	out := make(State, len(s))
	for addr, acc := range s {
		cp := *acc
		out[addr] = &cp
	}
	return out
}

func (s State) balance(addr types.Address) float64 {
	if acc, ok := s[addr]; ok {
		return acc.Balance
	}
	return 0
}

func (s State) nonce(addr types.Address) uint64 {
	if acc, ok := s[addr]; ok {
		return acc.Nonce
	}
	return 0
}

func (s State) account(addr types.Address) *Account {
	acc, ok := s[addr]
	if !ok {
		acc = &Account{}
		s[addr] = acc
	}
	return acc
}
