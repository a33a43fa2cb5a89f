package chain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the ledger: StructuralInvalid (of which BadLink is
// one case), StateInvalid, ChainTooShort and GenesisMismatch.
var (
	// ErrStructuralInvalid covers bad PoW, merkle mismatch, missing
	// coinbase, or a bad index/prev_hash link.
	ErrStructuralInvalid = errors.New("chain: structurally invalid block")

	// ErrStateInvalid covers insufficient balance, wrong nonce, a bad
	// signature, negative amount/fee, or self-transfer.
	ErrStateInvalid = errors.New("chain: transaction invalid against ledger state")

	// ErrChainTooShort is returned when a candidate chain offered to
	// ReplaceChain is not strictly longer than the current chain.
	ErrChainTooShort = errors.New("chain: candidate chain is not strictly longer")

	// ErrGenesisMismatch is returned when a candidate chain's genesis block
	// does not match the locally configured genesis.
	ErrGenesisMismatch = errors.New("chain: candidate genesis does not match local genesis")

	// ErrBadLink is returned when a block's index or prev_hash does not
	// correctly extend its predecessor. It wraps ErrStructuralInvalid.
	ErrBadLink = fmt.Errorf("%w: block does not correctly link to its predecessor", ErrStructuralInvalid)
)
