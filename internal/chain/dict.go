package chain

import "github.com/klingnet-sim/ledgersim/pkg/block"

// AccountDict is the wire schema for a single account's state.
type AccountDict struct {
	Balance float64 `json:"balance"`
	Nonce   uint64  `json:"nonce"`
}

// Dict is the wire schema for a full chain: {difficulty, chain, state}.
// State is always rebuilt by the receiver on chain replacement and is
// never trusted from the wire.
type Dict struct {
	Difficulty int                    `json:"difficulty"`
	Chain      []block.Dict           `json:"chain"`
	State      map[string]AccountDict `json:"state"`
}

// ToDict serialises the ledger for the wire. difficulty is supplied by the
// caller (the consensus engine, not the Ledger, owns it).
func (l *Ledger) ToDict(difficulty int) Dict {
	l.mu.Lock()
	defer l.mu.Unlock()

	chainDicts := make([]block.Dict, len(l.chain))
	for i, b := range l.chain {
		chainDicts[i] = b.ToDict()
	}
	stateDict := make(map[string]AccountDict, len(l.state))
	for addr, acc := range l.state {
		stateDict[string(addr)] = AccountDict{Balance: acc.Balance, Nonce: acc.Nonce}
	}
	return Dict{Difficulty: difficulty, Chain: chainDicts, State: stateDict}
}

// BlocksFromDicts reconstructs a candidate chain from its wire dicts. The
// result is not yet validated — pass it to (*Ledger).ReplaceChain for that.
func BlocksFromDicts(dicts []block.Dict) ([]*block.Block, error) {
	blocks := make([]*block.Block, len(dicts))
	for i, d := range dicts {
		b, err := block.FromDict(d)
		if err != nil {
			return nil, err
		}
		blocks[i] = b
	}
	return blocks, nil
}
