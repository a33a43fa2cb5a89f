package chain

import "github.com/klingnet-sim/ledgersim/pkg/block"

// ReplaceChain implements the longest-chain fork-choice rule. candidate is
// accepted only if it is strictly longer than the current chain, its
// genesis matches the local genesis byte-for-byte, and it fully validates
// from genesis (structure, linkage and per-transaction state, replayed
// against an independently rebuilt state — never the current one).
//
// On acceptance, the chain and state are replaced atomically and the
// blocks displaced from the old chain (those whose hash is absent from the
// new one) are reported to the registered OrphanReporter, if any, and
// returned to the caller.
func (l *Ledger) ReplaceChain(candidate []*block.Block) (replaced bool, orphans []*block.Block, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(candidate) <= len(l.chain) {
		return false, nil, ErrChainTooShort
	}
	if candidate[0].Hash() != l.chain[0].Hash() {
		return false, nil, ErrGenesisMismatch
	}

	newState, err := buildStateFromChain(candidate)
	if err != nil {
		return false, nil, err
	}

	newHashes := make(map[string]struct{}, len(candidate))
	for _, b := range candidate {
		newHashes[b.Hash().String()] = struct{}{}
	}
	for _, old := range l.chain {
		if _, kept := newHashes[old.Hash().String()]; !kept {
			orphans = append(orphans, old)
		}
	}

	l.chain = append([]*block.Block(nil), candidate...)
	l.state = newState

	if l.orphanReporter != nil {
		for _, o := range orphans {
			l.orphanReporter.ReportOrphan(o)
		}
	}
	return true, orphans, nil
}
