// Package consensus implements the pluggable block-sealing engines: a
// proof-of-work engine with optional difficulty retargeting, and a
// round-robin leader-election alternative. Exactly one engine backs a
// chain at construction time; the two are never mixed.
package consensus

import (
	"context"
	"time"

	"github.com/klingnet-sim/ledgersim/pkg/block"
)

// Engine seals candidate blocks and decides who may propose them.
type Engine interface {
	// CurrentDifficulty returns the difficulty a new candidate block must
	// be stamped with.
	CurrentDifficulty() int

	// CanPropose reports whether nodeID may produce the block for the
	// given round (block index), given the set of known node ids. PoW
	// engines always return true: any miner may attempt any block.
	CanPropose(nodeID string, knownIDs []string, round uint64) bool

	// Solve searches for a nonce that satisfies the engine's difficulty
	// requirement for b, mutating b.Nonce (and b.Difficulty) in place. It
	// checks ctx for cancellation at a bounded interval and returns false
	// without further mutation if cancelled. maxIters bounds the number of
	// nonces tried before giving up; 0 means unlimited.
	Solve(ctx context.Context, b *block.Block, maxIters uint64) bool

	// OnBlockMined reports the wall-clock time a successful solve took, for
	// engines that retarget difficulty from it.
	OnBlockMined(solveTime time.Duration)
}
