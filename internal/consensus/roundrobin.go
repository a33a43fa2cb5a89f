package consensus

import (
	"context"
	"sort"
	"time"

	"github.com/klingnet-sim/ledgersim/pkg/block"
)

// RoundRobin is the alternative leader-election engine: the known node ids
// are sorted, and id == sorted[round % n] is the unique proposer for that
// round. Difficulty is fixed at 1 — blocks are still hashed and still must
// meet that (cheap) proof-of-work bar, but the search space is gated by
// proposer identity rather than by raw difficulty.
type RoundRobin struct{}

// NewRoundRobin constructs the round-robin engine.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// CurrentDifficulty is always 1 for round-robin.
func (e *RoundRobin) CurrentDifficulty() int {
	return 1
}

// CanPropose reports whether nodeID is the designated proposer for round,
// given the full set of known node ids sorted ascending.
func (e *RoundRobin) CanPropose(nodeID string, knownIDs []string, round uint64) bool {
	if len(knownIDs) == 0 {
		return false
	}
	sorted := append([]string(nil), knownIDs...)
	sort.Strings(sorted)
	return sorted[round%uint64(len(sorted))] == nodeID
}

// Solve iterates the nonce until the block's hash satisfies difficulty 1.
// If maxIters is non-zero, Solve gives up and returns false after that many
// nonces.
func (e *RoundRobin) Solve(ctx context.Context, b *block.Block, maxIters uint64) bool {
	b.Difficulty = 1
	for nonce := uint64(0); maxIters == 0 || nonce < maxIters; nonce++ {
		if nonce%checkInterval == 0 {
			select {
			case <-ctx.Done():
				return false
			default:
			}
		}
		b.Nonce = nonce
		if b.MeetsDifficulty() {
			return true
		}
	}
	return false
}

// OnBlockMined is a no-op: round-robin does not retarget difficulty.
func (e *RoundRobin) OnBlockMined(time.Duration) {}
