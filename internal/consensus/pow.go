package consensus

import (
	"context"
	"sync"
	"time"

	"github.com/klingnet-sim/ledgersim/pkg/block"
)

// checkInterval is how often the solve loop checks for cancellation, at the
// spec's <=1000-iteration bound.
const checkInterval = 1000

// PoW is the proof-of-work engine: a candidate is valid once its hash
// begins with `difficulty` hex zeros. Difficulty optionally retargets from
// a rolling window of recent solve times.
type PoW struct {
	mu sync.Mutex

	difficulty    int
	minDifficulty int
	maxDifficulty int

	targetBlockTime    time.Duration
	adjustmentInterval int
	enableAdjustment   bool
	solveTimes         []time.Duration
}

// NewPoW constructs a PoW engine at the given starting difficulty. When
// enableAdjustment is true, difficulty is retargeted every
// adjustmentInterval solves, bounded to [minDifficulty, maxDifficulty].
func NewPoW(difficulty, minDifficulty, maxDifficulty int, targetBlockTime time.Duration, adjustmentInterval int, enableAdjustment bool) *PoW {
	return &PoW{
		difficulty:         difficulty,
		minDifficulty:      minDifficulty,
		maxDifficulty:      maxDifficulty,
		targetBlockTime:    targetBlockTime,
		adjustmentInterval: adjustmentInterval,
		enableAdjustment:   enableAdjustment,
	}
}

// CurrentDifficulty returns the difficulty the next candidate must satisfy.
func (e *PoW) CurrentDifficulty() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.difficulty
}

// CanPropose is unconditionally true: any miner may attempt any block under
// proof-of-work.
func (e *PoW) CanPropose(nodeID string, knownIDs []string, round uint64) bool {
	return true
}

// Solve iterates the nonce until the block's hash satisfies the current
// difficulty, checking ctx every checkInterval iterations. If maxIters is
// non-zero, Solve gives up and returns false after that many nonces.
func (e *PoW) Solve(ctx context.Context, b *block.Block, maxIters uint64) bool {
	b.Difficulty = e.CurrentDifficulty()
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

// OnBlockMined feeds solveTime into the rolling retarget window. If enough
// samples have accumulated, it adjusts difficulty: average solve time below
// half the target bumps difficulty up (bounded by maxDifficulty); above
// double the target drops it (bounded by minDifficulty); otherwise it is
// left unchanged. The window then resets.
func (e *PoW) OnBlockMined(solveTime time.Duration) {
	if !e.enableAdjustment {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.solveTimes = append(e.solveTimes, solveTime)
	if len(e.solveTimes) < e.adjustmentInterval {
		return
	}

	var total time.Duration
	for _, d := range e.solveTimes {
		total += d
	}
	avg := total / time.Duration(len(e.solveTimes))

	switch {
	case avg < e.targetBlockTime/2:
		if e.difficulty < e.maxDifficulty {
			e.difficulty++
		}
	case avg > e.targetBlockTime*2:
		if e.difficulty > e.minDifficulty {
			e.difficulty--
		}
	}
	e.solveTimes = e.solveTimes[:0]
}
