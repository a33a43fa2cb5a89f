package block

import (
	"errors"

	"github.com/klingnet-sim/ledgersim/pkg/crypto"
	"github.com/klingnet-sim/ledgersim/pkg/types"
)

// Side identifies which side of a pairwise hash a sibling sits on.
type Side int

const (
	Left Side = iota
	Right
)

// ProofStep is one step of a merkle inclusion proof: the sibling hash at
// this level and which side it sits on relative to the node being proven.
type ProofStep struct {
	Sibling types.Hash
	Side    Side
}

// ErrIndexOutOfRange is returned by MerkleProof for an out-of-bounds leaf index.
var ErrIndexOutOfRange = errors.New("block: leaf index out of range")

// MerkleRoot computes the root over a set of leaf hashes, duplicating the
// last leaf at each level when the fan-in is odd. The root of an empty list
// is the SHA-256 hash of the empty string; a singleton list's root is the
// leaf itself.
func MerkleRoot(leaves []types.Hash) types.Hash {
	if len(leaves) == 0 {
		return crypto.Hash([]byte{})
	}
	level := append([]types.Hash(nil), leaves...)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]types.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = crypto.HashConcat(level[i], level[i+1])
		}
		level = next
	}
	return level[0]
}

// MerkleProof builds the inclusion proof for the leaf at index: a sequence
// of (sibling_hash, side) pairs of length ceil(log2 n), from leaf level to
// root.
func MerkleProof(leaves []types.Hash, index int) ([]ProofStep, error) {
	if index < 0 || index >= len(leaves) {
		return nil, ErrIndexOutOfRange
	}
	level := append([]types.Hash(nil), leaves...)
	var proof []ProofStep
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		var sibling types.Hash
		var side Side
		if index%2 == 0 {
			sibling = level[index+1]
			side = Right
		} else {
			sibling = level[index-1]
			side = Left
		}
		proof = append(proof, ProofStep{Sibling: sibling, Side: side})

		next := make([]types.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = crypto.HashConcat(level[i], level[i+1])
		}
		level = next
		index /= 2
	}
	return proof, nil
}

// VerifyProof recomputes the root from a leaf and its proof and compares it
// against the expected root.
func VerifyProof(leaf types.Hash, proof []ProofStep, root types.Hash) bool {
	current := leaf
	for _, step := range proof {
		switch step.Side {
		case Left:
			current = crypto.HashConcat(step.Sibling, current)
		case Right:
			current = crypto.HashConcat(current, step.Sibling)
		}
	}
	return current == root
}
