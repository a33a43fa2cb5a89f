package block

import (
	"testing"

	"github.com/klingnet-sim/ledgersim/pkg/crypto"
	"github.com/klingnet-sim/ledgersim/pkg/types"
)

func TestMerkleRoot_Empty(t *testing.T) {
	got := MerkleRoot(nil)
	want := crypto.Hash([]byte{})
	if got != want {
		t.Errorf("MerkleRoot(nil) = %x, want SHA-256('') = %x", got, want)
	}
}

func TestMerkleRoot_Singleton(t *testing.T) {
	leaf := crypto.Hash([]byte("solo"))
	got := MerkleRoot([]types.Hash{leaf})
	if got != leaf {
		t.Errorf("MerkleRoot(singleton) = %x, want leaf %x", got, leaf)
	}
}

func TestMerkleRoot_Deterministic(t *testing.T) {
	leaves := []types.Hash{
		crypto.Hash([]byte("a")),
		crypto.Hash([]byte("b")),
		crypto.Hash([]byte("c")),
	}
	r1 := MerkleRoot(leaves)
	r2 := MerkleRoot(leaves)
	if r1 != r2 {
		t.Error("MerkleRoot should be deterministic")
	}
}

func TestMerkleRoot_OddFanInPadsWithLastLeaf(t *testing.T) {
	leaves := []types.Hash{
		crypto.Hash([]byte("a")),
		crypto.Hash([]byte("b")),
		crypto.Hash([]byte("c")),
	}
	manual := crypto.HashConcat(
		crypto.HashConcat(leaves[0], leaves[1]),
		crypto.HashConcat(leaves[2], leaves[2]),
	)
	if MerkleRoot(leaves) != manual {
		t.Errorf("MerkleRoot with odd fan-in = %x, want %x", MerkleRoot(leaves), manual)
	}
}

func TestMerkleProof_VerifiesForEveryLeaf(t *testing.T) {
	leaves := []types.Hash{
		crypto.Hash([]byte("a")),
		crypto.Hash([]byte("b")),
		crypto.Hash([]byte("c")),
		crypto.Hash([]byte("d")),
		crypto.Hash([]byte("e")),
	}
	root := MerkleRoot(leaves)
	for i, leaf := range leaves {
		proof, err := MerkleProof(leaves, i)
		if err != nil {
			t.Fatalf("MerkleProof(%d) error: %v", i, err)
		}
		if !VerifyProof(leaf, proof, root) {
			t.Errorf("VerifyProof failed for leaf index %d", i)
		}
	}
}

func TestMerkleProof_OutOfRange(t *testing.T) {
	leaves := []types.Hash{crypto.Hash([]byte("a"))}
	if _, err := MerkleProof(leaves, 5); err != ErrIndexOutOfRange {
		t.Errorf("MerkleProof(out of range) = %v, want ErrIndexOutOfRange", err)
	}
}

func TestMerkleProof_WrongLeafFailsVerification(t *testing.T) {
	leaves := []types.Hash{
		crypto.Hash([]byte("a")),
		crypto.Hash([]byte("b")),
	}
	root := MerkleRoot(leaves)
	proof, err := MerkleProof(leaves, 0)
	if err != nil {
		t.Fatalf("MerkleProof error: %v", err)
	}
	wrongLeaf := crypto.Hash([]byte("not a leaf"))
	if VerifyProof(wrongLeaf, proof, root) {
		t.Error("VerifyProof should fail for a leaf not in the tree")
	}
}
