package wire

import "github.com/toole-brendan/rootd/chainhash"

// CalcMerkleRoot computes the Merkle root over an ordered list of leaf
// hashes. An odd level duplicates its last node, following the same
// convention as Bitcoin's merkle tree. An empty list roots to the zero hash.
func CalcMerkleRoot(leaves []chainhash.Hash) chainhash.Hash {
	if len(leaves) == 0 {
		return chainhash.ZeroHash
	}
	level := make([]chainhash.Hash, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chainhash.Hash, len(level)/2)
		for i := range next {
			next[i] = chainhash.SumMulti(level[2*i][:], level[2*i+1][:])
		}
		level = next
	}
	return level[0]
}
