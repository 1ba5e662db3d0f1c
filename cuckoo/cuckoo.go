// Package cuckoo verifies Cuckoo Cycle proof-of-work solutions: a claimed
// closed cycle of fixed length in a bipartite graph keyed by the block
// header. It only verifies; it never searches for a solution.
//
// No third-party library in the reviewed ecosystem implements Cuckoo Cycle,
// so the graph and the SipHash-2-4 keystream it is built on are implemented
// directly against the algorithm description rather than against a vendored
// dependency.
package cuckoo

import (
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/blake2b"

	"github.com/toole-brendan/rootd/chaincfg"
	"github.com/toole-brendan/rootd/wire"
)

var (
	// ErrWrongLength is returned when the solution's edge count does not
	// match the network's cycle length parameter.
	ErrWrongLength = errors.New("cuckoo: solution length does not match network cycle size")
	// ErrNotIncreasing is returned when solution edges are not strictly
	// increasing, which a canonical solution always is.
	ErrNotIncreasing = errors.New("cuckoo: solution edges are not strictly increasing")
	// ErrEdgeOutOfRange is returned when an edge index exceeds the graph's
	// easiness-scaled edge space.
	ErrEdgeOutOfRange = errors.New("cuckoo: edge index out of range")
	// ErrNotCycle is returned when the solution's edges do not form a
	// single closed cycle covering every node exactly twice.
	ErrNotCycle = errors.New("cuckoo: solution is not a single closed cycle")
)

// deriveKeys turns header bytes (which already embed the nonce) into the
// two 64-bit SipHash keys that seed the graph.
func deriveKeys(headerBytes []byte) (k0, k1 uint64) {
	sum := blake2b.Sum256(headerBytes)
	k0 = binary.LittleEndian.Uint64(sum[0:8])
	k1 = binary.LittleEndian.Uint64(sum[8:16])
	return k0, k1
}

func rotl(x uint64, b uint) uint64 {
	return (x << b) | (x >> (64 - b))
}

func sipround(v0, v1, v2, v3 *uint64) {
	*v0 += *v1
	*v1 = rotl(*v1, 13)
	*v1 ^= *v0
	*v0 = rotl(*v0, 32)
	*v2 += *v3
	*v3 = rotl(*v3, 16)
	*v3 ^= *v2
	*v0 += *v3
	*v3 = rotl(*v3, 21)
	*v3 ^= *v0
	*v2 += *v1
	*v1 = rotl(*v1, 17)
	*v1 ^= *v2
	*v2 = rotl(*v2, 32)
}

// siphash24 is SipHash-2-4 over a single 64-bit input block.
func siphash24(k0, k1, nonce uint64) uint64 {
	v0 := k0 ^ 0x736f6d6570736575
	v1 := k1 ^ 0x646f72616e646f6d
	v2 := k0 ^ 0x6c7967656e657261
	v3 := k1 ^ 0x7465646279746573 ^ nonce

	sipround(&v0, &v1, &v2, &v3)
	sipround(&v0, &v1, &v2, &v3)
	v0 ^= nonce
	v2 ^= 0xff
	for i := 0; i < 4; i++ {
		sipround(&v0, &v1, &v2, &v3)
	}
	return v0 ^ v1 ^ v2 ^ v3
}

// sipnode maps an edge index and side (0 = U, 1 = V) to a node index within
// [0, 1<<edgeBits).
func sipnode(k0, k1 uint64, edge uint32, side uint64, edgeBits uint32) uint64 {
	nonce := uint64(edge)<<1 | side
	mask := uint64(1)<<edgeBits - 1
	return siphash24(k0, k1, nonce) & mask
}

// Verify checks that solution is a valid closed cycle of params.Size edges
// in the Cuckoo graph seeded by headerBytes. headerBytes is the full
// 196-byte encoded header, nonce included.
func Verify(headerBytes []byte, solution wire.Solution, params chaincfg.CuckooParams) error {
	if uint32(len(solution)) != params.Size {
		return ErrWrongLength
	}

	k0, k1 := deriveKeys(headerBytes)
	maxEdge := (uint64(1) << params.Bits) * uint64(params.Ease) / 100

	u := make([]uint64, len(solution))
	v := make([]uint64, len(solution))
	nodeOffset := uint64(1) << params.Bits
	for i, e := range solution {
		if i > 0 && solution[i] <= solution[i-1] {
			return ErrNotIncreasing
		}
		if uint64(e) >= maxEdge {
			return ErrEdgeOutOfRange
		}
		u[i] = sipnode(k0, k1, e, 0, params.Bits)
		v[i] = sipnode(k0, k1, e, 1, params.Bits) + nodeOffset
	}

	adj := make(map[uint64][2]int, 2*len(solution))
	degree := make(map[uint64]int, 2*len(solution))
	addEdge := func(node uint64, edge int) {
		d := degree[node]
		if d < 2 {
			e := adj[node]
			e[d] = edge
			adj[node] = e
		}
		degree[node] = d + 1
	}
	for i := range solution {
		addEdge(u[i], i)
		addEdge(v[i], i)
	}
	for _, d := range degree {
		if d != 2 {
			return ErrNotCycle
		}
	}

	visited := make([]bool, len(solution))
	visited[0] = true
	cur := 0
	count := 1
	onV := true
	for {
		var node uint64
		if onV {
			node = v[cur]
		} else {
			node = u[cur]
		}
		pair := adj[node]
		next := pair[0]
		if next == cur {
			next = pair[1]
		}
		if next == 0 {
			break
		}
		if visited[next] {
			return ErrNotCycle
		}
		visited[next] = true
		count++
		cur = next
		onV = !onV
	}

	if count != len(solution) {
		return ErrNotCycle
	}
	log.Tracef("verified cuckoo cycle of length %d", len(solution))
	return nil
}
