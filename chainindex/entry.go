// Package chainindex models the in-memory chain of Entry values: a header
// projection plus accumulated chainwork. Entries form an arena keyed by
// block hash rather than a tree of pointers — an entry holds its parent's
// hash, not a pointer to the parent entry — which avoids the ownership
// cycle a block/entry pointer pair would otherwise create and makes
// persistence a matter of writing each entry independently.
package chainindex

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/holiman/uint256"

	"github.com/toole-brendan/rootd/chaincfg"
	"github.com/toole-brendan/rootd/chainhash"
	"github.com/toole-brendan/rootd/wire"
)

// Entry is the in-memory projection of a header, its height, and its
// accumulated chainwork.
type Entry struct {
	Hash         chainhash.Hash
	Height       uint32
	Version      uint32
	PrevBlock    chainhash.Hash
	MerkleRoot   chainhash.Hash
	WitnessRoot  chainhash.Hash
	TreeRoot     chainhash.Hash
	ReservedRoot chainhash.Hash
	Time         uint64
	Bits         uint32
	Nonce        [wire.NonceSize]byte
	Solution     wire.Solution
	Chainwork    *uint256.Int
}

// GetProof returns the estimated hash-operation count a block with the
// given compact target represents: (1<<256) / (target+1), or zero if the
// target itself is zero.
func GetProof(bits uint32) *uint256.Int {
	target := chaincfg.CompactToTarget(bits)
	if target.IsZero() {
		return new(uint256.Int)
	}

	denom := new(uint256.Int).AddUint64(target, 1)
	// (1<<256) doesn't fit in a uint256.Int, so compute the schoolbook
	// division as ((1<<256)-1)/denom + correction, equivalent to
	// floor(2^256 / denom) for any denom in [1, 2^256].
	maxVal := new(uint256.Int).Not(new(uint256.Int)) // 2^256 - 1
	quotient := new(uint256.Int).Div(maxVal, denom)
	remainder := new(uint256.Int).Mod(maxVal, denom)
	one := uint256.NewInt(1)
	if remainder.Cmp(new(uint256.Int).Sub(denom, one)) == 0 {
		quotient.Add(quotient, one)
	}
	return quotient
}

// FromBlock derives a chain entry for block's header, given its parent
// entry. A nil parent designates the genesis block, whose height is 0 and
// whose chainwork is its own proof.
func FromBlock(block *wire.Block, parent *Entry) (*Entry, error) {
	h := block.Header
	e := &Entry{
		Hash:         h.Hash(),
		Version:      h.Version,
		PrevBlock:    h.PrevBlock,
		MerkleRoot:   h.MerkleRoot,
		WitnessRoot:  h.WitnessRoot,
		TreeRoot:     h.TreeRoot,
		ReservedRoot: h.ReservedRoot,
		Time:         h.Time,
		Bits:         h.Bits,
		Nonce:        h.Nonce,
		Solution:     block.Solution,
	}

	if parent == nil {
		e.Height = 0
		e.Chainwork = GetProof(h.Bits)
		return e, nil
	}

	if h.PrevBlock != parent.Hash {
		return nil, fmt.Errorf("chainindex: block prevBlock %s does not match parent %s", h.PrevBlock, parent.Hash)
	}
	e.Height = parent.Height + 1
	e.Chainwork = e.GetChainwork(parent)
	return e, nil
}

// GetChainwork returns prev.chainwork + proof(e.bits), or just proof(e.bits)
// if prev is nil (the genesis case).
func (e *Entry) GetChainwork(prev *Entry) *uint256.Int {
	proof := GetProof(e.Bits)
	if prev == nil {
		return proof
	}
	return new(uint256.Int).Add(prev.Chainwork, proof)
}

// IsGenesis reports whether e is the chain's height-0 entry.
func (e *Entry) IsGenesis() bool { return e.Height == 0 }

// ToHeader projects e back to a wire.BlockHeader, e.g. for peer/header-only
// distribution.
func (e *Entry) ToHeader() wire.BlockHeader {
	return wire.BlockHeader{
		Version:      e.Version,
		PrevBlock:    e.PrevBlock,
		MerkleRoot:   e.MerkleRoot,
		WitnessRoot:  e.WitnessRoot,
		TreeRoot:     e.TreeRoot,
		ReservedRoot: e.ReservedRoot,
		Time:         e.Time,
		Bits:         e.Bits,
		Nonce:        e.Nonce,
	}
}

// Encode writes e in its persisted form: hash, height, header fields,
// solution, and chainwork as a 32-byte big-endian integer.
func (e *Entry) Encode(w io.Writer) error {
	if _, err := w.Write(e.Hash[:]); err != nil {
		return err
	}
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], e.Height)
	if _, err := w.Write(u32[:]); err != nil {
		return err
	}

	header := e.ToHeader()
	if err := header.Encode(w); err != nil {
		return err
	}

	if err := e.Solution.Encode(w); err != nil {
		return err
	}

	work := e.Chainwork
	if work == nil {
		work = new(uint256.Int)
	}
	workBytes := work.Bytes32()
	if _, err := w.Write(workBytes[:]); err != nil {
		return err
	}
	return nil
}

// Decode reads an Entry in the form Encode produces. maxSolution bounds the
// Cuckoo solution length, a per-network parameter.
func Decode(r io.Reader, maxSolution uint64) (*Entry, error) {
	e := &Entry{}
	if _, err := io.ReadFull(r, e.Hash[:]); err != nil {
		return nil, err
	}
	var u32 [4]byte
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return nil, err
	}
	e.Height = binary.LittleEndian.Uint32(u32[:])

	var header wire.BlockHeader
	if err := header.Decode(r); err != nil {
		return nil, err
	}
	e.Version = header.Version
	e.PrevBlock = header.PrevBlock
	e.MerkleRoot = header.MerkleRoot
	e.WitnessRoot = header.WitnessRoot
	e.TreeRoot = header.TreeRoot
	e.ReservedRoot = header.ReservedRoot
	e.Time = header.Time
	e.Bits = header.Bits
	e.Nonce = header.Nonce

	sol, err := wire.DecodeSolution(r, maxSolution)
	if err != nil {
		return nil, err
	}
	e.Solution = sol

	var workBytes [32]byte
	if _, err := io.ReadFull(r, workBytes[:]); err != nil {
		return nil, err
	}
	e.Chainwork = new(uint256.Int).SetBytes(workBytes[:])

	return e, nil
}

// Bytes returns the persisted encoding of e.
func (e *Entry) Bytes() []byte {
	var buf bytes.Buffer
	_ = e.Encode(&buf)
	return buf.Bytes()
}
