package wire

import (
	"fmt"
	"io"

	"github.com/toole-brendan/rootd/chainhash"
)

// MaxBlockTransactions bounds how many transactions Decode will allocate
// for, guarding against a crafted count driving an oversized allocation.
// The real consensus bound on block contents is MaxRawBlockSize in bytes;
// this is a defensive ceiling on the count alone.
const MaxBlockTransactions = MaxRawBlockSize / 64

// Block is a header plus its transactions, including coinbase.
type Block struct {
	Header       BlockHeader
	Solution     Solution
	Transactions []Transaction
}

// Encode writes the header, its Cuckoo solution, and then every transaction.
func (b *Block) Encode(w io.Writer) error {
	if err := b.Header.Encode(w); err != nil {
		return err
	}
	if err := b.Solution.Encode(w); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(b.Transactions))); err != nil {
		return err
	}
	for i := range b.Transactions {
		if err := b.Transactions[i].Encode(w); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a block. maxSolution bounds the Cuckoo solution length,
// which is a per-network parameter the caller must supply.
func (b *Block) Decode(r io.Reader, maxSolution uint64) error {
	if err := b.Header.Decode(r); err != nil {
		return err
	}
	sol, err := DecodeSolution(r, maxSolution)
	if err != nil {
		return err
	}
	b.Solution = sol

	n, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if n > MaxBlockTransactions {
		return fmt.Errorf("wire: block transaction count %d exceeds max %d", n, MaxBlockTransactions)
	}
	b.Transactions = make([]Transaction, n)
	for i := range b.Transactions {
		if err := b.Transactions[i].Decode(r); err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns the full encoded block.
func (b *Block) Bytes() []byte {
	sw := &sliceWriter{}
	_ = b.Encode(sw)
	return sw.buf
}

// Hash is the header hash.
func (b *Block) Hash() chainhash.Hash {
	return b.Header.Hash()
}

// CalcMerkleRoot computes the root over each transaction's witness-free
// hash, in transaction order.
func (b *Block) CalcMerkleRoot() chainhash.Hash {
	leaves := make([]chainhash.Hash, len(b.Transactions))
	for i := range b.Transactions {
		leaves[i] = b.Transactions[i].Hash()
	}
	return CalcMerkleRoot(leaves)
}

// CalcWitnessRoot computes the root over each transaction's witness-
// committing hash, in transaction order. The coinbase's witness hash is
// replaced with the zero hash in its own leaf position per the usual
// segwit-style convention, since the coinbase commits the witness root
// itself and cannot commit to its own hash.
func (b *Block) CalcWitnessRoot() chainhash.Hash {
	leaves := make([]chainhash.Hash, len(b.Transactions))
	for i := range b.Transactions {
		if i == 0 && b.Transactions[i].IsCoinBase() {
			leaves[i] = chainhash.ZeroHash
			continue
		}
		leaves[i] = b.Transactions[i].WitnessHash()
	}
	return CalcMerkleRoot(leaves)
}
