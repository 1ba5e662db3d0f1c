package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/toole-brendan/rootd/chainhash"
)

// MaxAddressHash is the maximum length of an Address.Hash, per spec 3.
const MaxAddressHash = 64

// MaxCovenantItems bounds the number of items an encoded covenant may carry.
// The exact per-type arities are enforced by the covenant package; this is
// only the wire-level sanity bound referenced by spec 3's "consensus-bounded"
// covenant size.
const MaxCovenantItems = 32

// MaxCovenantItemSize bounds a single covenant item's length.
const MaxCovenantItemSize = 512

// OutPoint identifies a previous transaction output being spent.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

func (o *OutPoint) Encode(w io.Writer) error {
	if _, err := w.Write(o.Hash[:]); err != nil {
		return err
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], o.Index)
	_, err := w.Write(buf[:])
	return err
}

func (o *OutPoint) Decode(r io.Reader) error {
	if _, err := io.ReadFull(r, o.Hash[:]); err != nil {
		return err
	}
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	o.Index = binary.LittleEndian.Uint32(buf[:])
	return nil
}

// Input spends a previous output. Its witness is serialized out-of-band (see
// Transaction) and therefore omitted here.
type Input struct {
	Prevout  OutPoint
	Sequence uint32
}

func (in *Input) Encode(w io.Writer) error {
	if err := in.Prevout.Encode(w); err != nil {
		return err
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], in.Sequence)
	_, err := w.Write(buf[:])
	return err
}

func (in *Input) Decode(r io.Reader) error {
	if err := in.Prevout.Decode(r); err != nil {
		return err
	}
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	in.Sequence = binary.LittleEndian.Uint32(buf[:])
	return nil
}

// Witness is the stack of signature-script-like items satisfying one input.
type Witness [][]byte

func (wt Witness) Encode(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(wt))); err != nil {
		return err
	}
	for _, item := range wt {
		if err := WriteVarBytes(w, item); err != nil {
			return err
		}
	}
	return nil
}

func DecodeWitness(r io.Reader) (Witness, error) {
	n, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	out := make(Witness, n)
	for i := range out {
		item, err := ReadVarBytes(r, MaxRawBlockSize)
		if err != nil {
			return nil, err
		}
		out[i] = item
	}
	return out, nil
}

// Address is a version-tagged hash, analogous to a Bitcoin witness program.
type Address struct {
	Version uint8
	Hash    []byte
}

func (a *Address) Encode(w io.Writer) error {
	if len(a.Hash) > MaxAddressHash {
		return fmt.Errorf("wire: address hash length %d exceeds max %d", len(a.Hash), MaxAddressHash)
	}
	if _, err := w.Write([]byte{a.Version}); err != nil {
		return err
	}
	return WriteVarBytes(w, a.Hash)
}

func (a *Address) Decode(r io.Reader) error {
	var v [1]byte
	if _, err := io.ReadFull(r, v[:]); err != nil {
		return err
	}
	a.Version = v[0]
	hash, err := ReadVarBytes(r, MaxAddressHash)
	if err != nil {
		return err
	}
	a.Hash = hash
	return nil
}

// Covenant is the wire-level, schema-agnostic covenant envelope: a type tag
// plus an ordered list of length-prefixed items. Per-type arity and
// semantics are validated by the covenant package, not here — this package
// only guarantees a faithful, bounded round trip.
type Covenant struct {
	Type  uint8
	Items [][]byte
}

func (c *Covenant) Encode(w io.Writer) error {
	if len(c.Items) > MaxCovenantItems {
		return fmt.Errorf("wire: covenant item count %d exceeds max %d", len(c.Items), MaxCovenantItems)
	}
	if _, err := w.Write([]byte{c.Type}); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(c.Items))); err != nil {
		return err
	}
	for _, item := range c.Items {
		if len(item) > MaxCovenantItemSize {
			return fmt.Errorf("wire: covenant item length %d exceeds max %d", len(item), MaxCovenantItemSize)
		}
		if err := WriteVarBytes(w, item); err != nil {
			return err
		}
	}
	return nil
}

func (c *Covenant) Decode(r io.Reader) error {
	var t [1]byte
	if _, err := io.ReadFull(r, t[:]); err != nil {
		return err
	}
	c.Type = t[0]

	n, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if n > MaxCovenantItems {
		return fmt.Errorf("wire: covenant item count %d exceeds max %d", n, MaxCovenantItems)
	}
	var items [][]byte
	if n > 0 {
		items = make([][]byte, n)
	}
	for i := range items {
		item, err := ReadVarBytes(r, MaxCovenantItemSize)
		if err != nil {
			return err
		}
		items[i] = item
	}
	c.Items = items
	return nil
}

// Output carries value, a destination address, and a covenant.
type Output struct {
	Value    uint64
	Address  Address
	Covenant Covenant
}

func (o *Output) Encode(w io.Writer) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], o.Value)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	if err := o.Address.Encode(w); err != nil {
		return err
	}
	return o.Covenant.Encode(w)
}

func (o *Output) Decode(r io.Reader) error {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	o.Value = binary.LittleEndian.Uint64(buf[:])
	if err := o.Address.Decode(r); err != nil {
		return err
	}
	return o.Covenant.Decode(r)
}

// Transaction is version:u32 | inputs | outputs | locktime:u32, with witness
// data for each input serialized separately and committed via WitnessHash
// rather than Hash.
type Transaction struct {
	Version   uint32
	Inputs    []Input
	Outputs   []Output
	Locktime  uint32
	Witnesses []Witness // len(Witnesses) == len(Inputs)
}

// encodeBase writes version|inputs|outputs|locktime, omitting witness data.
func (tx *Transaction) encodeBase(w io.Writer) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], tx.Version)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}

	if err := WriteVarInt(w, uint64(len(tx.Inputs))); err != nil {
		return err
	}
	for i := range tx.Inputs {
		if err := tx.Inputs[i].Encode(w); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(tx.Outputs))); err != nil {
		return err
	}
	for i := range tx.Outputs {
		if err := tx.Outputs[i].Encode(w); err != nil {
			return err
		}
	}

	binary.LittleEndian.PutUint32(buf[:], tx.Locktime)
	_, err := w.Write(buf[:])
	return err
}

// Encode writes the full transaction, base fields followed by the witness
// section.
func (tx *Transaction) Encode(w io.Writer) error {
	if err := tx.encodeBase(w); err != nil {
		return err
	}
	for _, wt := range tx.Witnesses {
		if err := wt.Encode(w); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a full transaction including its witness section.
func (tx *Transaction) Decode(r io.Reader) error {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	tx.Version = binary.LittleEndian.Uint32(buf[:])

	nIn, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	tx.Inputs = nil
	if nIn > 0 {
		tx.Inputs = make([]Input, nIn)
	}
	for i := range tx.Inputs {
		if err := tx.Inputs[i].Decode(r); err != nil {
			return err
		}
	}

	nOut, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	tx.Outputs = nil
	if nOut > 0 {
		tx.Outputs = make([]Output, nOut)
	}
	for i := range tx.Outputs {
		if err := tx.Outputs[i].Decode(r); err != nil {
			return err
		}
	}

	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	tx.Locktime = binary.LittleEndian.Uint32(buf[:])

	tx.Witnesses = nil
	if nIn > 0 {
		tx.Witnesses = make([]Witness, nIn)
	}
	for i := range tx.Witnesses {
		wt, err := DecodeWitness(r)
		if err != nil {
			return err
		}
		tx.Witnesses[i] = wt
	}

	return nil
}

// Bytes returns the full (witness-included) encoding.
func (tx *Transaction) Bytes() []byte {
	sw := &sliceWriter{}
	_ = tx.Encode(sw)
	return sw.buf
}

// BaseBytes returns the witness-free encoding used for Hash.
func (tx *Transaction) BaseBytes() []byte {
	sw := &sliceWriter{}
	_ = tx.encodeBase(sw)
	return sw.buf
}

// Hash is the transaction hash, which omits witness data.
func (tx *Transaction) Hash() chainhash.Hash {
	return chainhash.Sum(tx.BaseBytes())
}

// WitnessHash is the witness-committing hash, which includes witness data.
func (tx *Transaction) WitnessHash() chainhash.Hash {
	return chainhash.Sum(tx.Bytes())
}

// IsCoinBase reports whether tx is a coinbase transaction: exactly one
// input, spending the null outpoint.
func (tx *Transaction) IsCoinBase() bool {
	if len(tx.Inputs) != 1 {
		return false
	}
	in := tx.Inputs[0]
	return in.Prevout.Hash.IsZero() && in.Prevout.Index == 0xffffffff
}
