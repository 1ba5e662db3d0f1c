package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/toole-brendan/rootd/chainhash"
)

// HeaderSize is the exact encoded size of a BlockHeader: any deviation is a
// parse error, per spec 4.C.
const HeaderSize = 196

// NonceSize is the length of the nonce field, sized to accommodate Cuckoo
// Cycle's header expansion needs rather than the 4 bytes of a SHA-based PoW.
const NonceSize = 20

// BlockHeader is the fixed, 196-byte block header.
type BlockHeader struct {
	Version      uint32
	PrevBlock    chainhash.Hash
	MerkleRoot   chainhash.Hash
	WitnessRoot  chainhash.Hash
	TreeRoot     chainhash.Hash
	ReservedRoot chainhash.Hash // unused, reserved for a future commitment
	Time         uint64
	Bits         uint32
	Nonce        [NonceSize]byte
}

// Encode writes the header in its fixed 196-byte wire layout.
func (h *BlockHeader) Encode(w io.Writer) error {
	var buf [HeaderSize]byte
	off := 0

	binary.LittleEndian.PutUint32(buf[off:], h.Version)
	off += 4
	copy(buf[off:], h.PrevBlock[:])
	off += chainhash.HashSize
	copy(buf[off:], h.MerkleRoot[:])
	off += chainhash.HashSize
	copy(buf[off:], h.WitnessRoot[:])
	off += chainhash.HashSize
	copy(buf[off:], h.TreeRoot[:])
	off += chainhash.HashSize
	copy(buf[off:], h.ReservedRoot[:])
	off += chainhash.HashSize
	binary.LittleEndian.PutUint64(buf[off:], h.Time)
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], h.Bits)
	off += 4
	copy(buf[off:], h.Nonce[:])
	off += NonceSize

	if off != HeaderSize {
		panic(fmt.Sprintf("wire: header encoder wrote %d bytes, want %d", off, HeaderSize))
	}

	_, err := w.Write(buf[:])
	return err
}

// Decode reads a header from its fixed 196-byte wire layout. It returns an
// error on a short read; any bytes after the header are left unread, since
// Decode only ever consumes exactly HeaderSize bytes.
func (h *BlockHeader) Decode(r io.Reader) error {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return fmt.Errorf("wire: decode header: %w", err)
	}

	off := 0
	h.Version = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	copy(h.PrevBlock[:], buf[off:])
	off += chainhash.HashSize
	copy(h.MerkleRoot[:], buf[off:])
	off += chainhash.HashSize
	copy(h.WitnessRoot[:], buf[off:])
	off += chainhash.HashSize
	copy(h.TreeRoot[:], buf[off:])
	off += chainhash.HashSize
	copy(h.ReservedRoot[:], buf[off:])
	off += chainhash.HashSize
	h.Time = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	h.Bits = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	copy(h.Nonce[:], buf[off:])

	return nil
}

// Bytes returns the encoded 196-byte header.
func (h *BlockHeader) Bytes() []byte {
	// Encode into a plain slice rather than bytes.Buffer: the size is fixed
	// and known, so there is nothing to grow.
	buf := make([]byte, 0, HeaderSize)
	bw := &sliceWriter{buf: buf}
	_ = h.Encode(bw)
	return bw.buf
}

// Hash returns blake2b(header_bytes), the block hash.
func (h *BlockHeader) Hash() chainhash.Hash {
	return chainhash.Sum(h.Bytes())
}

// sliceWriter adapts a byte slice to io.Writer without an intermediate
// bytes.Buffer allocation.
type sliceWriter struct{ buf []byte }

func (s *sliceWriter) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}
