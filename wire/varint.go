// Package wire implements the bit-exact wire encoding for every on-chain
// type: headers, transactions, covenants, solutions and blocks.
//
// All integers are little-endian unless stated otherwise. Variable-length
// sequences are prefixed with a compact-size length, following the same
// scheme btcd-derived wire codecs use.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxVarIntPayload bounds how large a compact-size-prefixed payload this
// codec will ever allocate for, guarding against a crafted length prefix
// driving an out-of-memory allocation.
const MaxVarIntPayload = MaxRawBlockSize

// MaxRawBlockSize mirrors chaincfg.MaxRawBlockSize as a local copy; wire
// does not import chaincfg.
const MaxRawBlockSize = 4_000_000

// WriteVarInt writes n to w using the compact-size encoding.
func WriteVarInt(w io.Writer, n uint64) error {
	var buf [9]byte
	switch {
	case n < 0xfd:
		buf[0] = byte(n)
		_, err := w.Write(buf[:1])
		return err
	case n <= 0xffff:
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:], uint16(n))
		_, err := w.Write(buf[:3])
		return err
	case n <= 0xffffffff:
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:], uint32(n))
		_, err := w.Write(buf[:5])
		return err
	default:
		buf[0] = 0xff
		binary.LittleEndian.PutUint64(buf[1:], n)
		_, err := w.Write(buf[:9])
		return err
	}
}

// ReadVarInt reads a compact-size-encoded integer from r.
func ReadVarInt(r io.Reader) (uint64, error) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, err
	}

	switch prefix[0] {
	case 0xff:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(b[:]), nil
	case 0xfe:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(b[:])), nil
	case 0xfd:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(b[:])), nil
	default:
		return uint64(prefix[0]), nil
	}
}

// WriteVarBytes writes a compact-size length prefix followed by b.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadVarBytes reads a compact-size-prefixed byte string, rejecting a
// declared length over maxLen.
func ReadVarBytes(r io.Reader, maxLen uint64) ([]byte, error) {
	n, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if n > maxLen {
		log.Debugf("rejecting var bytes: declared length %d exceeds max %d", n, maxLen)
		return nil, fmt.Errorf("wire: var bytes length %d exceeds max %d", n, maxLen)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
