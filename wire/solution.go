package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Solution is a fixed-arity sequence of 32-bit edge indices: the Cuckoo
// Cycle proof-of-work solution attached to a header.
type Solution []uint32

// Encode writes the solution as a compact-size count followed by
// little-endian u32 edge indices.
func (s Solution) Encode(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(s))); err != nil {
		return err
	}
	var buf [4]byte
	for _, edge := range s {
		binary.LittleEndian.PutUint32(buf[:], edge)
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

// DecodeSolution reads a solution, rejecting a declared length over maxLen.
func DecodeSolution(r io.Reader, maxLen uint64) (Solution, error) {
	n, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if n > maxLen {
		return nil, fmt.Errorf("wire: solution length %d exceeds max %d", n, maxLen)
	}

	out := make(Solution, n)
	var buf [4]byte
	for i := range out {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		out[i] = binary.LittleEndian.Uint32(buf[:])
	}
	return out, nil
}
