package genesis

import (
	"bytes"
	"encoding/binary"

	"github.com/toole-brendan/rootd/wire"
)

// Resource is the canonical {ttl, ds, glue} DNS resource-record payload a
// REGISTER covenant carries, per spec.md 4.E.
type Resource struct {
	TTL  uint32
	DS   []byte
	Glue []byte
}

// Encode returns the canonical byte encoding of r: ttl as a little-endian
// u32, then DS and Glue as compact-size-prefixed byte strings, matching the
// length-prefixing convention the rest of this module's codec uses.
func (r Resource) Encode() []byte {
	var buf bytes.Buffer
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], r.TTL)
	buf.Write(u32[:])
	_ = wire.WriteVarBytes(&buf, r.DS)
	_ = wire.WriteVarBytes(&buf, r.Glue)
	return buf.Bytes()
}

// DecodeResource is the inverse of Resource.Encode.
func DecodeResource(raw []byte) (Resource, error) {
	r := bytes.NewReader(raw)
	var u32 [4]byte
	if _, err := r.Read(u32[:]); err != nil {
		return Resource{}, err
	}
	ttl := binary.LittleEndian.Uint32(u32[:])
	ds, err := wire.ReadVarBytes(r, wire.MaxCovenantItemSize)
	if err != nil {
		return Resource{}, err
	}
	glue, err := wire.ReadVarBytes(r, wire.MaxCovenantItemSize)
	if err != nil {
		return Resource{}, err
	}
	return Resource{TTL: ttl, DS: ds, Glue: glue}, nil
}

// NameEntry is one root-zone snapshot record: a reserved name and its
// initial resource.
type NameEntry struct {
	Name     string
	Resource Resource
}
