// Package chainhash defines the 32-byte hash type used throughout rootd and
// the blake2b-based hashing primitives consensus depends on.
//
// Unlike the sha256d hashes used by btcd-derived chains, every hash in this
// chain is a single blake2b-256 digest: block headers, transactions, name
// hashes and bid blinds all share the same primitive.
package chainhash

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// HashSize is the size, in bytes, of a hash produced by this package.
const HashSize = 32

// Hash is a 32-byte blake2b digest.
type Hash [HashSize]byte

// ZeroHash is the all-zero hash. It is the designated null/parent-of-genesis
// value and the conventional "no value" sentinel for optional hash fields.
var ZeroHash = Hash{}

// String returns the lowercase hex encoding of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is the all-zero sentinel.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// CloneBytes returns a newly allocated copy of the hash bytes.
func (h Hash) CloneBytes() []byte {
	out := make([]byte, HashSize)
	copy(out, h[:])
	return out
}

// SetBytes copies src into the hash. It returns an error if src is not
// exactly HashSize bytes.
func (h *Hash) SetBytes(src []byte) error {
	if len(src) != HashSize {
		return fmt.Errorf("chainhash: invalid hash length %d, expected %d", len(src), HashSize)
	}
	copy(h[:], src)
	return nil
}

// NewHash returns a new Hash built from b, which must be HashSize bytes.
func NewHash(b []byte) (*Hash, error) {
	var h Hash
	if err := h.SetBytes(b); err != nil {
		return nil, err
	}
	return &h, nil
}

// NewHashFromStr decodes a lowercase-hex-encoded hash string.
func NewHashFromStr(s string) (*Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("chainhash: %w", err)
	}
	return NewHash(b)
}

// mustHashFromStr converts a hard-coded hex string into a Hash and panics on
// error. It exists for package-level test-vector and constant declarations
// where the input is always known-good.
func mustHashFromStr(s string) Hash {
	h, err := NewHashFromStr(s)
	if err != nil {
		panic(err)
	}
	return *h
}

// Sum hashes data with blake2b-256.
func Sum(data []byte) Hash {
	return Hash(blake2b.Sum256(data))
}

// SumMulti hashes the concatenation of every part with blake2b-256, without
// materializing the concatenated buffer.
func SumMulti(parts ...[]byte) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails for an oversized key, and we never pass one.
		panic(err)
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// NameHash returns the auction-store key for a root name: blake2b(name).
func NameHash(name string) Hash {
	return Sum([]byte(name))
}
