// Package covenant gives the wire-level covenant envelope its consensus
// meaning: a fixed positional schema per type, and the accessors the
// auction state machine uses instead of indexing into raw item slices.
package covenant

import (
	"fmt"

	"github.com/toole-brendan/rootd/chainhash"
	"github.com/toole-brendan/rootd/wire"
)

// Type identifies a covenant's role in the name-auction state machine.
type Type uint8

const (
	NONE Type = iota
	CLAIM
	BID
	REVEAL
	REDEEM
	REGISTER
	UPDATE
	RENEW
	TRANSFER
	FINALIZE
	REVOKE
)

func (t Type) String() string {
	switch t {
	case NONE:
		return "NONE"
	case CLAIM:
		return "CLAIM"
	case BID:
		return "BID"
	case REVEAL:
		return "REVEAL"
	case REDEEM:
		return "REDEEM"
	case REGISTER:
		return "REGISTER"
	case UPDATE:
		return "UPDATE"
	case RENEW:
		return "RENEW"
	case TRANSFER:
		return "TRANSFER"
	case FINALIZE:
		return "FINALIZE"
	case REVOKE:
		return "REVOKE"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// arity is the fixed positional item count for each covenant type, per
// spec.md's covenant table. Covenants carry no variable-length item lists:
// every type's shape is known up front, which is what lets decode-time
// validation reject a mis-shaped covenant before it ever reaches the
// auction state machine.
var arity = map[Type]int{
	NONE:     0,
	CLAIM:    1, // name
	BID:      2, // name, blind
	REVEAL:   2, // name, nonce
	REDEEM:   1, // name
	REGISTER: 3, // name, resource, treeHash
	UPDATE:   2, // name, resource
	RENEW:    2, // name, blockHash
	TRANSFER: 2, // name, address
	FINALIZE: 1, // name
	REVOKE:   1, // name
}

// FromWire validates a raw wire.Covenant against its type's schema and
// returns the typed view used by the rest of the package.
func FromWire(c wire.Covenant) (Covenant, error) {
	t := Type(c.Type)
	want, ok := arity[t]
	if !ok {
		return Covenant{}, fmt.Errorf("covenant: unknown type %d", c.Type)
	}
	if len(c.Items) != want {
		log.Debugf("rejecting covenant %s: expected %d items, got %d", t, want, len(c.Items))
		return Covenant{}, fmt.Errorf("covenant: %s requires %d items, got %d", t, want, len(c.Items))
	}
	return Covenant{Type: t, Items: c.Items}, nil
}

// ToWire lowers a typed Covenant back to its wire envelope.
func (c Covenant) ToWire() wire.Covenant {
	return wire.Covenant{Type: uint8(c.Type), Items: c.Items}
}

// Covenant is the schema-validated, positionally-addressable covenant.
type Covenant struct {
	Type  Type
	Items [][]byte
}

// New builds a Covenant of the given type from positional items, validating
// arity immediately so malformed covenants can never be constructed.
func New(t Type, items ...[]byte) (Covenant, error) {
	want, ok := arity[t]
	if !ok {
		return Covenant{}, fmt.Errorf("covenant: unknown type %d", uint8(t))
	}
	if len(items) != want {
		return Covenant{}, fmt.Errorf("covenant: %s requires %d items, got %d", t, want, len(items))
	}
	return Covenant{Type: t, Items: items}, nil
}

func (c Covenant) item(i int) []byte {
	if i >= len(c.Items) {
		return nil
	}
	return c.Items[i]
}

// Name returns the covenant's name item as a string, for every type whose
// first item is a name (all but NONE).
func (c Covenant) Name() string { return string(c.item(0)) }

// NameHash is blake2b(name), the auction store key.
func (c Covenant) NameHash() chainhash.Hash { return chainhash.NameHash(c.Name()) }

// Blind returns the BID covenant's blind commitment.
func (c Covenant) Blind() chainhash.Hash {
	var h chainhash.Hash
	copy(h[:], c.item(1))
	return h
}

// Nonce returns the REVEAL covenant's nonce.
func (c Covenant) Nonce() []byte { return c.item(1) }

// Resource returns the REGISTER/UPDATE covenant's resource-record payload.
func (c Covenant) Resource() []byte { return c.item(1) }

// TreeHash returns the REGISTER covenant's tree-hash placeholder.
func (c Covenant) TreeHash() chainhash.Hash {
	var h chainhash.Hash
	copy(h[:], c.item(2))
	return h
}

// BlockHash returns the RENEW covenant's renewal-anchor block hash.
func (c Covenant) BlockHash() chainhash.Hash {
	var h chainhash.Hash
	copy(h[:], c.item(1))
	return h
}

// TransferAddress returns the TRANSFER covenant's destination address.
func (c Covenant) TransferAddress() []byte { return c.item(1) }

// ComputeBlind returns blake2b(value || nonce || nameHash), the commitment a
// BID publishes and a REVEAL must match.
func ComputeBlind(value uint64, nonce []byte, nameHash chainhash.Hash) chainhash.Hash {
	var valueBytes [8]byte
	for i := 0; i < 8; i++ {
		valueBytes[i] = byte(value >> (8 * i))
	}
	return chainhash.SumMulti(valueBytes[:], nonce, nameHash[:])
}
