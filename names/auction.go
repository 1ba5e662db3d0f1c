// Package names implements the per-name auction record, the legal covenant
// transitions over it, and the View/Undo transactional model blocks use to
// apply and roll back those transitions.
package names

import (
	"github.com/toole-brendan/rootd/chainhash"
	"github.com/toole-brendan/rootd/wire"
)

// State is an Auction's position in the BIDDING -> REVEAL -> CLOSED ->
// REVOKED lifecycle. There is no separate renewed state: a RENEW leaves the
// auction CLOSED and only updates its renewal height.
type State uint8

const (
	// StateNone is not a persisted state; it is what GetAuction returns
	// conceptually for a name that has never been touched (an empty,
	// zero-value Auction).
	StateNone State = iota
	StateBidding
	StateReveal
	StateClosed
	StateRevoked
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "NONE"
	case StateBidding:
		return "BIDDING"
	case StateReveal:
		return "REVEAL"
	case StateClosed:
		return "CLOSED"
	case StateRevoked:
		return "REVOKED"
	default:
		return "UNKNOWN"
	}
}

// Bid is a single sealed bid recorded during the BIDDING window, before its
// value is known.
type Bid struct {
	Blind      chainhash.Hash
	Outpoint   wire.OutPoint
	Height     uint32
	TxIndex    uint32
	OutIndex   uint32
	Lockup     uint64
	Revealed   bool
	Value      uint64
	Redeemable bool
}

// TransferPayload is the pending-transfer state recorded by a TRANSFER
// covenant until a matching FINALIZE completes it.
type TransferPayload struct {
	Address     wire.Address
	StartHeight uint32
}

// Auction is the per-name record keyed by NameHash = blake2b(name).
type Auction struct {
	NameHash chainhash.Hash
	Name     string

	// Height is the height at which the current auction (bidding window)
	// opened. Zero if the name has never been bid on.
	Height uint32
	// Renewal is the height of the last renewal (REGISTER or RENEW).
	Renewal uint32

	Owner wire.OutPoint
	// Value is the current winning bid (the amount the winner actually
	// pays, i.e. the second-highest reveal).
	Value uint64
	// Highest is the top revealed bid seen so far; Value <= Highest always.
	Highest uint64

	State State

	Bids     []Bid
	Transfer *TransferPayload
}

// IsNull reports whether a is the zero-value "never touched" record.
func (a *Auction) IsNull() bool {
	return a.State == StateNone
}

// Clone returns a deep copy of a, suitable for View's copy-on-write
// ownership model.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	cp := *a
	if a.Bids != nil {
		cp.Bids = append([]Bid(nil), a.Bids...)
	}
	if a.Transfer != nil {
		t := *a.Transfer
		cp.Transfer = &t
	}
	return &cp
}

// Expired reports whether a has passed its renewal window as of height h.
func (a *Auction) Expired(h uint32, windowExpire uint32) bool {
	if a.State != StateClosed {
		return false
	}
	return h-a.Renewal >= windowExpire
}
