// Copyright (c) 2025 The rootd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"errors"
)

// Network identifies one of the four recognized environments.
type Network uint32

const (
	Main Network = iota
	Testnet
	Regtest
	Simnet
)

// String returns the human-readable network name.
func (n Network) String() string {
	switch n {
	case Main:
		return "main"
	case Testnet:
		return "testnet"
	case Regtest:
		return "regtest"
	case Simnet:
		return "simnet"
	default:
		return "unknown"
	}
}

// CuckooParams are the Cuckoo Cycle graph parameters for a network.
type CuckooParams struct {
	// Bits is the log2 of the node count on each side of the graph.
	Bits uint32
	// Size is the required cycle length (the solution's edge count).
	Size uint32
	// Ease controls how permissive the verifier's easiness threshold is; it
	// is a percentage of 1<<Bits, and edge indices must be below
	// (1<<Bits)*Ease/100.
	Ease uint32
}

// KeySet is the set of reserved-allocation address hashes baked into the
// genesis coinbase and claimer transactions.
type KeySet struct {
	Investors  [20]byte
	Foundation [20]byte
	Claimant   [20]byte
	Creators   [20]byte
	Airdrop    [20]byte
}

// Windows groups the auction and renewal timing parameters, all expressed
// in blocks.
type Windows struct {
	Bid         uint32 // W_bid: length of the BIDDING phase
	Reveal      uint32 // W_reveal: length of the REVEAL phase
	RenewAnchor uint32 // W_renew_anchor: max age of a RENEW blockHash reference
	Expire      uint32 // W_expire: blocks since renewal before a name lapses
}

// ConsensusDeployment defines a single version-bits soft-fork deployment:
// the bit it signals on, and the median-time-past window during which
// signalling is meaningful. A deployment whose StartTime and Timeout are
// both zero is never wired to any bit and never activates.
type ConsensusDeployment struct {
	BitNumber uint8
	StartTime uint64
	Timeout   uint64
}

// Params defines a rootd network by its consensus parameters.
type Params struct {
	Name Network

	// PowLimitBits is the easiest allowed difficulty target, compact-encoded.
	PowLimitBits uint32

	Cuckoo CuckooParams
	Keys   KeySet

	// GenesisTime is the UNIX timestamp stamped into the genesis header.
	GenesisTime uint64

	// Deployments lists the version-bits soft-fork deployments this network
	// recognizes. Empty by default on every network: spec.md names no
	// deployments, but the mechanism is wired so one can be added without
	// touching the threshold-state machine itself.
	Deployments []ConsensusDeployment

	Windows Windows

	// HalvingInterval is the subsidy halving interval in blocks.
	HalvingInterval uint32

	// RuleChangeActivationThreshold and MinerConfirmationWindow drive the
	// version-bits deployment state machine (§9 "global mutable consensus
	// constants" redesign: read-only after Register).
	RuleChangeActivationThreshold uint32
	MinerConfirmationWindow       uint32
}

// MainNetParams are the parameters for the main rootd network.
var MainNetParams = Params{
	Name:         Main,
	PowLimitBits: 0x1d00ffff,
	Cuckoo:       CuckooParams{Bits: 29, Size: 42, Ease: 50},
	Keys:         defaultKeySet(),
	GenesisTime:  1514765688,
	Windows: Windows{
		Bid:         3600,
		Reveal:      3600,
		RenewAnchor: 5000,
		Expire:      105120,
	},
	HalvingInterval:               170000,
	RuleChangeActivationThreshold: 95,
	MinerConfirmationWindow:       100,
}

// TestNetParams are the parameters for the test network.
var TestNetParams = Params{
	Name:         Testnet,
	PowLimitBits: 0x1d00ffff,
	Cuckoo:       CuckooParams{Bits: 29, Size: 42, Ease: 50},
	Keys:         defaultKeySet(),
	GenesisTime:  1514765689,
	Windows: Windows{
		Bid:         36,
		Reveal:      36,
		RenewAnchor: 5000,
		Expire:      1000,
	},
	HalvingInterval:               170000,
	RuleChangeActivationThreshold: 75,
	MinerConfirmationWindow:       100,
}

// RegtestParams are the parameters for the regression test network.
var RegtestParams = Params{
	Name:         Regtest,
	PowLimitBits: 0x207fffff,
	Cuckoo:       CuckooParams{Bits: 16, Size: 8, Ease: 50},
	Keys:         defaultKeySet(),
	GenesisTime:  1514765690,
	Windows: Windows{
		Bid:         4,
		Reveal:      4,
		RenewAnchor: 50,
		Expire:      100,
	},
	HalvingInterval:               2500,
	RuleChangeActivationThreshold: 75,
	MinerConfirmationWindow:       100,
}

// SimNetParams are the parameters for the simulation test network.
var SimNetParams = Params{
	Name:         Simnet,
	PowLimitBits: 0x207fffff,
	Cuckoo:       CuckooParams{Bits: 16, Size: 8, Ease: 50},
	Keys:         defaultKeySet(),
	GenesisTime:  1514765691,
	Windows: Windows{
		Bid:         8,
		Reveal:      8,
		RenewAnchor: 50,
		Expire:      200,
	},
	HalvingInterval:               2500,
	RuleChangeActivationThreshold: 75,
	MinerConfirmationWindow:       100,
}

func defaultKeySet() KeySet {
	return KeySet{
		Investors:  GenesisKey,
		Foundation: GenesisKey,
		Claimant:   GenesisKey,
		Creators:   GenesisKey,
		Airdrop:    GenesisKey,
	}
}

// ErrUnknownNetwork is returned by ByNetwork for an unregistered network.
var ErrUnknownNetwork = errors.New("chaincfg: unknown network")

var registered = map[Network]*Params{
	Main:    &MainNetParams,
	Testnet: &TestNetParams,
	Regtest: &RegtestParams,
	Simnet:  &SimNetParams,
}

// ByNetwork looks up the registered Params for a network.
func ByNetwork(n Network) (*Params, error) {
	p, ok := registered[n]
	if !ok {
		return nil, ErrUnknownNetwork
	}
	return p, nil
}

// Register adds or overrides the parameters for a custom network. It exists
// for callers (e.g. tests) that need parameter sets outside the four
// defaults; library code must not mutate the returned Params afterward.
func Register(n Network, p *Params) {
	registered[n] = p
}
