// Package chaincfg defines per-network consensus parameters and the
// consensus math (compact targets, proof-of-work checks, the reward curve,
// and version-bit signalling) that does not depend on chain state.
//
// The package mirrors the teacher's chaincfg.Params registry: parameters are
// read-only after Register is called, and there is no other global mutable
// consensus state.
package chaincfg

import (
	"github.com/holiman/uint256"
	"github.com/toole-brendan/rootd/chainhash"
)

// Consensus constants, authoritative for every network. These never vary
// per-network; per-network knobs live on Params.
const (
	// Exp is the number of decimal places in one coin; COIN is 10^Exp.
	Exp  = 6
	Coin = 1_000_000

	// GenesisReward is paid by output 0 of the genesis coinbase, and the
	// genesis claimer transaction redistributes it. It is sized so the
	// total premine plus subsidy schedule caps exactly at MaxMoney.
	GenesisReward = 1000*Coin + 4_420_000

	MaxInvestors  = 102_000_000 * Coin
	MaxFoundation = 102_000_000 * Coin
	MaxCreators   = 102_000_000 * Coin
	MaxAirdrop    = 1_054_000_000 * Coin
	MaxPremine    = 1_360_000_000 * Coin
	MaxSubsidy    = 680_000_000 * Coin
	MaxMoney      = 2_040_000_000 * Coin

	MaxBlockSize         = 1_000_000
	MaxRawBlockSize      = 4_000_000
	MaxBlockWeight       = 4_000_000
	MaxBlockSigops       = 80_000
	MaxBlockUpdates      = 500
	WitnessScaleFactor   = 4
	MedianTimespan       = 11
	LocktimeThreshold    = 500_000_000
	SequenceDisableFlag  = 1 << 31
	SequenceTypeFlag     = 1 << 22
	SequenceGranularity  = 9
	SequenceMask         = 0xffff
	MaxScriptSize        = 10_000
	MaxScriptStack       = 1_000
	MaxScriptPush        = 520
	MaxScriptOps         = 201
	MaxMultisigPubkeys   = 20

	// HeaderSize is the fixed, exact size of an encoded block header.
	HeaderSize = 196
	NoncePos   = 176
	NonceSize  = 20

	// MaxHalvings is the point past which the reward curve saturates to
	// zero rather than underflowing the shift.
	MaxHalvings = 52
)

// EpochFlag is the text embedded in the genesis coinbase witness, a nod to
// Bitcoin's own embedded headline.
const EpochFlag = "01/Nov/2017 EFF to ICANN: Don't Pick Up the Censor's Pen"

// GenesisKey is the 20-byte address hash that receives the genesis reward
// in the genesis coinbase and claimer transactions. Every registered
// network's key set also uses it for all of its reserved allocations.
var GenesisKey = [20]byte{
	0xf0, 0x23, 0x7a, 0xe2, 0xe8, 0xf8, 0x60, 0xf7, 0xd7, 0x91,
	0x24, 0xfc, 0x51, 0x3f, 0x01, 0x2e, 0x5a, 0xaa, 0x8d, 0x23,
}

// CompactToTarget decodes a compact-form (Bitcoin "nBits") difficulty target
// into a uint256. The zero compact value maps to a zero target.
//
// c decomposes into an exponent (top byte), a sign bit, and a 23-bit
// mantissa. See spec 4.A.
func CompactToTarget(c uint32) *uint256.Int {
	exp := c >> 24
	neg := (c >> 23) & 1
	mantissa := c & 0x7fffff

	target := new(uint256.Int).SetUint64(uint64(mantissa))
	switch {
	case exp <= 3:
		target.Rsh(target, uint(8*(3-exp)))
	default:
		target.Lsh(target, uint(8*(exp-3)))
	}

	// A target is never represented as negative in this chain; the sign bit
	// only ever appears via malformed input, in which case we report a zero
	// target so callers reject it rather than underflow.
	if neg == 1 && !target.IsZero() {
		return new(uint256.Int)
	}
	return target
}

// TargetToCompact encodes a target as compact form, the inverse of
// CompactToTarget.
func TargetToCompact(target *uint256.Int) uint32 {
	if target.IsZero() {
		return 0
	}

	bits := target.Bytes()
	// Trim leading zero bytes; Bytes() is already minimal big-endian, but
	// guard defensively.
	for len(bits) > 0 && bits[0] == 0 {
		bits = bits[1:]
	}

	exp := uint32(len(bits))
	var mantissa uint32
	switch {
	case exp <= 3:
		for _, b := range bits {
			mantissa = mantissa<<8 | uint32(b)
		}
		mantissa <<= 8 * (3 - exp)
	default:
		mantissa = uint32(bits[0])<<16 | uint32(bits[1])<<8 | uint32(bits[2])
	}

	// If the high bit of the mantissa's leading byte would be set, the
	// compact form would be misread as negative; shift right a byte and
	// bump the exponent to keep the sign bit clear.
	if mantissa&0x800000 != 0 {
		mantissa >>= 8
		exp++
	}

	return exp<<24 | mantissa
}

// VerifyPOW reports whether hash, interpreted as a big-endian 256-bit
// integer, is less than or equal to the target encoded by bits. It fails
// closed: a zero or otherwise degenerate target never satisfies PoW.
func VerifyPOW(hash chainhash.Hash, bits uint32) bool {
	target := CompactToTarget(bits)
	if target.IsZero() {
		return false
	}

	// The raw hash bytes are interpreted as a big-endian integer for the PoW
	// comparison, matching the byte order used to build the target.
	hashInt := new(uint256.Int).SetBytes(hash[:])

	return hashInt.Cmp(target) <= 0
}

// CalcReward returns the block subsidy at height under the given halving
// interval, saturating to zero after MaxHalvings halvings.
func CalcReward(height uint32, interval uint32) uint64 {
	if interval == 0 {
		return 1000 * Coin
	}
	halvings := height / interval
	if halvings >= MaxHalvings {
		return 0
	}
	return (1000 * Coin) >> halvings
}

// HasVersionBit reports whether the given bit is set in a block version
// using the version-bits (BIP9-style) signalling scheme.
func HasVersionBit(version int32, bit uint8) bool {
	const (
		topMask = 0xe0000000
		topBits = 0x20000000
	)
	v := uint32(version)
	if v&topMask != topBits {
		return false
	}
	return v&(1<<bit) != 0
}
