// Package chainntnfs implements the chain-to-subscriber notification
// contract: a strictly ordered event stream delivered over bounded
// per-subscriber channels, plus the cooperative client query surface
// (getTip, getEntry, getHashes, rescan, Bloom filter install/clear).
package chainntnfs

import (
	"github.com/toole-brendan/rootd/chainhash"
	"github.com/toole-brendan/rootd/chainindex"
	"github.com/toole-brendan/rootd/wire"
)

// EventType identifies one of the five notification kinds a subscriber may
// receive.
type EventType uint8

const (
	// BlockConnected fires when a block is appended to the best chain.
	BlockConnected EventType = iota
	// BlockDisconnected fires when a block is rolled back during a reorg.
	BlockDisconnected
	// TxAccepted fires when a transaction is accepted (mempool).
	TxAccepted
	// ChainReset fires when the active tip is forcibly changed, e.g. by a
	// rescan or by a subscriber falling behind and having events dropped.
	ChainReset
	// BlockRescanned is delivered during a historical scan over a supplied
	// range, filtered by the subscriber's installed Bloom predicate.
	BlockRescanned
)

func (t EventType) String() string {
	switch t {
	case BlockConnected:
		return "block connect"
	case BlockDisconnected:
		return "block disconnect"
	case TxAccepted:
		return "tx"
	case ChainReset:
		return "chain reset"
	case BlockRescanned:
		return "block rescan"
	default:
		return "unknown"
	}
}

// Event is the single envelope delivered to every subscriber channel. Only
// the fields relevant to Type are populated; the rest are the zero value.
type Event struct {
	Type EventType

	// Entry is populated for BlockConnected, BlockDisconnected, and
	// BlockRescanned.
	Entry *chainindex.Entry
	// Txs is populated for BlockConnected and BlockRescanned.
	Txs []wire.Transaction
	// Tx is populated for TxAccepted.
	Tx *wire.Transaction
	// Tip is populated for ChainReset.
	Tip chainhash.Hash
}
