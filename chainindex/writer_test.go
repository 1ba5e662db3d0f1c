package chainindex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toole-brendan/rootd/chaincfg"
	"github.com/toole-brendan/rootd/chainhash"
	"github.com/toole-brendan/rootd/covenant"
	"github.com/toole-brendan/rootd/names"
	"github.com/toole-brendan/rootd/wire"
)

// notifyEvent records one call into a fakeNotifier, in call order.
type notifyEvent struct {
	connected bool
	hash      chainhash.Hash
	height    uint32
}

type fakeNotifier struct {
	events []notifyEvent
}

func (f *fakeNotifier) NotifyBlockConnected(entry *Entry, txs []wire.Transaction) {
	f.events = append(f.events, notifyEvent{connected: true, hash: entry.Hash, height: entry.Height})
}

func (f *fakeNotifier) NotifyBlockDisconnected(entry *Entry) {
	f.events = append(f.events, notifyEvent{connected: false, hash: entry.Hash, height: entry.Height})
}

func testParams() *chaincfg.Params {
	return &chaincfg.Params{
		Cuckoo:  chaincfg.CuckooParams{Bits: 16, Size: 8, Ease: 50},
		Windows: chaincfg.Windows{Bid: 1, Reveal: 1, RenewAnchor: 50, Expire: 100},
	}
}

// rawBlock builds a block at height (given by parent, nil for genesis)
// carrying txs, with a header that FromBlock will accept. It does not
// produce a valid Cuckoo solution; callers that need ConnectBlock's full
// validation path to succeed must go through w.connectOne directly instead,
// mirroring how the teacher's own test suite (equihash_test.go) treats
// actual proof-of-work solving as outside the scope of a unit test.
func rawBlock(parent *Entry, txs []wire.Transaction, height int) *wire.Block {
	b := &wire.Block{
		Header: wire.BlockHeader{
			Version: 1,
			Time:    uint64(1000 + height),
			Bits:    0x207fffff,
		},
		Solution:     wire.Solution{1, 2, 3, 4, 5, 6, 7, 8},
		Transactions: txs,
	}
	if parent != nil {
		b.Header.PrevBlock = parent.Hash
	}
	b.Header.MerkleRoot = b.CalcMerkleRoot()
	return b
}

// seedEntry adds a block to the index and writer block cache directly,
// bypassing ConnectBlock's PoW/MTP gate, and returns the derived entry.
func seedEntry(t *testing.T, w *Writer, parent *Entry, txs []wire.Transaction, height int) *Entry {
	t.Helper()
	block := rawBlock(parent, txs, height)
	entry, err := FromBlock(block, parent)
	require.NoError(t, err)
	w.index.Add(entry)
	w.blocks[entry.Hash] = block
	return entry
}

func outpointTx(in wire.OutPoint, value uint64, cov covenant.Covenant) wire.Transaction {
	return wire.Transaction{
		Version: 1,
		Inputs:  []wire.Input{{Prevout: in}},
		Outputs: []wire.Output{{Value: value, Covenant: cov.ToWire()}},
	}
}

// TestWriterAuctionHappyPathAcrossBlocks drives a BID, REVEAL, and REGISTER
// for one name through three connected blocks, exercising the writer's
// operation-derivation and the underlying auction state machine together.
func TestWriterAuctionHappyPathAcrossBlocks(t *testing.T) {
	idx := NewIndex()
	store := names.NewMemStore()
	notifier := &fakeNotifier{}
	w := NewWriter(idx, store, testParams(), notifier)

	name := "example"
	nameHash := chainhash.NameHash(name)
	nonce := []byte("a-fixed-test-nonce")
	value := uint64(5000)
	blind := covenant.ComputeBlind(value, nonce, nameHash)

	genesis := seedEntry(t, w, nil, nil, 0)
	require.NoError(t, w.connectOne(genesis))

	bidCov, err := covenant.New(covenant.BID, []byte(name), blind[:])
	require.NoError(t, err)
	bidTx := outpointTx(wire.OutPoint{Index: 0xffffffff}, 1000, bidCov)
	bidEntry := seedEntry(t, w, genesis, []wire.Transaction{bidTx}, 1)
	require.NoError(t, w.connectOne(bidEntry))

	revealCov, err := covenant.New(covenant.REVEAL, []byte(name), nonce)
	require.NoError(t, err)
	revealTx := outpointTx(wire.OutPoint{Hash: bidTx.Hash(), Index: 0}, value, revealCov)
	revealEntry := seedEntry(t, w, bidEntry, []wire.Transaction{revealTx}, 2)
	require.NoError(t, w.connectOne(revealEntry))

	registerCov, err := covenant.New(covenant.REGISTER, []byte(name), []byte("resource"), make([]byte, chainhash.HashSize))
	require.NoError(t, err)
	registerTx := outpointTx(wire.OutPoint{Hash: revealTx.Hash(), Index: 0}, 0, registerCov)
	registerEntry := seedEntry(t, w, revealEntry, []wire.Transaction{registerTx}, 3)
	require.NoError(t, w.connectOne(registerEntry))

	idx.SetMainChain([]chainhash.Hash{genesis.Hash, bidEntry.Hash, revealEntry.Hash, registerEntry.Hash})

	auction, err := store.GetAuction(nameHash)
	require.NoError(t, err)
	require.NotNil(t, auction)
	require.Equal(t, names.StateClosed, auction.State)
	require.Equal(t, wire.OutPoint{Hash: registerTx.Hash(), Index: 0}, auction.Owner)
	require.Equal(t, uint32(3), auction.Renewal)

	require.Len(t, notifier.events, 4)
	for i, ev := range notifier.events {
		require.True(t, ev.connected)
		require.Equal(t, uint32(i), ev.height)
	}
}

// TestWriterConnectBlockRejectsWrongSolutionLength exercises ConnectBlock's
// full validation path (no bypass): a solution whose length does not match
// the network's cycle size is rejected before any chain state changes,
// without requiring an actual Cuckoo solve.
func TestWriterConnectBlockRejectsWrongSolutionLength(t *testing.T) {
	idx := NewIndex()
	store := names.NewMemStore()
	w := NewWriter(idx, store, testParams(), nil)

	block := &wire.Block{
		Header:   wire.BlockHeader{Version: 1, Bits: 0x207fffff, Time: 1000},
		Solution: wire.Solution{1, 2, 3},
	}
	err := w.ConnectBlock(block)
	require.Error(t, err)
	require.Equal(t, 0, idx.Len())
}

// TestWriterConnectBlockRejectsUnknownParent checks the parent-lookup guard
// that runs before any cryptographic validation.
func TestWriterConnectBlockRejectsUnknownParent(t *testing.T) {
	idx := NewIndex()
	store := names.NewMemStore()
	w := NewWriter(idx, store, testParams(), nil)

	genesis := seedEntry(t, w, nil, nil, 0)
	idx.SetMainChain([]chainhash.Hash{genesis.Hash})

	block := &wire.Block{
		Header:   wire.BlockHeader{Version: 1, Bits: 0x207fffff, Time: 1001, PrevBlock: chainhash.Sum([]byte("not the tip"))},
		Solution: wire.Solution{1, 2, 3, 4, 5, 6, 7, 8},
	}
	err := w.ConnectBlock(block)
	require.Error(t, err)
}

// TestWriterReorgUndoesAndReconnects reproduces the reorg scenario: a
// two-block extension touching a name is fully undone when a longer,
// disjoint branch becomes the main chain, and the writer's notifications
// reflect disconnects happening before the replacement connects.
func TestWriterReorgUndoesAndReconnects(t *testing.T) {
	idx := NewIndex()
	store := names.NewMemStore()
	notifier := &fakeNotifier{}
	w := NewWriter(idx, store, testParams(), notifier)

	name := "reorgname"
	nameHash := chainhash.NameHash(name)

	genesis := seedEntry(t, w, nil, nil, 0)
	require.NoError(t, w.reorgTo(genesis))

	blind := covenant.ComputeBlind(50, []byte("nonce"), nameHash)
	bidCov, err := covenant.New(covenant.BID, []byte(name), blind[:])
	require.NoError(t, err)
	bidTx := outpointTx(wire.OutPoint{Index: 0xffffffff}, 100, bidCov)
	e1 := seedEntry(t, w, genesis, []wire.Transaction{bidTx}, 1)

	revealCov, err := covenant.New(covenant.REVEAL, []byte(name), []byte("nonce"))
	require.NoError(t, err)
	revealTx := outpointTx(wire.OutPoint{Hash: bidTx.Hash(), Index: 0}, 50, revealCov)
	e2 := seedEntry(t, w, e1, []wire.Transaction{revealTx}, 2)

	require.NoError(t, w.reorgTo(e2))

	auction, err := store.GetAuction(nameHash)
	require.NoError(t, err)
	require.NotNil(t, auction)
	require.Equal(t, names.StateReveal, auction.State)

	// A disjoint, longer branch off genesis with no covenant activity.
	e1p := seedEntry(t, w, genesis, nil, 1)
	e2p := seedEntry(t, w, e1p, nil, 2)
	e3p := seedEntry(t, w, e2p, nil, 3)

	notifier.events = nil
	require.NoError(t, w.reorgTo(e3p))

	auction, err = store.GetAuction(nameHash)
	require.NoError(t, err)
	require.Nil(t, auction)

	height, ok := idx.MainChainHeight()
	require.True(t, ok)
	require.Equal(t, uint32(3), height)
	require.True(t, idx.IsMainChain(e3p.Hash))
	require.False(t, idx.IsMainChain(e2.Hash))

	require.Len(t, notifier.events, 5)
	require.Equal(t, notifyEvent{connected: false, hash: e2.Hash, height: 2}, notifier.events[0])
	require.Equal(t, notifyEvent{connected: false, hash: e1.Hash, height: 1}, notifier.events[1])
	require.Equal(t, notifyEvent{connected: true, hash: e1p.Hash, height: 1}, notifier.events[2])
	require.Equal(t, notifyEvent{connected: true, hash: e2p.Hash, height: 2}, notifier.events[3])
	require.Equal(t, notifyEvent{connected: true, hash: e3p.Hash, height: 3}, notifier.events[4])
}

// TestWriterGenesisSeedsClosedAuctionsDirectly checks that a REGISTER output
// in the genesis block installs a closed, owned auction without requiring a
// preceding revealed bid.
func TestWriterGenesisSeedsClosedAuctionsDirectly(t *testing.T) {
	idx := NewIndex()
	store := names.NewMemStore()
	w := NewWriter(idx, store, testParams(), nil)

	name := "bootstrap"
	claimCov, err := covenant.New(covenant.CLAIM, []byte(name))
	require.NoError(t, err)
	claimTx := outpointTx(wire.OutPoint{Index: 0xffffffff}, 0, claimCov)

	registerCov, err := covenant.New(covenant.REGISTER, []byte(name), []byte("resource"), make([]byte, chainhash.HashSize))
	require.NoError(t, err)
	registerTx := outpointTx(wire.OutPoint{Hash: claimTx.Hash(), Index: 0}, 0, registerCov)

	genesis := seedEntry(t, w, nil, []wire.Transaction{claimTx, registerTx}, 0)
	require.NoError(t, w.connectOne(genesis))

	auction, err := store.GetAuction(chainhash.NameHash(name))
	require.NoError(t, err)
	require.NotNil(t, auction)
	require.Equal(t, names.StateClosed, auction.State)
	require.Equal(t, wire.OutPoint{Hash: registerTx.Hash(), Index: 0}, auction.Owner)
}
