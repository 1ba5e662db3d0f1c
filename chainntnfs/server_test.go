package chainntnfs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/toole-brendan/rootd/chainhash"
	"github.com/toole-brendan/rootd/chainindex"
	"github.com/toole-brendan/rootd/wire"
)

// fakeSource is a minimal in-memory BlockSource for testing, independent of
// chainindex.Index's own concurrency semantics.
type fakeSource struct {
	entries    map[chainhash.Hash]*chainindex.Entry
	txs        map[chainhash.Hash][]wire.Transaction
	mainChain  []chainhash.Hash
	tip        chainhash.Hash
	hasNoChain bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		entries: make(map[chainhash.Hash]*chainindex.Entry),
		txs:     make(map[chainhash.Hash][]wire.Transaction),
	}
}

func (f *fakeSource) addBlock(height uint32, tx wire.Transaction) chainhash.Hash {
	hash := chainhash.Sum([]byte{byte(height), byte(height >> 8)})
	f.entries[hash] = &chainindex.Entry{Hash: hash, Height: height}
	f.txs[hash] = []wire.Transaction{tx}
	f.mainChain = append(f.mainChain, hash)
	f.tip = hash
	return hash
}

func (f *fakeSource) Tip() (*chainindex.Entry, error) {
	if f.hasNoChain {
		return nil, chainindex.ErrNotFound
	}
	return f.entries[f.tip], nil
}

func (f *fakeSource) Entry(hash chainhash.Hash) (*chainindex.Entry, error) {
	e, ok := f.entries[hash]
	if !ok {
		return nil, chainindex.ErrNotFound
	}
	return e, nil
}

func (f *fakeSource) IsMainChain(hash chainhash.Hash) bool {
	for _, h := range f.mainChain {
		if h == hash {
			return true
		}
	}
	return false
}

func (f *fakeSource) MainChainHash(height uint32) (chainhash.Hash, error) {
	if int(height) >= len(f.mainChain) {
		return chainhash.Hash{}, chainindex.ErrNotFound
	}
	return f.mainChain[height], nil
}

func (f *fakeSource) MainChainHeight() (uint32, bool) {
	if len(f.mainChain) == 0 {
		return 0, false
	}
	return uint32(len(f.mainChain) - 1), true
}

func (f *fakeSource) Transactions(hash chainhash.Hash) ([]wire.Transaction, error) {
	return f.txs[hash], nil
}

func addrTx(hash []byte) wire.Transaction {
	return wire.Transaction{
		Outputs: []wire.Output{
			{Value: 1, Address: wire.Address{Hash: hash}},
		},
	}
}

func TestNotifyBlockConnectedDelivers(t *testing.T) {
	src := newFakeSource()
	hash := src.addBlock(0, addrTx([]byte("addr1")))
	srv := NewNotificationServer(src)
	sub := srv.Subscribe()

	entry, _ := src.Entry(hash)
	srv.NotifyBlockConnected(entry, src.txs[hash])

	select {
	case ev := <-sub.Events():
		require.Equal(t, BlockConnected, ev.Type)
		require.Equal(t, hash, ev.Entry.Hash)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestFilterExcludesNonMatchingTx(t *testing.T) {
	src := newFakeSource()
	srv := NewNotificationServer(src)
	sub := srv.Subscribe()
	sub.SetFilter(NewAddressFilter([][]byte{[]byte("watched")}))

	tx := addrTx([]byte("unwatched"))
	srv.NotifyTxAccepted(&tx)

	select {
	case <-sub.Events():
		t.Fatal("unexpected delivery for non-matching tx")
	case <-time.After(50 * time.Millisecond):
	}

	watched := addrTx([]byte("watched"))
	srv.NotifyTxAccepted(&watched)
	select {
	case ev := <-sub.Events():
		require.Equal(t, TxAccepted, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected delivery for matching tx")
	}
}

func TestSlowSubscriberGetsChainResetInsteadOfBlocking(t *testing.T) {
	src := newFakeSource()
	srv := NewNotificationServer(src)
	sub := srv.Subscribe()

	var lastHash chainhash.Hash
	for i := 0; i < defaultBufferSize+10; i++ {
		hash := src.addBlock(uint32(i), addrTx([]byte("x")))
		lastHash = hash
		entry, _ := src.Entry(hash)
		srv.NotifyBlockConnected(entry, nil)
	}
	_ = lastHash

	// The channel never blocked the writer, and is full without having
	// panicked or deadlocked; draining it should yield at least one
	// ChainReset somewhere in the stream.
	sawReset := false
	drain := len(sub.events)
	for i := 0; i < drain; i++ {
		ev := <-sub.events
		if ev.Type == ChainReset {
			sawReset = true
		}
	}
	require.True(t, sawReset)
}

func TestGetEntryNullUnlessMainChain(t *testing.T) {
	src := newFakeSource()
	hash := src.addBlock(0, addrTx([]byte("x")))
	srv := NewNotificationServer(src)

	entry, err := srv.GetEntry(hash)
	require.NoError(t, err)
	require.NotNil(t, entry)

	orphanHash := chainhash.Sum([]byte("orphan"))
	src.entries[orphanHash] = &chainindex.Entry{Hash: orphanHash, Height: 1}
	entry, err = srv.GetEntry(orphanHash)
	require.NoError(t, err)
	require.Nil(t, entry)

	entry, err = srv.GetEntry(chainhash.Sum([]byte("never-seen")))
	require.NoError(t, err)
	require.Nil(t, entry)
}

func TestGetHashesRange(t *testing.T) {
	src := newFakeSource()
	h0 := src.addBlock(0, addrTx([]byte("x")))
	h1 := src.addBlock(1, addrTx([]byte("x")))
	h2 := src.addBlock(2, addrTx([]byte("x")))
	srv := NewNotificationServer(src)

	hashes, err := srv.GetHashes(0, 2)
	require.NoError(t, err)
	require.Equal(t, []chainhash.Hash{h0, h1, h2}, hashes)

	_, err = srv.GetHashes(5, 1)
	require.Error(t, err)
}

func TestRescanDeliversRangeThenResets(t *testing.T) {
	src := newFakeSource()
	src.addBlock(0, addrTx([]byte("a")))
	src.addBlock(1, addrTx([]byte("b")))
	src.addBlock(2, addrTx([]byte("c")))
	srv := NewNotificationServer(src)
	sub := srv.Subscribe()

	err := srv.Rescan(context.Background(), sub, 0)
	require.NoError(t, err)

	var gotRescans int
	var gotReset bool
	for i := 0; i < 4; i++ {
		select {
		case ev := <-sub.Events():
			if ev.Type == BlockRescanned {
				gotRescans++
			}
			if ev.Type == ChainReset {
				gotReset = true
			}
		case <-time.After(time.Second):
			t.Fatal("missing expected event")
		}
	}
	require.Equal(t, 3, gotRescans)
	require.True(t, gotReset)
}

func TestRescanHonorsCancellation(t *testing.T) {
	src := newFakeSource()
	for i := 0; i < 5; i++ {
		src.addBlock(uint32(i), addrTx([]byte("x")))
	}
	srv := NewNotificationServer(src)
	sub := srv.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := srv.Rescan(ctx, sub, 0)
	require.Error(t, err)

	select {
	case ev := <-sub.Events():
		require.Equal(t, ChainReset, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a final chain reset even on cancellation")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	src := newFakeSource()
	srv := NewNotificationServer(src)
	sub := srv.Subscribe()
	srv.Unsubscribe(sub)

	_, ok := <-sub.Events()
	require.False(t, ok)

	// Double unsubscribe must not panic.
	srv.Unsubscribe(sub)
}
