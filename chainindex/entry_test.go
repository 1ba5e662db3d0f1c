package chainindex

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/toole-brendan/rootd/chainhash"
	"github.com/toole-brendan/rootd/wire"
)

func genesisBlock() *wire.Block {
	return &wire.Block{
		Header:   wire.BlockHeader{Version: 1, Bits: 0x207fffff, Time: 1514765688},
		Solution: wire.Solution{1, 2, 3, 4},
		Transactions: []wire.Transaction{
			{Inputs: []wire.Input{{Prevout: wire.OutPoint{Index: 0xffffffff}}}},
		},
	}
}

func TestFromBlockGenesis(t *testing.T) {
	e, err := FromBlock(genesisBlock(), nil)
	require.NoError(t, err)
	require.True(t, e.IsGenesis())
	require.Equal(t, uint32(0), e.Height)
	require.Equal(t, GetProof(genesisBlock().Header.Bits).String(), e.Chainwork.String())
}

func TestFromBlockChild(t *testing.T) {
	gb := genesisBlock()
	genesis, err := FromBlock(gb, nil)
	require.NoError(t, err)

	child := &wire.Block{
		Header: wire.BlockHeader{
			Version:   1,
			PrevBlock: genesis.Hash,
			Bits:      0x207fffff,
			Time:      1514765700,
		},
		Solution:     wire.Solution{5, 6, 7, 8},
		Transactions: gb.Transactions,
	}
	entry, err := FromBlock(child, genesis)
	require.NoError(t, err)
	require.Equal(t, uint32(1), entry.Height)

	want := new(uint256.Int).Add(genesis.Chainwork, GetProof(child.Header.Bits))
	require.Equal(t, want.String(), entry.Chainwork.String())
}

func TestFromBlockRejectsMismatchedParent(t *testing.T) {
	genesis, err := FromBlock(genesisBlock(), nil)
	require.NoError(t, err)

	bad := &wire.Block{Header: wire.BlockHeader{Bits: 0x207fffff}}
	_, err = FromBlock(bad, genesis)
	require.Error(t, err)
}

func TestEntryRoundTrip(t *testing.T) {
	e, err := FromBlock(genesisBlock(), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, e.Encode(&buf))

	got, err := Decode(&buf, 100)
	require.NoError(t, err)
	require.Equal(t, e.Hash, got.Hash)
	require.Equal(t, e.Height, got.Height)
	require.Equal(t, e.Solution, got.Solution)
	require.Equal(t, e.Chainwork.String(), got.Chainwork.String())
}

func TestGetProofZeroForZeroTarget(t *testing.T) {
	require.True(t, GetProof(0).IsZero())
}

func TestIndexArena(t *testing.T) {
	idx := NewIndex()
	genesis, err := FromBlock(genesisBlock(), nil)
	require.NoError(t, err)
	idx.Add(genesis)
	idx.SetTip(genesis.Hash)

	tip, err := idx.Tip()
	require.NoError(t, err)
	require.Equal(t, genesis.Hash, tip.Hash)

	_, err = idx.Parent(genesis)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = idx.Get(genesis.PrevBlock)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestIndexMainChainTracking(t *testing.T) {
	idx := NewIndex()
	genesis, err := FromBlock(genesisBlock(), nil)
	require.NoError(t, err)
	idx.Add(genesis)

	child := &wire.Block{
		Header:   wire.BlockHeader{Version: 1, Bits: 0x207fffff, Time: 1514765689, PrevBlock: genesis.Hash},
		Solution: wire.Solution{5, 6, 7, 8},
		Transactions: []wire.Transaction{
			{Inputs: []wire.Input{{Prevout: wire.OutPoint{Index: 0xffffffff}}}},
		},
	}
	childEntry, err := FromBlock(child, genesis)
	require.NoError(t, err)
	idx.Add(childEntry)

	// Before SetMainChain, nothing is considered on the main chain.
	require.False(t, idx.IsMainChain(genesis.Hash))
	_, ok := idx.MainChainHeight()
	require.False(t, ok)

	idx.SetMainChain([]chainhash.Hash{genesis.Hash, childEntry.Hash})

	require.True(t, idx.IsMainChain(genesis.Hash))
	require.True(t, idx.IsMainChain(childEntry.Hash))

	height, ok := idx.MainChainHeight()
	require.True(t, ok)
	require.Equal(t, uint32(1), height)

	hash, err := idx.MainChainHash(1)
	require.NoError(t, err)
	require.Equal(t, childEntry.Hash, hash)

	tip, err := idx.Tip()
	require.NoError(t, err)
	require.Equal(t, childEntry.Hash, tip.Hash)

	_, err = idx.MainChainHash(2)
	require.ErrorIs(t, err, ErrNotFound)

	// A side-branch entry never placed on the main chain reports false.
	orphan := &wire.Block{
		Header:   wire.BlockHeader{Version: 1, Bits: 0x207fffff, Time: 1514765690, PrevBlock: genesis.Hash},
		Solution: wire.Solution{9, 9, 9, 9},
		Transactions: []wire.Transaction{
			{Inputs: []wire.Input{{Prevout: wire.OutPoint{Index: 0xffffffff}}}},
		},
	}
	orphanEntry, err := FromBlock(orphan, genesis)
	require.NoError(t, err)
	idx.Add(orphanEntry)
	require.False(t, idx.IsMainChain(orphanEntry.Hash))
}
