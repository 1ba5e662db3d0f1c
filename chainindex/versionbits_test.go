package chainindex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toole-brendan/rootd/chaincfg"
	"github.com/toole-brendan/rootd/wire"
)

// buildChain populates idx with n entries starting from genesis, one per
// height, with versionAt(height) and timeAt(height) controlling the header
// fields a test cares about. It returns the tip entry.
func buildChain(t *testing.T, idx *Index, n int, versionAt func(h int) uint32, timeAt func(h int) uint64) *Entry {
	t.Helper()
	var parent *Entry
	var tip *Entry
	for h := 0; h < n; h++ {
		block := &wire.Block{
			Header: wire.BlockHeader{
				Version: versionAt(h),
				Bits:    0x207fffff,
				Time:    timeAt(h),
			},
			Solution: wire.Solution{1, 2, 3, 4},
			Transactions: []wire.Transaction{
				{Inputs: []wire.Input{{Prevout: wire.OutPoint{Index: 0xffffffff}}}},
			},
		}
		if parent != nil {
			block.Header.PrevBlock = parent.Hash
		}
		entry, err := FromBlock(block, parent)
		require.NoError(t, err)
		idx.Add(entry)
		parent = entry
		tip = entry
	}
	return tip
}

func TestCalcPastMedianTimeUsesMiddleOfWindow(t *testing.T) {
	idx := NewIndex()
	tip := buildChain(t, idx, chaincfg.MedianTimespan, func(h int) uint32 { return 0x20000000 }, func(h int) uint64 { return uint64(1000 + h*10) })

	mtp, err := CalcPastMedianTime(idx, tip)
	require.NoError(t, err)
	// Times are 1000,1010,...,1100 (11 entries); median is the 6th value, 1050.
	require.Equal(t, uint64(1050), mtp)
}

func TestCalcPastMedianTimeNearGenesis(t *testing.T) {
	idx := NewIndex()
	tip := buildChain(t, idx, 3, func(h int) uint32 { return 0x20000000 }, func(h int) uint64 { return uint64(100 + h) })

	mtp, err := CalcPastMedianTime(idx, tip)
	require.NoError(t, err)
	require.Equal(t, uint64(101), mtp)
}

func unsignaledVersion(h int) uint32 { return 0x20000000 }

// TestCalcThresholdStateProgression walks a single deployment through all
// four live states across four confirmation windows of 4 blocks each.
// Heights 0-3 predate StartTime (Defined); 4-7 cross it (Started); 8-11
// carry enough signalling votes to cross threshold (LockedIn); 12-15
// activate (Active). Each height's entries are deterministic, so rebuilding
// a longer prefix of the same chain on every call reproduces identical
// ancestor hashes.
func TestCalcThresholdStateProgression(t *testing.T) {
	const window = 4
	const threshold = 3
	params := &chaincfg.Params{
		RuleChangeActivationThreshold: threshold,
		MinerConfirmationWindow:       window,
	}
	deployment := chaincfg.ConsensusDeployment{BitNumber: 5, StartTime: 1000, Timeout: 100000}

	versionFor := func(h int) uint32 {
		if h >= 8 && h < 12 {
			return 0x20000000 | (1 << 5)
		}
		return 0x20000000
	}
	timeFor := func(h int) uint64 {
		if h < 4 {
			return 500
		}
		return 2000
	}

	idx4 := NewIndex()
	tip4 := buildChain(t, idx4, 4, versionFor, timeFor)
	state, err := CalcThresholdState(idx4, params, deployment, tip4)
	require.NoError(t, err)
	require.Equal(t, ThresholdDefined, state)

	idx8 := NewIndex()
	tip8 := buildChain(t, idx8, 8, versionFor, timeFor)
	state, err = CalcThresholdState(idx8, params, deployment, tip8)
	require.NoError(t, err)
	require.Equal(t, ThresholdStarted, state)

	idx12 := NewIndex()
	tip12 := buildChain(t, idx12, 12, versionFor, timeFor)
	state, err = CalcThresholdState(idx12, params, deployment, tip12)
	require.NoError(t, err)
	require.Equal(t, ThresholdLockedIn, state)

	idx16 := NewIndex()
	tip16 := buildChain(t, idx16, 16, versionFor, timeFor)
	state, err = CalcThresholdState(idx16, params, deployment, tip16)
	require.NoError(t, err)
	require.Equal(t, ThresholdActive, state)
}

func TestCalcThresholdStateNeverActivatesWithoutDeployment(t *testing.T) {
	params := &chaincfg.Params{RuleChangeActivationThreshold: 95, MinerConfirmationWindow: 100}
	zeroDeployment := chaincfg.ConsensusDeployment{}

	idx := NewIndex()
	tip := buildChain(t, idx, 200, unsignaledVersion, func(h int) uint64 { return uint64(h) })

	state, err := CalcThresholdState(idx, params, zeroDeployment, tip)
	require.NoError(t, err)
	require.Equal(t, ThresholdDefined, state)
}
