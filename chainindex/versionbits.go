package chainindex

import (
	"fmt"
	"sort"

	"github.com/toole-brendan/rootd/chaincfg"
)

// CalcPastMedianTime returns the median timestamp of entry and up to
// chaincfg.MedianTimespan-1 of its direct ancestors, per spec.md 6's
// median-time-past rule. Fewer than MedianTimespan entries (near genesis)
// are handled by taking the median of however many are available.
func CalcPastMedianTime(idx *Index, entry *Entry) (uint64, error) {
	times := make([]uint64, 0, chaincfg.MedianTimespan)
	cur := entry
	for i := 0; i < chaincfg.MedianTimespan; i++ {
		times = append(times, cur.Time)
		if cur.IsGenesis() {
			break
		}
		parent, err := idx.Parent(cur)
		if err != nil {
			return 0, err
		}
		cur = parent
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times[len(times)/2], nil
}

// ThresholdState is a version-bits deployment's BIP9-style lifecycle state.
type ThresholdState uint8

const (
	ThresholdDefined ThresholdState = iota
	ThresholdStarted
	ThresholdLockedIn
	ThresholdActive
	ThresholdFailed
)

func (s ThresholdState) String() string {
	switch s {
	case ThresholdDefined:
		return "defined"
	case ThresholdStarted:
		return "started"
	case ThresholdLockedIn:
		return "locked in"
	case ThresholdActive:
		return "active"
	case ThresholdFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// entryAtHeight walks back from tip to the ancestor at height, which must
// not exceed tip.Height.
func entryAtHeight(idx *Index, tip *Entry, height uint32) (*Entry, error) {
	cur := tip
	for cur.Height > height {
		parent, err := idx.Parent(cur)
		if err != nil {
			return nil, err
		}
		cur = parent
	}
	return cur, nil
}

// countVotes reports how many of the window entries ending at windowEnd
// (inclusive) have deployment's bit set in a version-bits-formatted
// version.
func countVotes(idx *Index, windowEnd *Entry, window uint32, bit uint8) (uint32, error) {
	var count uint32
	cur := windowEnd
	for i := uint32(0); i < window; i++ {
		if chaincfg.HasVersionBit(int32(cur.Version), bit) {
			count++
		}
		if cur.IsGenesis() {
			break
		}
		parent, err := idx.Parent(cur)
		if err != nil {
			return 0, err
		}
		cur = parent
	}
	return count, nil
}

// CalcThresholdState computes deployment's state as of tip, per spec.md 10's
// version-bits supplement. It walks every confirmation window from genesis
// forward rather than maintaining a per-window cache (the teacher's
// thresholdstate.go caches this; the cache itself was not retrieved into
// the pack, so this recomputes from scratch on each call — fine for the
// sizes this module operates at, and a documented simplification).
func CalcThresholdState(idx *Index, params *chaincfg.Params, deployment chaincfg.ConsensusDeployment, tip *Entry) (ThresholdState, error) {
	window := params.MinerConfirmationWindow
	if window == 0 {
		return ThresholdDefined, fmt.Errorf("chainindex: zero-length confirmation window")
	}
	if tip == nil {
		return ThresholdDefined, nil
	}

	numWindows := (tip.Height + 1) / window
	state := ThresholdDefined
	for w := uint32(0); w < numWindows; w++ {
		windowEndHeight := w*window + window - 1
		endEntry, err := entryAtHeight(idx, tip, windowEndHeight)
		if err != nil {
			return ThresholdDefined, err
		}
		mtp, err := CalcPastMedianTime(idx, endEntry)
		if err != nil {
			return ThresholdDefined, err
		}

		switch state {
		case ThresholdDefined:
			switch {
			case mtp >= deployment.Timeout && deployment.Timeout != 0:
				state = ThresholdFailed
			case mtp >= deployment.StartTime && deployment.StartTime != 0:
				state = ThresholdStarted
			}
		case ThresholdStarted:
			if deployment.Timeout != 0 && mtp >= deployment.Timeout {
				state = ThresholdFailed
				break
			}
			votes, err := countVotes(idx, endEntry, window, deployment.BitNumber)
			if err != nil {
				return ThresholdDefined, err
			}
			if votes >= params.RuleChangeActivationThreshold {
				state = ThresholdLockedIn
			}
		case ThresholdLockedIn:
			state = ThresholdActive
		case ThresholdActive, ThresholdFailed:
			// Terminal states persist for the remainder of the chain.
		}
	}
	return state, nil
}
