package cuckoo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toole-brendan/rootd/chaincfg"
	"github.com/toole-brendan/rootd/wire"
)

func testHeaderBytes() []byte {
	h := wire.BlockHeader{Version: 1, Time: 1514765688, Bits: 0x207fffff}
	for i := range h.Nonce {
		h.Nonce[i] = byte(i * 7)
	}
	return h.Bytes()
}

func TestVerifyRejectsWrongLength(t *testing.T) {
	params := chaincfg.CuckooParams{Bits: 16, Size: 8, Ease: 50}
	err := Verify(testHeaderBytes(), wire.Solution{1, 2, 3}, params)
	require.ErrorIs(t, err, ErrWrongLength)
}

func TestVerifyRejectsNonIncreasing(t *testing.T) {
	params := chaincfg.CuckooParams{Bits: 16, Size: 4, Ease: 50}
	err := Verify(testHeaderBytes(), wire.Solution{3, 2, 1, 0}, params)
	require.ErrorIs(t, err, ErrNotIncreasing)
}

func TestVerifyRejectsOutOfRangeEdge(t *testing.T) {
	params := chaincfg.CuckooParams{Bits: 4, Size: 4, Ease: 50}
	err := Verify(testHeaderBytes(), wire.Solution{0, 1, 2, 1000000}, params)
	require.ErrorIs(t, err, ErrEdgeOutOfRange)
}

// findCycle brute-forces a genuine solution over a small, densely connected
// graph so the positive path through Verify is exercised against a real
// cycle rather than a hand-picked one.
func findCycle(t *testing.T, header []byte, params chaincfg.CuckooParams) wire.Solution {
	t.Helper()
	maxEdge := uint32((uint64(1)<<params.Bits)*uint64(params.Ease)/100)

	var found wire.Solution
	chosen := make([]uint32, 0, params.Size)

	var search func(start uint32)
	search = func(start uint32) {
		if found != nil {
			return
		}
		if uint32(len(chosen)) == params.Size {
			sol := wire.Solution(append([]uint32(nil), chosen...))
			if Verify(header, sol, params) == nil {
				found = sol
			}
			return
		}
		for e := start; e < maxEdge; e++ {
			chosen = append(chosen, e)
			search(e + 1)
			chosen = chosen[:len(chosen)-1]
			if found != nil {
				return
			}
		}
	}
	search(0)

	if found == nil {
		t.Fatal("no cycle found in test graph; parameters too sparse for this seed")
	}
	return found
}

func TestVerifyAcceptsGenuineCycle(t *testing.T) {
	header := testHeaderBytes()
	params := chaincfg.CuckooParams{Bits: 3, Size: 4, Ease: 800}

	sol := findCycle(t, header, params)
	require.NoError(t, Verify(header, sol, params))
}

func TestVerifyRejectsTamperedCycle(t *testing.T) {
	header := testHeaderBytes()
	params := chaincfg.CuckooParams{Bits: 3, Size: 4, Ease: 800}

	sol := findCycle(t, header, params)
	require.NoError(t, Verify(header, sol, params))

	tampered := append(wire.Solution(nil), sol...)
	tampered[len(tampered)-1]++
	if tampered[len(tampered)-1] <= tampered[len(tampered)-2] {
		t.Skip("perturbation collided with an adjacent edge index")
	}
	require.Error(t, Verify(header, tampered, params))
}

func TestVerifyRejectsWrongHeader(t *testing.T) {
	header := testHeaderBytes()
	params := chaincfg.CuckooParams{Bits: 3, Size: 4, Ease: 800}
	sol := findCycle(t, header, params)

	other := wire.BlockHeader{Version: 2, Time: 1514765688, Bits: 0x207fffff}
	err := Verify(other.Bytes(), sol, params)
	require.Error(t, err)
}
