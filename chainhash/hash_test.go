package chainhash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashStringRoundTrip(t *testing.T) {
	h := Sum([]byte("hello"))
	s := h.String()

	h2, err := NewHashFromStr(s)
	require.NoError(t, err)
	require.Equal(t, h, *h2)
}

func TestZeroHash(t *testing.T) {
	require.True(t, ZeroHash.IsZero())
	require.False(t, Sum([]byte("x")).IsZero())
}

func TestNameHashDeterministic(t *testing.T) {
	a := NameHash("example")
	b := NameHash("example")
	c := NameHash("other")
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestSumMultiMatchesConcat(t *testing.T) {
	a := []byte("foo")
	b := []byte("bar")
	got := SumMulti(a, b)
	want := Sum(append(append([]byte{}, a...), b...))
	require.Equal(t, want, got)
}

func TestNewHashInvalidLength(t *testing.T) {
	_, err := NewHash([]byte{1, 2, 3})
	require.Error(t, err)
}
