package chainntnfs

import "github.com/toole-brendan/rootd/wire"

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(tx *wire.Transaction) bool

// Matches implements Filter.
func (f FilterFunc) Matches(tx *wire.Transaction) bool {
	return f(tx)
}

// AddressFilter is a simple exact-match predicate over a set of output
// address hashes, the minimal Bloom-filter substitute this module needs:
// a subscriber watching a known set of addresses. spec.md leaves the
// filter's internal representation unspecified beyond "a Bloom predicate";
// this implements the same install/clear/match contract without the
// probabilistic false-positive machinery a real Bloom filter would add.
type AddressFilter struct {
	hashes map[string]struct{}
}

// NewAddressFilter builds a filter matching any transaction with an output
// addressed to one of hashes.
func NewAddressFilter(hashes [][]byte) *AddressFilter {
	f := &AddressFilter{hashes: make(map[string]struct{}, len(hashes))}
	for _, h := range hashes {
		f.hashes[string(h)] = struct{}{}
	}
	return f
}

// Matches implements Filter.
func (f *AddressFilter) Matches(tx *wire.Transaction) bool {
	for _, out := range tx.Outputs {
		if _, ok := f.hashes[string(out.Address.Hash)]; ok {
			return true
		}
	}
	return false
}
