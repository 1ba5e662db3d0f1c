package names

import (
	"github.com/toole-brendan/rootd/chainhash"
)

// View is a per-block working set over the auction store: a cache of
// mutated Auction copies plus the inverse log needed to undo them. Views
// are never shared across blocks (spec.md 5): the commit of block h
// strictly happens-before the creation of the view for h+1.
type View struct {
	store   Store
	dirty   map[chainhash.Hash]*Auction
	undo    *Undo
}

// NewView opens a view over store.
func NewView(store Store) *View {
	return &View{
		store: store,
		dirty: make(map[chainhash.Hash]*Auction),
		undo:  newUndo(),
	}
}

// GetAuction returns the cached copy for nameHash if the view has already
// touched it; otherwise it loads from the store, inserting a fresh empty
// record if the store has none. The returned Auction is mutable and owned
// by the view: callers mutate it in place and rely on Commit to persist it.
func (v *View) GetAuction(nameHash chainhash.Hash) (*Auction, error) {
	if a, ok := v.dirty[nameHash]; ok {
		return a, nil
	}

	stored, err := v.store.GetAuction(nameHash)
	if err != nil {
		return nil, err
	}

	var prior *Auction
	var current *Auction
	if stored == nil {
		current = &Auction{NameHash: nameHash, State: StateNone}
		prior = nil
	} else {
		prior = stored.Clone()
		current = stored
	}

	v.undo.record(nameHash, prior)
	v.dirty[nameHash] = current
	return current, nil
}

// Touch marks nameHash dirty without returning it, for callers that already
// hold a reference obtained via GetAuction and are recording that it must
// be written back (e.g. after seeding a genesis registration in place).
func (v *View) Touch(nameHash chainhash.Hash, a *Auction) {
	v.dirty[nameHash] = a
}

// Commit writes every dirty entry to the underlying store, one Put or
// Delete call at a time with no store-level batch, and returns the Undo log
// for this block.
func (v *View) Commit() (*Undo, error) {
	for _, a := range v.dirty {
		if a.IsNull() {
			if err := v.store.DeleteAuction(a.NameHash); err != nil {
				return nil, err
			}
			continue
		}
		if err := v.store.PutAuction(a); err != nil {
			return nil, err
		}
	}
	return v.undo, nil
}

// NameHashes returns the set of names this view has touched.
func (v *View) NameHashes() []chainhash.Hash {
	out := make([]chainhash.Hash, 0, len(v.dirty))
	for h := range v.dirty {
		out = append(out, h)
	}
	return out
}
