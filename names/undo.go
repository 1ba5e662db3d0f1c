package names

import (
	"github.com/toole-brendan/rootd/chainerror"
	"github.com/toole-brendan/rootd/chainhash"
)

// undoEntry is one (nameHash, prior-state) tuple. prior is nil when the
// name had no stored record before this block touched it, meaning undo
// should delete it.
type undoEntry struct {
	nameHash chainhash.Hash
	prior    *Auction
}

// Undo is the ordered inverse of a View's mutations, sufficient to restore
// the store to its pre-block state. Only the first touch of a name within a
// block is recorded, since that is the state to restore to regardless of
// how many times the block's covenants mutated it afterward.
type Undo struct {
	entries []undoEntry
	seen    map[chainhash.Hash]bool
}

func newUndo() *Undo {
	return &Undo{seen: make(map[chainhash.Hash]bool)}
}

func (u *Undo) record(nameHash chainhash.Hash, prior *Auction) {
	if u.seen[nameHash] {
		return
	}
	u.seen[nameHash] = true
	u.entries = append(u.entries, undoEntry{nameHash: nameHash, prior: prior})
}

// NameHashes returns the set of names this undo log covers.
func (u *Undo) NameHashes() []chainhash.Hash {
	out := make([]chainhash.Hash, len(u.entries))
	for i, e := range u.entries {
		out[i] = e.nameHash
	}
	return out
}

// Apply replays u in reverse against store, restoring every touched name to
// its pre-block state. An entry that cannot be applied is a fatal database
// inconsistency (spec.md 4.G) and is reported as a chainerror.InvariantError
// rather than a recoverable error.
func (u *Undo) Apply(store Store) error {
	for i := len(u.entries) - 1; i >= 0; i-- {
		e := u.entries[i]
		if e.prior == nil {
			if err := store.DeleteAuction(e.nameHash); err != nil {
				return chainerror.NewInvariant("undo delete failed for " + e.nameHash.String() + ": " + err.Error())
			}
			continue
		}
		if err := store.PutAuction(e.prior); err != nil {
			return chainerror.NewInvariant("undo restore failed for " + e.nameHash.String() + ": " + err.Error())
		}
	}
	return nil
}
