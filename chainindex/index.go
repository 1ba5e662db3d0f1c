package chainindex

import (
	"errors"
	"sync"

	"github.com/toole-brendan/rootd/chainhash"
)

// ErrNotFound is returned when a lookup misses the arena.
var ErrNotFound = errors.New("chainindex: entry not found")

// Index is an arena of entries keyed by block hash. Entries reference their
// parent by hash, so the arena — not the entry — owns traversal; this keeps
// entries trivially serializable and avoids a block<->entry pointer cycle.
//
// The arena additionally tracks, by height, which entries currently sit on
// the best chain. Every entry a block ever held is retained (side branches
// included); only mainChain changes across a reorg, via SetMainChain.
type Index struct {
	mu        sync.RWMutex
	entries   map[chainhash.Hash]*Entry
	tip       chainhash.Hash
	mainChain []chainhash.Hash // mainChain[h] is the hash at height h
}

// NewIndex returns an empty arena.
func NewIndex() *Index {
	return &Index{entries: make(map[chainhash.Hash]*Entry)}
}

// Add inserts e into the arena, keyed by e.Hash.
func (idx *Index) Add(e *Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[e.Hash] = e
}

// Get returns the entry for hash, or ErrNotFound.
func (idx *Index) Get(hash chainhash.Hash) (*Entry, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.entries[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Parent returns the parent entry of e, or ErrNotFound if e is genesis or
// the parent was never added.
func (idx *Index) Parent(e *Entry) (*Entry, error) {
	if e.IsGenesis() {
		return nil, ErrNotFound
	}
	return idx.Get(e.PrevBlock)
}

// SetTip records hash as the current best-chain tip.
func (idx *Index) SetTip(hash chainhash.Hash) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.tip = hash
}

// Tip returns the current best-chain tip entry, or ErrNotFound if none has
// been set.
func (idx *Index) Tip() (*Entry, error) {
	idx.mu.RLock()
	tip := idx.tip
	idx.mu.RUnlock()
	return idx.Get(tip)
}

// Len reports how many entries the arena currently holds.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// SetMainChain replaces the height->hash mapping wholesale. Callers
// recompute the full slice on every reorg (from the common ancestor up) and
// hand it here along with the new tip; this keeps the index's notion of
// "main chain" atomic from a reader's point of view.
func (idx *Index) SetMainChain(hashes []chainhash.Hash) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.mainChain = append([]chainhash.Hash(nil), hashes...)
	if len(hashes) > 0 {
		idx.tip = hashes[len(hashes)-1]
	}
}

// MainChainHash returns the hash at height, or ErrNotFound if height exceeds
// the current main chain's length.
func (idx *Index) MainChainHash(height uint32) (chainhash.Hash, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if int(height) >= len(idx.mainChain) {
		return chainhash.Hash{}, ErrNotFound
	}
	return idx.mainChain[height], nil
}

// IsMainChain reports whether hash names an entry currently on the best
// chain.
func (idx *Index) IsMainChain(hash chainhash.Hash) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.entries[hash]
	if !ok {
		return false
	}
	return int(e.Height) < len(idx.mainChain) && idx.mainChain[e.Height] == hash
}

// MainChainHeight reports the current main chain's height, i.e. its tip's
// height. It returns 0 with ok=false for an empty index.
func (idx *Index) MainChainHeight() (height uint32, ok bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if len(idx.mainChain) == 0 {
		return 0, false
	}
	return uint32(len(idx.mainChain) - 1), true
}
