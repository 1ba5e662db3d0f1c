package chainntnfs

import (
	"context"
	"fmt"

	"github.com/toole-brendan/rootd/chainhash"
	"github.com/toole-brendan/rootd/chainindex"
	"github.com/toole-brendan/rootd/wire"
)

// GetTip returns the current best-chain entry.
func (s *NotificationServer) GetTip() (*chainindex.Entry, error) {
	return s.source.Tip()
}

// GetEntry returns the entry for hash, or nil if hash does not name an
// entry on the main chain — including if it names no entry at all. Per
// spec.md 4.H, callers must not be able to distinguish "unknown" from
// "known but reorged away" through this method.
func (s *NotificationServer) GetEntry(hash chainhash.Hash) (*chainindex.Entry, error) {
	if !s.source.IsMainChain(hash) {
		return nil, nil
	}
	return s.source.Entry(hash)
}

// GetHashes returns the main-chain hashes for heights [start, end], in
// ascending height order.
func (s *NotificationServer) GetHashes(start, end uint32) ([]chainhash.Hash, error) {
	if end < start {
		return nil, fmt.Errorf("chainntnfs: end height %d before start height %d", end, start)
	}
	hashes := make([]chainhash.Hash, 0, end-start+1)
	for h := start; h <= end; h++ {
		hash, err := s.source.MainChainHash(h)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	return hashes, nil
}

// Rescan delivers BlockRescanned events to sub for every main-chain height
// from start through the current tip, filtered by sub's installed filter
// (match-everything if none is installed). It honors ctx cancellation
// between blocks. When it reaches the tip or is cancelled, it finishes by
// injecting a ChainReset carrying whatever the tip was at the point rescan
// stopped, per spec.md 5. When there is no main chain, or a source lookup
// fails, it returns without injecting a ChainReset.
func (s *NotificationServer) Rescan(ctx context.Context, sub *Subscription, start uint32) error {
	tipHeight, ok := s.source.MainChainHeight()
	if !ok {
		return nil
	}

	for h := start; h <= tipHeight; h++ {
		select {
		case <-ctx.Done():
			return s.finishRescan(sub, ctx.Err())
		default:
		}

		hash, err := s.source.MainChainHash(h)
		if err != nil {
			return err
		}
		entry, err := s.source.Entry(hash)
		if err != nil {
			return err
		}
		txs, err := s.source.Transactions(hash)
		if err != nil {
			return err
		}

		s.send(sub, Event{Type: BlockRescanned, Entry: entry, Txs: filterTxs(sub, txs)})
	}

	return s.finishRescan(sub, nil)
}

// finishRescan always emits a final ChainReset carrying the then-current
// tip, whether the rescan ran to completion or was cancelled mid-range.
func (s *NotificationServer) finishRescan(sub *Subscription, err error) error {
	var tipHash chainhash.Hash
	if tip, tipErr := s.source.Tip(); tipErr == nil {
		tipHash = tip.Hash
	}
	s.send(sub, Event{Type: ChainReset, Tip: tipHash})
	return err
}

func filterTxs(sub *Subscription, txs []wire.Transaction) []wire.Transaction {
	if sub == nil {
		return txs
	}
	out := make([]wire.Transaction, 0, len(txs))
	for i := range txs {
		if sub.matches(&txs[i]) {
			out = append(out, txs[i])
		}
	}
	return out
}
