package chainindex

import (
	"github.com/toole-brendan/rootd/chaincfg"
	"github.com/toole-brendan/rootd/chainerror"
	"github.com/toole-brendan/rootd/chainhash"
	"github.com/toole-brendan/rootd/covenant"
	"github.com/toole-brendan/rootd/cuckoo"
	"github.com/toole-brendan/rootd/names"
	"github.com/toole-brendan/rootd/wire"
)

// Notifier is the subset of chainntnfs.NotificationServer's API the writer
// depends on. It is declared here, not imported from chainntnfs, because
// chainntnfs imports chainindex for Entry; chainntnfs.NotificationServer
// satisfies this interface structurally.
type Notifier interface {
	NotifyBlockConnected(entry *Entry, txs []wire.Transaction)
	NotifyBlockDisconnected(entry *Entry)
}

// Writer is the single-goroutine owner of the active tip, per spec.md 5's
// concurrency model: it is the only component that calls Index.SetMainChain,
// names.View.Commit, or names.Undo.Apply. It is not safe for concurrent use
// by more than one goroutine; callers serialize ConnectBlock calls
// themselves (e.g. from a single worker goroutine reading off a
// channel).
type Writer struct {
	index    *Index
	store    names.Store
	params   *chaincfg.Params
	notifier Notifier

	// blocks and undos are process-local caches, not a durable log: a
	// restart loses side-branch bodies and pending undo state. Persisting
	// them is future work; spec.md does not name a format for either.
	blocks map[chainhash.Hash]*wire.Block
	undos  map[chainhash.Hash]*names.Undo
}

// NewWriter returns a Writer over an empty or pre-populated index and store.
func NewWriter(index *Index, store names.Store, params *chaincfg.Params, notifier Notifier) *Writer {
	return &Writer{
		index:    index,
		store:    store,
		params:   params,
		notifier: notifier,
		blocks:   make(map[chainhash.Hash]*wire.Block),
		undos:    make(map[chainhash.Hash]*names.Undo),
	}
}

// Tip satisfies chainntnfs.BlockSource.
func (w *Writer) Tip() (*Entry, error) { return w.index.Tip() }

// Entry satisfies chainntnfs.BlockSource.
func (w *Writer) Entry(hash chainhash.Hash) (*Entry, error) { return w.index.Get(hash) }

// IsMainChain satisfies chainntnfs.BlockSource.
func (w *Writer) IsMainChain(hash chainhash.Hash) bool { return w.index.IsMainChain(hash) }

// MainChainHash satisfies chainntnfs.BlockSource.
func (w *Writer) MainChainHash(height uint32) (chainhash.Hash, error) {
	return w.index.MainChainHash(height)
}

// MainChainHeight satisfies chainntnfs.BlockSource.
func (w *Writer) MainChainHeight() (uint32, bool) { return w.index.MainChainHeight() }

// Transactions satisfies chainntnfs.BlockSource, returning the body of a
// block the writer has seen (main chain or side branch).
func (w *Writer) Transactions(hash chainhash.Hash) ([]wire.Transaction, error) {
	block, ok := w.blocks[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return block.Transactions, nil
}

// ConnectBlock validates block against its claimed parent and, if it extends
// or exceeds the current best chain's chainwork, makes it (and the chain it
// roots) the new main chain — disconnecting and reconnecting through the
// fork point as needed. A block that validates but does not improve on the
// current tip's chainwork is retained as a side branch without altering the
// main chain, per spec.md 5's longest-chainwork rule.
func (w *Writer) ConnectBlock(block *wire.Block) error {
	tip, tipErr := w.index.Tip()
	haveTip := tipErr == nil

	var parent *Entry
	if haveTip {
		if block.Header.PrevBlock == tip.Hash {
			parent = tip
		} else if p, err := w.index.Get(block.Header.PrevBlock); err == nil {
			parent = p
		} else {
			return chainerror.New(chainerror.ErrConsensus, "block extends an unknown parent")
		}
	}

	entry, err := FromBlock(block, parent)
	if err != nil {
		return chainerror.New(chainerror.ErrParse, err.Error())
	}

	if err := cuckoo.Verify(block.Header.Bytes(), block.Solution, w.params.Cuckoo); err != nil {
		log.Debugf("rejecting block %s: %v", entry.Hash, err)
		return chainerror.New(chainerror.ErrConsensus, "invalid cuckoo cycle: "+err.Error())
	}
	if !chaincfg.VerifyPOW(entry.Hash, entry.Bits) {
		log.Debugf("rejecting block %s: hash does not meet target", entry.Hash)
		return chainerror.New(chainerror.ErrConsensus, "block hash does not meet its target")
	}
	if parent != nil {
		mtp, err := CalcPastMedianTime(w.index, parent)
		if err != nil {
			return err
		}
		if entry.Time <= mtp {
			return chainerror.New(chainerror.ErrConsensus, "block time does not exceed median-time-past")
		}
	}

	w.index.Add(entry)
	w.blocks[entry.Hash] = block

	if !haveTip || entry.Chainwork.Cmp(tip.Chainwork) > 0 {
		return w.reorgTo(entry)
	}
	log.Debugf("block %s at height %d retained as a side branch", entry.Hash, entry.Height)
	return nil
}

// reorgTo makes newTip's ancestry the main chain. If the current main chain
// shares a prefix with it (the common case: newTip simply extends the
// current tip), only the suffix above the fork point is touched.
func (w *Writer) reorgTo(newTip *Entry) error {
	chain := []*Entry{newTip}
	cur := newTip
	for !cur.IsGenesis() {
		parent, err := w.index.Parent(cur)
		if err != nil {
			return chainerror.NewInvariant("reorg: missing ancestor for " + cur.Hash.String())
		}
		chain = append(chain, parent)
		cur = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	forkHeight := -1
	for h := 0; h < len(chain); h++ {
		oldHash, err := w.index.MainChainHash(uint32(h))
		if err != nil || oldHash != chain[h].Hash {
			break
		}
		forkHeight = h
	}

	if oldHeight, ok := w.index.MainChainHeight(); ok {
		if int(oldHeight) > forkHeight {
			log.Infof("reorganizing chain: disconnecting heights %d down to %d", oldHeight, forkHeight+1)
		}
		for h := int(oldHeight); h > forkHeight; h-- {
			hash, err := w.index.MainChainHash(uint32(h))
			if err != nil {
				return chainerror.NewInvariant("reorg: main chain hash missing at height during disconnect")
			}
			if err := w.disconnectOne(hash); err != nil {
				return err
			}
		}
	}

	for h := forkHeight + 1; h < len(chain); h++ {
		if err := w.connectOne(chain[h]); err != nil {
			return err
		}
	}

	hashes := make([]chainhash.Hash, len(chain))
	for i, e := range chain {
		hashes[i] = e.Hash
	}
	w.index.SetMainChain(hashes)
	return nil
}

// connectOne applies one block's covenant operations against the shared
// store and records its undo log. It assumes block's ancestors up to the
// fork point are already reflected in the store.
func (w *Writer) connectOne(entry *Entry) error {
	block, ok := w.blocks[entry.Hash]
	if !ok {
		return chainerror.NewInvariant("connect: missing block body for " + entry.Hash.String())
	}

	view := names.NewView(w.store)
	var err error
	if entry.IsGenesis() {
		err = w.applyGenesisOperations(view, entry, block)
	} else {
		err = w.applyOperations(view, entry, block)
	}
	if err != nil {
		return err
	}

	undo, err := view.Commit()
	if err != nil {
		return err
	}
	w.undos[entry.Hash] = undo

	if w.notifier != nil {
		w.notifier.NotifyBlockConnected(entry, block.Transactions)
	}
	return nil
}

// disconnectOne replays hash's stored undo log against the store and notifies
// subscribers. The undo log for a block not currently tracked (e.g. one
// connected in a previous process lifetime, per the in-memory cache's
// limitation) is a fatal invariant violation: undo is the only way to
// restore the store's pre-block state.
func (w *Writer) disconnectOne(hash chainhash.Hash) error {
	undo, ok := w.undos[hash]
	if !ok {
		return chainerror.NewInvariant("disconnect: missing undo log for " + hash.String())
	}
	if err := undo.Apply(w.store); err != nil {
		return err
	}
	delete(w.undos, hash)

	entry, err := w.index.Get(hash)
	if err != nil {
		return chainerror.NewInvariant("disconnect: missing index entry for " + hash.String())
	}
	if w.notifier != nil {
		w.notifier.NotifyBlockDisconnected(entry)
	}
	return nil
}

// applyOperations derives one names.Operation per covenant-bearing output,
// in transaction-then-output-index order, and dispatches each through
// names.Apply. SpentOutpoint is taken from the transaction's first input:
// every covenant type that requires one (REVEAL, REDEEM, REGISTER, UPDATE,
// RENEW, TRANSFER, FINALIZE, REVOKE) is carried by a transaction whose sole
// relevant input spends the prior covenant output, matching the one-name-
// per-transaction shape genesis and the auction tests both assume.
func (w *Writer) applyOperations(view *names.View, entry *Entry, block *wire.Block) error {
	isGenesisClaim := func(names.Operation) bool { return false }
	isRecentBlockHash := func(hash chainhash.Hash) bool {
		anchor, err := w.index.Get(hash)
		if err != nil || !w.index.IsMainChain(hash) {
			return false
		}
		return entry.Height >= anchor.Height && entry.Height-anchor.Height <= w.params.Windows.RenewAnchor
	}

	for txIdx := range block.Transactions {
		tx := &block.Transactions[txIdx]
		for outIdx := range tx.Outputs {
			out := &tx.Outputs[outIdx]
			if covenant.Type(out.Covenant.Type) == covenant.NONE {
				continue
			}
			c, err := covenant.FromWire(out.Covenant)
			if err != nil {
				return chainerror.New(chainerror.ErrParse, err.Error())
			}
			op := names.Operation{
				Covenant: c,
				Height:   entry.Height,
				TxIndex:  uint32(txIdx),
				OutIndex: uint32(outIdx),
				Outpoint: wire.OutPoint{Hash: tx.Hash(), Index: uint32(outIdx)},
				Value:    out.Value,
			}
			if len(tx.Inputs) > 0 {
				op.SpentOutpoint = tx.Inputs[0].Prevout
			}
			if err := names.Apply(view, w.params.Windows, op, isGenesisClaim, isRecentBlockHash); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyGenesisOperations installs the genesis block's REGISTER outputs
// directly as closed, owned auctions, bypassing names.Apply's auction state
// machine entirely. The genesis block's CLAIM outputs (see genesis.Build)
// are a transient bootstrap step immediately superseded, within the same
// block, by a REGISTER spending them; running both through the ordinary
// state machine would reject the REGISTER, since it requires a winning
// revealed bid that a genesis claim never has. Treating genesis as a
// trusted, directly-seeded starting state sidesteps that mismatch rather
// than widening the auction state machine for a case that can only ever
// occur once.
func (w *Writer) applyGenesisOperations(view *names.View, entry *Entry, block *wire.Block) error {
	for txIdx := range block.Transactions {
		tx := &block.Transactions[txIdx]
		for outIdx := range tx.Outputs {
			out := &tx.Outputs[outIdx]
			if covenant.Type(out.Covenant.Type) != covenant.REGISTER {
				continue
			}
			c, err := covenant.FromWire(out.Covenant)
			if err != nil {
				return chainerror.New(chainerror.ErrParse, err.Error())
			}
			nameHash := c.NameHash()
			a, err := view.GetAuction(nameHash)
			if err != nil {
				return err
			}
			a.Name = c.Name()
			a.Owner = wire.OutPoint{Hash: tx.Hash(), Index: uint32(outIdx)}
			a.Renewal = entry.Height
			a.State = names.StateClosed
			view.Touch(nameHash, a)
		}
	}
	return nil
}
