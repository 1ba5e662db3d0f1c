package chainntnfs

import (
	"sync"

	"github.com/toole-brendan/rootd/chainhash"
	"github.com/toole-brendan/rootd/chainindex"
	"github.com/toole-brendan/rootd/wire"
)

// defaultBufferSize is the per-subscriber channel capacity. It is sized
// generously enough to absorb a burst of reorg disconnect/connect pairs
// without dropping, per spec.md 5's "slow subscriber" policy being the
// exception rather than the common case.
const defaultBufferSize = 256

// BlockSource is the read-only chain state chainntnfs queries to answer a
// subscriber's cooperative requests. It is satisfied by the chain writer
// that owns the active tip.
type BlockSource interface {
	Tip() (*chainindex.Entry, error)
	Entry(hash chainhash.Hash) (*chainindex.Entry, error)
	IsMainChain(hash chainhash.Hash) bool
	MainChainHash(height uint32) (chainhash.Hash, error)
	MainChainHeight() (uint32, bool)
	Transactions(hash chainhash.Hash) ([]wire.Transaction, error)
}

// Filter decides whether a transaction is of interest to a subscriber. A
// subscriber with no filter installed matches everything (spec.md 9 open
// question: "no filter installed" means "match everything").
type Filter interface {
	Matches(tx *wire.Transaction) bool
}

// Subscription is one subscriber's bounded event channel plus its current
// Bloom filter state.
type Subscription struct {
	id     uint64
	events chan Event

	mu     sync.Mutex
	filter Filter
}

// Events returns the channel a subscriber reads notifications from. The
// channel is never closed by the server except via Unsubscribe.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// SetFilter installs f as the subscriber's Bloom (or Bloom-like) predicate.
// Passing nil clears it, reverting to match-everything.
func (s *Subscription) SetFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

func (s *Subscription) matches(tx *wire.Transaction) bool {
	s.mu.Lock()
	f := s.filter
	s.mu.Unlock()
	if f == nil {
		return true
	}
	return f.Matches(tx)
}

// NotificationServer fans out chain events to subscribers over bounded
// channels. The writer goroutine that owns the active tip is the only
// expected caller of the Notify* methods; it never blocks on a subscriber.
type NotificationServer struct {
	source BlockSource

	mu        sync.Mutex
	subs      map[uint64]*Subscription
	nextSubID uint64
}

// NewNotificationServer returns a server backed by source for cooperative
// queries.
func NewNotificationServer(source BlockSource) *NotificationServer {
	return &NotificationServer{
		source: source,
		subs:   make(map[uint64]*Subscription),
	}
}

// Subscribe registers a new subscriber and returns its handle.
func (s *NotificationServer) Subscribe() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	sub := &Subscription{
		id:     s.nextSubID,
		events: make(chan Event, defaultBufferSize),
	}
	s.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call more than
// once.
func (s *NotificationServer) Unsubscribe(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub.id]; !ok {
		return
	}
	delete(s.subs, sub.id)
	close(sub.events)
}

// send delivers ev to sub, never blocking: a full channel has its oldest
// event dropped and a chain reset carrying tip injected in its place, per
// spec.md 5.
func (s *NotificationServer) send(sub *Subscription, ev Event) {
	select {
	case sub.events <- ev:
		return
	default:
	}

	select {
	case <-sub.events:
	default:
	}
	log.Debugf("subscriber %d channel full, dropping oldest event and injecting chain reset", sub.id)

	reset := Event{Type: ChainReset}
	if tip, err := s.source.Tip(); err == nil {
		reset.Tip = tip.Hash
	}
	select {
	case sub.events <- reset:
	default:
	}
}

func (s *NotificationServer) broadcast(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if ev.Type == TxAccepted && !sub.matches(ev.Tx) {
			continue
		}
		s.send(sub, ev)
	}
}

// NotifyBlockConnected announces a newly connected best-chain block.
func (s *NotificationServer) NotifyBlockConnected(entry *chainindex.Entry, txs []wire.Transaction) {
	s.broadcast(Event{Type: BlockConnected, Entry: entry, Txs: txs})
}

// NotifyBlockDisconnected announces a block rolled back during a reorg.
// Subscribers must treat a hash they never saw connect as a no-op, per
// spec.md 4.H.
func (s *NotificationServer) NotifyBlockDisconnected(entry *chainindex.Entry) {
	s.broadcast(Event{Type: BlockDisconnected, Entry: entry})
}

// NotifyTxAccepted announces a mempool-accepted transaction. Delivery is
// filtered per-subscriber by whatever Bloom filter (if any) is installed.
func (s *NotificationServer) NotifyTxAccepted(tx *wire.Transaction) {
	s.broadcast(Event{Type: TxAccepted, Tx: tx})
}

// NotifyChainReset forces every subscriber to resynchronize against tip.
func (s *NotificationServer) NotifyChainReset(tip chainhash.Hash) {
	s.broadcast(Event{Type: ChainReset, Tip: tip})
}
