package names

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/toole-brendan/rootd/chainhash"
	"github.com/toole-brendan/rootd/wire"
)

// Store is the durable auction record keyspace. Implementations need only
// support point lookups, point writes, and deletion; all transactional
// batching happens in View.
type Store interface {
	// GetAuction returns the stored auction for nameHash, or nil if none
	// exists.
	GetAuction(nameHash chainhash.Hash) (*Auction, error)
	// PutAuction writes a.
	PutAuction(a *Auction) error
	// DeleteAuction removes any stored record for nameHash.
	DeleteAuction(nameHash chainhash.Hash) error
}

// MemStore is an in-memory Store, used in tests.
type MemStore struct {
	mu        sync.RWMutex
	auctions  map[chainhash.Hash]*Auction
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{auctions: make(map[chainhash.Hash]*Auction)}
}

func (s *MemStore) GetAuction(nameHash chainhash.Hash) (*Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.auctions[nameHash]
	if !ok {
		return nil, nil
	}
	return a.Clone(), nil
}

func (s *MemStore) PutAuction(a *Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auctions[a.NameHash] = a.Clone()
	return nil
}

func (s *MemStore) DeleteAuction(nameHash chainhash.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.auctions, nameHash)
	return nil
}

// auctionKeyPrefix namespaces auction records within a shared LevelDB
// keyspace, following the teacher's StateKey-prefix-byte convention (see
// blockchain/shell_state.go's ShellStateKey constants).
const auctionKeyPrefix = 0x01

func auctionKey(nameHash chainhash.Hash) []byte {
	key := make([]byte, 1+chainhash.HashSize)
	key[0] = auctionKeyPrefix
	copy(key[1:], nameHash[:])
	return key
}

// LevelDBStore persists auction records in a goleveldb database.
type LevelDBStore struct {
	db *leveldb.DB
}

// NewLevelDBStore wraps an open goleveldb handle.
func NewLevelDBStore(db *leveldb.DB) *LevelDBStore {
	return &LevelDBStore{db: db}
}

func (s *LevelDBStore) GetAuction(nameHash chainhash.Hash) (*Auction, error) {
	raw, err := s.db.Get(auctionKey(nameHash), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("names: get auction: %w", err)
	}
	return decodeAuction(raw)
}

func (s *LevelDBStore) PutAuction(a *Auction) error {
	raw, err := encodeAuction(a)
	if err != nil {
		return err
	}
	if err := s.db.Put(auctionKey(a.NameHash), raw, nil); err != nil {
		return fmt.Errorf("names: put auction: %w", err)
	}
	return nil
}

func (s *LevelDBStore) DeleteAuction(nameHash chainhash.Hash) error {
	if err := s.db.Delete(auctionKey(nameHash), nil); err != nil {
		return fmt.Errorf("names: delete auction: %w", err)
	}
	return nil
}

// Iterate calls fn for every auction currently stored, in key order.
func (s *LevelDBStore) Iterate(fn func(*Auction) error) error {
	iter := s.db.NewIterator(util.BytesPrefix([]byte{auctionKeyPrefix}), nil)
	defer iter.Release()
	for iter.Next() {
		a, err := decodeAuction(iter.Value())
		if err != nil {
			return err
		}
		if err := fn(a); err != nil {
			return err
		}
	}
	return iter.Error()
}

// encodeAuction serializes an Auction for storage. The format is internal
// to this package; it is not a consensus wire format.
func encodeAuction(a *Auction) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(a.NameHash[:])
	if err := wire.WriteVarBytes(&buf, []byte(a.Name)); err != nil {
		return nil, err
	}
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], a.Height)
	buf.Write(u32[:])
	binary.LittleEndian.PutUint32(u32[:], a.Renewal)
	buf.Write(u32[:])
	if err := a.Owner.Encode(&buf); err != nil {
		return nil, err
	}
	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], a.Value)
	buf.Write(u64[:])
	binary.LittleEndian.PutUint64(u64[:], a.Highest)
	buf.Write(u64[:])
	buf.WriteByte(byte(a.State))

	if err := wire.WriteVarInt(&buf, uint64(len(a.Bids))); err != nil {
		return nil, err
	}
	for _, b := range a.Bids {
		buf.Write(b.Blind[:])
		if err := b.Outpoint.Encode(&buf); err != nil {
			return nil, err
		}
		binary.LittleEndian.PutUint32(u32[:], b.Height)
		buf.Write(u32[:])
		binary.LittleEndian.PutUint32(u32[:], b.TxIndex)
		buf.Write(u32[:])
		binary.LittleEndian.PutUint32(u32[:], b.OutIndex)
		buf.Write(u32[:])
		binary.LittleEndian.PutUint64(u64[:], b.Lockup)
		buf.Write(u64[:])
		binary.LittleEndian.PutUint64(u64[:], b.Value)
		buf.Write(u64[:])
		flags := byte(0)
		if b.Revealed {
			flags |= 1
		}
		if b.Redeemable {
			flags |= 2
		}
		buf.WriteByte(flags)
	}

	if a.Transfer != nil {
		buf.WriteByte(1)
		if err := a.Transfer.Address.Encode(&buf); err != nil {
			return nil, err
		}
		binary.LittleEndian.PutUint32(u32[:], a.Transfer.StartHeight)
		buf.Write(u32[:])
	} else {
		buf.WriteByte(0)
	}

	return buf.Bytes(), nil
}

func decodeAuction(raw []byte) (*Auction, error) {
	r := bytes.NewReader(raw)
	a := &Auction{}
	if _, err := r.Read(a.NameHash[:]); err != nil {
		return nil, err
	}
	name, err := wire.ReadVarBytes(r, 256)
	if err != nil {
		return nil, err
	}
	a.Name = string(name)

	var u32 [4]byte
	if _, err := r.Read(u32[:]); err != nil {
		return nil, err
	}
	a.Height = binary.LittleEndian.Uint32(u32[:])
	if _, err := r.Read(u32[:]); err != nil {
		return nil, err
	}
	a.Renewal = binary.LittleEndian.Uint32(u32[:])
	if err := a.Owner.Decode(r); err != nil {
		return nil, err
	}
	var u64 [8]byte
	if _, err := r.Read(u64[:]); err != nil {
		return nil, err
	}
	a.Value = binary.LittleEndian.Uint64(u64[:])
	if _, err := r.Read(u64[:]); err != nil {
		return nil, err
	}
	a.Highest = binary.LittleEndian.Uint64(u64[:])

	stateByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	a.State = State(stateByte)

	nBids, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	a.Bids = make([]Bid, nBids)
	for i := range a.Bids {
		b := &a.Bids[i]
		if _, err := r.Read(b.Blind[:]); err != nil {
			return nil, err
		}
		if err := b.Outpoint.Decode(r); err != nil {
			return nil, err
		}
		if _, err := r.Read(u32[:]); err != nil {
			return nil, err
		}
		b.Height = binary.LittleEndian.Uint32(u32[:])
		if _, err := r.Read(u32[:]); err != nil {
			return nil, err
		}
		b.TxIndex = binary.LittleEndian.Uint32(u32[:])
		if _, err := r.Read(u32[:]); err != nil {
			return nil, err
		}
		b.OutIndex = binary.LittleEndian.Uint32(u32[:])
		if _, err := r.Read(u64[:]); err != nil {
			return nil, err
		}
		b.Lockup = binary.LittleEndian.Uint64(u64[:])
		if _, err := r.Read(u64[:]); err != nil {
			return nil, err
		}
		b.Value = binary.LittleEndian.Uint64(u64[:])
		flags, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		b.Revealed = flags&1 != 0
		b.Redeemable = flags&2 != 0
	}

	hasTransfer, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if hasTransfer == 1 {
		t := &TransferPayload{}
		if err := t.Address.Decode(r); err != nil {
			return nil, err
		}
		if _, err := r.Read(u32[:]); err != nil {
			return nil, err
		}
		t.StartHeight = binary.LittleEndian.Uint32(u32[:])
		a.Transfer = t
	}

	return a, nil
}
