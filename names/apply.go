package names

import (
	"sort"

	"github.com/toole-brendan/rootd/chaincfg"
	"github.com/toole-brendan/rootd/chainerror"
	"github.com/toole-brendan/rootd/chainhash"
	"github.com/toole-brendan/rootd/covenant"
	"github.com/toole-brendan/rootd/wire"
)

// Operation is one covenant-bearing output, in the block-application order
// spec.md 5 requires: transaction order, then output index.
type Operation struct {
	Covenant covenant.Covenant
	Height   uint32
	TxIndex  uint32
	OutIndex uint32

	// Outpoint identifies the new output this covenant is attached to; it
	// becomes the name's owner/bid reference for whichever future
	// operation spends it next.
	Outpoint wire.OutPoint
	// SpentOutpoint identifies the prior output this operation's
	// transaction input spends, when the covenant type requires spending a
	// specific earlier covenant output (REVEAL, REDEEM, REGISTER, UPDATE,
	// RENEW, TRANSFER, FINALIZE, REVOKE). It is the zero OutPoint for BID
	// and CLAIM, which do not require one.
	SpentOutpoint wire.OutPoint
	// Value is the value carried by Outpoint: the lockup for BID, the
	// revealed amount for REVEAL, and otherwise unused.
	Value uint64
}

// IsGenesisClaimFunc reports whether the transaction producing op traces
// back to the genesis claimant outputs, a fact about UTXO provenance that
// this package does not itself track.
type IsGenesisClaimFunc func(op Operation) bool

// IsRecentBlockHashFunc reports whether hash names a chain entry within the
// consensus-defined renewal-anchor window of the current tip.
type IsRecentBlockHashFunc func(hash chainhash.Hash) bool

// Apply dispatches a single covenant operation against the view, per the
// state machine in spec.md 4.F. It returns a *chainerror.RuleError for any
// illegal transition, which the caller should treat as grounds to reject
// the containing block.
func Apply(view *View, windows chaincfg.Windows, op Operation, isGenesisClaim IsGenesisClaimFunc, isRecentBlockHash IsRecentBlockHashFunc) error {
	if op.Covenant.Type == covenant.NONE {
		return nil
	}

	nameHash := op.Covenant.NameHash()
	a, err := view.GetAuction(nameHash)
	if err != nil {
		return err
	}
	if a.Name == "" {
		a.Name = op.Covenant.Name()
	}

	expireAuctionIfDue(a, op.Height, windows.Expire)

	switch op.Covenant.Type {
	case covenant.CLAIM:
		return applyClaim(a, op, isGenesisClaim)
	case covenant.BID:
		return applyBid(a, windows, op)
	case covenant.REVEAL:
		return applyReveal(a, windows, op)
	case covenant.REDEEM:
		return applyRedeem(a, windows, op)
	case covenant.REGISTER:
		return applyRegister(a, windows, op)
	case covenant.UPDATE:
		return applyUpdate(a, windows, op)
	case covenant.RENEW:
		return applyRenew(a, windows, op, isRecentBlockHash)
	case covenant.TRANSFER:
		return applyTransfer(a, windows, op)
	case covenant.FINALIZE:
		return applyFinalize(a, windows, op)
	case covenant.REVOKE:
		return applyRevoke(a, op)
	default:
		return chainerror.New(chainerror.ErrCovenant, "unrecognized covenant type")
	}
}

// expireAuctionIfDue resets a closed, expired auction to the null state in
// place, per spec.md 4.F's expiry rule. A freshly nulled auction is
// biddable again within the same block that expires it.
func expireAuctionIfDue(a *Auction, height uint32, windowExpire uint32) {
	if a.State == StateClosed && a.Expired(height, windowExpire) {
		log.Debugf("name %q expired at height %d, resetting to null", a.Name, height)
		a.Height = 0
		a.Renewal = 0
		a.Owner = wire.OutPoint{}
		a.Value = 0
		a.Highest = 0
		a.State = StateNone
		a.Bids = nil
		a.Transfer = nil
	}
}

func applyClaim(a *Auction, op Operation, isGenesisClaim IsGenesisClaimFunc) error {
	if !a.IsNull() {
		return chainerror.New(chainerror.ErrCovenant, "CLAIM against an already-touched name")
	}
	if isGenesisClaim == nil || !isGenesisClaim(op) {
		return chainerror.New(chainerror.ErrCovenant, "CLAIM does not trace back to the genesis claimant")
	}
	a.Owner = op.Outpoint
	a.Renewal = op.Height
	a.State = StateClosed
	return nil
}

func applyBid(a *Auction, windows chaincfg.Windows, op Operation) error {
	switch a.State {
	case StateNone:
		a.Height = op.Height
		a.State = StateBidding
	case StateBidding:
		if op.Height >= a.Height+windows.Bid {
			return chainerror.New(chainerror.ErrCovenant, "BID after the bidding window closed")
		}
	default:
		return chainerror.New(chainerror.ErrCovenant, "BID while auction is not open for bidding")
	}

	a.Bids = append(a.Bids, Bid{
		Blind:    op.Covenant.Blind(),
		Outpoint: op.Outpoint,
		Height:   op.Height,
		TxIndex:  op.TxIndex,
		OutIndex: op.OutIndex,
		Lockup:   op.Value,
	})
	return nil
}

func revealWindow(a *Auction, windows chaincfg.Windows) (open, close uint32) {
	open = a.Height + windows.Bid
	close = open + windows.Reveal
	return
}

func applyReveal(a *Auction, windows chaincfg.Windows, op Operation) error {
	if a.State != StateBidding && a.State != StateReveal {
		return chainerror.New(chainerror.ErrCovenant, "REVEAL against an auction that was never opened")
	}
	open, close := revealWindow(a, windows)
	if op.Height < open || op.Height >= close {
		return chainerror.New(chainerror.ErrCovenant, "REVEAL outside the reveal window")
	}

	idx := -1
	for i := range a.Bids {
		if a.Bids[i].Outpoint == op.SpentOutpoint && !a.Bids[i].Revealed {
			idx = i
			break
		}
	}
	if idx < 0 {
		return chainerror.New(chainerror.ErrCovenant, "REVEAL does not match a pending bid")
	}

	blind := covenant.ComputeBlind(op.Value, op.Covenant.Nonce(), a.NameHash)
	if blind != a.Bids[idx].Blind {
		return chainerror.New(chainerror.ErrCovenant, "REVEAL value/nonce does not match the bid's blind")
	}

	a.Bids[idx].Revealed = true
	a.Bids[idx].Value = op.Value
	a.Bids[idx].Outpoint = op.Outpoint
	a.State = StateReveal

	top1, top2 := topTwoRevealed(a.Bids)
	a.Highest = top1
	a.Value = top2
	return nil
}

// topTwoRevealed returns the two highest revealed bid values, breaking ties
// by earliest-seen (height, then tx index, then output index). If only one
// bid has been revealed, both return values equal its own value.
func topTwoRevealed(bids []Bid) (top1, top2 uint64) {
	revealed := make([]Bid, 0, len(bids))
	for _, b := range bids {
		if b.Revealed {
			revealed = append(revealed, b)
		}
	}
	if len(revealed) == 0 {
		return 0, 0
	}
	sort.SliceStable(revealed, func(i, j int) bool {
		bi, bj := revealed[i], revealed[j]
		if bi.Value != bj.Value {
			return bi.Value > bj.Value
		}
		if bi.Height != bj.Height {
			return bi.Height < bj.Height
		}
		if bi.TxIndex != bj.TxIndex {
			return bi.TxIndex < bj.TxIndex
		}
		return bi.OutIndex < bj.OutIndex
	})
	top1 = revealed[0].Value
	if len(revealed) == 1 {
		return top1, top1
	}
	return top1, revealed[1].Value
}

func winningBidIndex(bids []Bid) int {
	best := -1
	for i, b := range bids {
		if !b.Revealed {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		bi, bj := b, bids[best]
		less := bi.Value < bj.Value ||
			(bi.Value == bj.Value && (bi.Height > bj.Height ||
				(bi.Height == bj.Height && (bi.TxIndex > bj.TxIndex ||
					(bi.TxIndex == bj.TxIndex && bi.OutIndex > bj.OutIndex)))))
		if !less {
			best = i
		}
	}
	return best
}

func applyRedeem(a *Auction, windows chaincfg.Windows, op Operation) error {
	_, close := revealWindow(a, windows)
	if op.Height < close {
		return chainerror.New(chainerror.ErrCovenant, "REDEEM before the reveal window closed")
	}
	win := winningBidIndex(a.Bids)
	for i := range a.Bids {
		if a.Bids[i].Outpoint != op.SpentOutpoint {
			continue
		}
		if !a.Bids[i].Revealed {
			return chainerror.New(chainerror.ErrCovenant, "REDEEM of an unrevealed bid")
		}
		if i == win {
			return chainerror.New(chainerror.ErrCovenant, "REDEEM of the winning bid")
		}
		if a.Bids[i].Redeemable {
			return chainerror.New(chainerror.ErrCovenant, "REDEEM of an already-redeemed bid")
		}
		a.Bids[i].Redeemable = true
		return nil
	}
	return chainerror.New(chainerror.ErrCovenant, "REDEEM does not match a revealed bid")
}

func applyRegister(a *Auction, windows chaincfg.Windows, op Operation) error {
	_, close := revealWindow(a, windows)
	if op.Height < close {
		return chainerror.New(chainerror.ErrCovenant, "REGISTER before the reveal window closed")
	}
	win := winningBidIndex(a.Bids)
	if win < 0 || a.Bids[win].Outpoint != op.SpentOutpoint {
		return chainerror.New(chainerror.ErrCovenant, "REGISTER by a non-winner")
	}

	a.Owner = op.Outpoint
	a.Renewal = op.Height
	a.State = StateClosed
	// Bids are left in place: a losing bidder's REDEEM is an independent
	// post-reveal operation with no ordering constraint against REGISTER,
	// and still needs to find its revealed bid here.
	return nil
}

func requireOwnerSpend(a *Auction, op Operation, windows chaincfg.Windows) error {
	if a.State != StateClosed {
		return chainerror.New(chainerror.ErrCovenant, "operation requires a closed, live auction")
	}
	if a.Owner != op.SpentOutpoint {
		return chainerror.New(chainerror.ErrCovenant, "operation does not spend the current owner output")
	}
	return nil
}

func applyUpdate(a *Auction, windows chaincfg.Windows, op Operation) error {
	if err := requireOwnerSpend(a, op, windows); err != nil {
		return err
	}
	a.Owner = op.Outpoint
	return nil
}

func applyRenew(a *Auction, windows chaincfg.Windows, op Operation, isRecentBlockHash IsRecentBlockHashFunc) error {
	if err := requireOwnerSpend(a, op, windows); err != nil {
		return err
	}
	if isRecentBlockHash == nil || !isRecentBlockHash(op.Covenant.BlockHash()) {
		return chainerror.New(chainerror.ErrCovenant, "RENEW anchor block is not within the renewal window")
	}
	a.Owner = op.Outpoint
	a.Renewal = op.Height
	return nil
}

func applyTransfer(a *Auction, windows chaincfg.Windows, op Operation) error {
	if err := requireOwnerSpend(a, op, windows); err != nil {
		return err
	}
	if a.Transfer != nil {
		return chainerror.New(chainerror.ErrCovenant, "TRANSFER while a transfer is already pending")
	}
	addr := op.Covenant.TransferAddress()
	a.Transfer = &TransferPayload{
		Address:     wire.Address{Hash: append([]byte(nil), addr...)},
		StartHeight: op.Height,
	}
	a.Owner = op.Outpoint
	return nil
}

// finalizeDelay is the mandatory TRANSFER-to-FINALIZE waiting period.
// spec.md 6 names only four consensus windows (bid, reveal, renew-anchor,
// expire); none of them is labelled as a transfer delay. The renewal
// anchor window is reused here as the closest analog — a bounded,
// consensus-defined waiting period — since introducing a fifth window
// would add a parameter the spec never names.
func finalizeDelay(windows chaincfg.Windows) uint32 { return windows.RenewAnchor }

func applyFinalize(a *Auction, windows chaincfg.Windows, op Operation) error {
	if a.State != StateClosed || a.Transfer == nil {
		return chainerror.New(chainerror.ErrCovenant, "FINALIZE without a pending transfer")
	}
	if a.Owner != op.SpentOutpoint {
		return chainerror.New(chainerror.ErrCovenant, "FINALIZE does not spend the pending transfer output")
	}
	if op.Height < a.Transfer.StartHeight+finalizeDelay(windows) {
		return chainerror.New(chainerror.ErrCovenant, "FINALIZE before the transfer delay elapsed")
	}
	a.Owner = op.Outpoint
	a.Transfer = nil
	return nil
}

func applyRevoke(a *Auction, op Operation) error {
	if a.State != StateClosed {
		return chainerror.New(chainerror.ErrCovenant, "REVOKE of a name that is not closed")
	}
	if a.Owner != op.SpentOutpoint {
		return chainerror.New(chainerror.ErrCovenant, "REVOKE does not spend the current owner output")
	}
	a.State = StateRevoked
	a.Transfer = nil
	return nil
}
