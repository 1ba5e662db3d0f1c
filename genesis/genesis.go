// Package genesis deterministically builds the four-network genesis block
// from a fixed root-zone snapshot, per spec.md 4.E. Every byte of the
// result is a pure function of the network's parameters, the snapshot, and
// the caller-supplied time/nonce/solution; the package performs no search
// of its own.
package genesis

import (
	"sort"

	"github.com/toole-brendan/rootd/chaincfg"
	"github.com/toole-brendan/rootd/chainhash"
	"github.com/toole-brendan/rootd/covenant"
	"github.com/toole-brendan/rootd/wire"
)

func addr(key [20]byte) wire.Address {
	return wire.Address{Version: 0, Hash: append([]byte(nil), key[:]...)}
}

// Build assembles the genesis block for params from the given root-zone
// snapshot, nonce and solution. zone need not be pre-sorted; Build sorts it
// lexicographically by name before use, per spec.md 4.E step 2.
func Build(params *chaincfg.Params, zone []NameEntry, nonce [wire.NonceSize]byte, solution wire.Solution) (*wire.Block, error) {
	sorted := append([]NameEntry(nil), zone...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	coinbase := buildCoinbase(params)
	claimer := buildClaimer(params, sorted, coinbase)
	registry := buildRegistry(params, sorted, claimer)

	block := &wire.Block{
		Header: wire.BlockHeader{
			Version:   1,
			PrevBlock: chainhash.ZeroHash,
			TreeRoot:  chainhash.ZeroHash,
			Time:      params.GenesisTime,
			Bits:      params.PowLimitBits,
			Nonce:     nonce,
		},
		Solution:     solution,
		Transactions: []wire.Transaction{coinbase, claimer, registry},
	}
	block.Header.MerkleRoot = block.CalcMerkleRoot()
	block.Header.WitnessRoot = block.CalcWitnessRoot()

	log.Infof("built genesis block for network %s with %d reserved names", params.Name, len(sorted))
	return block, nil
}

// buildCoinbase is genesis.md 4.E step 1: a null-prevout input carrying the
// epoch flag, and five outputs distributing the fixed premine allocations.
func buildCoinbase(params *chaincfg.Params) wire.Transaction {
	out := func(value uint64, key [20]byte) wire.Output {
		return wire.Output{Value: value, Address: addr(key), Covenant: wire.Covenant{Type: uint8(covenant.NONE)}}
	}

	return wire.Transaction{
		Version: 0,
		Inputs: []wire.Input{
			{Prevout: wire.OutPoint{Hash: chainhash.ZeroHash, Index: 0xffffffff}, Sequence: 0xffffffff},
		},
		Outputs: []wire.Output{
			out(chaincfg.GenesisReward, chaincfg.GenesisKey),
			out(chaincfg.MaxInvestors, params.Keys.Investors),
			out(chaincfg.MaxFoundation, params.Keys.Foundation),
			out(chaincfg.MaxCreators, params.Keys.Creators),
			out(chaincfg.MaxAirdrop, params.Keys.Airdrop),
		},
		Witnesses: []wire.Witness{{[]byte(chaincfg.EpochFlag)}},
	}
}

// buildClaimer is spec.md 4.E step 2: redistribute the coinbase's genesis
// reward output, then one CLAIM output per reserved name, sorted.
func buildClaimer(params *chaincfg.Params, sorted []NameEntry, coinbase wire.Transaction) wire.Transaction {
	tx := wire.Transaction{
		Version: 0,
		Inputs: []wire.Input{
			{Prevout: wire.OutPoint{Hash: coinbase.Hash(), Index: 0}, Sequence: 0xffffffff},
		},
		Outputs: make([]wire.Output, 0, 1+len(sorted)),
	}
	tx.Outputs = append(tx.Outputs, wire.Output{
		Value:    chaincfg.GenesisReward,
		Address:  addr(chaincfg.GenesisKey),
		Covenant: wire.Covenant{Type: uint8(covenant.NONE)},
	})
	for _, entry := range sorted {
		c, _ := covenant.New(covenant.CLAIM, []byte(entry.Name))
		tx.Outputs = append(tx.Outputs, wire.Output{
			Value:    0,
			Address:  addr(params.Keys.Claimant),
			Covenant: c.ToWire(),
		})
	}
	tx.Witnesses = make([]wire.Witness, len(tx.Inputs))
	return tx
}

// buildRegistry is spec.md 4.E step 3: one REGISTER output per name,
// spending the claimer's corresponding CLAIM output.
func buildRegistry(params *chaincfg.Params, sorted []NameEntry, claimer wire.Transaction) wire.Transaction {
	claimerHash := claimer.Hash()
	tx := wire.Transaction{
		Version: 0,
		Inputs:  make([]wire.Input, len(sorted)),
		Outputs: make([]wire.Output, len(sorted)),
	}
	for i, entry := range sorted {
		// Claimer output 0 is the genesis redistribution; CLAIM outputs
		// for the sorted names start at index 1.
		tx.Inputs[i] = wire.Input{
			Prevout:  wire.OutPoint{Hash: claimerHash, Index: uint32(i + 1)},
			Sequence: 0xffffffff,
		}
		c, _ := covenant.New(covenant.REGISTER, []byte(entry.Name), entry.Resource.Encode(), make([]byte, chainhash.HashSize))
		tx.Outputs[i] = wire.Output{
			Value:    0,
			Address:  addr(params.Keys.Claimant),
			Covenant: c.ToWire(),
		}
	}
	tx.Witnesses = make([]wire.Witness, len(tx.Inputs))
	return tx
}
