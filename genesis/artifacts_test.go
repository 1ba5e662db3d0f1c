package genesis

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toole-brendan/rootd/chaincfg"
	"github.com/toole-brendan/rootd/wire"
)

func buildAllNetworks(t *testing.T) NetworkBlocks {
	t.Helper()
	networks := map[string]*chaincfg.Params{
		"main":    &chaincfg.MainNetParams,
		"testnet": &chaincfg.TestNetParams,
		"regtest": &chaincfg.RegtestParams,
		"simnet":  &chaincfg.SimNetParams,
	}
	blocks := make(NetworkBlocks, len(networks))
	for name, params := range networks {
		var nonce [wire.NonceSize]byte
		block, err := Build(params, sampleZone(), nonce, zeroSolution(params))
		require.NoError(t, err)
		blocks[name] = block.Bytes()
	}
	return blocks
}

func TestConstantsSnippetContainsEveryNetwork(t *testing.T) {
	blocks := buildAllNetworks(t)
	snippet := ConstantsSnippet(blocks)
	require.Contains(t, snippet, "package chaincfg")
	require.Contains(t, snippet, "GenesisBlockHexMain")
	require.Contains(t, snippet, "GenesisBlockHexTestnet")
	require.Contains(t, snippet, "GenesisBlockHexRegtest")
	require.Contains(t, snippet, "GenesisBlockHexSimnet")
}

func TestJSONArtifactRoundTripsBase64(t *testing.T) {
	blocks := buildAllNetworks(t)
	out := JSONArtifact(blocks)
	for name, raw := range blocks {
		encoded := base64.StdEncoding.EncodeToString(raw)
		require.Contains(t, out, encoded)
		require.Contains(t, out, name)
	}
}

func TestCHeaderArtifactEscapesEveryByte(t *testing.T) {
	blocks := buildAllNetworks(t)
	out := CHeaderArtifact(blocks)
	require.True(t, strings.Contains(out, "#ifndef ROOTD_GENESIS_BLOCKS_H"))
	total := 0
	for name, raw := range blocks {
		require.Contains(t, out, "genesis_block_"+name)
		total += len(raw)
	}
	// Every byte of every block is rendered as one escaped 0x literal.
	require.Equal(t, total, strings.Count(out, "0x"))
}

func TestNetworkNameMatchesArtifactKeys(t *testing.T) {
	require.Equal(t, "main", NetworkName(chaincfg.Main))
	require.Equal(t, "testnet", NetworkName(chaincfg.Testnet))
	require.Equal(t, "regtest", NetworkName(chaincfg.Regtest))
	require.Equal(t, "simnet", NetworkName(chaincfg.Simnet))
}
