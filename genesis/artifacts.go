package genesis

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/toole-brendan/rootd/chaincfg"
)

// NetworkBlocks maps a network name to its built genesis block bytes, the
// input every artifact emitter shares.
type NetworkBlocks map[string][]byte

// ConstantsSnippet renders a Go source fragment declaring one hex-string
// constant per network, suitable for pasting into a generated constants
// file elsewhere in the system.
func ConstantsSnippet(blocks NetworkBlocks) string {
	var b strings.Builder
	b.WriteString("// Code generated by the genesis builder. DO NOT EDIT.\n\n")
	b.WriteString("package chaincfg\n\n")
	b.WriteString("const (\n")
	for _, name := range sortedNetworkNames(blocks) {
		fmt.Fprintf(&b, "\tGenesisBlockHex%s = %q\n", strings.Title(name), fmt.Sprintf("%x", blocks[name]))
	}
	b.WriteString(")\n")
	return b.String()
}

// JSONArtifact renders the base64-encoded raw blocks keyed by network name,
// per spec.md 6.
func JSONArtifact(blocks NetworkBlocks) string {
	var b strings.Builder
	b.WriteString("{\n")
	names := sortedNetworkNames(blocks)
	for i, name := range names {
		comma := ","
		if i == len(names)-1 {
			comma = ""
		}
		fmt.Fprintf(&b, "  %q: %q%s\n", name, base64.StdEncoding.EncodeToString(blocks[name]), comma)
	}
	b.WriteString("}\n")
	return b.String()
}

// CHeaderArtifact renders a C header with each raw block as an escaped byte
// array literal, per spec.md 6.
func CHeaderArtifact(blocks NetworkBlocks) string {
	var b strings.Builder
	b.WriteString("/* Code generated by the genesis builder. DO NOT EDIT. */\n\n")
	b.WriteString("#ifndef ROOTD_GENESIS_BLOCKS_H\n#define ROOTD_GENESIS_BLOCKS_H\n\n")
	for _, name := range sortedNetworkNames(blocks) {
		raw := blocks[name]
		fmt.Fprintf(&b, "static const unsigned char genesis_block_%s[%d] = {\n", name, len(raw))
		for i, byt := range raw {
			if i%12 == 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "0x%02x,", byt)
			if i%12 == 11 || i == len(raw)-1 {
				b.WriteString("\n")
			}
		}
		b.WriteString("};\n\n")
	}
	b.WriteString("#endif\n")
	return b.String()
}

func sortedNetworkNames(blocks NetworkBlocks) []string {
	names := make([]string, 0, len(blocks))
	for name := range blocks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NetworkName returns the canonical artifact key for n: "main", "testnet",
// "regtest", or "simnet".
func NetworkName(n chaincfg.Network) string {
	return n.String()
}
