// Package ens resolves ENS names so address arguments accept either form.
package ens

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/engineerpawangupta/crowsale/internal/chain"
)

// ENS Registry address — same on Ethereum mainnet and Sepolia.
const registryAddr = "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"

const zeroAddr = "0x0000000000000000000000000000000000000000"

// IsName reports whether s looks like an ENS name rather than an address.
func IsName(s string) bool {
	return strings.Contains(s, ".") && !strings.HasPrefix(s, "0x")
}

// Resolve resolves an ENS name to an address: it asks the registry for the
// name's resolver, then calls addr(bytes32) on it.
func Resolve(ctx context.Context, client *chain.Client, name string) (string, error) {
	node := Namehash(name)

	// resolver(bytes32) = 0x0178b8bf
	resolverResult, err := client.Call(ctx, registryAddr, "0x0178b8bf"+node)
	if err != nil {
		return "", fmt.Errorf("querying ENS registry: %w", err)
	}

	resolverAddr := parseAddress(resolverResult)
	if resolverAddr == "" || resolverAddr == zeroAddr {
		return "", fmt.Errorf("no resolver set for %q", name)
	}

	// addr(bytes32) = 0x3b3b57de
	addrResult, err := client.Call(ctx, resolverAddr, "0x3b3b57de"+node)
	if err != nil {
		return "", fmt.Errorf("querying ENS resolver: %w", err)
	}

	resolved := parseAddress(addrResult)
	if resolved == "" || resolved == zeroAddr {
		return "", fmt.Errorf("no address record for %q", name)
	}
	return resolved, nil
}

// ResolveAddress passes plain addresses through and resolves ENS names.
func ResolveAddress(ctx context.Context, client *chain.Client, s string) (string, error) {
	if !IsName(s) {
		return s, nil
	}
	return Resolve(ctx, client, s)
}

// ReverseLookup resolves an address to its ENS name via the addr.reverse
// registry.
func ReverseLookup(ctx context.Context, client *chain.Client, address string) (string, error) {
	clean := strings.ToLower(strings.TrimPrefix(address, "0x"))
	node := Namehash(clean + ".addr.reverse")

	resolverResult, err := client.Call(ctx, registryAddr, "0x0178b8bf"+node)
	if err != nil {
		return "", fmt.Errorf("querying reverse registry: %w", err)
	}

	resolverAddr := parseAddress(resolverResult)
	if resolverAddr == "" || resolverAddr == zeroAddr {
		return "", fmt.Errorf("no reverse record for %s", address)
	}

	// name(bytes32) = 0x691f3431
	nameResult, err := client.Call(ctx, resolverAddr, "0x691f3431"+node)
	if err != nil {
		return "", fmt.Errorf("querying reverse resolver: %w", err)
	}

	name := decodeString(nameResult)
	if name == "" {
		return "", fmt.Errorf("no reverse name for %s", address)
	}
	return name, nil
}

// Namehash implements the EIP-137 namehash algorithm:
// namehash("") = 0x00...00, namehash(l + "." + rest) =
// keccak256(namehash(rest) + keccak256(l)).
func Namehash(name string) string {
	node := make([]byte, 32)
	if name == "" {
		return fmt.Sprintf("%064x", node)
	}

	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		node = keccak256(append(node, keccak256([]byte(labels[i]))...))
	}
	return fmt.Sprintf("%064x", node)
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// parseAddress extracts a 20-byte address from a 32-byte ABI-encoded word.
func parseAddress(hexResult string) string {
	clean := strings.TrimPrefix(hexResult, "0x")
	if len(clean) < 64 {
		return ""
	}
	addr := clean[24:64]
	if strings.Trim(addr, "0") == "" {
		return zeroAddr
	}
	return "0x" + addr
}

// decodeString decodes an ABI-encoded string return value.
func decodeString(hexResult string) string {
	clean := strings.TrimPrefix(hexResult, "0x")
	if len(clean) < 128 { // offset word + length word minimum
		return ""
	}

	var length int
	if _, err := fmt.Sscanf(clean[64:128], "%x", &length); err != nil || length == 0 {
		return ""
	}

	dataEnd := 128 + length*2
	if dataEnd > len(clean) {
		dataEnd = len(clean)
	}
	raw, err := hex.DecodeString(clean[128:dataEnd])
	if err != nil {
		return ""
	}
	return string(raw)
}
