// Package ens resolves Ethereum Name Service names. Lookups go to the
// registry on Ethereum mainnet.
package ens

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ChainID is the chain the registry is read from.
const ChainID = 1

// RegistryAddress is the ENS registry, the same on mainnet and Sepolia.
var RegistryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

var (
	// ErrNoResolver is returned when the name has no resolver set.
	ErrNoResolver = errors.New("no ENS resolver")
	// ErrNoRecord is returned when the resolver has no address or name.
	ErrNoRecord = errors.New("no ENS record")
)

// resolver(bytes32) on the registry; addr(bytes32) and name(bytes32) on
// resolvers.
const resolverABI = `[
	{"type":"function","name":"resolver","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"addr","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"name","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"string"}]}
]`

var ensABI = func() abi.ABI {
	a, err := abi.JSON(strings.NewReader(resolverABI))
	if err != nil {
		panic(err)
	}
	return a
}()

// IsName reports whether s looks like an ENS name rather than an address.
func IsName(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || common.IsHexAddress(s) || strings.HasPrefix(s, "0x") {
		return false
	}
	i := strings.LastIndex(s, ".")
	return i > 0 && i < len(s)-1 && !strings.ContainsAny(s, " /:@")
}

// Namehash implements the EIP-137 namehash. Names must be normalized
// before hashing.
func Namehash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		node = crypto.Keccak256Hash(node[:], crypto.Keccak256([]byte(labels[i])))
	}
	return node
}

// Resolve returns the address name points to.
func Resolve(ctx context.Context, caller bind.ContractCaller, name string) (common.Address, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	node := Namehash(name)

	resolver, err := lookupResolver(ctx, caller, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", name, err)
	}
	var addr common.Address
	if err := call(ctx, caller, resolver, "addr", node, &addr); err != nil {
		return common.Address{}, fmt.Errorf("%s: querying resolver: %w", name, err)
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w for %s", ErrNoRecord, name)
	}
	return addr, nil
}

// ReverseLookup returns the primary name of addr. The name is only
// returned when it resolves back to addr.
func ReverseLookup(ctx context.Context, caller bind.ContractCaller, addr common.Address) (string, error) {
	node := Namehash(strings.ToLower(strings.TrimPrefix(addr.Hex(), "0x")) + ".addr.reverse")

	resolver, err := lookupResolver(ctx, caller, node)
	if err != nil {
		return "", fmt.Errorf("reverse record for %s: %w", addr.Hex(), err)
	}
	var name string
	if err := call(ctx, caller, resolver, "name", node, &name); err != nil {
		return "", fmt.Errorf("querying reverse resolver: %w", err)
	}
	if name == "" {
		return "", fmt.Errorf("%w: no reverse name for %s", ErrNoRecord, addr.Hex())
	}

	forward, err := Resolve(ctx, caller, name)
	if err != nil {
		return "", err
	}
	if forward != addr {
		return "", fmt.Errorf("%w: %s resolves to %s", ErrNoRecord, name, forward.Hex())
	}
	return name, nil
}

func lookupResolver(ctx context.Context, caller bind.ContractCaller, node common.Hash) (common.Address, error) {
	var resolver common.Address
	if err := call(ctx, caller, RegistryAddress, "resolver", node, &resolver); err != nil {
		return common.Address{}, fmt.Errorf("querying ENS registry: %w", err)
	}
	if resolver == (common.Address{}) {
		return common.Address{}, ErrNoResolver
	}
	return resolver, nil
}

func call(ctx context.Context, caller bind.ContractCaller, to common.Address, method string, node common.Hash, out any) error {
	data, err := ensABI.Pack(method, [32]byte(node))
	if err != nil {
		return err
	}
	res, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return err
	}
	if len(res) == 0 {
		// No contract at to; treat as unset.
		return nil
	}
	return ensABI.UnpackIntoInterface(out, method, res)
}
