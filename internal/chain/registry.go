package chain

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// ErrChainNotFound is returned when a chain is not in the registry.
var ErrChainNotFound = errors.New("chain not found")

// Network describes one deployable EVM network.
type Network struct {
	ChainID        uint64 `json:"chain_id"`
	Name           string `json:"name"`         // slug, e.g. "polygon"
	DisplayName    string `json:"display_name"` // e.g. "Polygon"
	NativeCurrency string `json:"native_currency"`
	RPCURL         string `json:"rpc_url"`
	ExplorerURL    string `json:"explorer_url"`
	Testnet        bool   `json:"testnet"`
}

// Registry is the static network table, keyed by chain ID.
type Registry struct {
	networks []Network
	byName   map[string]*Network
	byID     map[uint64]*Network
}

// NewRegistry returns the full network table.
func NewRegistry() *Registry {
	networks := allNetworks()
	r := &Registry{
		networks: networks,
		byName:   make(map[string]*Network, len(networks)),
		byID:     make(map[uint64]*Network, len(networks)),
	}
	for i := range r.networks {
		n := &r.networks[i]
		r.byName[n.Name] = n
		r.byID[n.ChainID] = n
	}
	return r
}

// All returns every network ordered by chain ID.
func (r *Registry) All() []Network {
	out := make([]Network, len(r.networks))
	copy(out, r.networks)
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return out
}

// ByChainID finds a network by its numeric chain ID.
func (r *Registry) ByChainID(id uint64) (*Network, error) {
	n, ok := r.byID[id]
	if !ok {
		return nil, ErrChainNotFound
	}
	return n, nil
}

// ByName finds a network by its slug name (e.g. "bsc", "ethereum").
func (r *Registry) ByName(name string) (*Network, error) {
	n, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, ErrChainNotFound
	}
	return n, nil
}

// Resolve accepts either a slug ("polygon") or a decimal/hex chain ID
// ("137", "0x89").
func (r *Registry) Resolve(ref string) (*Network, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrChainNotFound
	}
	if id, err := strconv.ParseUint(ref, 0, 64); err == nil {
		return r.ByChainID(id)
	}
	return r.ByName(ref)
}

// SetRPC overrides the RPC endpoint of a network.
func (r *Registry) SetRPC(id uint64, rpcURL string) error {
	n, err := r.ByChainID(id)
	if err != nil {
		return err
	}
	u, err := url.Parse(rpcURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid RPC URL %q", rpcURL)
	}
	n.RPCURL = rpcURL
	return nil
}

// AddressURL links to an address page on the network's explorer.
func (n *Network) AddressURL(addr string) string {
	if n.ExplorerURL == "" {
		return ""
	}
	return strings.TrimSuffix(n.ExplorerURL, "/") + "/address/" + addr
}

// TxURL links to a transaction page on the network's explorer.
func (n *Network) TxURL(hash string) string {
	if n.ExplorerURL == "" {
		return ""
	}
	return strings.TrimSuffix(n.ExplorerURL, "/") + "/tx/" + hash
}

// HexChainID returns the chain ID in the 0x-prefixed form wallets expect.
func (n *Network) HexChainID() string {
	return "0x" + strconv.FormatUint(n.ChainID, 16)
}

// --- network data ---

func allNetworks() []Network {
	return []Network{
		{
			ChainID: 1, Name: "ethereum", DisplayName: "Ethereum", NativeCurrency: "ETH",
			RPCURL:      "https://ethereum-rpc.publicnode.com",
			ExplorerURL: "https://etherscan.io",
		},
		{
			ChainID: 10, Name: "optimism", DisplayName: "Optimism", NativeCurrency: "ETH",
			RPCURL:      "https://mainnet.optimism.io",
			ExplorerURL: "https://optimistic.etherscan.io",
		},
		{
			ChainID: 56, Name: "bsc", DisplayName: "BNB Smart Chain", NativeCurrency: "BNB",
			RPCURL:      "https://bsc-dataseed.binance.org",
			ExplorerURL: "https://bscscan.com",
		},
		{
			ChainID: 137, Name: "polygon", DisplayName: "Polygon", NativeCurrency: "MATIC",
			RPCURL:      "https://polygon-rpc.com",
			ExplorerURL: "https://polygonscan.com",
		},
		{
			ChainID: 8453, Name: "base", DisplayName: "Base", NativeCurrency: "ETH",
			RPCURL:      "https://mainnet.base.org",
			ExplorerURL: "https://basescan.org",
		},
		{
			ChainID: 42161, Name: "arbitrum", DisplayName: "Arbitrum One", NativeCurrency: "ETH",
			RPCURL:      "https://arb1.arbitrum.io/rpc",
			ExplorerURL: "https://arbiscan.io",
		},
		{
			ChainID: 43114, Name: "avalanche", DisplayName: "Avalanche C-Chain", NativeCurrency: "AVAX",
			RPCURL:      "https://api.avax.network/ext/bc/C/rpc",
			ExplorerURL: "https://snowtrace.io",
		},
		{
			ChainID: 11155111, Name: "sepolia", DisplayName: "Sepolia", NativeCurrency: "ETH",
			RPCURL:      "https://ethereum-sepolia-rpc.publicnode.com",
			ExplorerURL: "https://sepolia.etherscan.io",
			Testnet:     true,
		},
	}
}
