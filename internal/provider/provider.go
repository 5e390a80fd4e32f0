// Package provider defines the wallet provider capability the session talks
// to, and a local key-custody implementation of it.
package provider

import (
	"context"
	"math/big"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// Backend is the chain access a provider exposes: fee data, gas estimation,
// nonces, submission, receipts and balances.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Provider is an injected wallet. Calls that need the user's consent
// (RequestAccounts, SwitchChain, AddChain, SignTransaction) may block on a
// prompt until ctx is done.
type Provider interface {
	Kind() string

	// RequestAccounts asks the user to grant account access.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// Accounts returns already-granted accounts without prompting.
	Accounts(ctx context.Context) ([]common.Address, error)

	ChainID(ctx context.Context) (uint64, error)
	SwitchChain(ctx context.Context, chainID uint64) error
	AddChain(ctx context.Context, params ChainParams) error

	// Backend returns chain access for the currently selected chain.
	Backend(ctx context.Context) (Backend, error)
	SignTransaction(ctx context.Context, from common.Address, tx *types.Transaction) (*types.Transaction, error)

	SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription
	SubscribeChainChanged(ch chan<- uint64) event.Subscription
}

// NativeCurrency is the EIP-3085 currency block.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// ChainParams is the EIP-3085 add-chain request.
type ChainParams struct {
	ChainID           uint64         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

// ParamsFor builds add-chain parameters from a network descriptor.
func ParamsFor(n *chain.Network) ChainParams {
	p := ChainParams{
		ChainID:   n.ChainID,
		ChainName: n.DisplayName,
		NativeCurrency: NativeCurrency{
			Name:     n.NativeCurrency,
			Symbol:   n.NativeCurrency,
			Decimals: 18,
		},
		RPCURLs: []string{n.RPCURL},
	}
	if n.ExplorerURL != "" {
		p.BlockExplorerURLs = []string{n.ExplorerURL}
	}
	return p
}
