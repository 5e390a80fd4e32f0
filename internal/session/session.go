// Package session owns the wallet connection state machine: which account
// is connected, which chain it is on, and the operations that move between
// those states or deploy contracts through the connected wallet.
package session

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
)

// State is the connection state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	SwitchingNetwork
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case SwitchingNetwork:
		return "switching network"
	default:
		return "unknown"
	}
}

// Session is the connected account and chain. Connected is true exactly
// when Account is set.
type Session struct {
	Account   string `json:"account,omitempty"`
	ChainID   uint64 `json:"chain_id,omitempty"`
	Connected bool   `json:"connected"`
}

// Snapshot is a consistent read of the manager for rendering.
type Snapshot struct {
	State      State
	Session    Session
	Network    *chain.Network // nil when the chain is not in the table
	WalletType string
}

// GasEstimate is a point-in-time estimate. Re-estimate if it is old by the
// time the transaction is sent.
type GasEstimate struct {
	GasLimit    uint64
	GasPrice    *big.Int
	Cost        *big.Int
	EstimatedAt time.Time
}

// DeploymentResult describes a confirmed contract creation.
type DeploymentResult struct {
	ContractAddress string `json:"contract_address"`
	TransactionHash string `json:"transaction_hash"`
	GasUsed         uint64 `json:"gas_used"`
	BlockNumber     uint64 `json:"block_number"`
}

// Errors.
var (
	ErrProviderMissing     = errors.New("no wallet provider available")
	ErrUserRejected        = errors.New("user rejected the connection request")
	ErrNoAccounts          = errors.New("wallet returned no accounts")
	ErrUnsupportedNetwork  = errors.New("unsupported network")
	ErrProviderRejected    = errors.New("wallet rejected the network request")
	ErrNotConnected        = errors.New("wallet not connected")
	ErrDeploymentRejected  = errors.New("deployment rejected in wallet")
	ErrDeploymentReverted  = errors.New("deployment reverted")
	ErrProviderError       = errors.New("wallet provider error")
	ErrEmptyBytecode       = errors.New("contract bytecode is empty")
	ErrInvalidContract     = errors.New("invalid contract interface or arguments")
	ErrOperationPending    = errors.New("another wallet operation is in progress")
	ErrConfirmationPending = errors.New("deployment sent but not confirmed")
)

// PendingError is returned when a deployment transaction was sent but its
// receipt could not be obtained. The transaction may still be mined, so the
// deployment must not be resent.
type PendingError struct {
	TransactionHash string
	ContractAddress string
	Err             error
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("%s: transaction %s: %v", ErrConfirmationPending, e.TransactionHash, e.Err)
}

func (e *PendingError) Unwrap() []error { return []error{ErrConfirmationPending, e.Err} }

// Retryable reports whether err is a transient provider or network fault
// worth retrying by hand. Rejections, reverts and sent-but-unconfirmed
// deployments are not.
func Retryable(err error) bool {
	return errors.Is(err, ErrProviderError) && !errors.Is(err, ErrConfirmationPending)
}

// Describe turns an operation error into a one-line message for the user.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProviderMissing):
		return "No wallet found. Add one with `tokenlaunch wallet add` or `wallet generate`."
	case errors.Is(err, ErrUserRejected):
		return "Connection request was rejected."
	case errors.Is(err, ErrNoAccounts):
		return "The wallet did not share any accounts."
	case errors.Is(err, ErrUnsupportedNetwork):
		return "That network is not supported."
	case errors.Is(err, ErrProviderRejected):
		return "The wallet declined the network change."
	case errors.Is(err, ErrNotConnected):
		return "Connect a wallet first."
	case errors.Is(err, ErrDeploymentRejected):
		return "Deployment was rejected in the wallet."
	case errors.Is(err, ErrDeploymentReverted):
		return "Deployment failed on-chain: " + err.Error()
	case errors.Is(err, ErrEmptyBytecode), errors.Is(err, ErrInvalidContract):
		return "Contract could not be prepared: " + err.Error()
	case errors.Is(err, ErrOperationPending):
		return "Please wait for the current wallet request to finish."
	case errors.Is(err, ErrConfirmationPending):
		var pe *PendingError
		if errors.As(err, &pe) {
			return "Transaction sent but not confirmed yet. Check " + pe.TransactionHash + " before deploying again."
		}
		return "Transaction sent but not confirmed yet. Check it before deploying again."
	case errors.Is(err, ErrProviderError):
		return "Wallet or network error, try again: " + err.Error()
	default:
		return err.Error()
	}
}
