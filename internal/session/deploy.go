package session

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/Mohsinsiddi/tokenlaunch/internal/provider"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// EstimateGas estimates sending data with value from the connected account,
// priced at the chain's current suggested gas price. data with no recipient
// is treated as a contract creation.
func (m *Manager) EstimateGas(ctx context.Context, data []byte, value *big.Int) (GasEstimate, error) {
	sess, err := m.requireConnected()
	if err != nil {
		return GasEstimate{}, m.report("Estimate gas", err)
	}
	backend, err := m.backend(ctx)
	if err != nil {
		return GasEstimate{}, m.report("Estimate gas", err)
	}
	est, err := estimate(ctx, backend, common.HexToAddress(sess.Account), data, value)
	if err != nil {
		return GasEstimate{}, m.report("Estimate gas", err)
	}
	return est, nil
}

// DeployContract creates a contract from bytecode and the ABI-encoded
// constructor args, then waits for the receipt. It returns only once the
// creation is confirmed. Cancelling ctx stops the wait, not the transaction.
func (m *Manager) DeployContract(ctx context.Context, bytecode []byte, abiJSON string, args ...any) (*DeploymentResult, error) {
	const op = "Deploy"

	sess, err := m.requireConnected()
	if err != nil {
		return nil, m.report(op, err)
	}
	if len(bytecode) == 0 {
		return nil, m.report(op, ErrEmptyBytecode)
	}
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, m.report(op, fmt.Errorf("%w: %w", ErrInvalidContract, err))
	}
	input, err := parsed.Pack("", args...)
	if err != nil {
		return nil, m.report(op, fmt.Errorf("%w: constructor args: %w", ErrInvalidContract, err))
	}

	backend, err := m.backend(ctx)
	if err != nil {
		return nil, m.report(op, err)
	}
	from := common.HexToAddress(sess.Account)

	m.renderer.Log("Estimating gas...")
	data := append(append([]byte{}, bytecode...), input...)
	est, err := estimate(ctx, backend, from, data, nil)
	if err != nil {
		return nil, m.report(op, err)
	}
	m.renderer.Log(fmt.Sprintf("Gas: %d @ %.2f gwei", est.GasLimit, chain.WeiToGwei(est.GasPrice)))

	opts := &bind.TransactOpts{
		From:     from,
		Context:  ctx,
		GasLimit: est.GasLimit,
		GasPrice: est.GasPrice,
		Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			return m.provider.SignTransaction(ctx, addr, tx)
		},
	}

	m.renderer.Log("Waiting for wallet signature...")
	addr, tx, _, err := bind.DeployContract(opts, parsed, bytecode, backend, args...)
	if err != nil {
		return nil, m.report(op, classifyDeployErr(err))
	}
	m.log.Info("deployment submitted",
		zap.String("tx", tx.Hash().Hex()),
		zap.String("address", addr.Hex()),
		zap.Uint64("chain_id", sess.ChainID),
	)
	m.renderer.Log("Transaction sent: " + tx.Hash().Hex())
	m.renderer.Log("Waiting for confirmation...")

	receipt, err := bind.WaitMined(ctx, backend, tx)
	if err != nil {
		return nil, m.report(op, &PendingError{
			TransactionHash: tx.Hash().Hex(),
			ContractAddress: addr.Hex(),
			Err:             err,
		})
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, m.report(op, fmt.Errorf("%w: transaction %s failed in block %v", ErrDeploymentReverted, tx.Hash().Hex(), receipt.BlockNumber))
	}

	if receipt.ContractAddress != (common.Address{}) {
		addr = receipt.ContractAddress
	}
	res := &DeploymentResult{
		ContractAddress: addr.Hex(),
		TransactionHash: tx.Hash().Hex(),
		GasUsed:         receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		res.BlockNumber = receipt.BlockNumber.Uint64()
	}

	m.log.Info("deployment confirmed", zap.String("address", res.ContractAddress), zap.Uint64("gas_used", res.GasUsed))
	m.renderer.Log("Contract deployed at " + res.ContractAddress)
	m.renderer.Notify(LevelSuccess, "Token deployed")
	return res, nil
}

// Balance returns the native balance of the connected account.
func (m *Manager) Balance(ctx context.Context) (*big.Int, error) {
	sess, err := m.requireConnected()
	if err != nil {
		return nil, err
	}
	backend, err := m.backend(ctx)
	if err != nil {
		return nil, err
	}
	bal, err := backend.BalanceAt(ctx, common.HexToAddress(sess.Account), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: balance: %w", ErrProviderError, err)
	}
	return bal, nil
}

// SuggestGasPrice returns the chain's current gas price.
func (m *Manager) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	backend, err := m.backend(ctx)
	if err != nil {
		return nil, err
	}
	price, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: gas price: %w", ErrProviderError, err)
	}
	return price, nil
}

// --- internal ---

func (m *Manager) backend(ctx context.Context) (provider.Backend, error) {
	if m.provider == nil {
		return nil, ErrProviderMissing
	}
	b, err := m.provider.Backend(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderError, err)
	}
	return b, nil
}

func estimate(ctx context.Context, backend provider.Backend, from common.Address, data []byte, value *big.Int) (GasEstimate, error) {
	gasLimit, err := backend.EstimateGas(ctx, ethereum.CallMsg{From: from, Data: data, Value: value})
	if err != nil {
		if isRevert(err) {
			return GasEstimate{}, fmt.Errorf("%w: %w", ErrDeploymentReverted, err)
		}
		return GasEstimate{}, fmt.Errorf("%w: estimating gas: %w", ErrProviderError, err)
	}
	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return GasEstimate{}, fmt.Errorf("%w: gas price: %w", ErrProviderError, err)
	}
	return GasEstimate{
		GasLimit:    gasLimit,
		GasPrice:    gasPrice,
		Cost:        chain.GasCost(gasLimit, gasPrice),
		EstimatedAt: time.Now(),
	}, nil
}

func classifyDeployErr(err error) error {
	switch {
	case provider.IsUserRejection(err):
		return fmt.Errorf("%w: %w", ErrDeploymentRejected, err)
	case isRevert(err):
		return fmt.Errorf("%w: %w", ErrDeploymentReverted, err)
	default:
		return fmt.Errorf("%w: %w", ErrProviderError, err)
	}
}

func isRevert(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}
