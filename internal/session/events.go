package session

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Watch subscribes to the provider's account and chain events and applies
// them until ctx is done or a subscription fails.
func (m *Manager) Watch(ctx context.Context) error {
	if m.provider == nil {
		return ErrProviderMissing
	}
	accountsCh := make(chan []common.Address, 8)
	chainCh := make(chan uint64, 8)

	accountsSub := m.provider.SubscribeAccountsChanged(accountsCh)
	defer accountsSub.Unsubscribe()
	chainSub := m.provider.SubscribeChainChanged(chainCh)
	defer chainSub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case accounts := <-accountsCh:
			m.HandleAccountsChanged(accounts)
		case id := <-chainCh:
			m.HandleChainChanged(ctx, id)
		case err := <-accountsSub.Err():
			return err
		case err := <-chainSub.Err():
			return err
		}
	}
}

// HandleAccountsChanged applies an account-list change. An empty list
// disconnects; otherwise a connected session follows the wallet's first
// account.
func (m *Manager) HandleAccountsChanged(accounts []common.Address) {
	if len(accounts) == 0 {
		m.mu.Lock()
		connected := m.session.Connected
		m.mu.Unlock()
		if connected {
			m.renderer.Log("Wallet locked or access revoked")
		}
		m.Disconnect()
		return
	}

	next := accounts[0].Hex()
	m.mu.Lock()
	if !m.session.Connected || m.session.Account == next {
		m.mu.Unlock()
		return
	}
	m.session.Account = next
	m.mu.Unlock()

	m.log.Info("account changed", zap.String("account", next))
	m.render()
	m.renderer.Log("Account changed: " + next)
}

// HandleChainChanged applies a chain change, re-renders and runs the reload
// hook so chain-specific caches are rebuilt. Every event reloads, including
// ones caused by SwitchNetwork. Events are ignored while disconnected; Connect
// reads the chain itself.
func (m *Manager) HandleChainChanged(ctx context.Context, chainID uint64) {
	m.mu.Lock()
	if !m.session.Connected {
		m.mu.Unlock()
		m.log.Debug("chain change ignored while disconnected", zap.Uint64("chain_id", chainID))
		return
	}
	m.session.ChainID = chainID
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.log.Info("chain changed", zap.Uint64("chain_id", chainID))
	m.renderer.Render(snap)
	if snap.Network != nil {
		m.renderer.Log("Network changed: " + snap.Network.DisplayName)
	} else {
		m.renderer.Log(fmt.Sprintf("Network changed: chain %d (not supported)", chainID))
	}
	if m.reload != nil {
		m.reload(ctx)
	}
}
