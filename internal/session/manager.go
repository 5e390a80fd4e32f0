package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/Mohsinsiddi/tokenlaunch/internal/provider"
	"go.uber.org/zap"
)

const defaultPersistTimeout = 10 * time.Second

// Manager owns one Session. The mutex guards state and session only and is
// never held across provider or persister calls, so a pending wallet prompt
// does not block Snapshot.
type Manager struct {
	mu      sync.Mutex
	state   State
	session Session

	provider   provider.Provider
	networks   *chain.Registry
	persister  Persister
	renderer   Renderer
	reload     func(context.Context)
	walletType string
	log        *zap.Logger

	persistTimeout time.Duration
	inflight       sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithPersister sets where successful connections are recorded.
func WithPersister(p Persister) Option {
	return func(m *Manager) { m.persister = p }
}

// WithRenderer sets the UI surface.
func WithRenderer(r Renderer) Option {
	return func(m *Manager) { m.renderer = r }
}

// WithReload sets the hook a chain-change event triggers after re-rendering.
// It should drop anything cached for the previous chain.
func WithReload(fn func(context.Context)) Option {
	return func(m *Manager) { m.reload = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithWalletType overrides the wallet type sent with connection records.
func WithWalletType(t string) Option {
	return func(m *Manager) { m.walletType = t }
}

// WithPersistTimeout bounds each background connection record.
func WithPersistTimeout(d time.Duration) Option {
	return func(m *Manager) { m.persistTimeout = d }
}

// NewManager creates a manager in the Disconnected state. p may be nil, in
// which case Connect reports ErrProviderMissing.
func NewManager(p provider.Provider, networks *chain.Registry, opts ...Option) *Manager {
	m := &Manager{
		state:          Disconnected,
		provider:       p,
		networks:       networks,
		renderer:       nopRenderer{},
		log:            zap.NewNop(),
		persistTimeout: defaultPersistTimeout,
	}
	if p != nil {
		m.walletType = p.Kind()
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.networks == nil {
		m.networks = chain.NewRegistry()
	}
	return m
}

// Snapshot returns the current state, session and network descriptor.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{State: m.state, Session: m.session, WalletType: m.walletType}
	if m.session.ChainID != 0 {
		if n, err := m.networks.ByChainID(m.session.ChainID); err == nil {
			cp := *n
			snap.Network = &cp
		}
	}
	return snap
}

// Connect asks the wallet for account access and adopts the first account.
// On success the connection is recorded in the background; that record
// failing is only logged.
func (m *Manager) Connect(ctx context.Context) (Session, error) {
	if m.provider == nil {
		return Session{}, m.report("Connect", ErrProviderMissing)
	}

	prev, err := m.begin(Connecting)
	if err != nil {
		return Session{}, m.report("Connect", err)
	}
	m.render()
	m.renderer.Log("Requesting wallet access...")

	accounts, err := m.provider.RequestAccounts(ctx)
	if err != nil {
		m.abort(prev)
		if provider.IsUserRejection(err) {
			return Session{}, m.report("Connect", fmt.Errorf("%w: %w", ErrUserRejected, err))
		}
		return Session{}, m.report("Connect", fmt.Errorf("%w: %w", ErrProviderError, err))
	}
	if len(accounts) == 0 {
		m.abort(prev)
		return Session{}, m.report("Connect", ErrNoAccounts)
	}

	chainID, err := m.provider.ChainID(ctx)
	if err != nil {
		m.abort(prev)
		return Session{}, m.report("Connect", fmt.Errorf("%w: reading chain: %w", ErrProviderError, err))
	}

	sess := Session{Account: accounts[0].Hex(), ChainID: chainID, Connected: true}
	m.mu.Lock()
	m.session = sess
	m.state = Connected
	m.mu.Unlock()

	m.log.Info("wallet connected", zap.String("account", sess.Account), zap.Uint64("chain_id", chainID))
	m.render()
	m.renderer.Log("Connected: " + sess.Account)
	m.renderer.Notify(LevelSuccess, "Wallet connected")

	m.persistConnection(sess.Account)
	return sess, nil
}

// Restore silently adopts an account the wallet has already granted. It
// never prompts and never records the connection. It reports whether a
// session was restored.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	if m.provider == nil {
		return false, nil
	}
	m.mu.Lock()
	if m.state != Disconnected {
		m.mu.Unlock()
		return m.state == Connected, nil
	}
	m.mu.Unlock()

	accounts, err := m.provider.Accounts(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrProviderError, err)
	}
	if len(accounts) == 0 {
		return false, nil
	}
	chainID, err := m.provider.ChainID(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: reading chain: %w", ErrProviderError, err)
	}

	m.mu.Lock()
	if m.state != Disconnected {
		m.mu.Unlock()
		return m.state == Connected, nil
	}
	m.session = Session{Account: accounts[0].Hex(), ChainID: chainID, Connected: true}
	m.state = Connected
	m.mu.Unlock()

	m.log.Debug("session restored", zap.String("account", accounts[0].Hex()))
	m.render()
	return true, nil
}

// Disconnect clears the session locally. The wallet keeps its grant.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	was := m.session.Connected
	m.session = Session{}
	m.state = Disconnected
	m.mu.Unlock()

	if !was {
		return
	}
	m.log.Info("wallet disconnected")
	m.render()
	m.renderer.Log("Disconnected")
	m.renderer.Notify(LevelInfo, "Wallet disconnected")
}

// SwitchNetwork asks the wallet to move to chainID. If the wallet does not
// know the chain it is added from the network table and the switch is
// retried exactly once.
func (m *Manager) SwitchNetwork(ctx context.Context, chainID uint64) error {
	net, err := m.networks.ByChainID(chainID)
	if err != nil {
		return m.report("Switch network", fmt.Errorf("%w: chain %d", ErrUnsupportedNetwork, chainID))
	}

	m.mu.Lock()
	switch {
	case m.state == Connecting || m.state == SwitchingNetwork:
		m.mu.Unlock()
		return m.report("Switch network", ErrOperationPending)
	case !m.session.Connected:
		m.mu.Unlock()
		return m.report("Switch network", ErrNotConnected)
	case m.session.ChainID == chainID:
		m.mu.Unlock()
		return nil
	}
	m.state = SwitchingNetwork
	m.mu.Unlock()

	m.render()
	m.renderer.Log("Switching to " + net.DisplayName + "...")

	err = m.provider.SwitchChain(ctx, chainID)
	if provider.IsUnrecognizedChain(err) {
		m.renderer.Log("Adding " + net.DisplayName + " to the wallet...")
		if err = m.provider.AddChain(ctx, provider.ParamsFor(net)); err == nil {
			err = m.provider.SwitchChain(ctx, chainID)
		}
	}

	m.mu.Lock()
	if m.session.Connected {
		m.state = Connected
		if err == nil {
			m.session.ChainID = chainID
		}
	} else {
		m.state = Disconnected
	}
	m.mu.Unlock()
	m.render()

	if err != nil {
		if errors.As(err, new(*provider.Error)) {
			return m.report("Switch network", fmt.Errorf("%w: %w", ErrProviderRejected, err))
		}
		return m.report("Switch network", fmt.Errorf("%w: %w", ErrProviderError, err))
	}

	m.log.Info("network switched", zap.Uint64("chain_id", chainID), zap.String("network", net.Name))
	m.renderer.Log("Switched to " + net.DisplayName)
	m.renderer.Notify(LevelSuccess, "Network: "+net.DisplayName)
	return nil
}

// Wait blocks until background connection records finish.
func (m *Manager) Wait() {
	m.inflight.Wait()
}

// --- internal ---

// begin moves to a transitional state unless one is already in progress.
func (m *Manager) begin(next State) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Connecting || m.state == SwitchingNetwork {
		return m.state, ErrOperationPending
	}
	prev := m.state
	m.state = next
	return prev, nil
}

// abort undoes begin. A session that was disconnected by an event in the
// meantime stays disconnected.
func (m *Manager) abort(prev State) {
	m.mu.Lock()
	if prev == Connected && !m.session.Connected {
		prev = Disconnected
	}
	m.state = prev
	m.mu.Unlock()
	m.render()
}

// requireConnected returns the session or ErrNotConnected.
func (m *Manager) requireConnected() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.session.Connected {
		return Session{}, ErrNotConnected
	}
	return m.session, nil
}

func (m *Manager) render() {
	m.renderer.Render(m.Snapshot())
}

// report surfaces err to the user and returns it unchanged.
func (m *Manager) report(op string, err error) error {
	m.log.Debug("operation failed", zap.String("op", op), zap.Error(err))
	msg := Describe(err)
	m.renderer.Log(op + " failed: " + msg)
	m.renderer.Notify(LevelError, msg)
	return err
}

func (m *Manager) persistConnection(account string) {
	if m.persister == nil {
		return
	}
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.persistTimeout)
		defer cancel()
		if err := m.persister.SaveConnection(ctx, account, m.walletType); err != nil {
			m.log.Warn("recording wallet connection", zap.String("account", account), zap.Error(err))
		}
	}()
}
