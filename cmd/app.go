package cmd

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"slices"

	"github.com/Mohsinsiddi/tokenlaunch/internal/backend"
	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/Mohsinsiddi/tokenlaunch/internal/config"
	"github.com/Mohsinsiddi/tokenlaunch/internal/ens"
	"github.com/Mohsinsiddi/tokenlaunch/internal/price"
	"github.com/Mohsinsiddi/tokenlaunch/internal/provider"
	"github.com/Mohsinsiddi/tokenlaunch/internal/rpc"
	"github.com/Mohsinsiddi/tokenlaunch/internal/session"
	"github.com/Mohsinsiddi/tokenlaunch/internal/ui"
	"github.com/Mohsinsiddi/tokenlaunch/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// Seams replaced by tests.
var (
	newKeystore = func() wallet.KeystoreBackend { return wallet.DefaultKeystore() }
	dialRPC     = provider.DialRPC
	grantsPath  = func() string { return cfg.GrantsPath() }
	newPrices   = func(currency string) priceSource { return price.NewFetcher(currency) }
	interactive = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

// priceSource quotes native amounts in a fiat currency.
type priceSource interface {
	Currency() string
	Value(ctx context.Context, n *chain.Network, wei *big.Int) (float64, error)
}

// app is one command's wiring: the network table, wallet, provider,
// session and collaborators, all built from cfg.
type app struct {
	out      io.Writer
	prompter *ui.Prompter
	networks *chain.Registry
	dialer   *rpc.Dialer
	wallets  *wallet.Manager
	keyed    *provider.Keyed // nil when no wallet exists
	console  *ui.Console
	session  *session.Manager
	backend  *backend.Client // nil when no backend is configured
	prices   priceSource
}

// newApp wires an app from cfg. extra console options apply after the
// defaults.
func newApp(cmd *cobra.Command, extra ...ui.ConsoleOption) (*app, error) {
	out := cmd.OutOrStdout()
	a := &app{
		out:      out,
		prompter: prompterFor(cmd),
		wallets:  newWalletManager(),
		prices:   newPrices(cfg.PriceCurrency),
	}

	var err error
	a.networks, a.dialer, err = buildNetworks(cfg)
	if err != nil {
		return nil, err
	}

	consoleOpts := append([]ui.ConsoleOption{
		ui.WithBalance(a.balance, config.BalanceCacheTTL),
		ui.WithLogEcho(verbose),
	}, extra...)
	a.console = ui.NewConsole(out, consoleOpts...)

	opts := []session.Option{
		session.WithRenderer(a.console),
		session.WithReload(a.console.Reload),
		session.WithLogger(logger.Named("session")),
		session.WithPersistTimeout(config.BackendTimeout),
	}
	if cfg.BackendURL != "" {
		a.backend = backend.New(cfg.BackendURL, backend.WithToken(cfg.Token()))
		opts = append(opts, session.WithPersister(a.backend))
	}

	// A nil interface, not a typed nil, so the session reports a missing
	// wallet instead of calling into it.
	var p provider.Provider
	if len(a.wallets.List()) > 0 {
		a.keyed = a.newKeyed()
		p = a.keyed
	}
	a.session = session.NewManager(p, a.networks, opts...)
	return a, nil
}

func (a *app) newKeyed() *provider.Keyed {
	var params []provider.ChainParams
	for _, id := range walletChains() {
		if n, err := a.networks.ByChainID(id); err == nil {
			params = append(params, provider.ParamsFor(n))
		}
	}

	var approver provider.Approver = ui.NewPromptApprover(a.prompter, a.out, a.networks)
	if assumeYes {
		approver = provider.AutoApprove{}
	}

	return provider.NewKeyed(a.wallets, wallet.NewGrants(grantsPath()),
		provider.WithKnownChains(params...),
		provider.WithActiveChain(cfg.ActiveChain),
		provider.WithApprover(approver),
		provider.WithDialer(a.dialer.Dial),
		provider.WithLogger(logger.Named("wallet")),
		provider.OnChainAdded(func(p provider.ChainParams) {
			cfg.WalletChains = walletChains()
			if cfg.RememberChain(p.ChainID) {
				a.saveConfig()
			}
		}),
		provider.OnChainSwitched(func(id uint64) {
			cfg.ActiveChain = id
			a.saveConfig()
		}),
	)
}

// walletChains returns the chains the wallet knows. A fresh wallet only
// knows Ethereum mainnet.
func walletChains() []uint64 {
	if len(cfg.WalletChains) == 0 {
		return []uint64{1}
	}
	return cfg.WalletChains
}

func (a *app) saveConfig() {
	if err := cfg.Save(); err != nil {
		logger.Warn("saving config", zap.Error(err))
	}
}

// balance feeds the console status line.
func (a *app) balance(ctx context.Context, account string, _ uint64) (*big.Int, error) {
	if a.keyed == nil {
		return nil, session.ErrProviderMissing
	}
	b, err := a.keyed.Backend(ctx)
	if err != nil {
		return nil, err
	}
	return b.BalanceAt(ctx, common.HexToAddress(account), nil)
}

// dial opens read-only chain access to n without going through the wallet.
func (a *app) dial(ctx context.Context, n *chain.Network) (provider.Backend, error) {
	return a.dialer.Dial(ctx, n.RPCURL)
}

// resolveName looks an ENS name up on Ethereum mainnet.
func (a *app) resolveName(ctx context.Context, name string) (common.Address, error) {
	mainnet, err := a.networks.ByChainID(ens.ChainID)
	if err != nil {
		return common.Address{}, err
	}
	b, err := a.dial(ctx, mainnet)
	if err != nil {
		return common.Address{}, err
	}
	return ens.Resolve(ctx, b, name)
}

// ensureConnected restores a granted session or asks the wallet to connect.
func (a *app) ensureConnected(ctx context.Context) (session.Session, error) {
	ok, err := a.session.Restore(ctx)
	if err != nil {
		return session.Session{}, err
	}
	if ok {
		return a.session.Snapshot().Session, nil
	}
	sess, err := a.session.Connect(ctx)
	if err != nil {
		return session.Session{}, shown(err)
	}
	return sess, nil
}

// close waits for background connection records.
func (a *app) close() {
	a.session.Wait()
}

// buildNetworks applies custom RPCs to the network table. The first custom
// URL becomes the network's endpoint; the rest, then the built-in one, are
// alternates the dialer may pick instead.
func buildNetworks(c *config.Config) (*chain.Registry, *rpc.Dialer, error) {
	algo, err := rpc.ParseAlgorithm(c.RPCAlgorithm)
	if err != nil {
		return nil, nil, err
	}
	reg := chain.NewRegistry()
	d := rpc.NewDialer(algo, dialRPC, rpc.WithProbe(rpcProbe), rpc.WithLogger(logger.Named("rpc")))

	for slug, urls := range c.CustomRPCs {
		if len(urls) == 0 {
			continue
		}
		n, err := reg.Resolve(slug)
		if err != nil {
			logger.Warn("custom RPC for unknown network", zap.String("network", slug))
			continue
		}
		builtin := n.RPCURL
		if err := reg.SetRPC(n.ChainID, urls[0]); err != nil {
			return nil, nil, fmt.Errorf("custom RPC for %s: %w", slug, err)
		}
		d.AddPool(urls[0], append(slices.Clone(urls[1:]), builtin)...)
	}
	return reg, d, nil
}

func newWalletManager() *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeystore(newKeystore()),
	)
}

// prompterFor shares the process-wide stdin prompter unless the command
// was given another input.
func prompterFor(cmd *cobra.Command) *ui.Prompter {
	in := cmd.InOrStdin()
	if in == os.Stdin {
		return ui.Stdin()
	}
	return ui.NewPrompter(in, cmd.OutOrStdout())
}

func networkLabel(n *chain.Network) string {
	return fmt.Sprintf("%s (%d)", n.DisplayName, n.ChainID)
}
