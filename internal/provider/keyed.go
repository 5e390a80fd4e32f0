package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/Mohsinsiddi/tokenlaunch/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/zap"
)

// KindKeyed identifies the local key-custody provider.
const KindKeyed = "keyed"

// DialFunc opens chain access for an RPC endpoint.
type DialFunc func(ctx context.Context, rpcURL string) (Backend, error)

// DialRPC dials an endpoint with ethclient.
func DialRPC(ctx context.Context, rpcURL string) (Backend, error) {
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Keyed is a wallet provider backed by keys the wallet package custodies.
// Consent is delegated to an Approver. It is safe for concurrent use.
type Keyed struct {
	mu       sync.Mutex
	wallets  *wallet.Manager
	grants   *wallet.Grants
	approver Approver
	dial     DialFunc
	log      *zap.Logger

	known   map[uint64]ChainParams
	chainID uint64

	backend   Backend
	backendOn uint64

	onChainAdded    func(ChainParams)
	onChainSwitched func(uint64)

	accountsFeed event.Feed
	chainFeed    event.Feed
}

// KeyedOption configures a Keyed provider.
type KeyedOption func(*Keyed)

// WithApprover sets the consent handler. Default: AutoApprove.
func WithApprover(a Approver) KeyedOption {
	return func(k *Keyed) { k.approver = a }
}

// WithDialer replaces the RPC dialer.
func WithDialer(d DialFunc) KeyedOption {
	return func(k *Keyed) { k.dial = d }
}

// WithKnownChains seeds the chains the wallet can switch to without adding.
func WithKnownChains(params ...ChainParams) KeyedOption {
	return func(k *Keyed) {
		for _, p := range params {
			k.known[p.ChainID] = p
		}
	}
}

// WithActiveChain selects the chain the wallet starts on.
func WithActiveChain(id uint64) KeyedOption {
	return func(k *Keyed) { k.chainID = id }
}

// WithLogger sets the provider logger.
func WithLogger(l *zap.Logger) KeyedOption {
	return func(k *Keyed) { k.log = l }
}

// OnChainAdded registers a hook run after the user adds a chain.
func OnChainAdded(fn func(ChainParams)) KeyedOption {
	return func(k *Keyed) { k.onChainAdded = fn }
}

// OnChainSwitched registers a hook run after the active chain changes.
func OnChainSwitched(fn func(uint64)) KeyedOption {
	return func(k *Keyed) { k.onChainSwitched = fn }
}

// NewKeyed creates a keyed provider.
func NewKeyed(wallets *wallet.Manager, grants *wallet.Grants, opts ...KeyedOption) *Keyed {
	k := &Keyed{
		wallets:  wallets,
		grants:   grants,
		approver: AutoApprove{},
		dial:     DialRPC,
		log:      zap.NewNop(),
		known:    make(map[uint64]ChainParams),
	}
	for _, opt := range opts {
		opt(k)
	}
	if _, ok := k.known[k.chainID]; !ok {
		k.chainID = k.lowestKnown()
	}
	return k
}

// Kind implements Provider.
func (k *Keyed) Kind() string { return KindKeyed }

// RequestAccounts implements Provider. All stored wallets are offered, the
// default one first.
func (k *Keyed) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	addrs := k.orderedAccounts(func(*wallet.Wallet) bool { return true })
	if len(addrs) == 0 {
		return nil, nil
	}

	ok, err := k.approver.Approve(ctx, ApprovalRequest{Kind: ApproveConnect, Accounts: addrs})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errRejected()
	}

	hex := make([]string, len(addrs))
	for i, a := range addrs {
		hex[i] = a.Hex()
	}
	if err := k.grants.Add(hex...); err != nil {
		k.log.Warn("recording account grant", zap.Error(err))
	}
	return addrs, nil
}

// Accounts implements Provider.
func (k *Keyed) Accounts(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return k.orderedAccounts(func(w *wallet.Wallet) bool { return k.grants.Has(w.Address) }), nil
}

// ChainID implements Provider.
func (k *Keyed) ChainID(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.chainID == 0 {
		return 0, NewError(CodeChainDisconnected, "no chain configured")
	}
	return k.chainID, nil
}

// SwitchChain implements Provider. Unknown chains fail with 4902.
func (k *Keyed) SwitchChain(ctx context.Context, chainID uint64) error {
	k.mu.Lock()
	current := k.chainID
	_, known := k.known[chainID]
	k.mu.Unlock()

	if chainID == current {
		return nil
	}
	if !known {
		return NewError(CodeUnrecognizedChain, fmt.Sprintf("Unrecognized chain ID %d", chainID))
	}

	ok, err := k.approver.Approve(ctx, ApprovalRequest{Kind: ApproveSwitchChain, ChainID: chainID})
	if err != nil {
		return err
	}
	if !ok {
		return errRejected()
	}

	k.mu.Lock()
	k.chainID = chainID
	k.mu.Unlock()

	k.log.Debug("chain switched", zap.Uint64("chain_id", chainID))
	if k.onChainSwitched != nil {
		k.onChainSwitched(chainID)
	}
	k.chainFeed.Send(chainID)
	return nil
}

// AddChain implements Provider. It records the chain without switching.
func (k *Keyed) AddChain(ctx context.Context, params ChainParams) error {
	if params.ChainID == 0 || len(params.RPCURLs) == 0 || params.RPCURLs[0] == "" {
		return NewError(CodeUnsupportedMethod, "invalid chain parameters")
	}

	k.mu.Lock()
	_, known := k.known[params.ChainID]
	k.mu.Unlock()
	if known {
		return nil
	}

	p := params
	ok, err := k.approver.Approve(ctx, ApprovalRequest{Kind: ApproveAddChain, ChainID: params.ChainID, Chain: &p})
	if err != nil {
		return err
	}
	if !ok {
		return errRejected()
	}

	k.mu.Lock()
	k.known[params.ChainID] = params
	k.mu.Unlock()

	k.log.Debug("chain added", zap.Uint64("chain_id", params.ChainID), zap.String("name", params.ChainName))
	if k.onChainAdded != nil {
		k.onChainAdded(params)
	}
	return nil
}

// KnownChains returns the chains the wallet can switch to, sorted by ID.
func (k *Keyed) KnownChains() []uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]uint64, 0, len(k.known))
	for id := range k.known {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Backend implements Provider. The client is dialed lazily and reused until
// the chain changes.
func (k *Keyed) Backend(ctx context.Context) (Backend, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.backend != nil && k.backendOn == k.chainID {
		return k.backend, nil
	}
	params, ok := k.known[k.chainID]
	if !ok || len(params.RPCURLs) == 0 {
		return nil, NewError(CodeChainDisconnected, fmt.Sprintf("no RPC endpoint for chain %d", k.chainID))
	}

	b, err := k.dial(ctx, params.RPCURLs[0])
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", params.RPCURLs[0], err)
	}
	k.backend, k.backendOn = b, k.chainID
	return b, nil
}

// SignTransaction implements Provider. Only granted accounts can sign.
func (k *Keyed) SignTransaction(ctx context.Context, from common.Address, tx *types.Transaction) (*types.Transaction, error) {
	if !k.grants.Has(from.Hex()) {
		return nil, NewError(CodeUnauthorized, "account not authorized: "+from.Hex())
	}
	w, err := k.wallets.ByAddress(from.Hex())
	if errors.Is(err, wallet.ErrWalletNotFound) {
		return nil, NewError(CodeUnauthorized, "unknown account: "+from.Hex())
	}
	if err != nil {
		return nil, err
	}

	k.mu.Lock()
	chainID := k.chainID
	k.mu.Unlock()

	ok, err := k.approver.Approve(ctx, ApprovalRequest{Kind: ApproveSign, ChainID: chainID, From: from, Tx: tx})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errRejected()
	}

	return wallet.NewSigner(w, k.wallets.Keystore()).SignTx(tx, new(big.Int).SetUint64(chainID))
}

// SubscribeAccountsChanged implements Provider.
func (k *Keyed) SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription {
	return k.accountsFeed.Subscribe(ch)
}

// SubscribeChainChanged implements Provider.
func (k *Keyed) SubscribeChainChanged(ch chan<- uint64) event.Subscription {
	return k.chainFeed.Subscribe(ch)
}

// Lock revokes every grant and tells subscribers the account list is empty.
func (k *Keyed) Lock() error {
	if err := k.grants.Clear(); err != nil {
		return err
	}
	k.accountsFeed.Send([]common.Address{})
	return nil
}

// Use makes the named wallet the selected account. Subscribers are told
// when it is already granted.
func (k *Keyed) Use(name string) error {
	if err := k.wallets.SetDefault(name); err != nil {
		return err
	}
	w, err := k.wallets.Get(name)
	if err != nil {
		return err
	}
	if !k.grants.Has(w.Address) {
		return nil
	}
	accounts, err := k.Accounts(context.Background())
	if err != nil {
		return err
	}
	k.accountsFeed.Send(accounts)
	return nil
}

// --- internal ---

func (k *Keyed) orderedAccounts(keep func(*wallet.Wallet) bool) []common.Address {
	var out []common.Address
	if d := k.wallets.Default(); d != nil && keep(d) {
		out = append(out, common.HexToAddress(d.Address))
	}
	for _, w := range k.wallets.List() {
		if w.IsDefault || !keep(w) {
			continue
		}
		a := common.HexToAddress(w.Address)
		if len(out) > 0 && out[0] == a {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (k *Keyed) lowestKnown() uint64 {
	var lowest uint64
	for id := range k.known {
		if lowest == 0 || id < lowest {
			lowest = id
		}
	}
	return lowest
}
