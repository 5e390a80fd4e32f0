package session_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/Mohsinsiddi/tokenlaunch/internal/provider"
	"github.com/Mohsinsiddi/tokenlaunch/internal/session"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/require"
)

const hardhatKey0 = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// ---------------------------------------------------------------------------
// fakeProvider
// ---------------------------------------------------------------------------

type fakeProvider struct {
	mu sync.Mutex

	accounts []common.Address // returned by RequestAccounts
	granted  []common.Address // returned by Accounts
	chainID  uint64
	known    map[uint64]bool

	requestErr  error
	requestHook func(ctx context.Context) // runs before RequestAccounts answers
	switchErr   error
	addErr      error
	addIgnored  bool // AddChain succeeds but the chain stays unknown
	signErr     error

	key     *ecdsa.PrivateKey
	backend *fakeBackend
	calls   map[string]int
	subs    int

	accountsFeed event.Feed
	chainFeed    event.Feed
}

func newFakeProvider(t *testing.T, chainID uint64, known ...uint64) *fakeProvider {
	t.Helper()
	key, err := crypto.HexToECDSA(hardhatKey0)
	require.NoError(t, err)

	p := &fakeProvider{
		accounts: []common.Address{crypto.PubkeyToAddress(key.PublicKey)},
		chainID:  chainID,
		known:    map[uint64]bool{chainID: true},
		key:      key,
		backend:  newFakeBackend(),
		calls:    map[string]int{},
	}
	for _, id := range known {
		p.known[id] = true
	}
	return p
}

func (p *fakeProvider) count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[name]
}

func (p *fakeProvider) inc(name string) {
	p.mu.Lock()
	p.calls[name]++
	p.mu.Unlock()
}

func (p *fakeProvider) subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subs
}

func (p *fakeProvider) Kind() string { return "fake" }

func (p *fakeProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	p.inc("request")
	if p.requestHook != nil {
		p.requestHook(ctx)
	}
	if p.requestErr != nil {
		return nil, p.requestErr
	}
	return p.accounts, nil
}

func (p *fakeProvider) Accounts(context.Context) ([]common.Address, error) {
	p.inc("accounts")
	return p.granted, nil
}

func (p *fakeProvider) ChainID(context.Context) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chainID, nil
}

func (p *fakeProvider) SwitchChain(_ context.Context, id uint64) error {
	p.inc("switch")
	p.mu.Lock()
	if p.switchErr != nil {
		p.mu.Unlock()
		return p.switchErr
	}
	if !p.known[id] {
		p.mu.Unlock()
		return provider.NewError(provider.CodeUnrecognizedChain, "Unrecognized chain ID")
	}
	p.chainID = id
	p.mu.Unlock()
	p.chainFeed.Send(id)
	return nil
}

func (p *fakeProvider) AddChain(_ context.Context, params provider.ChainParams) error {
	p.inc("add")
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.addErr != nil {
		return p.addErr
	}
	if !p.addIgnored {
		p.known[params.ChainID] = true
	}
	return nil
}

func (p *fakeProvider) Backend(context.Context) (provider.Backend, error) {
	return p.backend, nil
}

func (p *fakeProvider) SignTransaction(_ context.Context, _ common.Address, tx *types.Transaction) (*types.Transaction, error) {
	p.inc("sign")
	if p.signErr != nil {
		return nil, p.signErr
	}
	p.mu.Lock()
	id := p.chainID
	p.mu.Unlock()
	return types.SignTx(tx, types.LatestSignerForChainID(new(big.Int).SetUint64(id)), p.key)
}

func (p *fakeProvider) SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription {
	p.mu.Lock()
	p.subs++
	p.mu.Unlock()
	return p.accountsFeed.Subscribe(ch)
}

func (p *fakeProvider) SubscribeChainChanged(ch chan<- uint64) event.Subscription {
	p.mu.Lock()
	p.subs++
	p.mu.Unlock()
	return p.chainFeed.Subscribe(ch)
}

// ---------------------------------------------------------------------------
// fakeBackend
// ---------------------------------------------------------------------------

// fakeBackend implements only what deployment and estimation touch; anything
// else hits the nil embedded interface.
type fakeBackend struct {
	provider.Backend

	mu          sync.Mutex
	gas         uint64
	estimateErr error
	gasPrice    *big.Int
	nonce       uint64
	sendErr     error
	noReceipt   bool
	status      uint64
	balance     *big.Int
	sent        []*types.Transaction
	lastCall    ethereum.CallMsg
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		gas:      1_200_000,
		gasPrice: big.NewInt(3_000_000_000),
		nonce:    7,
		status:   types.ReceiptStatusSuccessful,
		balance:  big.NewInt(0),
	}
}

func (b *fakeBackend) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastCall = msg
	return b.gas, b.estimateErr
}

func (b *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return b.gasPrice, nil
}

func (b *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (b *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(41)}, nil
}

func (b *fakeBackend) PendingCodeAt(context.Context, common.Address) ([]byte, error) {
	return nil, nil
}

func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return b.nonce, nil
}

func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.noReceipt {
		return nil, ethereum.NotFound
	}
	for _, tx := range b.sent {
		if tx.Hash() != hash {
			continue
		}
		from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
		if err != nil {
			return nil, err
		}
		return &types.Receipt{
			Status:          b.status,
			TxHash:          hash,
			GasUsed:         987_654,
			BlockNumber:     big.NewInt(42),
			ContractAddress: crypto.CreateAddress(from, tx.Nonce()),
		}, nil
	}
	return nil, ethereum.NotFound
}

func (b *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return b.balance, nil
}

func (b *fakeBackend) sentTxs() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}

// ---------------------------------------------------------------------------
// recording renderer / persister
// ---------------------------------------------------------------------------

type recordingRenderer struct {
	mu      sync.Mutex
	renders []session.Snapshot
	toasts  []string
	levels  []session.Level
	logs    []string
}

func (r *recordingRenderer) Render(s session.Snapshot) {
	r.mu.Lock()
	r.renders = append(r.renders, s)
	r.mu.Unlock()
}

func (r *recordingRenderer) Notify(l session.Level, msg string) {
	r.mu.Lock()
	r.levels = append(r.levels, l)
	r.toasts = append(r.toasts, msg)
	r.mu.Unlock()
}

func (r *recordingRenderer) Log(msg string) {
	r.mu.Lock()
	r.logs = append(r.logs, msg)
	r.mu.Unlock()
}

func (r *recordingRenderer) lastLevel() session.Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.levels) == 0 {
		return -1
	}
	return r.levels[len(r.levels)-1]
}

func (r *recordingRenderer) renderCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.renders)
}

type savedConnection struct {
	address    string
	walletType string
}

type recordingPersister struct {
	mu    sync.Mutex
	saved []savedConnection
	err   error
}

func (p *recordingPersister) SaveConnection(_ context.Context, address, walletType string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, savedConnection{address, walletType})
	return p.err
}

func (p *recordingPersister) all() []savedConnection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]savedConnection(nil), p.saved...)
}

var errNetwork = errors.New("dial tcp 127.0.0.1:8545: connection refused")
