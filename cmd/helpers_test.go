package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/Mohsinsiddi/tokenlaunch/internal/config"
	"github.com/Mohsinsiddi/tokenlaunch/internal/contract"
	"github.com/Mohsinsiddi/tokenlaunch/internal/provider"
	"github.com/Mohsinsiddi/tokenlaunch/internal/token"
	"github.com/Mohsinsiddi/tokenlaunch/internal/wallet"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	hardhatKey0  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	hardhatAddr0 = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	hardhatKey1  = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	hardhatAddr1 = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

// ---------------------------------------------------------------------------
// harness: one config dir, in-memory keys and a fake chain for every command
// ---------------------------------------------------------------------------

type harness struct {
	t       *testing.T
	dir     string
	backend *fakeBackend
	stdin   string
	ctx     context.Context // defaults to context.Background

	mu     sync.Mutex
	dialed []string
	heads  map[string]uint64 // rpc probe answers; missing means down
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		dir:     t.TempDir(),
		backend: newFakeBackend(),
		heads:   map[string]uint64{},
	}
	ks := wallet.NewInMemoryKeystore()

	origKeystore, origDial, origGrants := newKeystore, dialRPC, grantsPath
	origPrices, origInteractive, origProbe := newPrices, interactive, rpcProbe
	t.Cleanup(func() {
		newKeystore, dialRPC, grantsPath = origKeystore, origDial, origGrants
		newPrices, interactive, rpcProbe = origPrices, origInteractive, origProbe
		cfg, logger = nil, zap.NewNop()
	})

	newKeystore = func() wallet.KeystoreBackend { return ks }
	grantsPath = func() string { return filepath.Join(h.dir, "grants.json") }
	dialRPC = func(_ context.Context, url string) (provider.Backend, error) {
		h.mu.Lock()
		h.dialed = append(h.dialed, url)
		h.mu.Unlock()
		return h.backend, nil
	}
	newPrices = func(string) priceSource { return stubPrices{} }
	interactive = func() bool { return false }
	rpcProbe = func(_ context.Context, url string) (uint64, error) {
		h.mu.Lock()
		defer h.mu.Unlock()
		head, ok := h.heads[url]
		if !ok {
			return 0, errors.New("connection refused")
		}
		return head, nil
	}
	return h
}

// run executes the root command with args and returns everything it wrote.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	resetFlags(rootCmd)

	out := &syncBuffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetIn(strings.NewReader(h.stdin))
	rootCmd.SetArgs(append([]string{"--config", h.dir}, args...))
	ctx := h.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	err := rootCmd.ExecuteContext(ctx)
	h.stdin = ""
	return out.String(), err
}

// mustRun fails the test when the command errors.
func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func (h *harness) addWallet(name, key string) {
	h.t.Helper()
	h.mustRun("wallet", "add", name, "--key", key)
}

func (h *harness) dials() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.dialed...)
}

func (h *harness) writeFile(name, content string) string {
	h.t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// artifact writes a Hardhat-style artifact for the token constructor.
func (h *harness) artifact() string {
	return h.writeFile("LaunchToken.json",
		`{"contractName":"LaunchToken","abi":`+token.ConstructorABI+`,"bytecode":"0x6080604052"}`)
}

// resetFlags puts every flag back to its default so package-level commands
// can run again.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type stubPrices struct{}

func (stubPrices) Currency() string { return "usd" }

func (stubPrices) Value(context.Context, *chain.Network, *big.Int) (float64, error) {
	return 0, errors.New("price feed offline")
}

// ---------------------------------------------------------------------------
// fakeBackend: a chain that mines every transaction and serves the
// deployed token's ERC-20 reads
// ---------------------------------------------------------------------------

var erc20ABI = func() abi.ABI {
	a, err := abi.JSON(strings.NewReader(contract.ERC20ABI))
	if err != nil {
		panic(err)
	}
	return a
}()

type fakeBackend struct {
	provider.Backend

	mu       sync.Mutex
	gas      uint64
	gasPrice *big.Int
	nonce    uint64
	balance  *big.Int
	sent     []*types.Transaction

	// when set, receipts are never found and each lookup calls it
	receiptMissing func()

	// token state answered to eth_call once something is deployed
	tokenName     string
	tokenSymbol   string
	tokenDecimals uint8
	tokenSupply   *big.Int
	tokenHolder   common.Address
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		gas:      1_200_000,
		gasPrice: big.NewInt(3_000_000_000),
		nonce:    7,
		balance:  new(big.Int).Mul(big.NewInt(2), big.NewInt(1e18)),
	}
}

// expectToken sets what the deployed token reports.
func (b *fakeBackend) expectToken(name, symbol string, decimals uint8, supply *big.Int, holder common.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokenName, b.tokenSymbol, b.tokenDecimals = name, symbol, decimals
	b.tokenSupply, b.tokenHolder = supply, holder
}

func (b *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return b.gas, nil
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
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.receiptMissing != nil {
		b.receiptMissing()
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
			Status:          types.ReceiptStatusSuccessful,
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

func (b *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sent) == 0 {
		return nil, nil
	}
	return []byte{0x60, 0x80}, nil
}

// CallContract answers ERC-20 reads and returns nothing for anything else,
// which callers treat as "no contract".
func (b *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if len(msg.Data) < 4 {
		return nil, nil
	}
	m, err := erc20ABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch m.Name {
	case "name":
		return m.Outputs.Pack(b.tokenName)
	case "symbol":
		return m.Outputs.Pack(b.tokenSymbol)
	case "decimals":
		return m.Outputs.Pack(b.tokenDecimals)
	case "totalSupply":
		return m.Outputs.Pack(orZero(b.tokenSupply))
	case "balanceOf":
		args, err := m.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		if args[0].(common.Address) == b.tokenHolder {
			return m.Outputs.Pack(orZero(b.tokenSupply))
		}
		return m.Outputs.Pack(new(big.Int))
	}
	return nil, nil
}

func (b *fakeBackend) sentTxs() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// ---------------------------------------------------------------------------
// launchpad: a backend that records every request
// ---------------------------------------------------------------------------

type launchpadRequest struct {
	Path string
	Auth string
	Body map[string]any
}

type launchpad struct {
	*httptest.Server

	mu     sync.Mutex
	reqs   []launchpadRequest
	status int
}

// newLaunchpad starts a backend answering status (201 when zero) and
// points the harness config at it.
func (h *harness) newLaunchpad(status int) *launchpad {
	h.t.Helper()
	h.t.Setenv(config.EnvBackendToken, "")
	lp := &launchpad{status: status}
	if lp.status == 0 {
		lp.status = http.StatusCreated
	}
	lp.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(data, &body)

		lp.mu.Lock()
		lp.reqs = append(lp.reqs, launchpadRequest{Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: body})
		code := lp.status
		lp.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if code >= 300 {
			_, _ = io.WriteString(w, `{"error":"launchpad unavailable"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"tok_1"}`)
	}))
	h.t.Cleanup(lp.Close)

	h.mustRun("config", "set", "backend_url", lp.URL)
	h.mustRun("config", "set", "backend_token", "s3cret")
	return lp
}

func (lp *launchpad) setStatus(code int) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.status = code
}

// requests returns the recorded requests to path.
func (lp *launchpad) requests(path string) []launchpadRequest {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	var out []launchpadRequest
	for _, r := range lp.reqs {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}
