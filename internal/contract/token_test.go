package contract

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenAddr  = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	holderAddr = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

// ---------------------------------------------------------------------------
// fakeToken answers ERC-20 view calls from its fields.
// ---------------------------------------------------------------------------

type fakeToken struct {
	code     []byte
	name     string
	symbol   string
	decimals uint8
	supply   *big.Int
	balances map[common.Address]*big.Int
	callErr  error
	empty    bool // every call returns no data
	calls    []string
}

func newFakeToken() *fakeToken {
	supply, _ := new(big.Int).SetString("1000000000000000000000000", 10)
	return &fakeToken{
		code:     []byte{0x60, 0x80},
		name:     "Pepe Launch",
		symbol:   "PEPE",
		decimals: 18,
		supply:   supply,
		balances: map[common.Address]*big.Int{holderAddr: supply},
	}
}

func (f *fakeToken) CodeAt(_ context.Context, addr common.Address, _ *big.Int) ([]byte, error) {
	if addr != tokenAddr {
		return nil, nil
	}
	return f.code, nil
}

func (f *fakeToken) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	if f.empty {
		return nil, nil
	}
	m, err := erc20.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	f.calls = append(f.calls, m.Name)
	switch m.Name {
	case "name":
		return m.Outputs.Pack(f.name)
	case "symbol":
		return m.Outputs.Pack(f.symbol)
	case "decimals":
		return m.Outputs.Pack(f.decimals)
	case "totalSupply":
		return m.Outputs.Pack(f.supply)
	case "balanceOf":
		args, err := m.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		bal := f.balances[args[0].(common.Address)]
		if bal == nil {
			bal = new(big.Int)
		}
		return m.Outputs.Pack(bal)
	}
	return nil, errors.New("unexpected method " + m.Name)
}

func expectedFor(f *fakeToken) Expected {
	return Expected{
		Name:     f.name,
		Symbol:   f.symbol,
		Decimals: f.decimals,
		Supply:   f.supply,
		Holder:   holderAddr,
	}
}

// ---------------------------------------------------------------------------
// Token
// ---------------------------------------------------------------------------

func TestTokenReadsMetadata(t *testing.T) {
	f := newFakeToken()
	info, err := NewReader(f).Token(context.Background(), tokenAddr)
	require.NoError(t, err)

	assert.Equal(t, tokenAddr, info.Address)
	assert.Equal(t, "Pepe Launch", info.Name)
	assert.Equal(t, "PEPE", info.Symbol)
	assert.Equal(t, uint8(18), info.Decimals)
	assert.Equal(t, 0, f.supply.Cmp(info.TotalSupply))
	assert.Equal(t, []string{"name", "symbol", "decimals", "totalSupply"}, f.calls)
}

func TestTokenNoCode(t *testing.T) {
	_, err := NewReader(newFakeToken()).Token(context.Background(), holderAddr)
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestTokenNotERC20(t *testing.T) {
	f := newFakeToken()
	f.empty = true
	_, err := NewReader(f).Token(context.Background(), tokenAddr)
	assert.ErrorIs(t, err, ErrNotToken)
}

func TestTokenCallError(t *testing.T) {
	f := newFakeToken()
	f.callErr = errors.New("execution reverted")
	_, err := NewReader(f).Token(context.Background(), tokenAddr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calling name")
}

func TestBalanceOf(t *testing.T) {
	f := newFakeToken()
	r := NewReader(f)

	bal, err := r.BalanceOf(context.Background(), tokenAddr, holderAddr)
	require.NoError(t, err)
	assert.Equal(t, 0, f.supply.Cmp(bal))

	bal, err = r.BalanceOf(context.Background(), tokenAddr, common.HexToAddress("0x01"))
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Sign())
}

// ---------------------------------------------------------------------------
// Verify
// ---------------------------------------------------------------------------

func TestVerifyMatches(t *testing.T) {
	f := newFakeToken()
	info, err := NewReader(f).Verify(context.Background(), tokenAddr, expectedFor(f))
	require.NoError(t, err)
	assert.Equal(t, "PEPE", info.Symbol)
	assert.Contains(t, f.calls, "balanceOf")
}

func TestVerifyReportsEveryDifference(t *testing.T) {
	f := newFakeToken()
	want := expectedFor(f)
	want.Name = "Other"
	want.Decimals = 6
	want.Holder = common.HexToAddress("0x02")

	info, err := NewReader(f).Verify(context.Background(), tokenAddr, want)
	require.ErrorIs(t, err, ErrMismatch)
	require.NotNil(t, info)
	assert.Contains(t, err.Error(), `name "Pepe Launch", want "Other"`)
	assert.Contains(t, err.Error(), "decimals 18, want 6")
	assert.Contains(t, err.Error(), "holder balance 0")
	assert.NotContains(t, err.Error(), "symbol")
}

func TestVerifySkipsHolderWhenUnset(t *testing.T) {
	f := newFakeToken()
	want := expectedFor(f)
	want.Holder = common.Address{}

	_, err := NewReader(f).Verify(context.Background(), tokenAddr, want)
	require.NoError(t, err)
	assert.NotContains(t, f.calls, "balanceOf")
}

func TestERC20Selectors(t *testing.T) {
	tests := map[string]string{
		"name":        "06fdde03",
		"symbol":      "95d89b41",
		"decimals":    "313ce567",
		"totalSupply": "18160ddd",
		"balanceOf":   "70a08231",
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, common.Bytes2Hex(erc20.Methods[name].ID))
		})
	}
}
