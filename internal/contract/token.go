// Package contract reads ERC-20 state back from deployed tokens.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// ERC20ABI is the read side of EIP-20.
//
//	name()              → 0x06fdde03
//	symbol()            → 0x95d89b41
//	decimals()          → 0x313ce567
//	totalSupply()       → 0x18160ddd
//	balanceOf(address)  → 0x70a08231
const ERC20ABI = `[
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var erc20 = mustParse(ERC20ABI)

var (
	// ErrNoCode is returned when nothing is deployed at the address.
	ErrNoCode = errors.New("no contract code at address")
	// ErrNotToken is returned when the contract does not answer ERC-20 calls.
	ErrNotToken = errors.New("contract is not an ERC-20 token")
	// ErrMismatch is returned by Verify when on-chain state differs.
	ErrMismatch = errors.New("on-chain token does not match")
)

// TokenInfo is what a token reports about itself.
type TokenInfo struct {
	Address     common.Address
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
}

// Expected is what a freshly deployed token must report.
type Expected struct {
	Name     string
	Symbol   string
	Decimals uint8
	Supply   *big.Int // base units
	Holder   common.Address
}

// Reader calls view functions on ERC-20 tokens.
type Reader struct {
	caller bind.ContractCaller
}

// NewReader returns a Reader using caller for eth_call and eth_getCode.
func NewReader(caller bind.ContractCaller) *Reader {
	return &Reader{caller: caller}
}

// Token reads name, symbol, decimals and total supply.
func (r *Reader) Token(ctx context.Context, addr common.Address) (*TokenInfo, error) {
	code, err := r.caller.CodeAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("reading code: %w", err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCode, addr.Hex())
	}

	info := &TokenInfo{Address: addr}
	if err := r.call(ctx, addr, "name", &info.Name); err != nil {
		return nil, err
	}
	if err := r.call(ctx, addr, "symbol", &info.Symbol); err != nil {
		return nil, err
	}
	if err := r.call(ctx, addr, "decimals", &info.Decimals); err != nil {
		return nil, err
	}
	if err := r.call(ctx, addr, "totalSupply", &info.TotalSupply); err != nil {
		return nil, err
	}
	return info, nil
}

// BalanceOf returns holder's balance of token in base units.
func (r *Reader) BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	var bal *big.Int
	if err := r.call(ctx, token, "balanceOf", &bal, holder); err != nil {
		return nil, err
	}
	return bal, nil
}

// Verify reads the token back and compares it with want. All differences
// are reported in one ErrMismatch.
func (r *Reader) Verify(ctx context.Context, addr common.Address, want Expected) (*TokenInfo, error) {
	info, err := r.Token(ctx, addr)
	if err != nil {
		return nil, err
	}

	var diffs []string
	if info.Name != want.Name {
		diffs = append(diffs, fmt.Sprintf("name %q, want %q", info.Name, want.Name))
	}
	if info.Symbol != want.Symbol {
		diffs = append(diffs, fmt.Sprintf("symbol %q, want %q", info.Symbol, want.Symbol))
	}
	if info.Decimals != want.Decimals {
		diffs = append(diffs, fmt.Sprintf("decimals %d, want %d", info.Decimals, want.Decimals))
	}
	if want.Supply != nil && info.TotalSupply.Cmp(want.Supply) != 0 {
		diffs = append(diffs, fmt.Sprintf("total supply %s, want %s", info.TotalSupply, want.Supply))
	}
	if want.Holder != (common.Address{}) && want.Supply != nil {
		bal, err := r.BalanceOf(ctx, addr, want.Holder)
		if err != nil {
			return info, err
		}
		if bal.Cmp(want.Supply) != 0 {
			diffs = append(diffs, fmt.Sprintf("holder balance %s, want %s", bal, want.Supply))
		}
	}

	if len(diffs) > 0 {
		return info, fmt.Errorf("%w: %s", ErrMismatch, strings.Join(diffs, "; "))
	}
	return info, nil
}

// call packs method, runs it against to and stores the single result in out.
func (r *Reader) call(ctx context.Context, to common.Address, method string, out any, args ...any) error {
	data, err := erc20.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("packing %s: %w", method, err)
	}
	res, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	if len(res) == 0 {
		return fmt.Errorf("%w: %s() returned nothing", ErrNotToken, method)
	}
	if err := erc20.UnpackIntoInterface(out, method, res); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", ErrNotToken, method, err)
	}
	return nil
}

func mustParse(s string) abi.ABI {
	a, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return a
}
