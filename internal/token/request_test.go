package token_test

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/Mohsinsiddi/tokenlaunch/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() token.Request {
	return token.Request{
		Name:        "Pepe Launch",
		Symbol:      "PEPE",
		TotalSupply: "1000000",
		Decimals:    18,
		Network:     "polygon",
		Burnable:    true,
		Description: "a meme",
		ImageURL:    "https://img.example/pepe.png",
	}
}

func TestValidateAcceptsValidRequest(t *testing.T) {
	assert.NoError(t, validRequest().Validate())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*token.Request)
		want   string
	}{
		{"empty name", func(r *token.Request) { r.Name = "  " }, "name is required"},
		{"long name", func(r *token.Request) { r.Name = strings.Repeat("a", 101) }, "name must be at most 100"},
		{"short symbol", func(r *token.Request) { r.Symbol = "P" }, "symbol"},
		{"long symbol", func(r *token.Request) { r.Symbol = strings.Repeat("A", 21) }, "symbol"},
		{"symbol punctuation", func(r *token.Request) { r.Symbol = "PE-PE" }, "symbol"},
		{"decimals", func(r *token.Request) { r.Decimals = 19 }, "decimals"},
		{"zero supply", func(r *token.Request) { r.TotalSupply = "0" }, "total supply"},
		{"negative supply", func(r *token.Request) { r.TotalSupply = "-5" }, "total supply"},
		{"fractional supply", func(r *token.Request) { r.TotalSupply = "1.5" }, "total supply"},
		{"huge supply", func(r *token.Request) { r.TotalSupply = strings.Repeat("9", 70) }, "too large"},
		{"network", func(r *token.Request) { r.Network = "" }, "network is required"},
		{"recipient", func(r *token.Request) { r.Recipient = "0x123" }, "recipient"},
		{"description", func(r *token.Request) { r.Description = strings.Repeat("d", 1001) }, "description"},
		{"relative image", func(r *token.Request) { r.ImageURL = "/pepe.png" }, "image URL"},
		{"ftp image", func(r *token.Request) { r.ImageURL = "ftp://img.example/p.png" }, "image URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(&r)
			err := r.Validate()
			require.ErrorIs(t, err, token.ErrInvalidRequest)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	err := token.Request{}.Validate()
	require.Error(t, err)
	for _, want := range []string{"name", "symbol", "total supply", "network"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestConstructorArgs(t *testing.T) {
	deployer := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

	args, err := token.ConstructorArgs(validRequest(), deployer)
	require.NoError(t, err)
	require.Len(t, args, 5)
	assert.Equal(t, "Pepe Launch", args[0])
	assert.Equal(t, "PEPE", args[1])
	assert.Equal(t, uint8(18), args[2])
	assert.Equal(t, 0, big.NewInt(1_000_000).Cmp(args[3].(*big.Int)))
	assert.Equal(t, deployer, args[4])

	r := validRequest()
	r.Recipient = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	args, err = token.ConstructorArgs(r, deployer)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(r.Recipient), args[4])

	r.TotalSupply = "nope"
	_, err = token.ConstructorArgs(r, deployer)
	assert.ErrorIs(t, err, token.ErrInvalidRequest)
}

func TestBaseUnits(t *testing.T) {
	r := validRequest()
	r.TotalSupply = "1000"
	r.Decimals = 6
	v, err := r.BaseUnits()
	require.NoError(t, err)
	assert.Equal(t, "1000000000", v.String())

	r.Decimals = 0
	v, err = r.BaseUnits()
	require.NoError(t, err)
	assert.Equal(t, "1000", v.String())

	r.TotalSupply = "0"
	_, err = r.BaseUnits()
	assert.Error(t, err)
}

func TestResolveNetwork(t *testing.T) {
	reg := chain.NewRegistry()

	n, err := validRequest().ResolveNetwork(reg)
	require.NoError(t, err)
	assert.Equal(t, uint64(137), n.ChainID)

	r := validRequest()
	r.Network = "56"
	n, err = r.ResolveNetwork(reg)
	require.NoError(t, err)
	assert.Equal(t, "bsc", n.Name)

	r.Network = "999999"
	_, err = r.ResolveNetwork(reg)
	assert.ErrorIs(t, err, token.ErrInvalidRequest)
	assert.ErrorIs(t, err, chain.ErrChainNotFound)
}

// ---------------------------------------------------------------------------
// LoadFile
// ---------------------------------------------------------------------------

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: Pepe Launch
symbol: PEPE
total_supply: "420690000000"
network: bsc
pausable: true
`), 0o600))

	r, err := token.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Pepe Launch", r.Name)
	assert.Equal(t, "420690000000", r.TotalSupply)
	assert.Equal(t, uint8(18), r.Decimals, "decimals default to 18")
	assert.True(t, r.Pausable)
	assert.False(t, r.Burnable)
	assert.NoError(t, r.Validate())
}

func TestLoadFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"Doge Two","symbol":"DOGE2","total_supply":"1000","decimals":9,"network":"8453"}`), 0o600))

	r, err := token.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "DOGE2", r.Symbol)
	assert.Equal(t, uint8(9), r.Decimals)
	assert.Equal(t, "8453", r.Network)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := token.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unclosed"), 0o600))
	_, err = token.LoadFile(path)
	assert.Error(t, err)
}
