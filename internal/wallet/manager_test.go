package wallet_test

import (
	"testing"

	"github.com/Mohsinsiddi/tokenlaunch/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hardhatKey0 = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestAddSigningWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	w, err := mgr.AddWithKey("signer", hardhatKey0)
	require.NoError(t, err)
	assert.Equal(t, wallet.TypeSigning, w.Type)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", w.Address) // known address for test key
	assert.True(t, w.IsDefault, "first wallet becomes the default")

	key, err := mgr.Keystore().Retrieve(w.KeyRef)
	require.NoError(t, err)
	assert.Equal(t, hardhatKey0[2:], key)
}

func TestAddDuplicateWalletErrors(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	_, err := mgr.AddWithKey("dup", hardhatKey0)
	require.NoError(t, err)

	_, err = mgr.Generate("dup")
	assert.ErrorIs(t, err, wallet.ErrWalletExists)
}

func TestInvalidPrivateKey(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	_, err := mgr.AddWithKey("bad", "not-a-valid-key")
	assert.ErrorIs(t, err, wallet.ErrInvalidKey)
}

func TestInvalidWalletName(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	for _, name := range []string{"", "has space", "semi;colon"} {
		_, err := mgr.Generate(name)
		assert.ErrorIs(t, err, wallet.ErrInvalidName, name)
	}
}

func TestGenerateWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())

	a, err := mgr.Generate("a")
	require.NoError(t, err)
	b, err := mgr.Generate("b")
	require.NoError(t, err)

	assert.NotEqual(t, a.Address, b.Address)
	assert.False(t, b.IsDefault)
}

func TestListWalletsSorted(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	for _, n := range []string{"w3", "w1", "w2"} {
		_, err := mgr.Generate(n)
		require.NoError(t, err)
	}

	wallets := mgr.List()
	require.Len(t, wallets, 3)
	assert.Equal(t, "w1", wallets[0].Name)
	assert.Equal(t, "w3", wallets[2].Name)
}

func TestRemoveWalletDeletesKey(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	w, err := mgr.AddWithKey("w1", hardhatKey0)
	require.NoError(t, err)

	require.NoError(t, mgr.Remove("w1"))

	_, err = mgr.Get("w1")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
	_, err = mgr.Keystore().Retrieve(w.KeyRef)
	assert.ErrorIs(t, err, wallet.ErrKeyNotFound)
}

func TestRemoveNonExistentWallet(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	assert.ErrorIs(t, mgr.Remove("ghost"), wallet.ErrWalletNotFound)
}

func TestSetDefault(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	_, _ = mgr.Generate("w1")
	_, _ = mgr.Generate("w2")

	require.NoError(t, mgr.SetDefault("w2"))
	d := mgr.Default()
	require.NotNil(t, d)
	assert.Equal(t, "w2", d.Name)

	assert.ErrorIs(t, mgr.SetDefault("nope"), wallet.ErrWalletNotFound)
}

func TestDefaultEmpty(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	assert.Nil(t, mgr.Default())
}

func TestByAddressCaseInsensitive(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	_, err := mgr.AddWithKey("w1", hardhatKey0)
	require.NoError(t, err)

	w, err := mgr.ByAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	require.NoError(t, err)
	assert.Equal(t, "w1", w.Name)

	_, err = mgr.ByAddress("0x0000000000000000000000000000000000000001")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestExportKey(t *testing.T) {
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	_, err := mgr.AddWithKey("signer", hardhatKey0)
	require.NoError(t, err)

	key, err := mgr.ExportKey("signer")
	require.NoError(t, err)
	assert.Equal(t, hardhatKey0, key)

	_, err = mgr.ExportKey("missing")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}
