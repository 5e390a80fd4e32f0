package price

import (
	"context"
	"errors"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// fixedTransport: replaces the HTTP client without needing a real server.
// ---------------------------------------------------------------------------

type fixedTransport struct {
	body  string
	code  int
	err   error
	calls atomic.Int32
	last  *http.Request
}

func (ft *fixedTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	ft.calls.Add(1)
	ft.last = r
	if ft.err != nil {
		return nil, ft.err
	}
	return &http.Response{
		StatusCode: ft.code,
		Status:     http.StatusText(ft.code),
		Body:       io.NopCloser(strings.NewReader(ft.body)),
		Header:     make(http.Header),
	}, nil
}

func newMockFetcher(body string, code int) (*Fetcher, *fixedTransport) {
	ft := &fixedTransport{body: body, code: code}
	f := NewFetcher("usd")
	f.client = &http.Client{Transport: ft}
	return f, ft
}

func network(t *testing.T, ref string) *chain.Network {
	t.Helper()
	n, err := chain.NewRegistry().Resolve(ref)
	require.NoError(t, err)
	return n
}

// ---------------------------------------------------------------------------
// NewFetcher
// ---------------------------------------------------------------------------

func TestNewFetcherCurrency(t *testing.T) {
	assert.Equal(t, "usd", NewFetcher("").Currency())
	assert.Equal(t, "eur", NewFetcher("EUR").Currency(), "currency must be lowercased")
}

// ---------------------------------------------------------------------------
// Price
// ---------------------------------------------------------------------------

func TestPriceKnownChain(t *testing.T) {
	f, ft := newMockFetcher(`{"ethereum":{"usd":3000.50}}`, http.StatusOK)

	p, err := f.Price(context.Background(), network(t, "ethereum"))
	require.NoError(t, err)
	assert.InDelta(t, 3000.50, p, 0.001)
	assert.Equal(t, "ethereum", ft.last.URL.Query().Get("ids"))
	assert.Equal(t, "usd", ft.last.URL.Query().Get("vs_currencies"))
}

func TestPriceL2UsesEthereumID(t *testing.T) {
	f, ft := newMockFetcher(`{"ethereum":{"usd":2500}}`, http.StatusOK)

	p, err := f.Price(context.Background(), network(t, "base"))
	require.NoError(t, err)
	assert.InDelta(t, 2500.0, p, 0.001)
	assert.Equal(t, "ethereum", ft.last.URL.Query().Get("ids"))
}

func TestPriceIsCached(t *testing.T) {
	f, ft := newMockFetcher(`{"binancecoin":{"usd":600}}`, http.StatusOK)
	bsc := network(t, "bsc")

	for range 3 {
		p, err := f.Price(context.Background(), bsc)
		require.NoError(t, err)
		assert.InDelta(t, 600.0, p, 0.001)
	}
	assert.Equal(t, int32(1), ft.calls.Load())
}

func TestPriceTestnetHasNoPrice(t *testing.T) {
	f, ft := newMockFetcher(`{}`, http.StatusOK)

	_, err := f.Price(context.Background(), network(t, "sepolia"))
	require.Error(t, err)
	assert.Equal(t, int32(0), ft.calls.Load())
}

func TestPriceErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
		err  error
	}{
		{"transport", "", 0, errors.New("dial tcp: refused")},
		{"status", `{"error":"rate limited"}`, http.StatusTooManyRequests, nil},
		{"malformed", `not json`, http.StatusOK, nil},
		{"missing id", `{"bitcoin":{"usd":1}}`, http.StatusOK, nil},
		{"missing currency", `{"ethereum":{"eur":1}}`, http.StatusOK, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFetcher("usd")
			f.client = &http.Client{Transport: &fixedTransport{body: tt.body, code: tt.code, err: tt.err}}
			_, err := f.Price(context.Background(), network(t, "ethereum"))
			assert.Error(t, err)
		})
	}
}

// ---------------------------------------------------------------------------
// Value
// ---------------------------------------------------------------------------

func TestValue(t *testing.T) {
	f, _ := newMockFetcher(`{"matic-network":{"usd":0.5}}`, http.StatusOK)
	polygon := network(t, "polygon")

	// 3 MATIC
	wei := new(big.Int).Mul(big.NewInt(3), big.NewInt(1e18))
	v, err := f.Value(context.Background(), polygon, wei)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, v, 1e-9)

	v, err = f.Value(context.Background(), polygon, nil)
	require.NoError(t, err)
	assert.Zero(t, v)
}
