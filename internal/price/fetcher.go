// Package price quotes native currencies in fiat so gas costs can be shown
// next to their dollar value.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/patrickmn/go-cache"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// coinGeckoIDs maps registry slugs to CoinGecko coin IDs. Testnets have no
// market price and are left out.
var coinGeckoIDs = map[string]string{
	"ethereum":  "ethereum",
	"optimism":  "ethereum",
	"base":      "ethereum",
	"arbitrum":  "ethereum",
	"bsc":       "binancecoin",
	"polygon":   "matic-network",
	"avalanche": "avalanche-2",
}

// Fetcher retrieves prices from CoinGecko and caches them for a few minutes.
type Fetcher struct {
	client   *http.Client
	baseURL  string
	currency string
	cache    *cache.Cache
}

// NewFetcher creates a fetcher quoting in currency (default "usd").
func NewFetcher(currency string) *Fetcher {
	if currency == "" {
		currency = "usd"
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  defaultBaseURL,
		currency: strings.ToLower(currency),
		cache:    cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Currency returns the quote currency code.
func (f *Fetcher) Currency() string { return f.currency }

// Price returns the price of a network's native currency.
func (f *Fetcher) Price(ctx context.Context, n *chain.Network) (float64, error) {
	id, ok := coinGeckoIDs[n.Name]
	if !ok || n.Testnet {
		return 0, fmt.Errorf("no market price for %s", n.DisplayName)
	}
	if p, ok := f.cache.Get(id); ok {
		return p.(float64), nil
	}

	prices, err := f.fetch(ctx, id)
	if err != nil {
		return 0, err
	}
	p, ok := prices[id]
	if !ok {
		return 0, fmt.Errorf("price not available for: %s", id)
	}
	f.cache.SetDefault(id, p)
	return p, nil
}

// Value converts an amount in wei to the quote currency.
func (f *Fetcher) Value(ctx context.Context, n *chain.Network, wei *big.Int) (float64, error) {
	p, err := f.Price(ctx, n)
	if err != nil {
		return 0, err
	}
	if wei == nil {
		return 0, nil
	}
	eth, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18)).Float64()
	return eth * p, nil
}

func (f *Fetcher) fetch(ctx context.Context, ids ...string) (map[string]float64, error) {
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", f.currency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching prices: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading price response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price API returned %s", resp.Status)
	}

	// Response: {"ethereum":{"usd":1234.56}, ...}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing price response: %w", err)
	}

	prices := make(map[string]float64)
	for id, currencies := range raw {
		if p, ok := currencies[f.currency]; ok {
			prices[id] = p
		}
	}
	return prices, nil
}
