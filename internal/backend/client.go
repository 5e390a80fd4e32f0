// Package backend talks to the launchpad API that keeps a record of
// connected wallets and deployed tokens.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrBackend wraps every failure returned by the client.
var ErrBackend = errors.New("backend request failed")

// Client is a small JSON client for the launchpad API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// New returns a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type connectRequest struct {
	Address string `json:"address"`
	Type    string `json:"type"`
}

// SaveConnection records that a wallet connected.
func (c *Client) SaveConnection(ctx context.Context, address, walletType string) error {
	return c.post(ctx, "/api/wallet/connect", connectRequest{Address: address, Type: walletType}, nil)
}

// TokenRecord describes a deployed token.
type TokenRecord struct {
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	TotalSupply     string `json:"total_supply"`
	Decimals        uint8  `json:"decimals"`
	Network         string `json:"network"`
	ChainID         uint64 `json:"chain_id"`
	ContractAddress string `json:"contract_address"`
	TransactionHash string `json:"tx_hash"`
	Deployer        string `json:"deployer"`
	Description     string `json:"description,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
}

// TokenResponse is the API's answer to CreateToken.
type TokenResponse struct {
	ID      string `json:"id,omitempty"`
	Address string `json:"address,omitempty"`
	TxHash  string `json:"tx_hash,omitempty"`
}

// CreateToken stores a deployed token.
func (c *Client) CreateToken(ctx context.Context, rec TokenRecord) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.post(ctx, "/api/tokens", rec, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("%w: no backend URL configured", ErrBackend)
	}
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %w", ErrBackend, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %w", ErrBackend, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: reading response: %w", ErrBackend, err)
	}

	var eb errorBody
	_ = json.Unmarshal(data, &eb)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := eb.Error
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("%w: POST %s: %s", ErrBackend, path, msg)
	}
	if eb.Error != "" {
		return fmt.Errorf("%w: POST %s: %s", ErrBackend, path, eb.Error)
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: decoding response: %w", ErrBackend, err)
		}
	}
	return nil
}
