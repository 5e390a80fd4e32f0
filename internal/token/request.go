// Package token describes a token deployment: the request a user fills in,
// the contract source generated from it, and the compiled artifact.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// ErrInvalidRequest is returned when a deployment request fails validation.
var ErrInvalidRequest = errors.New("invalid token request")

const (
	maxNameLen        = 100
	maxDescriptionLen = 1000
	maxDecimals       = 18
)

// maxUint256 bounds the minted amount.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Request is one token deployment as the user described it.
type Request struct {
	Name        string `yaml:"name" json:"name"`
	Symbol      string `yaml:"symbol" json:"symbol"`
	TotalSupply string `yaml:"total_supply" json:"total_supply"` // whole tokens
	Decimals    uint8  `yaml:"decimals" json:"decimals"`
	Network     string `yaml:"network" json:"network"` // slug or chain ID
	Recipient   string `yaml:"recipient,omitempty" json:"recipient,omitempty"`
	Burnable    bool   `yaml:"burnable" json:"burnable"`
	Pausable    bool   `yaml:"pausable" json:"pausable"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	ImageURL    string `yaml:"image_url,omitempty" json:"image_url,omitempty"`
}

// LoadFile reads a request from a YAML or JSON file. Files without a
// .json extension are parsed as YAML.
func LoadFile(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, fmt.Errorf("reading request file: %w", err)
	}
	req := Request{Decimals: 18}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &req)
	} else {
		err = yaml.Unmarshal(data, &req)
	}
	if err != nil {
		return Request{}, fmt.Errorf("parsing request file %s: %w", path, err)
	}
	return req, nil
}

// Validate checks every field and returns all problems at once.
func (r Request) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	name := strings.TrimSpace(r.Name)
	switch {
	case name == "":
		add("name is required")
	case utf8.RuneCountInString(name) > maxNameLen:
		add("name must be at most %d characters", maxNameLen)
	}

	if n := len(r.Symbol); n < 2 || n > 20 || !isAlphanumeric(r.Symbol) {
		add("symbol must be 2-20 letters or digits")
	}

	if r.Decimals > maxDecimals {
		add("decimals must be at most %d", maxDecimals)
	}

	if scaled, err := r.BaseUnits(); err != nil {
		add("%v", err)
	} else if scaled.Cmp(maxUint256) > 0 {
		add("total supply is too large for %d decimals", r.Decimals)
	}

	if strings.TrimSpace(r.Network) == "" {
		add("network is required")
	}

	if r.Recipient != "" && !common.IsHexAddress(r.Recipient) {
		add("recipient %q is not a valid address", r.Recipient)
	}

	if utf8.RuneCountInString(r.Description) > maxDescriptionLen {
		add("description must be at most %d characters", maxDescriptionLen)
	}

	if r.ImageURL != "" {
		u, err := url.Parse(r.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("image URL must be an absolute http(s) URL")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return nil
}

// Supply parses TotalSupply as a positive whole number.
func (r Request) Supply() (*big.Int, error) {
	s := strings.TrimSpace(r.TotalSupply)
	if s == "" || strings.HasPrefix(s, "+") {
		return nil, fmt.Errorf("total supply must be a positive whole number")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() <= 0 {
		return nil, fmt.Errorf("total supply must be a positive whole number")
	}
	return v, nil
}

// BaseUnits is the supply in the token's smallest unit, the amount the
// constructor mints.
func (r Request) BaseUnits() (*big.Int, error) {
	supply, err := r.Supply()
	if err != nil {
		return nil, err
	}
	return supply.Mul(supply, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(r.Decimals)), nil)), nil
}

// ResolveNetwork looks the request's network up in the registry.
func (r Request) ResolveNetwork(reg *chain.Registry) (*chain.Network, error) {
	n, err := reg.Resolve(r.Network)
	if err != nil {
		return nil, fmt.Errorf("%w: network %q: %w", ErrInvalidRequest, r.Network, err)
	}
	return n, nil
}

// ConstructorArgs returns the constructor arguments in declaration order.
// Tokens are minted to the recipient, or to the deployer when none is set.
func ConstructorArgs(r Request, deployer common.Address) ([]any, error) {
	supply, err := r.Supply()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	recipient := deployer
	if r.Recipient != "" {
		recipient = common.HexToAddress(r.Recipient)
	}
	return []any{strings.TrimSpace(r.Name), r.Symbol, r.Decimals, supply, recipient}, nil
}

func isAlphanumeric(s string) bool {
	for _, c := range s {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
