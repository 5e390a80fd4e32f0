package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

const (
	defaultNetwork  = "ethereum"
	defaultLogLevel = "warn"
	defaultSolc     = "solc"
	defaultCurrency = "usd"
	defaultRPCAlgo  = "failover"

	configFile      = "config.json"
	walletsFile     = "wallets.json"
	deploymentsFile = "deployments.json"
	grantsFile      = "grants.json"
)

// DefaultDir returns $TOKENLAUNCH_CONFIG_DIR or ~/.tokenlaunch.
func DefaultDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home dir: %w", err)
	}
	return filepath.Join(home, ".tokenlaunch"), nil
}

// Load reads config from dir (or creates defaults). dir defaults to
// DefaultDir.
func Load(dir string) (*Config, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}

	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Token returns the backend bearer token. The environment wins over the
// file so the secret need not be stored on disk.
func (c *Config) Token() string {
	if c.envToken != "" {
		return c.envToken
	}
	return c.BackendToken
}

// AddRPC adds a custom RPC URL for a chain.
func (c *Config) AddRPC(chain, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[chain], url) {
		return fmt.Errorf("RPC %s already exists for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = append(c.CustomRPCs[chain], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a chain.
func (c *Config) RemoveRPC(chain, url string) error {
	rpcs := c.CustomRPCs[chain]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = slices.Delete(rpcs, idx, idx+1)
	if len(c.CustomRPCs[chain]) == 0 {
		delete(c.CustomRPCs, chain)
	}
	return nil
}

// GetRPCs returns custom RPCs for a chain.
func (c *Config) GetRPCs(chain string) []string {
	return c.CustomRPCs[chain]
}

// RememberChain records that the wallet knows chainID. It reports whether
// the list changed.
func (c *Config) RememberChain(chainID uint64) bool {
	if slices.Contains(c.WalletChains, chainID) {
		return false
	}
	c.WalletChains = append(c.WalletChains, chainID)
	slices.Sort(c.WalletChains)
	return true
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is where the wallet store lives.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// GrantsPath is where approved wallet accounts are recorded. Each config
// directory keeps its own grants.
func (c *Config) GrantsPath() string {
	return filepath.Join(c.configDir, grantsFile)
}

// LoadDeployments reads deployments.json.
func (c *Config) LoadDeployments() (*DeploymentsFile, error) {
	return loadJSON[DeploymentsFile](filepath.Join(c.configDir, deploymentsFile))
}

// RecordDeployment appends d to deployments.json, stamping DeployedAt when
// unset.
func (c *Config) RecordDeployment(d Deployment) error {
	df, err := c.LoadDeployments()
	if err != nil {
		return err
	}
	if d.DeployedAt == "" {
		d.DeployedAt = time.Now().UTC().Format(time.RFC3339)
	}
	df.Deployments = append(df.Deployments, d)
	return saveJSON(filepath.Join(c.configDir, deploymentsFile), df)
}

// SaveDeployments rewrites deployments.json.
func (c *Config) SaveDeployments(df *DeploymentsFile) error {
	return saveJSON(filepath.Join(c.configDir, deploymentsFile), df)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		DefaultNetwork: defaultNetwork,
		LogLevel:       defaultLogLevel,
		SolcPath:       defaultSolc,
		PriceCurrency:  defaultCurrency,
		RPCAlgorithm:   defaultRPCAlgo,
		CustomRPCs:     make(map[string][]string),
		configDir:      dir,
		envToken:       os.Getenv(EnvBackendToken),
	}
}

func loadJSON[T any](path string) (*T, error) {
	var zero T
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &zero, nil
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
