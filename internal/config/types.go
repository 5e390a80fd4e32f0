package config

// Config holds all tokenlaunch configuration.
type Config struct {
	DefaultNetwork string              `json:"default_network"`
	DefaultWallet  string              `json:"default_wallet,omitempty"`
	BackendURL     string              `json:"backend_url,omitempty"`
	BackendToken   string              `json:"backend_token,omitempty"`
	LogLevel       string              `json:"log_level"`
	SolcPath       string              `json:"solc_path"`
	PriceCurrency  string              `json:"price_currency"`
	RPCAlgorithm   string              `json:"rpc_algorithm"`           // "failover" | "fastest" | "round-robin"
	CustomRPCs     map[string][]string `json:"custom_rpcs"`             // chain slug -> RPC URLs, tried in order
	WalletChains   []uint64            `json:"wallet_chains,omitempty"` // networks added to the wallet
	ActiveChain    uint64              `json:"active_chain,omitempty"`  // network the wallet is on

	// internal: config dir path used for Save()
	configDir string
	envToken  string
}

// Deployment is one token deployed from this machine.
type Deployment struct {
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	TotalSupply     string `json:"total_supply"`
	Decimals        uint8  `json:"decimals"`
	ChainID         uint64 `json:"chain_id"`
	Network         string `json:"network"`
	ContractAddress string `json:"contract_address"`
	TransactionHash string `json:"tx_hash"`
	Deployer        string `json:"deployer"`
	GasUsed         uint64 `json:"gas_used"`
	BlockNumber     uint64 `json:"block_number"`
	Description     string `json:"description,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
	DeployedAt      string `json:"deployed_at"`
	Published       bool   `json:"published"`             // accepted by the launchpad backend
	Unconfirmed     bool   `json:"unconfirmed,omitempty"` // sent, receipt never seen
}

// Publishable reports whether d still has to be sent to the launchpad.
// Unconfirmed deployments wait until their transaction is known to be mined.
func (d Deployment) Publishable() bool {
	return !d.Published && !d.Unconfirmed
}

// DeploymentsFile is the structure of deployments.json.
type DeploymentsFile struct {
	Deployments []Deployment `json:"deployments"`
}
