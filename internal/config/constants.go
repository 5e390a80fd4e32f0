package config

import "time"

// Timeouts used by the commands.
const (
	RPCTimeout      = 15 * time.Second // single RPC round trip (balance, gas price)
	DeployTimeout   = 5 * time.Minute  // send + wait for the deployment receipt
	BackendTimeout  = 10 * time.Second // recording a connection or token
	BalanceCacheTTL = 30 * time.Second // status line balance
)

// Environment overrides.
const (
	EnvConfigDir    = "TOKENLAUNCH_CONFIG_DIR"
	EnvBackendToken = "TOKENLAUNCH_BACKEND_TOKEN"
)
