package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and adapters and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string
	OutDir      string // Foundry artifacts directory

	// Chain settings
	Network    *Network // resolved from --network or --rpc-url
	PrivateKey string   //nolint:gosec // resolved from env, never logged

	// Orchestration parameters, validated by the use cases
	Contract      string
	ProxyContract string
	// ReferenceContract is the artifact of the implementation currently
	// behind the proxy, used for the storage layout check
	ReferenceContract string
	Kind              string
	RouterAddress     string
	Modules           []string
	ProxyAddress      string

	// Execution settings
	Debug          bool
	NonInteractive bool
	Yes            bool
	Verify         bool
	SkipBuild      bool
	Output         string // text, json or yaml
	Timeout        time.Duration

	// Resolved configurations
	FoundryConfig *FoundryConfig
}

// Network represents network configuration
type Network struct {
	ChainID     uint64 `json:"chainId"`
	Name        string `json:"name"`
	RPCURL      string `json:"rpcUrl"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
	VerifierURL string `json:"verifierUrl,omitempty"` // [etherscan] url from foundry.toml
	APIKey      string `json:"-"`
}

// IsLocal reports whether the network is a local development chain
func (n *Network) IsLocal() bool {
	return n != nil && n.ChainID == 31337
}

// explorers are the fallback block explorers by chain ID
var explorers = map[uint64]string{
	1:        "https://etherscan.io",
	11155111: "https://sepolia.etherscan.io",
	10:       "https://optimistic.etherscan.io",
	137:      "https://polygonscan.com",
	8453:     "https://basescan.org",
	42161:    "https://arbiscan.io",
	56:       "https://bscscan.com",
	42220:    "https://celoscan.io",
	59144:    "https://lineascan.build",
	59141:    "https://sepolia.lineascan.build",
}

// SetChainID records the chain ID reported by the node and fills in the
// explorer when none was configured
func (n *Network) SetChainID(chainID uint64) {
	n.ChainID = chainID
	if n.ExplorerURL == "" {
		n.ExplorerURL = explorers[chainID]
	}
}
