package config

// FoundryConfig represents the parts of foundry.toml the deployer reads
type FoundryConfig struct {
	Profile      map[string]ProfileConfig   `toml:"profile"`
	RpcEndpoints map[string]string          `toml:"rpc_endpoints"`
	Etherscan    map[string]EtherscanConfig `toml:"etherscan,omitempty"`
}

// EtherscanConfig represents Etherscan configuration for a network
// This matches Foundry's expected structure
type EtherscanConfig struct {
	Key string `toml:"key,omitempty"` // API key for verification
	URL string `toml:"url,omitempty"` // API URL (for custom explorers)
}

// ProfileConfig represents a profile's foundry configuration
type ProfileConfig struct {
	SrcPath     string   `toml:"src,omitempty"`
	OutPath     string   `toml:"out,omitempty"`
	LibPaths    []string `toml:"libs,omitempty"`
	ExtraOutput []string `toml:"extra_output,omitempty"`
	SolcVersion string   `toml:"solc_version,omitempty"`
}

// OutDir returns the artifacts directory of the profile, defaulting to "out"
func (c *FoundryConfig) OutDir(profile string) string {
	if c != nil {
		if p, ok := c.Profile[profile]; ok && p.OutPath != "" {
			return p.OutPath
		}
		if p, ok := c.Profile["default"]; ok && p.OutPath != "" {
			return p.OutPath
		}
	}
	return "out"
}

// EmitsStorageLayout reports whether the profile asks solc for storage layouts
func (c *FoundryConfig) EmitsStorageLayout(profile string) bool {
	if c == nil {
		return false
	}
	for _, name := range []string{profile, "default"} {
		p, ok := c.Profile[name]
		if !ok {
			continue
		}
		for _, out := range p.ExtraOutput {
			if out == "storageLayout" {
				return true
			}
		}
	}
	return false
}
