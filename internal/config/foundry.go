package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/portal-deployer/internal/domain/config"
)

// LoadEnvFiles loads .env files from the project and its parent directory.
// Variables already present in the environment win, then the first file that sets a key.
func LoadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
		filepath.Join(projectRoot, "..", ".env"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			slog.Warn("failed to load env file", "path", envFile, "error", err)
		}
	}
}

// LoadFoundryConfig parses foundry.toml and expands env references in
// [rpc_endpoints] and [etherscan]
func LoadFoundryConfig(projectRoot string) (*config.FoundryConfig, error) {
	foundryPath := filepath.Join(projectRoot, "foundry.toml")

	var cfg config.FoundryConfig
	if _, err := toml.DecodeFile(foundryPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse foundry.toml: %w", err)
	}

	for name, url := range cfg.RpcEndpoints {
		cfg.RpcEndpoints[name] = expand(url)
	}
	for name, ec := range cfg.Etherscan {
		ec.Key = expand(ec.Key)
		ec.URL = expand(ec.URL)
		cfg.Etherscan[name] = ec
	}

	return &cfg, nil
}

// RPCEnvVarName is the conventional env var for a network's RPC URL,
// e.g. sepolia -> SEPOLIA_RPC_URL, linea-sepolia -> LINEA_SEPOLIA_RPC_URL
func RPCEnvVarName(networkName string) string {
	name := strings.ToUpper(networkName)
	name = strings.NewReplacer("-", "_", ".", "_").Replace(name)
	return name + "_RPC_URL"
}

// expand resolves $VAR and ${VAR}; an unset variable leaves the value empty
func expand(value string) string {
	return strings.TrimSpace(os.ExpandEnv(value))
}
