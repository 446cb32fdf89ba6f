package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const foundryTOML = `
[profile.default]
src = "src"
out = "artifacts"
extra_output = ["storageLayout"]

[rpc_endpoints]
linea-sepolia = "${PORTAL_TEST_LINEA_RPC}"
local = "http://127.0.0.1:8545"

[etherscan]
linea-sepolia = { key = "${PORTAL_TEST_LINEASCAN_KEY}", url = "https://api-sepolia.lineascan.build/api" }
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadFoundryConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "foundry.toml"), foundryTOML)
	t.Setenv("PORTAL_TEST_LINEA_RPC", "https://rpc.sepolia.linea.build")
	t.Setenv("PORTAL_TEST_LINEASCAN_KEY", "KEY")

	cfg, err := LoadFoundryConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://rpc.sepolia.linea.build", cfg.RpcEndpoints["linea-sepolia"])
	assert.Equal(t, "http://127.0.0.1:8545", cfg.RpcEndpoints["local"])
	assert.Equal(t, "KEY", cfg.Etherscan["linea-sepolia"].Key)
	assert.Equal(t, "artifacts", cfg.OutDir("default"))
	assert.True(t, cfg.EmitsStorageLayout("default"))
}

func TestLoadFoundryConfig_Missing(t *testing.T) {
	_, err := LoadFoundryConfig(t.TempDir())
	assert.Error(t, err)
}

func TestLoadEnvFiles(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "contracts")
	writeFile(t, filepath.Join(root, ".env"), "PORTAL_TEST_A=from-env\n")
	writeFile(t, filepath.Join(root, ".env.local"), "PORTAL_TEST_A=from-local\nPORTAL_TEST_B=from-local\n")
	writeFile(t, filepath.Join(parent, ".env"), "PORTAL_TEST_C=from-parent\n")

	t.Setenv("PORTAL_TEST_A", "")
	t.Setenv("PORTAL_TEST_B", "")
	t.Setenv("PORTAL_TEST_C", "")
	for _, key := range []string{"PORTAL_TEST_A", "PORTAL_TEST_B", "PORTAL_TEST_C"} {
		require.NoError(t, os.Unsetenv(key))
	}

	LoadEnvFiles(root)

	assert.Equal(t, "from-env", os.Getenv("PORTAL_TEST_A"))
	assert.Equal(t, "from-local", os.Getenv("PORTAL_TEST_B"))
	assert.Equal(t, "from-parent", os.Getenv("PORTAL_TEST_C"))
}

func TestRPCEnvVarName(t *testing.T) {
	tests := map[string]string{
		"sepolia":       "SEPOLIA_RPC_URL",
		"linea-sepolia": "LINEA_SEPOLIA_RPC_URL",
		"base.mainnet":  "BASE_MAINNET_RPC_URL",
	}
	for in, want := range tests {
		assert.Equal(t, want, RPCEnvVarName(in))
	}
}
