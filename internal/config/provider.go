package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/portal-deployer/internal/domain/config"
)

const (
	DefaultContract      = "EASWrappedVeraxPortal"
	DefaultProxyContract = "ERC1967Proxy"
	DataDirName          = ".portal"
)

// envAliases are the variable names the hardhat scripts used, kept so existing .env files work
var envAliases = map[string][]string{
	"rpc_url":        {"RPC_URL"},
	"private_key":    {"PRIVATE_KEY"},
	"router_address": {"ROUTER_ADDRESS"},
	"proxy_address":  {"PROXY_ADDRESS", "EAS_WRAPPED_PROXY_ADDRESS"},
}

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(ctx context.Context, v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	// .env files must be loaded before any env backed key is read
	LoadEnvFiles(projectRoot)

	foundryConfig, err := LoadFoundryConfig(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load foundry config: %w", err)
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:       projectRoot,
		DataDir:           filepath.Join(projectRoot, DataDirName),
		OutDir:            v.GetString("out"),
		PrivateKey:        strings.TrimSpace(v.GetString("private_key")),
		Contract:          v.GetString("contract"),
		ProxyContract:     v.GetString("proxy_contract"),
		ReferenceContract: strings.TrimSpace(v.GetString("reference_contract")),
		Kind:              v.GetString("kind"),
		RouterAddress:     strings.TrimSpace(v.GetString("router_address")),
		Modules:           splitList(v.GetString("modules")),
		ProxyAddress:      strings.TrimSpace(v.GetString("proxy_address")),
		Debug:             v.GetBool("debug"),
		NonInteractive:    v.GetBool("non_interactive"),
		Yes:               v.GetBool("yes"),
		Verify:            v.GetBool("verify"),
		SkipBuild:         v.GetBool("skip_build"),
		Output:            strings.ToLower(v.GetString("output")),
		Timeout:           v.GetDuration("timeout"),
		FoundryConfig:     foundryConfig,
	}

	switch output := cfg.Output; output {
	case "text", "json", "yaml":
	default:
		return nil, fmt.Errorf("unsupported output format %q (text, json or yaml)", output)
	}

	resolver := NewNetworkResolver(foundryConfig)
	if rpcURL := strings.TrimSpace(v.GetString("rpc_url")); rpcURL != "" {
		network, err := resolver.ResolveURL(rpcURL)
		if err != nil {
			return nil, err
		}
		cfg.Network = network
	} else if networkName := strings.TrimSpace(v.GetString("network")); networkName != "" {
		network, err := resolver.Resolve(networkName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve network %s: %w", networkName, err)
		}
		cfg.Network = network
	}

	return cfg, nil
}

// FindProjectRoot walks up from current directory to find foundry.toml
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "foundry.toml")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a Foundry project (foundry.toml not found)")
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	v.SetConfigName("config.local")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, DataDirName))

	v.SetEnvPrefix("PORTAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	for key, aliases := range envAliases {
		names := append([]string{"PORTAL_" + strings.ToUpper(key)}, aliases...)
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	v.SetDefault("contract", DefaultContract)
	v.SetDefault("proxy_contract", DefaultProxyContract)
	v.SetDefault("kind", "uups")
	v.SetDefault("timeout", "10m")
	v.SetDefault("output", "text")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	// Try to read config file (ignore error if not found)
	_ = v.ReadInConfig()

	if cmd != nil {
		bindFlags(v, cmd.Flags())
		bindFlags(v, cmd.InheritedFlags())
	}

	return v
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})
}

// splitList accepts "a,b" or "a b"
func splitList(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}
