package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/trebuchet-org/portal-deployer/internal/domain"
	"github.com/trebuchet-org/portal-deployer/internal/domain/config"
)

// NetworkResolver resolves network names and RPC URLs to network configurations.
// It never contacts the endpoint; the chain client learns the chain ID on first use.
type NetworkResolver struct {
	foundry *config.FoundryConfig
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(foundry *config.FoundryConfig) *NetworkResolver {
	if foundry == nil {
		foundry = &config.FoundryConfig{}
	}
	return &NetworkResolver{foundry: foundry}
}

// Resolve looks the name up in foundry.toml [rpc_endpoints], then in the
// <NAME>_RPC_URL env var
func (r *NetworkResolver) Resolve(name string) (*config.Network, error) {
	if isURL(name) {
		return r.ResolveURL(name)
	}

	rpcURL := r.foundry.RpcEndpoints[name]
	if rpcURL == "" {
		rpcURL = strings.TrimSpace(os.Getenv(RPCEnvVarName(name)))
	}
	if rpcURL == "" {
		known := lo.Keys(r.foundry.RpcEndpoints)
		sort.Strings(known)
		reason := fmt.Sprintf("%q is not in foundry.toml [rpc_endpoints] and %s is not set", name, RPCEnvVarName(name))
		if len(known) > 0 {
			reason += fmt.Sprintf(" (known: %s)", strings.Join(known, ", "))
		}
		return nil, domain.NewConfigurationError("network", domain.ErrMissingValue, reason)
	}
	if !isURL(rpcURL) {
		return nil, domain.NewConfigurationError("network", nil, fmt.Sprintf("rpc endpoint of %s is not an http(s) or ws(s) URL", name))
	}

	network := &config.Network{Name: name, RPCURL: rpcURL}
	if ec, ok := r.foundry.Etherscan[name]; ok {
		network.VerifierURL = ec.URL
		network.APIKey = ec.Key
	}
	return network, nil
}

// ResolveURL builds a network for a bare RPC URL
func (r *NetworkResolver) ResolveURL(rpcURL string) (*config.Network, error) {
	if !isURL(rpcURL) {
		return nil, domain.NewConfigurationError("rpc_url", nil, fmt.Sprintf("%q is not an http(s) or ws(s) URL", rpcURL))
	}
	return &config.Network{Name: "custom", RPCURL: rpcURL}, nil
}

func isURL(s string) bool {
	for _, scheme := range []string{"http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(s, scheme) {
			return true
		}
	}
	return false
}
