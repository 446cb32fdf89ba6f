package adapters

import (
	"log/slog"

	"github.com/google/wire"
	"github.com/trebuchet-org/portal-deployer/internal/adapters/abi"
	"github.com/trebuchet-org/portal-deployer/internal/adapters/blockchain"
	"github.com/trebuchet-org/portal-deployer/internal/adapters/interactive"
	"github.com/trebuchet-org/portal-deployer/internal/adapters/repository/contracts"
	"github.com/trebuchet-org/portal-deployer/internal/adapters/verification"
	"github.com/trebuchet-org/portal-deployer/internal/domain/config"
	"github.com/trebuchet-org/portal-deployer/internal/usecase"
)

// ProvideChainClient provides the chain client and closes its RPC connection on cleanup
func ProvideChainClient(cfg *config.RuntimeConfig, resolver usecase.BlueprintResolver, matcher blockchain.CodeMatcher, log *slog.Logger) (*blockchain.Client, func()) {
	client := blockchain.NewClient(cfg, resolver, matcher, log)
	return client, client.Close
}

// ContractsSet provides the Foundry artifact repository
var ContractsSet = wire.NewSet(
	contracts.NewRepository,
	wire.Bind(new(usecase.BlueprintResolver), new(*contracts.Repository)),
	wire.Bind(new(blockchain.CodeMatcher), new(*contracts.Repository)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.ContractSelector), new(*interactive.SelectorAdapter)),
	wire.Bind(new(usecase.Confirmer), new(*interactive.SelectorAdapter)),
)

// BlockchainSet provides go-ethereum backed implementations
var BlockchainSet = wire.NewSet(
	ProvideChainClient,
	wire.Bind(new(usecase.ChainClient), new(*blockchain.Client)),

	abi.NewInitializerEncoder,
	wire.Bind(new(usecase.InitializerEncoder), new(*abi.InitializerEncoder)),
)

// VerificationSet provides forge backed source verification
var VerificationSet = wire.NewSet(
	verification.NewVerifier,
	wire.Bind(new(usecase.ContractVerifier), new(*verification.Verifier)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	ContractsSet,
	InteractiveSet,
	BlockchainSet,
	VerificationSet,
)
