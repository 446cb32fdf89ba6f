package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/portal-deployer/internal/domain"
	"github.com/trebuchet-org/portal-deployer/internal/domain/config"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
)

// UpgradeProxy swaps the implementation behind an existing proxy
type UpgradeProxy struct {
	resolver  BlueprintResolver
	chain     ChainClient
	verifier  ContractVerifier
	confirmer Confirmer
	progress  ProgressSink
	log       *slog.Logger
}

// NewUpgradeProxy creates a new upgrade proxy use case
func NewUpgradeProxy(
	resolver BlueprintResolver,
	chain ChainClient,
	verifier ContractVerifier,
	confirmer Confirmer,
	progress ProgressSink,
	log *slog.Logger,
) *UpgradeProxy {
	return &UpgradeProxy{
		resolver:  resolver,
		chain:     chain,
		verifier:  verifier,
		confirmer: confirmer,
		progress:  progress,
		log:       log,
	}
}

// UpgradeProxyParams contains the inputs of an upgrade.
// There are deliberately no init args: the initializer runs once, at deploy.
type UpgradeProxyParams struct {
	ProxyAddress string
	Contract     string
	SkipConfirm  bool
	Verify       bool
	Network      *config.Network
}

// Run upgrades the proxy and returns its unchanged address with the new implementation
func (uc *UpgradeProxy) Run(ctx context.Context, params UpgradeProxyParams) (_ *models.DeploymentRecord, err error) {
	defer reportFailure(uc.progress, "upgrade", &err)

	proxy, err := ParseAddress("proxy_address", params.ProxyAddress)
	if err != nil {
		return nil, err
	}
	contract, err := requireContract(params.Contract)
	if err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageResolving, Message: contract, Spinner: true})
	blueprint, err := uc.resolver.Resolve(ctx, contract)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", contract, err)
	}

	previous, err := uc.chain.ReadImplementationSlot(ctx, proxy)
	if err != nil {
		return nil, fmt.Errorf("failed to read implementation of %s: %w", proxy.Hex(), err)
	}
	if previous == (common.Address{}) {
		return nil, domain.NewChainError("upgrade "+proxy.Hex(), domain.ChainErrorPrecondition, domain.ErrNotProxy)
	}

	uc.progress.Info(fmt.Sprintf("Proxy %s currently points at %s", proxy.Hex(), previous.Hex()))

	if !params.SkipConfirm && uc.confirmer != nil {
		// the prompt owns the terminal until answered
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageAwaitingApproval, Message: proxy.Hex()})
		prompt := fmt.Sprintf("Upgrade proxy %s from implementation %s to a new %s", proxy.Hex(), previous.Hex(), blueprint.Name)
		ok, err := uc.confirmer.Confirm(ctx, prompt)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrCancelled
		}
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageSubmitting, Message: blueprint.Artifact(), Spinner: true})
	pending, err := uc.chain.UpgradeProxy(ctx, proxy, blueprint)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade proxy: %w", err)
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageConfirming, Message: pending.Hash.Hex(), Spinner: true})
	confirmed, err := uc.chain.Await(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm upgrade: %w", err)
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageReadingSlot, Message: proxy.Hex(), Spinner: true})
	implementation, err := uc.chain.ReadImplementationSlot(ctx, proxy)
	if err != nil {
		return nil, fmt.Errorf("failed to read implementation of %s: %w", proxy.Hex(), err)
	}
	if implementation == previous {
		return nil, fmt.Errorf("%w: %s", domain.ErrImplementationUnchanged, implementation.Hex())
	}
	if implementation != pending.Implementation {
		uc.log.Warn("implementation slot differs from submitted implementation",
			"slot", implementation.Hex(), "submitted", pending.Implementation.Hex())
	}
	warnOnEventMismatch(uc.log, confirmed, implementation)

	txHash := confirmed.Hash
	record := &models.DeploymentRecord{
		ProxyAddress:           proxy,
		ImplementationAddress:  implementation,
		Operation:              models.OperationUpgrade,
		Contract:               blueprint.Artifact(),
		Kind:                   models.ProxyKindUUPS,
		TxHash:                 &txHash,
		BlockNumber:            confirmed.BlockNumber,
		PreviousImplementation: &previous,
	}
	if params.Network != nil {
		record.ChainID = params.Network.ChainID
	}

	if params.Verify {
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageVerifying, Spinner: true})
		record.Verification = verifyTargets(ctx, uc.verifier, params.Network, uc.log,
			VerificationTarget{Address: implementation, Blueprint: blueprint})
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageCompleted})
	return record, nil
}
