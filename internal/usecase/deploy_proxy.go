package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/portal-deployer/internal/domain"
	"github.com/trebuchet-org/portal-deployer/internal/domain/config"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
)

// DeployProxy deploys a fresh proxy over a fresh implementation
type DeployProxy struct {
	resolver BlueprintResolver
	encoder  InitializerEncoder
	chain    ChainClient
	verifier ContractVerifier
	progress ProgressSink
	log      *slog.Logger
}

// NewDeployProxy creates a new deploy proxy use case
func NewDeployProxy(
	resolver BlueprintResolver,
	encoder InitializerEncoder,
	chain ChainClient,
	verifier ContractVerifier,
	progress ProgressSink,
	log *slog.Logger,
) *DeployProxy {
	return &DeployProxy{
		resolver: resolver,
		encoder:  encoder,
		chain:    chain,
		verifier: verifier,
		progress: progress,
		log:      log,
	}
}

// DeployProxyParams contains the inputs of a deployment
type DeployProxyParams struct {
	Contract      string
	InitArgs      []any
	Kind          models.ProxyKind
	ProxyContract string // only used to verify the proxy source
	Verify        bool
	Network       *config.Network
}

// Run deploys the proxy. It is not idempotent: every call yields a new proxy.
func (uc *DeployProxy) Run(ctx context.Context, params DeployProxyParams) (_ *models.DeploymentRecord, err error) {
	defer reportFailure(uc.progress, "deploy", &err)

	contract, err := requireContract(params.Contract)
	if err != nil {
		return nil, err
	}
	kind, err := ParseProxyKind(string(params.Kind))
	if err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageResolving, Message: contract, Spinner: true})
	blueprint, err := uc.resolver.Resolve(ctx, contract)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", contract, err)
	}

	initData, err := uc.encoder.EncodeInitializer(blueprint, params.InitArgs)
	if err != nil {
		return nil, err
	}
	uc.log.Debug("encoded initializer", "contract", blueprint.Artifact(), "args", len(params.InitArgs), "calldata", len(initData))

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageSubmitting, Message: blueprint.Artifact(), Spinner: true})
	pending, err := uc.chain.DeployProxy(ctx, blueprint, initData, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy proxy: %w", err)
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageConfirming, Message: pending.Hash.Hex(), Spinner: true})
	confirmed, err := uc.chain.Await(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm proxy deployment: %w", err)
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageReadingSlot, Message: confirmed.Address.Hex(), Spinner: true})
	implementation, err := uc.chain.ReadImplementationSlot(ctx, confirmed.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to read implementation of %s: %w", confirmed.Address.Hex(), err)
	}
	if implementation == (common.Address{}) {
		return nil, domain.NewChainError("read implementation", domain.ChainErrorPrecondition, domain.ErrNotProxy)
	}
	if implementation == confirmed.Address {
		return nil, fmt.Errorf("proxy %s points at itself", confirmed.Address.Hex())
	}
	warnOnEventMismatch(uc.log, confirmed, implementation)

	txHash := confirmed.Hash
	record := &models.DeploymentRecord{
		ProxyAddress:          confirmed.Address,
		ImplementationAddress: implementation,
		Operation:             models.OperationDeploy,
		Contract:              blueprint.Artifact(),
		Kind:                  kind,
		TxHash:                &txHash,
		BlockNumber:           confirmed.BlockNumber,
	}
	if params.Network != nil {
		record.ChainID = params.Network.ChainID
	}

	if params.Verify {
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageVerifying, Spinner: true})
		targets := []VerificationTarget{{Address: implementation, Blueprint: blueprint}}
		if proxyTarget, ok := uc.proxyVerificationTarget(ctx, params.ProxyContract, confirmed.Address, pending.ConstructorArgs); ok {
			targets = append(targets, proxyTarget)
		}
		record.Verification = verifyTargets(ctx, uc.verifier, params.Network, uc.log, targets...)
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageCompleted})
	return record, nil
}

func (uc *DeployProxy) proxyVerificationTarget(ctx context.Context, proxyContract string, proxy common.Address, constructorArgs []byte) (VerificationTarget, bool) {
	if proxyContract == "" {
		return VerificationTarget{}, false
	}
	blueprint, err := uc.resolver.Resolve(ctx, proxyContract)
	if err != nil {
		uc.log.Warn("skipping proxy verification", "contract", proxyContract, "error", err)
		return VerificationTarget{}, false
	}
	return VerificationTarget{Address: proxy, Blueprint: blueprint, ConstructorArgs: constructorArgs}, true
}

// reportFailure ends the progress display when an orchestration returns an error
func reportFailure(progress ProgressSink, operation string, err *error) {
	switch {
	case *err == nil:
	case errors.Is(*err, ErrCancelled):
		progress.Error(operation + " cancelled")
	default:
		progress.Error(operation + " failed")
	}
}

// warnOnEventMismatch flags receipts whose last Upgraded event disagrees with the
// slot. The slot stays authoritative.
func warnOnEventMismatch(log *slog.Logger, confirmed *models.ConfirmedTx, implementation common.Address) {
	if len(confirmed.UpgradedTo) == 0 {
		return
	}
	if last := confirmed.UpgradedTo[len(confirmed.UpgradedTo)-1]; last != implementation {
		log.Warn("upgraded event does not match implementation slot",
			"proxy", confirmed.Address.Hex(), "event", last.Hex(), "slot", implementation.Hex())
	}
}
