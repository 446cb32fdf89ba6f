package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/portal-deployer/internal/domain/config"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
)

// BlueprintResolver turns a contract reference into a deployable blueprint
type BlueprintResolver interface {
	// Resolve accepts "Contract" or "path/to/File.sol:Contract"
	Resolve(ctx context.Context, name string) (*models.Blueprint, error)
}

// ContractSelector disambiguates between several artifacts sharing a name
type ContractSelector interface {
	SelectContract(ctx context.Context, candidates []*models.Blueprint, prompt string) (*models.Blueprint, error)
}

// ChainClient submits transactions and reads proxy state
type ChainClient interface {
	ChainID(ctx context.Context) (uint64, error)
	// DeployProxy creates a new implementation of blueprint and a proxy of the given
	// kind over it, calling the initializer with initData exactly once.
	DeployProxy(ctx context.Context, blueprint *models.Blueprint, initData []byte, kind models.ProxyKind) (*models.PendingTx, error)
	// UpgradeProxy creates a new implementation of blueprint and repoints proxy at it.
	// It validates the proxy and storage layout before sending anything.
	UpgradeProxy(ctx context.Context, proxy common.Address, blueprint *models.Blueprint) (*models.PendingTx, error)
	Await(ctx context.Context, pending *models.PendingTx) (*models.ConfirmedTx, error)
	ReadImplementationSlot(ctx context.Context, proxy common.Address) (common.Address, error)
}

// InitializerEncoder packs loosely typed init args into initializer calldata
type InitializerEncoder interface {
	EncodeInitializer(blueprint *models.Blueprint, args []any) ([]byte, error)
}

// ContractVerifier handles contract verification
type ContractVerifier interface {
	Verify(ctx context.Context, target VerificationTarget, network *config.Network) ([]models.VerificationResult, error)
}

// VerificationTarget is one address to verify against its source blueprint
type VerificationTarget struct {
	Address         common.Address
	Blueprint       *models.Blueprint
	ConstructorArgs []byte
}

// Confirmer asks the operator before irreversible actions
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Progress tracking interfaces

// ExecutionStage names a step of an orchestration
type ExecutionStage string

const (
	StageResolving        ExecutionStage = "resolving"
	StageAwaitingApproval ExecutionStage = "awaiting-approval"
	StageSubmitting       ExecutionStage = "submitting"
	StageConfirming       ExecutionStage = "confirming"
	StageReadingSlot      ExecutionStage = "reading-slot"
	StageVerifying        ExecutionStage = "verifying"
	StageCompleted        ExecutionStage = "completed"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    ExecutionStage
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events. An event with Spinner unset stops any
// running animation; Error ends the display for a failed run.
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
