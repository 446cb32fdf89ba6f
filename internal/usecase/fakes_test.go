package usecase

import (
	"context"
	"io"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/portal-deployer/internal/domain"
	"github.com/trebuchet-org/portal-deployer/internal/domain/config"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
)

const portalContract = "EASWrappedVeraxPortal"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeChain keeps ERC-1967 slots in memory; slot writes land on Await, like a mined tx
type fakeChain struct {
	sender    common.Address
	nonce     uint64
	slots     map[common.Address]common.Address
	effects   map[common.Hash]func()
	submitted int

	deployErr  error
	upgradeErr error
	awaitErr   error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		sender:  common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		slots:   make(map[common.Address]common.Address),
		effects: make(map[common.Hash]func()),
	}
}

func (c *fakeChain) nextAddress() common.Address {
	addr := crypto.CreateAddress(c.sender, c.nonce)
	c.nonce++
	return addr
}

func (c *fakeChain) submit(effect func()) common.Hash {
	c.submitted++
	hash := common.BigToHash(big.NewInt(int64(c.submitted)))
	c.effects[hash] = effect
	return hash
}

func (c *fakeChain) ChainID(context.Context) (uint64, error) {
	return 31337, nil
}

func (c *fakeChain) DeployProxy(_ context.Context, _ *models.Blueprint, _ []byte, _ models.ProxyKind) (*models.PendingTx, error) {
	if c.deployErr != nil {
		return nil, c.deployErr
	}
	impl := c.nextAddress()
	proxy := c.nextAddress()
	hash := c.submit(func() { c.slots[proxy] = impl })
	return &models.PendingTx{Hash: hash, Target: proxy, Implementation: impl, ConstructorArgs: []byte{0xaa}}, nil
}

func (c *fakeChain) UpgradeProxy(_ context.Context, proxy common.Address, _ *models.Blueprint) (*models.PendingTx, error) {
	if _, ok := c.slots[proxy]; !ok {
		return nil, domain.NewChainError("upgrade", domain.ChainErrorPrecondition, domain.ErrNotProxy)
	}
	if c.upgradeErr != nil {
		return nil, c.upgradeErr
	}
	impl := c.nextAddress()
	hash := c.submit(func() { c.slots[proxy] = impl })
	return &models.PendingTx{Hash: hash, Target: proxy, Implementation: impl}, nil
}

func (c *fakeChain) Await(_ context.Context, pending *models.PendingTx) (*models.ConfirmedTx, error) {
	if c.awaitErr != nil {
		return nil, c.awaitErr
	}
	if effect, ok := c.effects[pending.Hash]; ok {
		effect()
		delete(c.effects, pending.Hash)
	}
	return &models.ConfirmedTx{Address: pending.Target, Hash: pending.Hash, BlockNumber: uint64(c.submitted)}, nil
}

func (c *fakeChain) ReadImplementationSlot(_ context.Context, proxy common.Address) (common.Address, error) {
	return c.slots[proxy], nil
}

type fakeResolver struct {
	blueprints map[string]*models.Blueprint
	calls      int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{blueprints: map[string]*models.Blueprint{
		portalContract: {Name: portalContract, Path: "src/EASWrappedVeraxPortal.sol"},
		"ERC1967Proxy": {Name: "ERC1967Proxy", Path: "lib/openzeppelin-contracts/contracts/proxy/ERC1967/ERC1967Proxy.sol"},
	}}
}

func (r *fakeResolver) Resolve(_ context.Context, name string) (*models.Blueprint, error) {
	r.calls++
	if bp, ok := r.blueprints[name]; ok {
		return bp, nil
	}
	return nil, &domain.ResolutionError{Name: name, Err: domain.ErrContractNotFound}
}

type fakeEncoder struct {
	encodeFunc func(*models.Blueprint, []any) ([]byte, error)
}

func (e *fakeEncoder) EncodeInitializer(bp *models.Blueprint, args []any) ([]byte, error) {
	if e.encodeFunc != nil {
		return e.encodeFunc(bp, args)
	}
	if len(args) != 2 {
		return nil, domain.NewConfigurationError("init_args", domain.ErrInitializerMismatch, "expected 2 arguments")
	}
	return []byte{0xde, 0xad}, nil
}

type fakeVerifier struct {
	targets   []VerificationTarget
	err       error
	noResults bool
}

func (v *fakeVerifier) Verify(_ context.Context, target VerificationTarget, _ *config.Network) ([]models.VerificationResult, error) {
	v.targets = append(v.targets, target)
	if v.noResults {
		return nil, v.err
	}
	status := models.VerificationStatusVerified
	if v.err != nil {
		status = models.VerificationStatusFailed
	}
	return []models.VerificationResult{{Address: target.Address, Verifier: "etherscan", Status: status}}, v.err
}

type fakeConfirmer struct {
	answer  bool
	prompts []string
}

func (c *fakeConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	c.prompts = append(c.prompts, prompt)
	return c.answer, nil
}

type recordingSink struct {
	stages []ExecutionStage
	events []ProgressEvent
	infos  []string
	errors []string
}

func (s *recordingSink) OnProgress(_ context.Context, event ProgressEvent) {
	s.stages = append(s.stages, event.Stage)
	s.events = append(s.events, event)
}
func (s *recordingSink) Info(message string)  { s.infos = append(s.infos, message) }
func (s *recordingSink) Error(message string) { s.errors = append(s.errors, message) }

// promptWatcher records whether the progress display was still animating when
// the confirmation prompt opened
type promptWatcher struct {
	sink             *recordingSink
	answer           bool
	spinningAtPrompt bool
}

func (w *promptWatcher) Confirm(_ context.Context, _ string) (bool, error) {
	if n := len(w.sink.events); n > 0 {
		w.spinningAtPrompt = w.sink.events[n-1].Spinner
	}
	return w.answer, nil
}
