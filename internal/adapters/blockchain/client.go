package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	abiadapter "github.com/trebuchet-org/portal-deployer/internal/adapters/abi"
	"github.com/trebuchet-org/portal-deployer/internal/adapters/layout"
	"github.com/trebuchet-org/portal-deployer/internal/domain"
	"github.com/trebuchet-org/portal-deployer/internal/domain/config"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
	"github.com/trebuchet-org/portal-deployer/internal/usecase"
)

// ImplementationSlot is the ERC-1967 implementation slot,
// bytes32(uint256(keccak256("eip1967.proxy.implementation")) - 1)
var ImplementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")

// Backend is everything the client needs from a node
type Backend interface {
	bind.DeployBackend
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
}

// CodeMatcher finds the artifact behind some runtime code
type CodeMatcher interface {
	FindByDeployedCode(ctx context.Context, code []byte) (*models.Blueprint, error)
}

// Client deploys and upgrades UUPS proxies through go-ethereum bindings
type Client struct {
	cfg           *config.RuntimeConfig
	resolver      usecase.BlueprintResolver
	matcher       CodeMatcher
	proxyContract string
	log           *slog.Logger

	mu      sync.Mutex
	backend Backend
	signer  *Signer
	txs     map[common.Hash]*types.Transaction
}

// NewClient creates a client that dials the configured network on first use
func NewClient(cfg *config.RuntimeConfig, resolver usecase.BlueprintResolver, matcher CodeMatcher, log *slog.Logger) *Client {
	proxyContract := cfg.ProxyContract
	if proxyContract == "" {
		proxyContract = "ERC1967Proxy"
	}
	return &Client{
		cfg:           cfg,
		resolver:      resolver,
		matcher:       matcher,
		proxyContract: proxyContract,
		log:           log.With("component", "chain"),
		txs:           make(map[common.Hash]*types.Transaction),
	}
}

// NewClientWithBackend creates a client over an already connected backend
func NewClientWithBackend(backend Backend, signer *Signer, resolver usecase.BlueprintResolver, matcher CodeMatcher, proxyContract string, log *slog.Logger) *Client {
	c := NewClient(&config.RuntimeConfig{ProxyContract: proxyContract}, resolver, matcher, log)
	c.backend = backend
	c.signer = signer
	return c
}

// connect dials the RPC endpoint and checks it serves the expected chain
func (c *Client) connect(ctx context.Context) (Backend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil {
		return c.backend, nil
	}

	network := c.cfg.Network
	if network == nil || network.RPCURL == "" {
		return nil, domain.NewConfigurationError("rpc_url", domain.ErrMissingValue, "set --network or --rpc-url")
	}

	client, err := ethclient.DialContext(ctx, network.RPCURL)
	if err != nil {
		return nil, classify("dial "+network.Name, fmt.Errorf("failed to connect to RPC: %w", err))
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, classify("chain id", fmt.Errorf("failed to get chain ID: %w", err))
	}
	if network.ChainID != 0 && chainID.Uint64() != network.ChainID {
		client.Close()
		return nil, domain.NewConfigurationError("network", fmt.Errorf("chain ID mismatch: expected %d, got %d", network.ChainID, chainID.Uint64()), network.Name)
	}
	network.SetChainID(chainID.Uint64())

	c.backend = client
	c.log.Debug("connected", "network", network.Name, "chainId", chainID.Uint64())
	return c.backend, nil
}

func (c *Client) transactor(ctx context.Context) (*bind.TransactOpts, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.signer == nil {
		chainID, err := backend.ChainID(ctx)
		if err != nil {
			c.mu.Unlock()
			return nil, classify("chain id", err)
		}
		signer, err := NewSigner(c.cfg.PrivateKey, chainID.Uint64())
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		c.signer = signer
		c.log.Debug("signer ready", "address", signer.Address().Hex())
	}
	signer := c.signer
	c.mu.Unlock()

	opts, err := signer.Transactor()
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// ChainID returns the chain id reported by the node
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return 0, err
	}
	id, err := backend.ChainID(ctx)
	if err != nil {
		return 0, classify("chain id", err)
	}
	return id.Uint64(), nil
}

// DeployProxy deploys a new implementation, waits for it, then submits an
// ERC1967Proxy over it whose constructor delegatecalls initData.
func (c *Client) DeployProxy(ctx context.Context, blueprint *models.Blueprint, initData []byte, kind models.ProxyKind) (*models.PendingTx, error) {
	if kind != models.ProxyKindUUPS {
		return nil, domain.NewConfigurationError("kind", domain.ErrUnsupportedProxyKind, string(kind))
	}
	if !blueprint.IsUUPS() {
		return nil, domain.NewChainError("deploy "+blueprint.Name, domain.ChainErrorPrecondition, domain.ErrNotUUPS)
	}

	proxyBlueprint, err := c.resolver.Resolve(ctx, c.proxyContract)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve proxy contract %s: %w", c.proxyContract, err)
	}

	opts, err := c.transactor(ctx)
	if err != nil {
		return nil, err
	}

	implementation, implTx, err := c.deployImplementation(ctx, opts, blueprint)
	if err != nil {
		return nil, err
	}

	if initData == nil {
		initData = []byte{}
	}
	constructorArgs, err := proxyBlueprint.ABI.Pack("", implementation, initData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s constructor: %w", proxyBlueprint.Name, err)
	}

	proxy, proxyTx, _, err := bind.DeployContract(opts, proxyBlueprint.ABI, proxyBlueprint.Bytecode, c.backend, implementation, initData)
	if err != nil {
		return nil, classify("deploy proxy", err)
	}
	c.track(proxyTx)
	c.log.Debug("proxy submitted", "proxy", proxy.Hex(), "tx", proxyTx.Hash().Hex())

	return &models.PendingTx{
		Hash:             proxyTx.Hash(),
		Target:           proxy,
		Implementation:   implementation,
		ImplementationTx: implTx,
		ConstructorArgs:  constructorArgs,
	}, nil
}

// UpgradeProxy validates the proxy, deploys the new implementation and calls
// upgradeToAndCall with empty data.
func (c *Client) UpgradeProxy(ctx context.Context, proxy common.Address, blueprint *models.Blueprint) (*models.PendingTx, error) {
	op := "upgrade " + proxy.Hex()

	backend, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	code, err := backend.CodeAt(ctx, proxy, nil)
	if err != nil {
		return nil, classify(op, err)
	}
	if len(code) == 0 {
		return nil, domain.NewChainError(op, domain.ChainErrorPrecondition, domain.ErrNoCode)
	}

	current, err := c.ReadImplementationSlot(ctx, proxy)
	if err != nil {
		return nil, err
	}
	if current == (common.Address{}) {
		return nil, domain.NewChainError(op, domain.ChainErrorPrecondition, domain.ErrNotProxy)
	}

	if !blueprint.IsUUPS() {
		return nil, domain.NewChainError(op, domain.ChainErrorPrecondition, fmt.Errorf("%w: %s", domain.ErrNotUUPS, blueprint.Name))
	}
	if err := c.checkProxiable(ctx, current, blueprint); err != nil {
		return nil, domain.NewChainError(op, domain.ChainErrorPrecondition, err)
	}
	if err := c.checkLayout(ctx, current, blueprint); err != nil {
		return nil, domain.NewChainError(op, domain.ChainErrorPrecondition, err)
	}

	opts, err := c.transactor(ctx)
	if err != nil {
		return nil, err
	}

	implementation, implTx, err := c.deployImplementation(ctx, opts, blueprint)
	if err != nil {
		return nil, err
	}

	bound := bind.NewBoundContract(proxy, blueprint.ABI, backend, backend, backend)
	tx, err := bound.Transact(opts, "upgradeToAndCall", implementation, []byte{})
	if err != nil {
		return nil, classify(op, err)
	}
	c.track(tx)
	c.log.Debug("upgrade submitted", "proxy", proxy.Hex(), "implementation", implementation.Hex(), "tx", tx.Hash().Hex())

	return &models.PendingTx{
		Hash:             tx.Hash(),
		Target:           proxy,
		Implementation:   implementation,
		ImplementationTx: implTx,
	}, nil
}

// Await blocks until a submitted transaction is mined and succeeded
func (c *Client) Await(ctx context.Context, pending *models.PendingTx) (*models.ConfirmedTx, error) {
	c.mu.Lock()
	tx, ok := c.txs[pending.Hash]
	c.mu.Unlock()
	if !ok {
		return nil, domain.NewChainError("await "+pending.Hash.Hex(), domain.ChainErrorPrecondition, ErrUnknownTx)
	}

	receipt, err := c.waitMined(ctx, tx, "await "+pending.Hash.Hex())
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	delete(c.txs, pending.Hash)
	c.mu.Unlock()

	confirmed := &models.ConfirmedTx{
		Address: pending.Target,
		Hash:    receipt.TxHash,
		GasUsed: receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		confirmed.BlockNumber = receipt.BlockNumber.Uint64()
	}
	for _, event := range abiadapter.ParseUpgradedEvents(receipt.Logs, pending.Target) {
		confirmed.UpgradedTo = append(confirmed.UpgradedTo, event.ImplementationAddress)
	}
	return confirmed, nil
}

// ReadImplementationSlot reads the ERC-1967 implementation slot of proxy
func (c *Client) ReadImplementationSlot(ctx context.Context, proxy common.Address) (common.Address, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return common.Address{}, err
	}

	raw, err := backend.StorageAt(ctx, proxy, ImplementationSlot, nil)
	if err != nil {
		return common.Address{}, classify("read implementation slot", err)
	}
	return common.BytesToAddress(raw), nil
}

func (c *Client) deployImplementation(ctx context.Context, opts *bind.TransactOpts, blueprint *models.Blueprint) (common.Address, common.Hash, error) {
	if len(blueprint.Bytecode) == 0 {
		return common.Address{}, common.Hash{}, domain.NewChainError("deploy "+blueprint.Name, domain.ChainErrorPrecondition, domain.ErrNoCode)
	}

	address, tx, _, err := bind.DeployContract(opts, blueprint.ABI, blueprint.Bytecode, c.backend)
	if err != nil {
		return common.Address{}, common.Hash{}, classify("deploy implementation", err)
	}
	c.log.Debug("implementation submitted", "contract", blueprint.Name, "address", address.Hex(), "tx", tx.Hash().Hex())

	if _, err := c.waitMined(ctx, tx, "deploy implementation"); err != nil {
		return common.Address{}, common.Hash{}, err
	}
	return address, tx.Hash(), nil
}

func (c *Client) waitMined(ctx context.Context, tx *types.Transaction, op string) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, classify(op, err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return nil, classify(op, fmt.Errorf("%w: %s", ErrTxReverted, tx.Hash().Hex()))
	}
	return receipt, nil
}

// checkProxiable calls proxiableUUID on the current implementation; a UUPS
// implementation answers with the implementation slot.
func (c *Client) checkProxiable(ctx context.Context, implementation common.Address, blueprint *models.Blueprint) error {
	bound := bind.NewBoundContract(implementation, blueprint.ABI, c.backend, c.backend, c.backend)

	var out []interface{}
	if err := bound.Call(&bind.CallOpts{Context: ctx}, &out, "proxiableUUID"); err != nil {
		return fmt.Errorf("%w: current implementation %s: %v", domain.ErrNotUUPS, implementation.Hex(), err)
	}
	if len(out) != 1 {
		return fmt.Errorf("%w: unexpected proxiableUUID result", domain.ErrNotUUPS)
	}
	uuid, ok := out[0].([32]byte)
	if !ok || common.Hash(uuid) != ImplementationSlot {
		return fmt.Errorf("%w: current implementation %s reports an unsupported UUID", domain.ErrNotUUPS, implementation.Hex())
	}
	return nil
}

// checkLayout compares the storage layout of the current implementation with
// the new one. The current layout comes from the configured reference
// artifact, or else from the artifact matching the live runtime code.
func (c *Client) checkLayout(ctx context.Context, implementation common.Address, blueprint *models.Blueprint) error {
	if blueprint.StorageLayout == nil {
		c.log.Warn("skipping storage layout check, no layout for new implementation", "contract", blueprint.Name)
		return nil
	}

	current, err := c.currentBlueprint(ctx, implementation)
	if err != nil {
		return err
	}
	if current == nil {
		c.log.Warn("skipping storage layout check, current implementation not found in artifacts", "implementation", implementation.Hex())
		return nil
	}

	report, err := layout.Compare(current.StorageLayout, blueprint.StorageLayout)
	if err != nil {
		return err
	}
	for _, r := range report.Renamed {
		c.log.Warn("storage variable renamed", "slot", r.Slot, "from", r.From, "to", r.To)
	}
	if len(report.Appended) > 0 {
		c.log.Debug("storage variables appended", "labels", report.Appended)
	}
	return nil
}

// currentBlueprint returns the artifact describing the live implementation,
// or nil when it cannot be identified
func (c *Client) currentBlueprint(ctx context.Context, implementation common.Address) (*models.Blueprint, error) {
	if c.cfg.ReferenceContract != "" {
		reference, err := c.resolver.Resolve(ctx, c.cfg.ReferenceContract)
		if err != nil {
			return nil, err
		}
		if reference.StorageLayout == nil {
			return nil, fmt.Errorf("%w: reference contract %s", ErrNoStorageLayout, reference.Artifact())
		}
		return reference, nil
	}

	if c.matcher == nil {
		return nil, nil
	}
	code, err := c.backend.CodeAt(ctx, implementation, nil)
	if err != nil {
		return nil, classify("read implementation code", err)
	}
	current, err := c.matcher.FindByDeployedCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if current == nil || current.StorageLayout == nil {
		return nil, nil
	}
	return current, nil
}

func (c *Client) track(tx *types.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txs[tx.Hash()] = tx
}

// Close releases the RPC connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if closer, ok := c.backend.(interface{ Close() }); ok {
		closer.Close()
	}
}

var _ usecase.ChainClient = (*Client)(nil)
