package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/portal-deployer/internal/domain"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
)

func newTestUpgrade(chain *fakeChain, resolver *fakeResolver, confirmer Confirmer) *UpgradeProxy {
	return NewUpgradeProxy(resolver, chain, nil, confirmer, NopProgress{}, discardLogger())
}

func deployPortal(t *testing.T, chain *fakeChain) *models.DeploymentRecord {
	t.Helper()
	uc := newTestDeploy(chain, newFakeResolver(), nil, nil)
	record, err := uc.Run(context.Background(), DeployProxyParams{Contract: portalContract, InitArgs: portalArgs(t)})
	require.NoError(t, err)
	return record
}

func TestUpgradeProxy_Run(t *testing.T) {
	t.Run("keeps proxy and swaps implementation", func(t *testing.T) {
		chain := newFakeChain()
		deployed := deployPortal(t, chain)

		uc := newTestUpgrade(chain, newFakeResolver(), nil)
		record, err := uc.Run(context.Background(), UpgradeProxyParams{
			ProxyAddress: deployed.ProxyAddress.Hex(),
			Contract:     portalContract,
			SkipConfirm:  true,
		})
		require.NoError(t, err)

		assert.Equal(t, deployed.ProxyAddress, record.ProxyAddress)
		assert.NotEqual(t, deployed.ImplementationAddress, record.ImplementationAddress)
		require.NotNil(t, record.PreviousImplementation)
		assert.Equal(t, deployed.ImplementationAddress, *record.PreviousImplementation)
		assert.Equal(t, models.OperationUpgrade, record.Operation)
		assert.Equal(t, 2, chain.submitted)
	})

	t.Run("repeated upgrades keep the proxy address", func(t *testing.T) {
		chain := newFakeChain()
		deployed := deployPortal(t, chain)
		uc := newTestUpgrade(chain, newFakeResolver(), nil)

		seen := map[common.Address]bool{deployed.ImplementationAddress: true}
		for i := 0; i < 3; i++ {
			record, err := uc.Run(context.Background(), UpgradeProxyParams{
				ProxyAddress: deployed.ProxyAddress.Hex(),
				Contract:     portalContract,
				SkipConfirm:  true,
			})
			require.NoError(t, err)
			assert.Equal(t, deployed.ProxyAddress, record.ProxyAddress)
			assert.False(t, seen[record.ImplementationAddress])
			seen[record.ImplementationAddress] = true
		}
	})

	t.Run("asks for confirmation", func(t *testing.T) {
		chain := newFakeChain()
		deployed := deployPortal(t, chain)
		confirmer := &fakeConfirmer{answer: true}

		uc := newTestUpgrade(chain, newFakeResolver(), confirmer)
		_, err := uc.Run(context.Background(), UpgradeProxyParams{
			ProxyAddress: deployed.ProxyAddress.Hex(),
			Contract:     portalContract,
		})
		require.NoError(t, err)
		require.Len(t, confirmer.prompts, 1)
		assert.Contains(t, confirmer.prompts[0], deployed.ProxyAddress.Hex())
	})
}

func TestUpgradeProxy_Failures(t *testing.T) {
	t.Run("missing proxy address submits nothing", func(t *testing.T) {
		chain := newFakeChain()
		resolver := newFakeResolver()
		uc := newTestUpgrade(chain, resolver, nil)

		record, err := uc.Run(context.Background(), UpgradeProxyParams{Contract: portalContract, SkipConfirm: true})

		require.Error(t, err)
		assert.Nil(t, record)
		assert.True(t, domain.IsConfigurationError(err))
		assert.ErrorIs(t, err, domain.ErrMissingValue)
		assert.Equal(t, 0, chain.submitted)
		assert.Equal(t, 0, resolver.calls)
	})

	t.Run("malformed proxy address", func(t *testing.T) {
		chain := newFakeChain()
		uc := newTestUpgrade(chain, newFakeResolver(), nil)

		_, err := uc.Run(context.Background(), UpgradeProxyParams{ProxyAddress: "0x1234", Contract: portalContract, SkipConfirm: true})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidAddress)
		assert.Equal(t, 0, chain.submitted)
	})

	t.Run("address that is not a proxy", func(t *testing.T) {
		chain := newFakeChain()
		uc := newTestUpgrade(chain, newFakeResolver(), nil)

		record, err := uc.Run(context.Background(), UpgradeProxyParams{
			ProxyAddress: "0x00000000000000000000000000000000DeaDBeef",
			Contract:     portalContract,
			SkipConfirm:  true,
		})

		require.Error(t, err)
		assert.Nil(t, record)
		assert.True(t, domain.IsChainPrecondition(err))
		assert.ErrorIs(t, err, domain.ErrNotProxy)
		assert.Equal(t, 0, chain.submitted)
	})

	t.Run("incompatible storage layout", func(t *testing.T) {
		chain := newFakeChain()
		deployed := deployPortal(t, chain)
		chain.upgradeErr = domain.NewChainError("upgrade", domain.ChainErrorPrecondition, domain.ErrIncompatibleStorageLayout)

		uc := newTestUpgrade(chain, newFakeResolver(), nil)
		record, err := uc.Run(context.Background(), UpgradeProxyParams{
			ProxyAddress: deployed.ProxyAddress.Hex(),
			Contract:     portalContract,
			SkipConfirm:  true,
		})

		require.Error(t, err)
		assert.Nil(t, record)
		assert.ErrorIs(t, err, domain.ErrIncompatibleStorageLayout)
		assert.Equal(t, 1, chain.submitted)
	})

	t.Run("reverted upgrade leaves the proxy untouched", func(t *testing.T) {
		chain := newFakeChain()
		deployed := deployPortal(t, chain)
		chain.awaitErr = domain.NewChainError("await", domain.ChainErrorReverted, errors.New("OwnableUnauthorizedAccount"))

		uc := newTestUpgrade(chain, newFakeResolver(), nil)
		record, err := uc.Run(context.Background(), UpgradeProxyParams{
			ProxyAddress: deployed.ProxyAddress.Hex(),
			Contract:     portalContract,
			SkipConfirm:  true,
		})

		require.Error(t, err)
		assert.Nil(t, record)
		assert.True(t, domain.IsChainRevert(err))

		slot, err := chain.ReadImplementationSlot(context.Background(), deployed.ProxyAddress)
		require.NoError(t, err)
		assert.Equal(t, deployed.ImplementationAddress, slot)
	})

	t.Run("declined confirmation submits nothing", func(t *testing.T) {
		chain := newFakeChain()
		deployed := deployPortal(t, chain)

		uc := newTestUpgrade(chain, newFakeResolver(), &fakeConfirmer{answer: false})
		_, err := uc.Run(context.Background(), UpgradeProxyParams{
			ProxyAddress: deployed.ProxyAddress.Hex(),
			Contract:     portalContract,
		})

		assert.ErrorIs(t, err, ErrCancelled)
		assert.Equal(t, 1, chain.submitted)
	})
}

func TestDeployUpgradeScenario(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain()
	resolver := newFakeResolver()

	var encoded []any
	encoder := &fakeEncoder{encodeFunc: func(_ *models.Blueprint, args []any) ([]byte, error) {
		encoded = args
		return []byte{0x01}, nil
	}}
	deploy := NewDeployProxy(resolver, encoder, chain, nil, NopProgress{}, discardLogger())
	upgrade := NewUpgradeProxy(resolver, chain, nil, nil, NopProgress{}, discardLogger())
	show := NewShowImplementation(chain)

	args, err := PortalInitArgs(routerAddress, nil)
	require.NoError(t, err)

	first, err := deploy.Run(ctx, DeployProxyParams{Contract: portalContract, InitArgs: args})
	require.NoError(t, err)
	require.Len(t, encoded, 2)
	assert.Empty(t, encoded[0])
	assert.Equal(t, common.HexToAddress(routerAddress), encoded[1])

	second, err := upgrade.Run(ctx, UpgradeProxyParams{ProxyAddress: first.ProxyAddress.Hex(), Contract: portalContract, SkipConfirm: true})
	require.NoError(t, err)
	assert.Equal(t, first.ProxyAddress, second.ProxyAddress)
	assert.NotEqual(t, first.ImplementationAddress, second.ImplementationAddress)

	current, err := show.Run(ctx, first.ProxyAddress.Hex())
	require.NoError(t, err)
	assert.Equal(t, second.ImplementationAddress, current.ImplementationAddress)
}

func TestUpgradeProxy_Progress(t *testing.T) {
	t.Run("animation stops before the confirmation prompt", func(t *testing.T) {
		chain := newFakeChain()
		deployed := deployPortal(t, chain)
		sink := &recordingSink{}
		watcher := &promptWatcher{sink: sink, answer: true}

		uc := NewUpgradeProxy(newFakeResolver(), chain, nil, watcher, sink, discardLogger())
		_, err := uc.Run(context.Background(), UpgradeProxyParams{
			ProxyAddress: deployed.ProxyAddress.Hex(),
			Contract:     portalContract,
		})
		require.NoError(t, err)

		assert.False(t, watcher.spinningAtPrompt)
		assert.Equal(t, []ExecutionStage{
			StageResolving, StageAwaitingApproval, StageSubmitting, StageConfirming, StageReadingSlot, StageCompleted,
		}, sink.stages)
		require.Len(t, sink.infos, 1)
		assert.Contains(t, sink.infos[0], deployed.ImplementationAddress.Hex())
		assert.Empty(t, sink.errors)
	})

	t.Run("failure is reported to the sink", func(t *testing.T) {
		chain := newFakeChain()
		deployed := deployPortal(t, chain)
		chain.awaitErr = domain.NewChainError("await", domain.ChainErrorTimeout, errors.New("deadline"))
		sink := &recordingSink{}

		uc := NewUpgradeProxy(newFakeResolver(), chain, nil, nil, sink, discardLogger())
		_, err := uc.Run(context.Background(), UpgradeProxyParams{
			ProxyAddress: deployed.ProxyAddress.Hex(),
			Contract:     portalContract,
			SkipConfirm:  true,
		})
		require.Error(t, err)
		assert.Equal(t, []string{"upgrade failed"}, sink.errors)
	})

	t.Run("declined prompt reports cancellation", func(t *testing.T) {
		chain := newFakeChain()
		deployed := deployPortal(t, chain)
		sink := &recordingSink{}

		uc := NewUpgradeProxy(newFakeResolver(), chain, nil, &fakeConfirmer{}, sink, discardLogger())
		_, err := uc.Run(context.Background(), UpgradeProxyParams{
			ProxyAddress: deployed.ProxyAddress.Hex(),
			Contract:     portalContract,
		})
		assert.ErrorIs(t, err, ErrCancelled)
		assert.Equal(t, []string{"upgrade cancelled"}, sink.errors)
	})
}
