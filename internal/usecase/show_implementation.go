package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/portal-deployer/internal/domain"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
)

// ShowImplementation reads the implementation a proxy currently points at
type ShowImplementation struct {
	chain ChainClient
}

// NewShowImplementation creates a new show implementation use case
func NewShowImplementation(chain ChainClient) *ShowImplementation {
	return &ShowImplementation{chain: chain}
}

// Run reads the ERC-1967 implementation slot of proxyAddress
func (uc *ShowImplementation) Run(ctx context.Context, proxyAddress string) (*models.DeploymentRecord, error) {
	proxy, err := ParseAddress("proxy_address", proxyAddress)
	if err != nil {
		return nil, err
	}

	implementation, err := uc.chain.ReadImplementationSlot(ctx, proxy)
	if err != nil {
		return nil, fmt.Errorf("failed to read implementation of %s: %w", proxy.Hex(), err)
	}
	if implementation == (common.Address{}) {
		return nil, domain.NewChainError("read implementation", domain.ChainErrorPrecondition, domain.ErrNotProxy)
	}

	return &models.DeploymentRecord{
		ProxyAddress:          proxy,
		ImplementationAddress: implementation,
		Operation:             models.OperationShow,
	}, nil
}
