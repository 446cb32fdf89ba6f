package usecase

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/portal-deployer/internal/domain"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
)

// ErrCancelled is returned when the operator declines a confirmation prompt
var ErrCancelled = errors.New("cancelled by user")

// ParseAddress validates a required address parameter at the boundary
func ParseAddress(field, value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return common.Address{}, domain.NewConfigurationError(field, domain.ErrMissingValue, "")
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, domain.NewConfigurationError(field, domain.ErrInvalidAddress, value)
	}
	addr := common.HexToAddress(value)
	if addr == (common.Address{}) {
		return common.Address{}, domain.NewConfigurationError(field, domain.ErrInvalidAddress, "zero address")
	}
	return addr, nil
}

// ParseProxyKind validates the requested proxy kind; empty means UUPS
func ParseProxyKind(value string) (models.ProxyKind, error) {
	kind := models.ProxyKind(strings.ToLower(strings.TrimSpace(value)))
	switch kind {
	case "", models.ProxyKindUUPS:
		return models.ProxyKindUUPS, nil
	default:
		return "", domain.NewConfigurationError("kind", domain.ErrUnsupportedProxyKind, string(kind))
	}
}

// PortalInitArgs builds the WrappedPortal initializer arguments: the module list
// followed by the router address.
func PortalInitArgs(router string, modules []string) ([]any, error) {
	routerAddr, err := ParseAddress("router_address", router)
	if err != nil {
		return nil, err
	}

	moduleAddrs := make([]common.Address, 0, len(modules))
	for _, module := range modules {
		addr, err := ParseAddress("modules", module)
		if err != nil {
			return nil, err
		}
		moduleAddrs = append(moduleAddrs, addr)
	}

	return []any{moduleAddrs, routerAddr}, nil
}

func requireContract(contract string) (string, error) {
	contract = strings.TrimSpace(contract)
	if contract == "" {
		return "", domain.NewConfigurationError("contract", domain.ErrMissingValue, "")
	}
	return contract, nil
}
