package abi

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Known ERC-1967 proxy event signatures
var (
	UpgradedTopic     = crypto.Keccak256Hash([]byte("Upgraded(address)"))
	AdminChangedTopic = crypto.Keccak256Hash([]byte("AdminChanged(address,address)"))
)

// UpgradedEvent is an ERC-1967 Upgraded(address indexed implementation) log
type UpgradedEvent struct {
	ProxyAddress          common.Address
	ImplementationAddress common.Address
}

// ParseUpgradedEvents returns the Upgraded events emitted by proxy, in log order
func ParseUpgradedEvents(logs []*types.Log, proxy common.Address) []UpgradedEvent {
	var events []UpgradedEvent
	for _, log := range logs {
		if log == nil || log.Address != proxy || log.Removed {
			continue
		}
		if len(log.Topics) < 2 || log.Topics[0] != UpgradedTopic {
			continue
		}
		events = append(events, UpgradedEvent{
			ProxyAddress:          log.Address,
			ImplementationAddress: common.BytesToAddress(log.Topics[1].Bytes()),
		})
	}
	return events
}
