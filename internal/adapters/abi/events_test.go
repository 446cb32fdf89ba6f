package abi

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
)

func TestParseUpgradedEvents(t *testing.T) {
	proxy := common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	other := common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
	first := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	second := common.HexToAddress("0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9")

	upgraded := func(emitter, impl common.Address) *types.Log {
		return &types.Log{Address: emitter, Topics: []common.Hash{UpgradedTopic, common.BytesToHash(impl.Bytes())}}
	}

	logs := []*types.Log{
		upgraded(proxy, first),
		{Address: proxy, Topics: []common.Hash{AdminChangedTopic}},
		upgraded(other, second),
		{Address: proxy, Topics: []common.Hash{UpgradedTopic}},
		nil,
		upgraded(proxy, second),
	}

	events := ParseUpgradedEvents(logs, proxy)
	assert.Equal(t, []UpgradedEvent{
		{ProxyAddress: proxy, ImplementationAddress: first},
		{ProxyAddress: proxy, ImplementationAddress: second},
	}, events)

	assert.Empty(t, ParseUpgradedEvents(nil, proxy))
}
