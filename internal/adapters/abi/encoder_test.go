package abi

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/portal-deployer/internal/domain"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
)

const portalABI = `[
	{"type":"function","name":"initialize","stateMutability":"nonpayable","inputs":[
		{"name":"modules","type":"address[]","internalType":"address[]"},
		{"name":"router","type":"address","internalType":"address"}
	],"outputs":[]},
	{"type":"function","name":"proxiableUUID","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]}
]`

const mixedABI = `[
	{"type":"function","name":"initialize","stateMutability":"nonpayable","inputs":[
		{"name":"owner","type":"address"},
		{"name":"fee","type":"uint256"},
		{"name":"decimals","type":"uint8"},
		{"name":"enabled","type":"bool"},
		{"name":"label","type":"string"},
		{"name":"salt","type":"bytes32"}
	],"outputs":[]}
]`

const router = "0x00000000000000000000000000000000000000AB"

func blueprintFromABI(t *testing.T, raw string) *models.Blueprint {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(raw))
	require.NoError(t, err)
	return &models.Blueprint{Name: "EASWrappedVeraxPortal", ABI: parsed}
}

func TestInitializerEncoder_PortalArgs(t *testing.T) {
	bp := blueprintFromABI(t, portalABI)
	method := bp.ABI.Methods["initialize"]

	expected, err := method.Inputs.Pack([]common.Address{}, common.HexToAddress(router))
	require.NoError(t, err)
	expected = append(append([]byte{}, method.ID...), expected...)

	tests := []struct {
		name string
		args []any
	}{
		{name: "typed values", args: []any{[]common.Address{}, common.HexToAddress(router)}},
		{name: "empty json list and hex string", args: []any{"[]", router}},
		{name: "nil list", args: []any{nil, router}},
		{name: "generic slice", args: []any{[]any{}, router}},
	}

	encoder := NewInitializerEncoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := encoder.EncodeInitializer(bp, tt.args)
			require.NoError(t, err)
			assert.Equal(t, expected, data)
		})
	}
}

func TestInitializerEncoder_ModuleList(t *testing.T) {
	bp := blueprintFromABI(t, portalABI)
	modules := []common.Address{
		common.HexToAddress("0x0000000000000000000000000000000000000001"),
		common.HexToAddress("0x0000000000000000000000000000000000000002"),
	}

	data, err := NewInitializerEncoder().EncodeInitializer(bp, []any{
		`["0x0000000000000000000000000000000000000001","0x0000000000000000000000000000000000000002"]`,
		router,
	})
	require.NoError(t, err)

	method := bp.ABI.Methods["initialize"]
	assert.Equal(t, method.ID, data[:4])
	decoded, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, modules, decoded[0])
	assert.Equal(t, common.HexToAddress(router), decoded[1])
}

func TestInitializerEncoder_Mismatch(t *testing.T) {
	bp := blueprintFromABI(t, portalABI)

	tests := []struct {
		name string
		args []any
	}{
		{name: "too few", args: []any{router}},
		{name: "too many", args: []any{"[]", router, router}},
		{name: "bad address", args: []any{"[]", "0x1234"}},
		{name: "list instead of address", args: []any{"[]", []any{router}}},
		{name: "malformed json", args: []any{"[0x01", router}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInitializerEncoder().EncodeInitializer(bp, tt.args)
			require.Error(t, err)
			assert.True(t, domain.IsConfigurationError(err))
			assert.ErrorIs(t, err, domain.ErrInitializerMismatch)
		})
	}
}

func TestInitializerEncoder_ScalarTypes(t *testing.T) {
	bp := blueprintFromABI(t, mixedABI)
	method := bp.ABI.Methods["initialize"]

	data, err := NewInitializerEncoder().EncodeInitializer(bp, []any{
		router,
		"1000000000000000000",
		float64(18),
		"true",
		"portal",
		"0x01",
	})
	require.NoError(t, err)

	decoded, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, decoded, 6)

	fee, ok := new(big.Int).SetString("1000000000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress(router), decoded[0])
	assert.Equal(t, 0, fee.Cmp(decoded[1].(*big.Int)))
	assert.Equal(t, uint8(18), decoded[2])
	assert.Equal(t, true, decoded[3])
	assert.Equal(t, "portal", decoded[4])

	var salt [32]byte
	salt[0] = 0x01
	assert.Equal(t, salt, decoded[5])

	t.Run("overflow", func(t *testing.T) {
		_, err := NewInitializerEncoder().EncodeInitializer(bp, []any{router, "1", 256, true, "", "0x"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInitializerMismatch)
	})
}

func TestInitializerEncoder_NoInitializer(t *testing.T) {
	bp := &models.Blueprint{Name: "Plain"}

	data, err := NewInitializerEncoder().EncodeInitializer(bp, nil)
	require.NoError(t, err)
	assert.Nil(t, data)

	_, err = NewInitializerEncoder().EncodeInitializer(bp, []any{router})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInitializerMismatch)
}
