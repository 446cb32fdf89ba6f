package models

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	// InitializerMethod is the one-time setup function invoked through the proxy
	InitializerMethod = "initialize"

	proxiableUUIDMethod    = "proxiableUUID"
	upgradeToAndCallMethod = "upgradeToAndCall"
)

// Blueprint is a resolved, deployable contract: ABI plus creation and runtime code
type Blueprint struct {
	Name            string
	Path            string
	ArtifactPath    string
	CompilerVersion string

	ABI                 abi.ABI
	Bytecode            []byte
	DeployedBytecode    []byte
	ImmutableReferences []ImmutableRange
	StorageLayout       *StorageLayout
}

// Artifact returns the fully qualified "path:Name" reference
func (b *Blueprint) Artifact() string {
	if b.Path == "" {
		return b.Name
	}
	return fmt.Sprintf("%s:%s", b.Path, b.Name)
}

// Initializer returns the initialize method, or nil when the contract has none
func (b *Blueprint) Initializer() *abi.Method {
	method, ok := b.ABI.Methods[InitializerMethod]
	if !ok {
		return nil
	}
	return &method
}

// IsUUPS reports whether the ABI carries the UUPS upgrade entry points
func (b *Blueprint) IsUUPS() bool {
	_, proxiable := b.ABI.Methods[proxiableUUIDMethod]
	_, upgradable := b.ABI.Methods[upgradeToAndCallMethod]
	return proxiable && upgradable
}

// MatchesDeployedCode compares on-chain runtime code with the artifact, ignoring
// ranges that the constructor fills with immutable values.
func (b *Blueprint) MatchesDeployedCode(code []byte) bool {
	if len(b.DeployedBytecode) == 0 || len(code) != len(b.DeployedBytecode) {
		return false
	}
	return bytes.Equal(
		MaskImmutables(code, b.ImmutableReferences),
		MaskImmutables(b.DeployedBytecode, b.ImmutableReferences),
	)
}

// MaskImmutables returns a copy of code with the given ranges zeroed
func MaskImmutables(code []byte, ranges []ImmutableRange) []byte {
	masked := make([]byte, len(code))
	copy(masked, code)
	for _, r := range ranges {
		if r.Start < 0 || r.Start+r.Length > len(masked) {
			continue
		}
		for i := r.Start; i < r.Start+r.Length; i++ {
			masked[i] = 0
		}
	}
	return masked
}
