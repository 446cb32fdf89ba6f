package models

import (
	"github.com/ethereum/go-ethereum/common"
)

// ProxyKind is the upgrade pattern of a proxy
type ProxyKind string

const (
	ProxyKindUUPS        ProxyKind = "uups"
	ProxyKindTransparent ProxyKind = "transparent"
	ProxyKindBeacon      ProxyKind = "beacon"
)

// Operation names the orchestration that produced a record
type Operation string

const (
	OperationDeploy  Operation = "deploy"
	OperationUpgrade Operation = "upgrade"
	OperationShow    Operation = "implementation"
)

// DeploymentRecord is the result of a deploy or upgrade.
// ProxyAddress is the stable identity; ImplementationAddress is the swappable referent.
type DeploymentRecord struct {
	ProxyAddress          common.Address `json:"proxyAddress" yaml:"proxyAddress"`
	ImplementationAddress common.Address `json:"implementationAddress" yaml:"implementationAddress"`

	Operation              Operation            `json:"operation" yaml:"operation"`
	Contract               string               `json:"contract,omitempty" yaml:"contract,omitempty"`
	Kind                   ProxyKind            `json:"kind,omitempty" yaml:"kind,omitempty"`
	ChainID                uint64               `json:"chainId,omitempty" yaml:"chainId,omitempty"`
	TxHash                 *common.Hash         `json:"txHash,omitempty" yaml:"txHash,omitempty"`
	BlockNumber            uint64               `json:"blockNumber,omitempty" yaml:"blockNumber,omitempty"`
	PreviousImplementation *common.Address      `json:"previousImplementation,omitempty" yaml:"previousImplementation,omitempty"`
	Verification           []VerificationResult `json:"verification,omitempty" yaml:"verification,omitempty"`
}

// PendingTx is a submitted, not yet confirmed, state-changing transaction
type PendingTx struct {
	Hash common.Hash
	// Target is the new proxy (deploy) or the existing proxy (upgrade)
	Target common.Address
	// Implementation is the freshly created implementation as submitted
	Implementation common.Address
	// ImplementationTx created the implementation ahead of Hash
	ImplementationTx common.Hash
	// ConstructorArgs are the ABI encoded proxy constructor arguments, if any
	ConstructorArgs []byte
}

// ConfirmedTx is a mined, successful transaction
type ConfirmedTx struct {
	Address     common.Address
	Hash        common.Hash
	BlockNumber uint64
	GasUsed     uint64
	// UpgradedTo lists the implementations announced by Upgraded events of Address
	UpgradedTo []common.Address
}

// VerificationStatus is the outcome of a single verifier run
type VerificationStatus string

const (
	VerificationStatusVerified VerificationStatus = "verified"
	VerificationStatusFailed   VerificationStatus = "failed"
	VerificationStatusSkipped  VerificationStatus = "skipped"
)

// VerificationResult records one verifier run against one address
type VerificationResult struct {
	Address  common.Address     `json:"address" yaml:"address"`
	Contract string             `json:"contract" yaml:"contract"`
	Verifier string             `json:"verifier" yaml:"verifier"`
	Status   VerificationStatus `json:"status" yaml:"status"`
	URL      string             `json:"url,omitempty" yaml:"url,omitempty"`
	Reason   string             `json:"reason,omitempty" yaml:"reason,omitempty"`
}
