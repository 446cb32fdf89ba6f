package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrContractNotFound is returned when no compiled artifact matches a blueprint name
	ErrContractNotFound = errors.New("contract not found")

	// ErrAmbiguousContract is returned when a blueprint name matches several artifacts
	ErrAmbiguousContract = errors.New("ambiguous contract name")

	// ErrUnlinkedBytecode is returned when an artifact still carries library placeholders
	ErrUnlinkedBytecode = errors.New("bytecode has unlinked libraries")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrMissingValue is returned when a required parameter was not supplied
	ErrMissingValue = errors.New("value is required")

	// ErrInitializerMismatch is returned when init args do not fit the initializer signature
	ErrInitializerMismatch = errors.New("initializer arguments do not match")

	// ErrUnsupportedProxyKind is returned for proxy kinds other than UUPS
	ErrUnsupportedProxyKind = errors.New("unsupported proxy kind")

	// ErrNoCode is returned when there is no contract code at an address
	ErrNoCode = errors.New("no contract code at address")

	// ErrNotProxy is returned when an address has an empty ERC-1967 implementation slot
	ErrNotProxy = errors.New("not an ERC-1967 proxy")

	// ErrNotUUPS is returned when an implementation does not expose the UUPS interface
	ErrNotUUPS = errors.New("implementation is not UUPS upgradeable")

	// ErrIncompatibleStorageLayout is returned when the new layout would corrupt proxy storage
	ErrIncompatibleStorageLayout = errors.New("incompatible storage layout")

	// ErrImplementationUnchanged is returned when an upgrade left the slot untouched
	ErrImplementationUnchanged = errors.New("implementation slot unchanged after upgrade")
)

// ConfigurationError reports a missing or malformed externally supplied parameter.
// No chain interaction happens once one of these is raised.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration error: %s", e.Field)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a configuration error for a field
func NewConfigurationError(field string, err error, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Err: err, Reason: reason}
}

// ResolutionError reports a blueprint name that could not be resolved to an artifact
type ResolutionError struct {
	Name        string
	Suggestions []string
	Err         error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("cannot resolve contract %q", e.Name)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// ChainErrorKind classifies failures reported by the chain client
type ChainErrorKind string

const (
	// ChainErrorReverted means the transaction was mined (or simulated) and reverted
	ChainErrorReverted ChainErrorKind = "reverted"
	// ChainErrorTimeout means confirmation did not arrive before the deadline
	ChainErrorTimeout ChainErrorKind = "timeout"
	// ChainErrorNetworkUnavailable means the provider could not be reached
	ChainErrorNetworkUnavailable ChainErrorKind = "network-unavailable"
	// ChainErrorPrecondition means on-chain state rules out the operation
	ChainErrorPrecondition ChainErrorKind = "precondition"
)

// ChainError is returned by the chain client for every failed interaction
type ChainError struct {
	Op   string
	Kind ChainErrorKind
	Err  error
}

func (e *ChainError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: chain %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: chain %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}

// NewChainError creates a chain error
func NewChainError(op string, kind ChainErrorKind, err error) *ChainError {
	return &ChainError{Op: op, Kind: kind, Err: err}
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsResolutionError reports whether err is or wraps a ResolutionError
func IsResolutionError(err error) bool {
	var target *ResolutionError
	return errors.As(err, &target)
}

// IsChainRevert reports whether err is a reverted transaction
func IsChainRevert(err error) bool {
	return chainErrorKind(err) == ChainErrorReverted
}

// IsChainUnavailable reports whether err is a timeout or an unreachable provider
func IsChainUnavailable(err error) bool {
	kind := chainErrorKind(err)
	return kind == ChainErrorTimeout || kind == ChainErrorNetworkUnavailable
}

// IsChainPrecondition reports whether err is a failed on-chain precondition
func IsChainPrecondition(err error) bool {
	return chainErrorKind(err) == ChainErrorPrecondition
}

func chainErrorKind(err error) ChainErrorKind {
	var target *ChainError
	if errors.As(err, &target) {
		return target.Kind
	}
	return ""
}
