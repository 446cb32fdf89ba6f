package blockchain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/portal-deployer/internal/domain"
)

// Signer holds the deployer key for a chain
type Signer struct {
	key     *ecdsa.PrivateKey
	chainID *big.Int
}

// NewSigner parses a hex private key, with or without 0x prefix
func NewSigner(privateKey string, chainID uint64) (*Signer, error) {
	privateKey = strings.TrimPrefix(strings.TrimSpace(privateKey), "0x")
	if privateKey == "" {
		return nil, domain.NewConfigurationError("private_key", domain.ErrMissingValue, "")
	}

	key, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		// never echo the key back
		return nil, domain.NewConfigurationError("private_key", fmt.Errorf("invalid private key"), "")
	}

	return &Signer{key: key, chainID: new(big.Int).SetUint64(chainID)}, nil
}

// Address returns the deployer account
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// Transactor returns fresh transact options; callers set the context
func (s *Signer) Transactor() (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, s.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	return opts, nil
}
