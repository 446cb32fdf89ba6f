package blockchain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/portal-deployer/internal/domain"
)

// ErrTxReverted is wrapped when a mined receipt carries a failed status
var ErrTxReverted = errors.New("transaction reverted")

// ErrUnknownTx is wrapped when Await is asked for a transaction this client did not submit
var ErrUnknownTx = errors.New("transaction was not submitted by this client")

// ErrNoStorageLayout is wrapped when the reference artifact was compiled without a storage layout
var ErrNoStorageLayout = errors.New("artifact has no storage layout, add storageLayout to extra_output")

// classify wraps a node or transport error into a domain.ChainError so callers
// can tell reverts from an unreachable provider.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var chainErr *domain.ChainError
	if errors.As(err, &chainErr) {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewChainError(op, domain.ChainErrorTimeout, err)
	case errors.Is(err, context.Canceled):
		return domain.NewChainError(op, domain.ChainErrorTimeout, err)
	case errors.Is(err, ErrTxReverted):
		return domain.NewChainError(op, domain.ChainErrorReverted, err)
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return domain.NewChainError(op, domain.ChainErrorReverted, decodeRevert(dataErr))
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "revert"):
		return domain.NewChainError(op, domain.ChainErrorReverted, err)
	case strings.Contains(msg, "insufficient funds"),
		strings.Contains(msg, "nonce too low"),
		strings.Contains(msg, "replacement transaction underpriced"):
		return domain.NewChainError(op, domain.ChainErrorPrecondition, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.NewChainError(op, domain.ChainErrorTimeout, err)
	}

	return domain.NewChainError(op, domain.ChainErrorNetworkUnavailable, err)
}

// decodeRevert turns revert data into a readable reason where possible
func decodeRevert(dataErr rpc.DataError) error {
	encoded, ok := dataErr.ErrorData().(string)
	if !ok {
		return fmt.Errorf("%s", dataErr.Error())
	}

	data, err := hexutil.Decode(encoded)
	if err != nil {
		return fmt.Errorf("%s: %v", dataErr.Error(), dataErr.ErrorData())
	}

	if reason, err := abi.UnpackRevert(data); err == nil {
		return fmt.Errorf("%w: %s", ErrTxReverted, reason)
	}
	return fmt.Errorf("%s: %s", dataErr.Error(), encoded)
}
