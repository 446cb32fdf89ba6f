package verification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/portal-deployer/internal/domain/config"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
	"github.com/trebuchet-org/portal-deployer/internal/usecase"
)

var (
	implAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	sepolia     = &config.Network{Name: "sepolia", ChainID: 11155111, ExplorerURL: "https://sepolia.etherscan.io", APIKey: "KEY"}
)

func target() usecase.VerificationTarget {
	return usecase.VerificationTarget{
		Address: implAddress,
		Blueprint: &models.Blueprint{
			Name:            "EASWrappedVeraxPortal",
			Path:            "src/EASWrappedVeraxPortal.sol",
			CompilerVersion: "0.8.21+commit.d9974bed",
		},
	}
}

type scriptedRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   [][]string
}

func (r *scriptedRunner) run(_ context.Context, _ string, args []string) (string, error) {
	r.calls = append(r.calls, args)
	verifier := verifierEtherscan
	for _, a := range args {
		if a == "sourcify" {
			verifier = verifierSourcify
		}
	}
	return r.outputs[verifier], r.errs[verifier]
}

func newTestVerifier(r *scriptedRunner) *Verifier {
	v := NewVerifier(&config.RuntimeConfig{ProjectRoot: "/project"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	v.run = r.run
	return v
}

func TestVerifier_BuildArgs(t *testing.T) {
	v := newTestVerifier(&scriptedRunner{})

	t.Run("etherscan", func(t *testing.T) {
		args := v.buildArgs(verifierEtherscan, target(), sepolia)
		assert.Equal(t, []string{
			"verify-contract",
			implAddress.Hex(),
			"src/EASWrappedVeraxPortal.sol:EASWrappedVeraxPortal",
			"--chain-id", "11155111",
			"--watch",
			"--verifier-url", "https://sepolia.etherscan.io/api",
			"--etherscan-api-key", "KEY",
			"--compiler-version", "0.8.21+commit.d9974bed",
		}, args)
	})

	t.Run("etherscan url from foundry.toml", func(t *testing.T) {
		network := *sepolia
		network.VerifierURL = "https://api-sepolia.etherscan.io/api"

		args := v.buildArgs(verifierEtherscan, target(), &network)
		assert.Contains(t, args, "https://api-sepolia.etherscan.io/api")
		assert.NotContains(t, args, "https://sepolia.etherscan.io/api")
	})

	t.Run("sourcify with constructor args", func(t *testing.T) {
		tgt := target()
		tgt.ConstructorArgs = []byte{0xab, 0xcd}

		args := v.buildArgs(verifierSourcify, tgt, sepolia)
		assert.Contains(t, args, "sourcify")
		assert.NotContains(t, args, "--etherscan-api-key")
		assert.Equal(t, []string{"--constructor-args", "abcd"}, args[len(args)-2:])
	})
}

func TestVerifier_Verify(t *testing.T) {
	t.Run("both verifiers succeed", func(t *testing.T) {
		runner := &scriptedRunner{outputs: map[string]string{
			verifierEtherscan: "Contract successfully verified",
			verifierSourcify:  "Contract successfully verified",
		}}

		results, err := newTestVerifier(runner).Verify(context.Background(), target(), sepolia)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Len(t, runner.calls, 2)
		assert.Equal(t, models.VerificationStatusVerified, results[0].Status)
		assert.Equal(t, "https://sepolia.etherscan.io/address/"+implAddress.Hex()+"#code", results[0].URL)
		assert.Equal(t, "sourcify", results[1].Verifier)
	})

	t.Run("already verified counts as success", func(t *testing.T) {
		runner := &scriptedRunner{
			outputs: map[string]string{
				verifierEtherscan: "Contract source code already verified",
				verifierSourcify:  "Contract successfully verified",
			},
			errs: map[string]error{verifierEtherscan: errors.New("exit status 1")},
		}

		results, err := newTestVerifier(runner).Verify(context.Background(), target(), sepolia)
		require.NoError(t, err)
		assert.Equal(t, models.VerificationStatusVerified, results[0].Status)
	})

	t.Run("failures are aggregated", func(t *testing.T) {
		runner := &scriptedRunner{
			outputs: map[string]string{
				verifierEtherscan: "Invalid API Key",
				verifierSourcify:  "Contract successfully verified",
			},
			errs: map[string]error{verifierEtherscan: errors.New("exit status 1")},
		}

		results, err := newTestVerifier(runner).Verify(context.Background(), target(), sepolia)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "etherscan")
		assert.Contains(t, err.Error(), "Invalid API Key")
		require.Len(t, results, 2)
		assert.Equal(t, models.VerificationStatusFailed, results[0].Status)
		assert.Equal(t, models.VerificationStatusVerified, results[1].Status)
	})
}
