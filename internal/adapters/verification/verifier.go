package verification

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
	"github.com/trebuchet-org/portal-deployer/internal/domain/config"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
	"github.com/trebuchet-org/portal-deployer/internal/usecase"
)

const (
	verifierEtherscan = "etherscan"
	verifierSourcify  = "sourcify"
)

// commandRunner runs forge with args in dir and returns its combined output
type commandRunner func(ctx context.Context, dir string, args []string) (string, error)

// Verifier submits sources to block explorers via forge verify-contract
type Verifier struct {
	projectRoot string
	run         commandRunner
	log         *slog.Logger
}

// NewVerifier creates a new forge backed verifier
func NewVerifier(cfg *config.RuntimeConfig, log *slog.Logger) *Verifier {
	return &Verifier{
		projectRoot: cfg.ProjectRoot,
		run:         runForge,
		log:         log.With("component", "verifier"),
	}
}

// Verify runs every applicable verifier against the target. The returned error
// aggregates the failures; results are returned either way.
func (v *Verifier) Verify(ctx context.Context, target usecase.VerificationTarget, network *config.Network) ([]models.VerificationResult, error) {
	contract := target.Blueprint.Artifact()

	var (
		results []models.VerificationResult
		errs    *multierror.Error
	)
	for _, verifier := range []string{verifierEtherscan, verifierSourcify} {
		result := models.VerificationResult{
			Address:  target.Address,
			Contract: contract,
			Verifier: verifier,
		}

		args := v.buildArgs(verifier, target, network)
		v.log.Debug("verifying", "verifier", verifier, "address", target.Address.Hex(), "contract", contract)

		if err := v.execute(ctx, args); err != nil {
			result.Status = models.VerificationStatusFailed
			result.Reason = err.Error()
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", verifier, err))
		} else {
			result.Status = models.VerificationStatusVerified
			result.URL = explorerURL(verifier, network, target.Address)
		}
		results = append(results, result)
	}

	return results, errs.ErrorOrNil()
}

// buildArgs builds the forge verify-contract args for one verifier
func (v *Verifier) buildArgs(verifier string, target usecase.VerificationTarget, network *config.Network) []string {
	args := []string{
		"verify-contract",
		target.Address.Hex(),
		target.Blueprint.Artifact(),
		"--chain-id", fmt.Sprintf("%d", network.ChainID),
		"--watch",
	}

	switch verifier {
	case verifierSourcify:
		args = append(args, "--verifier", "sourcify")
	default:
		switch {
		case network.VerifierURL != "":
			args = append(args, "--verifier-url", network.VerifierURL)
		case network.ExplorerURL != "":
			args = append(args, "--verifier-url", strings.TrimSuffix(network.ExplorerURL, "/")+"/api")
		}
		apiKey := network.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ETHERSCAN_API_KEY")
		}
		if apiKey != "" {
			args = append(args, "--etherscan-api-key", apiKey)
		}
	}

	if target.Blueprint.CompilerVersion != "" {
		args = append(args, "--compiler-version", target.Blueprint.CompilerVersion)
	}
	if len(target.ConstructorArgs) > 0 {
		args = append(args, "--constructor-args", common.Bytes2Hex(target.ConstructorArgs))
	}

	return args
}

func (v *Verifier) execute(ctx context.Context, args []string) error {
	output, err := v.run(ctx, v.projectRoot, args)
	if alreadyVerified(output) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("verification failed: %s", strings.TrimSpace(output))
	}
	if strings.Contains(output, "Contract successfully verified") {
		return nil
	}
	return fmt.Errorf("verification status unclear: %s", strings.TrimSpace(output))
}

func alreadyVerified(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "already verified")
}

func explorerURL(verifier string, network *config.Network, address common.Address) string {
	if verifier == verifierSourcify {
		return fmt.Sprintf("https://sourcify.dev/#/lookup/%s", address.Hex())
	}
	if network.ExplorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/address/%s#code", strings.TrimSuffix(network.ExplorerURL, "/"), address.Hex())
}

func runForge(ctx context.Context, dir string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, "forge", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	return string(output), err
}

var _ usecase.ContractVerifier = (*Verifier)(nil)
