package usecase

import (
	"context"
	"log/slog"

	"github.com/trebuchet-org/portal-deployer/internal/domain/config"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
)

// verifyTargets runs source verification best-effort. Failures end up in the
// returned results and the log; they never fail the orchestration.
func verifyTargets(ctx context.Context, verifier ContractVerifier, network *config.Network, log *slog.Logger, targets ...VerificationTarget) []models.VerificationResult {
	var results []models.VerificationResult

	for _, target := range targets {
		contract := ""
		if target.Blueprint != nil {
			contract = target.Blueprint.Artifact()
		}

		skip := func(reason string) {
			results = append(results, models.VerificationResult{
				Address:  target.Address,
				Contract: contract,
				Status:   models.VerificationStatusSkipped,
				Reason:   reason,
			})
		}

		switch {
		case verifier == nil:
			skip("no verifier configured")
			continue
		case network == nil:
			skip("no network configured")
			continue
		case network.IsLocal():
			skip("local chain")
			continue
		}

		verified, err := verifier.Verify(ctx, target, network)
		if err != nil {
			log.Warn("verification failed", "address", target.Address.Hex(), "contract", contract, "error", err)
			if len(verified) == 0 {
				verified = []models.VerificationResult{{
					Address:  target.Address,
					Contract: contract,
					Status:   models.VerificationStatusFailed,
					Reason:   err.Error(),
				}}
			}
		}
		results = append(results, verified...)
	}

	return results
}
