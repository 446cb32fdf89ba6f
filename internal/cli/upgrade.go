package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/portal-deployer/internal/cli/render"
	"github.com/trebuchet-org/portal-deployer/internal/usecase"
)

// NewUpgradeCmd creates the upgrade command
func NewUpgradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade [proxy-address]",
		Short: "Point an existing proxy at a new implementation",
		Long: `Deploy a new implementation and call upgradeToAndCall on the proxy.
The proxy address and its storage are kept; the initializer is not called again.

The proxy must be a live UUPS proxy and the new storage layout must extend the
current one. Both are checked before anything is sent. The current layout comes
from --reference-contract when given, otherwise from the artifact whose runtime
code matches the live implementation.`,
		Example: `  portal upgrade 0x... --network linea-sepolia
  EAS_WRAPPED_PROXY_ADDRESS=0x... portal upgrade -n linea-sepolia --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			cfg := app.Config

			proxyAddress := cfg.ProxyAddress
			if len(args) == 1 {
				proxyAddress = args[0]
			}

			if _, err := usecase.ParseAddress("proxy_address", proxyAddress); err != nil {
				return err
			}

			notice(cmd, app, "Upgrading %s, with proxy at %s", cfg.Contract, proxyAddress)

			record, err := app.UpgradeProxy.Run(cmd.Context(), usecase.UpgradeProxyParams{
				ProxyAddress: proxyAddress,
				Contract:     cfg.Contract,
				SkipConfirm:  cfg.Yes,
				Verify:       cfg.Verify,
				Network:      cfg.Network,
			})
			if err != nil {
				return err
			}

			return render.NewRecordRenderer(cmd.OutOrStdout(), cfg.Output).Render(record)
		},
	}

	cmd.Flags().String("contract", "", "Implementation contract, Name or path/File.sol:Name (default EASWrappedVeraxPortal)")
	cmd.Flags().String("proxy-address", "", "Proxy to upgrade (env PROXY_ADDRESS or EAS_WRAPPED_PROXY_ADDRESS)")
	cmd.Flags().String("reference-contract", "", "Artifact of the current implementation, compared against the new storage layout")
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().Bool("verify", false, "Verify the new implementation source after the upgrade")

	return cmd
}
