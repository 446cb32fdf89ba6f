package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/portal-deployer/internal/cli/render"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
	"github.com/trebuchet-org/portal-deployer/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a new UUPS proxy over a new implementation",
		Long: `Deploy a fresh implementation of the portal and an ERC-1967 proxy pointing at it.
The proxy is initialized with the module list and the router address.

Every run creates a new proxy; use upgrade to change an existing one.`,
		Example: `  portal deploy --network linea-sepolia --router-address 0x...
  ROUTER_ADDRESS=0x... portal deploy -n linea-sepolia --verify -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			cfg := app.Config

			initArgs, err := usecase.PortalInitArgs(cfg.RouterAddress, cfg.Modules)
			if err != nil {
				return err
			}

			notice(cmd, app, "Deploying %s...", cfg.Contract)

			record, err := app.DeployProxy.Run(cmd.Context(), usecase.DeployProxyParams{
				Contract:      cfg.Contract,
				InitArgs:      initArgs,
				Kind:          models.ProxyKind(cfg.Kind),
				ProxyContract: cfg.ProxyContract,
				Verify:        cfg.Verify,
				Network:       cfg.Network,
			})
			if err != nil {
				return err
			}

			return render.NewRecordRenderer(cmd.OutOrStdout(), cfg.Output).Render(record)
		},
	}

	cmd.Flags().String("contract", "", "Implementation contract, Name or path/File.sol:Name (default EASWrappedVeraxPortal)")
	cmd.Flags().String("proxy-contract", "", "Proxy contract artifact (default ERC1967Proxy)")
	cmd.Flags().String("router-address", "", "Router address passed to initialize (env ROUTER_ADDRESS)")
	cmd.Flags().String("modules", "", "Comma separated module addresses passed to initialize")
	cmd.Flags().String("kind", "", "Proxy kind, only uups is supported")
	cmd.Flags().Bool("verify", false, "Verify implementation and proxy sources after deployment")

	return cmd
}
