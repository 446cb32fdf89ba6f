package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/portal-deployer/internal/cli/render"
)

// NewImplementationCmd creates the implementation command
func NewImplementationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "implementation [proxy-address]",
		Aliases: []string{"impl"},
		Short:   "Show the implementation a proxy points at",
		Long:    `Read the ERC-1967 implementation slot of a proxy.`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			proxyAddress := app.Config.ProxyAddress
			if len(args) == 1 {
				proxyAddress = args[0]
			}

			record, err := app.ShowImplementation.Run(cmd.Context(), proxyAddress)
			if err != nil {
				return err
			}
			if app.Config.Network != nil {
				record.ChainID = app.Config.Network.ChainID
			}

			return render.NewRecordRenderer(cmd.OutOrStdout(), app.Config.Output).Render(record)
		},
	}

	cmd.Flags().String("proxy-address", "", "Proxy to inspect (env PROXY_ADDRESS or EAS_WRAPPED_PROXY_ADDRESS)")

	return cmd
}
