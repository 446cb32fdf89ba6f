package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/portal-deployer/internal/adapters/progress"
	"github.com/trebuchet-org/portal-deployer/internal/app"
	"github.com/trebuchet-org/portal-deployer/internal/cli/render"
	"github.com/trebuchet-org/portal-deployer/internal/config"
	"github.com/trebuchet-org/portal-deployer/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// initFunc builds the application for a command invocation
type initFunc func(ctx context.Context, v *viper.Viper, sink usecase.ProgressSink) (*app.App, func(), error)

// session owns what PersistentPreRunE creates so it can be released after the command
type session struct {
	cleanup []func()
}

func (s *session) close() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
	s.cleanup = nil
}

// Execute runs the portal CLI
func Execute(ctx context.Context) error {
	rootCmd, s := newRootCmd(app.InitApp)
	defer s.close()
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd(initApp initFunc) (*cobra.Command, *session) {
	s := &session{}

	rootCmd := &cobra.Command{
		Use:   "portal",
		Short: "Deploy and upgrade the EAS wrapped Verax portal behind a UUPS proxy",
		Long: `portal deploys EASWrappedVeraxPortal behind an ERC-1967 UUPS proxy and
upgrades the implementation of an existing proxy while keeping its address and storage.

Configuration is read from flags, PORTAL_* environment variables, .env files and
foundry.toml. ROUTER_ADDRESS, PROXY_ADDRESS and EAS_WRAPPED_PROXY_ADDRESS are accepted
as well.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot, _ := cmd.Flags().GetString("project-root")
			if projectRoot == "" {
				var err error
				projectRoot, err = config.FindProjectRoot()
				if err != nil {
					return err
				}
			}

			v := config.SetupViper(projectRoot, cmd)
			sink := newProgressSink(v)

			ctx := cmd.Context()
			if timeout := v.GetDuration("timeout"); timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				s.cleanup = append(s.cleanup, cancel)
			}

			appInstance, cleanup, err := initApp(ctx, v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			s.cleanup = append(s.cleanup, cleanup)

			cmd.SetContext(context.WithValue(ctx, appKey, appInstance))
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network from foundry.toml [rpc_endpoints] (e.g. linea-sepolia)")
	rootCmd.PersistentFlags().String("rpc-url", "", "RPC URL, overrides --network")
	rootCmd.PersistentFlags().StringP("output", "o", "text", "Output format: text, json or yaml")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Abort the whole operation after this duration (default 10m)")
	rootCmd.PersistentFlags().String("project-root", "", "Foundry project root (default: nearest directory with foundry.toml)")
	rootCmd.PersistentFlags().Bool("skip-build", false, "Use existing artifacts instead of running forge build")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})

	deployCmd := NewDeployCmd()
	deployCmd.GroupID = "main"
	rootCmd.AddCommand(deployCmd)

	upgradeCmd := NewUpgradeCmd()
	upgradeCmd.GroupID = "main"
	rootCmd.AddCommand(upgradeCmd)

	implementationCmd := NewImplementationCmd()
	implementationCmd.GroupID = "main"
	rootCmd.AddCommand(implementationCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd, s
}

// newProgressSink shows a spinner on interactive text runs only
func newProgressSink(v *viper.Viper) usecase.ProgressSink {
	if v.GetString("output") != render.FormatText || v.GetBool("non_interactive") || color.NoColor {
		return progress.NewNopSink()
	}
	return progress.NewSpinnerProgressReporter()
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}

// notice prints a status line; machine readable runs keep stdout for the record
func notice(cmd *cobra.Command, a *app.App, format string, args ...any) {
	out := cmd.OutOrStdout()
	if a.Config.Output != render.FormatText {
		out = cmd.ErrOrStderr()
	}
	fmt.Fprintf(out, format+"\n", args...)
}
