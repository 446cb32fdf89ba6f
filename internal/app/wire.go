//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/portal-deployer/internal/adapters"
	"github.com/trebuchet-org/portal-deployer/internal/config"
	"github.com/trebuchet-org/portal-deployer/internal/logging"
	"github.com/trebuchet-org/portal-deployer/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(ctx context.Context, v *viper.Viper, sink usecase.ProgressSink) (*App, func(), error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewDeployProxy,
		usecase.NewUpgradeProxy,
		usecase.NewShowImplementation,

		// App
		NewApp,
	)
	return nil, nil, nil
}
