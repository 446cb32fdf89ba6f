package app

import (
	"log/slog"

	"github.com/trebuchet-org/portal-deployer/internal/domain/config"
	"github.com/trebuchet-org/portal-deployer/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Use cases
	DeployProxy        *usecase.DeployProxy
	UpgradeProxy       *usecase.UpgradeProxy
	ShowImplementation *usecase.ShowImplementation
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	deployProxy *usecase.DeployProxy,
	upgradeProxy *usecase.UpgradeProxy,
	showImplementation *usecase.ShowImplementation,
) *App {
	return &App{
		Config:             cfg,
		Log:                log,
		DeployProxy:        deployProxy,
		UpgradeProxy:       upgradeProxy,
		ShowImplementation: showImplementation,
	}
}
