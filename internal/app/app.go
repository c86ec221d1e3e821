package app

import (
	"time"

	"github.com/bobmcallan/mcpbridge/internal/bridge"
	"github.com/bobmcallan/mcpbridge/internal/common"
	"github.com/bobmcallan/mcpbridge/internal/config"
	"github.com/bobmcallan/mcpbridge/internal/handlers"
	"github.com/bobmcallan/mcpbridge/internal/interfaces"
	"github.com/bobmcallan/mcpbridge/internal/storage"
)

// App holds all application components and dependencies.
type App struct {
	Config  *config.Config
	Logger  *common.Logger
	Storage interfaces.StorageManager

	// HTTP handlers
	HealthHandler  *handlers.HealthHandler
	VersionHandler *handlers.VersionHandler
	ItemsHandler   *handlers.ItemsHandler
	ComputeHandler *handlers.ComputeHandler
	EchoHandler    *handlers.EchoHandler
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	store, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		return nil, err
	}
	a.Storage = store

	a.initHandlers()

	logger.Info().Msg("application initialization complete")

	return a, nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.ItemsHandler = handlers.NewItemsHandler(a.Logger, a.Storage.ItemStorage())
	a.ComputeHandler = handlers.NewComputeHandler(a.Logger)
	a.EchoHandler = handlers.NewEchoHandler(a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// NewBridgeBuilder creates a capability builder configured from the app's
// bridge settings.
func (a *App) NewBridgeBuilder() *bridge.Builder {
	return bridge.NewBuilder(bridge.Options{
		Name:           a.Config.Bridge.Name,
		Version:        config.GetVersion(),
		JSONResponse:   a.Config.Bridge.JSONResponse,
		RequestTimeout: time.Duration(a.Config.Bridge.RequestTimeoutSeconds) * time.Second,
		Logger:         a.Logger,
	})
}

// Close closes all application resources.
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
