package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/labelrun/labelrun/internal/config"
	"github.com/labelrun/labelrun/internal/credential"
	"github.com/labelrun/labelrun/internal/history"
	"github.com/labelrun/labelrun/internal/sqlite"
	"github.com/labelrun/labelrun/internal/telemetry"
	"github.com/labelrun/labelrun/pkg/provider"
	"github.com/labelrun/labelrun/pkg/provider/easypost"
	"github.com/labelrun/labelrun/pkg/provider/pirateship"
	"github.com/labelrun/labelrun/pkg/provider/shippo"
	"github.com/labelrun/labelrun/pkg/provider/stamps"
)

// app bundles the wired components shared by the serve and ship
// commands.
type app struct {
	cfg          *config.Config
	logger       *otelzap.Logger
	db           *sql.DB
	store        *credential.Store
	registry     *provider.Registry
	orchestrator *provider.Orchestrator
	history      *history.Log

	tracerShutdown func(context.Context) error
}

func initApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	a.tracerShutdown = func(context.Context) error { return nil }
	var tracer trace.Tracer
	if cfg.OTELEnabled {
		t, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
		if err != nil {
			logger.Warn("Failed to initialize tracer", zap.Error(err))
		} else {
			tracer = t
			a.tracerShutdown = shutdown
		}
	}

	a.db, err = sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	cipher, err := credential.NewCipher(cfg.EncryptionKey)
	if err != nil {
		a.db.Close()
		return nil, fmt.Errorf("initializing cipher: %w", err)
	}

	backend, err := a.credentialBackend(cfg)
	if err != nil {
		a.db.Close()
		return nil, err
	}
	a.store = credential.New(backend, cipher, logger)

	a.registry = provider.NewRegistry()
	a.store.SetNotifier(a.registry)
	registerClients(a.registry, cfg, a.store, logger, tracer)
	a.registry.Init(ctx, a.store, logger)

	a.orchestrator = provider.NewOrchestrator(a.registry, logger, cfg.ProviderCallTimeout)
	a.history = history.NewLog(a.db, cfg.HistoryCapacity)

	return a, nil
}

func (a *app) Close(ctx context.Context) {
	if err := a.tracerShutdown(ctx); err != nil {
		a.logger.Warn("Tracer shutdown failed", zap.Error(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("Database close failed", zap.Error(err))
	}
	a.logger.Sync()
}

func (a *app) credentialBackend(cfg *config.Config) (credential.Backend, error) {
	switch cfg.CredentialBackend {
	case "sqlite":
		return credential.NewSQLiteBackend(a.db), nil
	case "keyring":
		return credential.NewKeyringBackend(), nil
	case "memory":
		// Credentials are lost on restart. Only useful for tests and
		// throwaway environments.
		a.logger.Warn("Using in-memory credential backend, credentials will not persist")
		return credential.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown credential backend %q", cfg.CredentialBackend)
	}
}

func registerClients(registry *provider.Registry, cfg *config.Config,
	store *credential.Store, logger *otelzap.Logger, tracer trace.Tracer) {

	if cfg.EasyPostEnabled {
		registry.RegisterClient(easypost.New(easypost.Config{
			BaseURL: cfg.EasyPostBaseURL,
			UseMock: cfg.EasyPostUseMock,
		}, store.KeyFunc("easypost"), logger, tracer))
	}

	if cfg.PirateShipEnabled {
		registry.RegisterClient(pirateship.New(pirateship.Config{
			BaseURL: cfg.PirateShipBaseURL,
			UseMock: cfg.PirateShipUseMock,
		}, store.KeyFunc("pirateship"), logger, tracer))
	}

	if cfg.StampsEnabled {
		registry.RegisterClient(stamps.New(stamps.Config{
			BaseURL: cfg.StampsBaseURL,
			UseMock: cfg.StampsUseMock,
		}, store.KeyFunc("stamps"), logger, tracer))
	}

	if cfg.ShippoEnabled {
		registry.RegisterClient(shippo.New(shippo.Config{
			BaseURL: cfg.ShippoBaseURL,
			UseMock: cfg.ShippoUseMock,
		}, store.KeyFunc("shippo"), logger, tracer))
	}
}
