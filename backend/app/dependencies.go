package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/upb/unified-workspace/backend/config"
	"github.com/upb/unified-workspace/backend/entra"
	"github.com/upb/unified-workspace/backend/internal/observability"
	"github.com/upb/unified-workspace/backend/middleware"
	"github.com/upb/unified-workspace/backend/repositories"
	"github.com/upb/unified-workspace/backend/repositories/file"
	"github.com/upb/unified-workspace/backend/repositories/postgres"
	"github.com/upb/unified-workspace/backend/services"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Collector

	// Storage. RepoFactory is nil unless STORAGE_BACKEND=postgres.
	RepoFactory  *postgres.RepositoryFactory
	Repositories *repositories.Repositories

	// Auth
	KeyResolver    *entra.KeyResolver
	Verifier       *entra.Verifier
	AuthMiddleware *middleware.AuthMiddleware

	// Services
	Tasks      *services.TaskService
	QuickLinks *services.QuickLinkService
	Profiles   *services.ProfileService
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initMetrics()

	if err := deps.initStorage(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	deps.initAuth(cfg)
	deps.initServices()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func (d *Dependencies) initMetrics() {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = observability.NewCollector(d.Registry)
}

// initStorage opens the configured task and quick link store
func (d *Dependencies) initStorage(ctx context.Context, cfg *config.Config) error {
	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		factory, err := postgres.NewRepositoryFactory(ctx, cfg.Storage.Database, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to create repository factory: %w", err)
		}
		d.RepoFactory = factory
		d.Repositories = factory.NewRepositories()

	case config.StorageFile:
		repos, err := file.NewRepositories(cfg.Storage.DataDir, d.Logger)
		if err != nil {
			return err
		}
		d.Repositories = repos

	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	d.Logger.Info("repositories initialized", zap.String("backend", cfg.Storage.Backend))
	return nil
}

// initAuth builds the key resolver, verifier and request gate
func (d *Dependencies) initAuth(cfg *config.Config) {
	entraCfg := entra.Config{
		TenantID:            cfg.Entra.TenantID,
		ClientID:            cfg.Entra.ClientID,
		AuthorityHost:       cfg.Entra.AuthorityHost,
		AdditionalAudiences: cfg.Entra.AdditionalAudiences,
		ClockSkew:           cfg.Entra.ClockSkew,
	}

	jwksURL := cfg.Entra.JWKSURL
	if jwksURL == "" {
		jwksURL = entraCfg.JWKSURL()
	}

	var fetchRate rate.Limit
	if cfg.Entra.JWKSFetchInterval > 0 {
		fetchRate = rate.Every(cfg.Entra.JWKSFetchInterval)
	}

	d.KeyResolver = entra.NewKeyResolver(entra.KeyResolverConfig{
		JWKSURL:    jwksURL,
		CacheTTL:   cfg.Entra.JWKSCacheTTL,
		FetchRate:  fetchRate,
		FetchBurst: cfg.Entra.JWKSFetchBurst,
		Metrics:    d.Metrics,
		Logger:     d.Logger.Named("jwks"),
	})
	d.Verifier = entra.NewVerifier(entraCfg, d.KeyResolver, d.Logger.Named("verifier"))

	if cfg.Entra.TenantID == "" || cfg.Entra.ClientID == "" {
		d.Logger.Warn("entra tenant or client not configured, bearer tokens will be rejected")
	}

	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Verifier, d.Logger,
		middleware.WithMetrics(d.Metrics),
		middleware.WithUpstreamFailureStatus(cfg.API.UpstreamFailureStatus),
	)
	d.Logger.Info("token verification initialized",
		zap.String("issuer", entraCfg.Issuer()),
		zap.String("jwks_url", jwksURL))
}

func (d *Dependencies) initServices() {
	d.Tasks = services.NewTaskService(d.Repositories.Tasks, d.Logger)
	d.QuickLinks = services.NewQuickLinkService(d.Repositories.QuickLinks, d.Logger)
	d.Profiles = services.NewProfileService()
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
