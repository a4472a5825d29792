// Package container provides dependency injection and lifecycle
// management for the travel expense core.
package container

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jmquispe/viaticos-core/internal/application/port"
	"github.com/jmquispe/viaticos-core/internal/application/service"
	"github.com/jmquispe/viaticos-core/internal/config"
	"github.com/jmquispe/viaticos-core/internal/export"
	"github.com/jmquispe/viaticos-core/internal/extract"
	"github.com/jmquispe/viaticos-core/internal/infrastructure/persistence/repository"
	"github.com/jmquispe/viaticos-core/internal/infrastructure/persistence/sqlite"
	"github.com/jmquispe/viaticos-core/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in
// reverse order.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure
	sqlDB        *sql.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	// Application
	services *ServiceBundle

	// Lifecycle
	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Report       port.ReportRepository
	Receipt      port.ReceiptRepository
	State        port.StateRepository
	Notification port.NotificationRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Report       *service.ReportService
	Receipt      *service.ReceiptService
	Dashboard    *service.DashboardService
	Notification *service.NotificationService
	Export       *export.Service
	Extractor    *extract.Extractor
	Resolver     *extract.Resolver
	PDFReader    *extract.PDFReader
}

// New creates a container from configuration. Call Start to
// initialize components.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Container{config: cfg, logger: logger}, nil
}

// Start initializes the database, runs migrations and wires
// repositories and services.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	sqlDB, err := database.Open(database.Config{
		Path:            c.config.Database.Path,
		MaxOpenConns:    c.config.Database.MaxOpenConns,
		MaxIdleConns:    c.config.Database.MaxIdleConns,
		ConnMaxLifetime: c.config.Database.ConnMaxLifetime,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	c.sqlDB = sqlDB

	migrator := database.NewMigrator(sqlDB, c.logger)
	if err := migrator.RunMigrations(c.config.Database.MigrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	c.db = sqlite.NewDB(sqlDB, c.logger)
	c.repositories = &RepositoryBundle{
		Report:       repository.NewReportRepository(sqlDB, c.logger),
		Receipt:      repository.NewReceiptRepository(sqlDB, c.logger),
		State:        repository.NewStateRepository(sqlDB, c.logger),
		Notification: repository.NewNotificationRepository(sqlDB, c.logger),
	}

	clock := port.RealClock{}
	c.services = &ServiceBundle{
		Report: service.NewReportService(
			c.repositories.Report,
			c.repositories.Receipt,
			c.repositories.State,
			c.db,
			clock,
			c.logger,
		),
		Receipt: service.NewReceiptService(
			c.repositories.Receipt,
			c.db,
			clock,
			c.logger,
		),
		Dashboard: service.NewDashboardService(
			c.repositories.Report,
			c.repositories.Receipt,
			clock,
			c.logger,
		),
		Notification: service.NewNotificationService(
			c.repositories.Notification,
			clock,
			c.logger,
		),
		Export: export.NewService(
			c.config.Export.OutputDir,
			c.logger,
		),
		Extractor: extract.NewExtractor(c.logger),
		Resolver:  extract.NewResolver(c.logger, nil),
		PDFReader: extract.NewPDFReader(c.logger),
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close shuts down the container and releases the database.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}
	c.closed.Store(true)
	c.ready.Store(false)

	if c.sqlDB != nil {
		if err := c.sqlDB.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			return fmt.Errorf("close database: %w", err)
		}
	}
	c.logger.Info("Container closed")
	return nil
}

// Ready reports whether Start completed successfully.
func (c *Container) Ready() bool {
	return c.ready.Load() && !c.closed.Load()
}

// Repositories returns the repository bundle. Nil before Start.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Services returns the service bundle. Nil before Start.
func (c *Container) Services() *ServiceBundle {
	return c.services
}
