// Package container wires the application together: database, repositories,
// event dispatcher, services and the HTTP adapter.
package container

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/traineedesk/internship-workflow/internal/application/dispatcher"
	"github.com/traineedesk/internship-workflow/internal/application/port"
	"github.com/traineedesk/internship-workflow/internal/application/service"
	"github.com/traineedesk/internship-workflow/internal/config"
	"github.com/traineedesk/internship-workflow/internal/infrastructure/export"
	"github.com/traineedesk/internship-workflow/internal/infrastructure/identity"
	"github.com/traineedesk/internship-workflow/internal/infrastructure/notify"
	"github.com/traineedesk/internship-workflow/internal/infrastructure/persistence/repository"
	"github.com/traineedesk/internship-workflow/internal/infrastructure/persistence/sqlite"
	httpadapter "github.com/traineedesk/internship-workflow/internal/interfaces/http"
	"github.com/traineedesk/internship-workflow/pkg/database"
)

// Container holds the wired application.
type Container struct {
	config *config.Config
	logger *zap.Logger

	db         *database.DB
	txManager  *sqlite.DB
	dispatcher dispatcher.Dispatcher

	lifecycle     service.RequestLifecycle
	allocator     service.MentorAllocator
	forwarding    service.ForwardingWorkflow
	notifications service.NotificationService
	auditor       service.AuditRecorder

	server *httpadapter.Server
}

// New builds the full dependency graph. Migrations run before any
// repository touches the schema.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	txManager := sqlite.NewDB(db.DB, logger)

	requestRepo := repository.NewRequestRepository(txManager, logger)
	approvalRepo := repository.NewApprovalRepository(txManager, logger)
	assignmentRepo := repository.NewAssignmentRepository(txManager, logger)
	batchRepo := repository.NewBatchRepository(txManager, logger)
	notificationRepo := repository.NewNotificationRepository(txManager, logger)
	auditRepo := repository.NewAuditRepository(txManager, logger)

	serviceLogger := &zapLoggerAdapter{logger: logger}
	events := dispatcher.NewDispatcher(dispatcher.WithLogger(serviceLogger))

	directory := identity.NewDirectory(cfg.Users)
	channel := notify.NewLogDispatcher(logger)

	auditor := service.NewAuditRecorder(auditRepo, serviceLogger)
	ledger := service.NewApprovalLedger(approvalRepo, cfg.Workflow.RequiredLevels, serviceLogger)
	allocator := service.NewMentorAllocator(assignmentRepo, auditor, txManager, cfg.Workflow.MentorCapacity, serviceLogger)
	lifecycle := service.NewRequestLifecycle(requestRepo, assignmentRepo, ledger, allocator, auditor, directory, txManager, events, serviceLogger)
	forwarding := service.NewForwardingWorkflow(batchRepo, requestRepo, auditor, directory, txManager, events, serviceLogger)
	notifications := service.NewNotificationService(notificationRepo, channel, serviceLogger)

	service.RegisterNotificationHandlers(events, notifications)

	exporter := export.NewBatchExporter(cfg.Export.SheetName, logger)

	server := httpadapter.NewServer(
		httpadapter.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		lifecycle,
		allocator,
		forwarding,
		notifications,
		auditor,
		exporter,
		serviceLogger,
	)

	return &Container{
		config:        cfg,
		logger:        logger,
		db:            db,
		txManager:     txManager,
		dispatcher:    events,
		lifecycle:     lifecycle,
		allocator:     allocator,
		forwarding:    forwarding,
		notifications: notifications,
		auditor:       auditor,
		server:        server,
	}, nil
}

// Server returns the HTTP adapter.
func (c *Container) Server() *httpadapter.Server {
	return c.server
}

// Lifecycle returns the request lifecycle service.
func (c *Container) Lifecycle() service.RequestLifecycle {
	return c.lifecycle
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// DB returns the raw database handle.
func (c *Container) DB() *sql.DB {
	return c.db.DB
}

// TransactionManager returns the context-scoped transaction manager.
func (c *Container) TransactionManager() port.TransactionManager {
	return c.txManager
}

// Close shuts down the container: the dispatcher drains its async handlers
// before the database goes away.
func (c *Container) Close() error {
	if err := c.dispatcher.Close(); err != nil {
		c.logger.Error("Failed to close dispatcher", zap.Error(err))
	}
	return c.db.Close()
}

// zapLoggerAdapter adapts zap.Logger to the service.Logger interface.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
