package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/corray333/task-bridge/internal/connector"
	"github.com/corray333/task-bridge/internal/dal/interfaces/ijournalrepo"
	"github.com/corray333/task-bridge/internal/dal/outboxrest"
	"github.com/corray333/task-bridge/internal/dal/postgres"
	journalrepo "github.com/corray333/task-bridge/internal/dal/repositories/journal/postgres"
	"github.com/corray333/task-bridge/internal/dal/taskrest"
	"github.com/corray333/task-bridge/internal/otel"
	"github.com/corray333/task-bridge/internal/service/mapper"
	"github.com/corray333/task-bridge/internal/service/services/syncsvc"
	httptransport "github.com/corray333/task-bridge/internal/transport/http"
	"github.com/corray333/task-bridge/internal/worker/scheduler"
)

// App represents the application.
type App struct {
	syncSvc        *syncsvc.SyncService
	registry       *connector.Registry
	scheduler      *scheduler.Scheduler
	transport      *httptransport.HTTPTransport
	postgresClient *postgres.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()

	registry := connector.NewRegistry()
	for _, desc := range mustLoadDescriptors() {
		registry.Register(desc.SystemID, newConnector(desc))
	}

	var postgresClient *postgres.Client
	var journal ijournalrepo.IJournalRepository
	if viper.GetBool("journal.enabled") {
		postgresClient = postgres.MustNewClient()
		journal = journalrepo.NewJournalRepository(postgresClient)
	}

	syncSvc := syncsvc.MustNewSyncService(
		syncsvc.WithTaskClient(taskrest.NewClient()),
		syncsvc.WithMapper(mapper.NewMapperFromViper()),
		syncsvc.WithJournal(journal),
	)

	sched := scheduler.NewScheduler(
		registry,
		syncSvc,
		viper.GetDuration("sync.creation_poll_interval"),
		viper.GetDuration("sync.completion_poll_interval"),
		viper.GetInt("sync.max_concurrent_cycles"),
	)

	transport := httptransport.NewHTTPTransport(registry, newConnector, journal)
	transport.RegisterRoutes()

	return &App{
		syncSvc:        syncSvc,
		registry:       registry,
		scheduler:      sched,
		transport:      transport,
		postgresClient: postgresClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting admin HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting scheduler")
		a.scheduler.Start(ctx)
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown performs graceful shutdown of all application
// components: scheduler, HTTP server, Postgres and OpenTelemetry.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.scheduler.Stop()
	slog.Info("Scheduler stopped gracefully")

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if a.postgresClient != nil {
		a.postgresClient.Close()
		slog.Info("Database connection closed gracefully")
	}

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	slog.Info("Application shutdown complete")
}

// newConnector builds the production connector for a descriptor: an outbox
// REST client bound to the descriptor's outbox URL.
func newConnector(desc connector.Descriptor) *connector.Connector {
	return connector.New(desc, outboxrest.NewClient(desc.OutboxURL))
}

// mustLoadDescriptors reads the configured connector list.
func mustLoadDescriptors() []connector.Descriptor {
	var descriptors []connector.Descriptor
	if err := viper.UnmarshalKey("connectors", &descriptors); err != nil {
		panic("error while reading connectors from config: " + err.Error())
	}

	for _, desc := range descriptors {
		if desc.SystemID == "" || desc.OutboxURL == "" {
			panic("connector entries require system_id and outbox_url")
		}
	}

	return descriptors
}
