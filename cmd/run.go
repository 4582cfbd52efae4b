package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"netrunner/application"
	"netrunner/config"
	"netrunner/database"
	"netrunner/domain/catalog"
	"netrunner/infrastructure"
	"netrunner/infrastructure/observability"
	"netrunner/repository"
	"netrunner/server"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting netrunner service...")

	// Load configuration
	cfg := config.Get()

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Load the command catalog
	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		log.Printf("Loading command catalog from %s...", cfg.CatalogPath)
		cat, err = catalog.Load(cfg.CatalogPath)
	} else {
		cat, err = catalog.New(catalog.DefaultDefinitions())
	}
	if err != nil {
		return fmt.Errorf("failed to load command catalog: %w", err)
	}
	log.Printf("Command catalog loaded with %d commands", len(cat.All()))

	// Initialize event publishing
	var natsClient *infrastructure.NATSClient
	publisherFactory := func() repository.TransactionalEventPublisher {
		return infrastructure.NewNoopEventPublisher()
	}
	if cfg.NATSServers != "" {
		log.Printf("Connecting to NATS at %s...", cfg.NATSServers)
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		natsPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
		publisherFactory = func() repository.TransactionalEventPublisher {
			return infrastructure.NewTransactionalEventPublisher(natsPublisher)
		}
		log.Println("NATS connection established successfully")
	} else {
		log.Println("NATS_SERVERS not set, event publishing disabled")
	}

	// Initialize unit of work factory and executor
	uowFactory := repository.NewUnitOfWorkFactory(db, publisherFactory)
	executor := application.NewCommandExecutor(uowFactory, cat, cfg.StartingBalance)

	// Initialize HTTP server
	srv := server.New(cfg.HTTPAddr, cfg.AuthSecret, executor)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	log.Printf("Service is running in %s mode...", cfg.Environment)
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.Printf("Error shutting down metrics: %v", err)
	}

	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
