package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"cryptoluck/application"
	"cryptoluck/config"
	"cryptoluck/database"
	"cryptoluck/domain/interfaces"
	"cryptoluck/infrastructure"

	"github.com/redis/go-redis/v9"
)

// Run initializes and starts the settlement engine
func Run(ctx context.Context) error {
	log.Println("Starting cryptoluck settlement engine...")

	// Load configuration
	cfg := config.Get()
	settings := cfg.Settings()

	// Run pending migrations before serving
	log.Println("Running database migrations...")
	if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Println("Database connection established successfully")

	// Optional Redis client for the oracle seed cache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		log.Printf("Using Redis seed cache at %s", cfg.RedisAddr)
	}

	// External clients
	oracle := infrastructure.NewBlockHashOracleWithSources(cfg.SeedAPIURLs, cfg.SeedCacheTTL, redisClient)
	gateway := infrastructure.NewNowPaymentsClient(cfg.NowPaymentsBaseURL, cfg.NowPaymentsAPIKey, cfg.NowPaymentsIPNKey)

	// Committed domain events go to NATS when configured, otherwise to the
	// log-only sink for local runs
	var eventSink interfaces.EventPublisher = infrastructure.NewLoggingEventPublisher()
	if cfg.NatsURL != "" {
		nc, err := infrastructure.ConnectNATS(cfg.NatsURL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer nc.Close()
		eventSink = infrastructure.NewNATSEventPublisher(nc)
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventSink)

	// Orchestrators
	orchestrator := application.NewSettlementOrchestrator(uowFactory, oracle, gateway, settings)

	// Start the draw worker
	drawWorker := application.NewDrawWorker(orchestrator, cfg.DrawInterval)
	stopWorker := drawWorker.Start(ctx)
	defer stopWorker()

	// Wait for context cancellation
	log.Printf("Settlement engine is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down...")

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
