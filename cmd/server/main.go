package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jdewinter/Realized-Performance-Backend/internal/api"
	"github.com/jdewinter/Realized-Performance-Backend/internal/config"
	"github.com/jdewinter/Realized-Performance-Backend/internal/database"
	"github.com/jdewinter/Realized-Performance-Backend/internal/marketdata"
	"github.com/jdewinter/Realized-Performance-Backend/internal/repository"
	"github.com/jdewinter/Realized-Performance-Backend/internal/scheduler"
	"github.com/jdewinter/Realized-Performance-Backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Create repositories
	transactionRepo := repository.NewTransactionRepository(db)
	flowRepo := repository.NewFlowRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)

	// Create services
	systemService := service.NewSystemService(db)
	aggregateService := service.NewAggregateService(
		service.NewTimelineService(),
		service.NewValuationService(),
		service.NewFlowService(),
	)
	performanceService := service.NewPerformanceService(
		transactionRepo,
		flowRepo,
		priceRepo,
		snapshotRepo,
		aggregateService,
		service.NewReturnService(cfg.Engine.ExtremeReturnThreshold),
		service.NewBenchmarkService(cfg.Engine.MinBenchmarkOverlap),
		cfg.Engine,
	)

	// Start the benchmark refresh job
	refresher := scheduler.New(marketdata.NewFinanceClient(), priceRepo, []string{cfg.Engine.DefaultBenchmark})
	if err := refresher.Start(cfg.Engine.RefreshCronSpec); err != nil {
		log.Fatalf("Failed to start benchmark refresh scheduler: %v", err)
	}
	defer refresher.Stop()

	// Create router
	router := api.NewRouter(systemService, performanceService, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
