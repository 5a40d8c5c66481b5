package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	app_service "laundering-ring-detector/internal/application/service"
	"laundering-ring-detector/internal/domain/analysis"
	"laundering-ring-detector/internal/domain/entity"
	domain_service "laundering-ring-detector/internal/domain/service"
	"laundering-ring-detector/internal/infrastructure/config"
	"laundering-ring-detector/internal/infrastructure/database"
	"laundering-ring-detector/internal/infrastructure/health"
	"laundering-ring-detector/internal/infrastructure/logger"
	"laundering-ring-detector/internal/infrastructure/messaging"
	"laundering-ring-detector/internal/infrastructure/metrics"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.NewLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	// Create FX application
	app := fx.New(
		// Provide dependencies
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.NATS),
		fx.Supply(&cfg.Neo4J),
		fx.Supply(&cfg.Metrics),
		fx.Supply(cfg.Analysis),
		fx.Provide(func() *zap.Logger { return log.Logger }),

		// Infrastructure providers
		fx.Provide(
			database.NewNeo4JClient,
			database.NewNeo4JTransactionRepository,
			messaging.NewNATSServer,
			metrics.NewMetrics,
			health.NewServer,
		),

		// Domain services
		fx.Provide(
			analysis.NewEngine,
		),

		// Application providers
		fx.Provide(
			app_service.NewAnalysisApplicationService,
		),

		// Lifecycle hooks
		fx.Invoke(startAnalyzer),
		fx.Invoke(startHealthServer),

		// Configure logging
		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	// Start the application
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		os.Exit(1)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	// Stop the application
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
}

// startAnalyzer connects the transports and starts the request workers
func startAnalyzer(
	lifecycle fx.Lifecycle,
	server *messaging.NATSServer,
	analysisService domain_service.AnalysisService,
	neo4jClient *database.Neo4JClient,
	log *zap.Logger,
	cfg *config.Config,
) {
	workCtx, cancelWork := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting analyzer service...")

			if err := neo4jClient.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to Neo4J: %w", err)
			}

			log.Info("NATS Configuration",
				zap.String("url", cfg.NATS.URL),
				zap.String("subject", server.Subject()),
				zap.String("queue_group", cfg.NATS.QueueGroup),
				zap.Bool("enabled", cfg.NATS.Enabled),
			)

			if err := server.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}

			// Start worker pool
			for i := 0; i < cfg.App.WorkerPoolSize; i++ {
				wg.Add(1)
				go func(workerID int) {
					defer wg.Done()
					processRequests(workCtx, workerID, server.Requests(), analysisService, log, cfg.NATS.RequestTimeout)
				}(i)
			}

			log.Info("Analyzer service started successfully", zap.Int("workers", cfg.App.WorkerPoolSize))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping analyzer service...")
			err := server.Disconnect()
			cancelWork()
			wg.Wait()
			if cerr := neo4jClient.Close(ctx); cerr != nil {
				log.Error("Failed to close Neo4J connection", zap.Error(cerr))
			}
			return err
		},
	})
}

// startHealthServer starts the health check server
func startHealthServer(
	lifecycle fx.Lifecycle,
	server *health.Server,
	nats *messaging.NATSServer,
	neo4jClient *database.Neo4JClient,
	cfg *config.Config,
) {
	if cfg.NATS.Enabled {
		server.AddCheck("nats", func(ctx context.Context) error {
			if !nats.IsConnected() {
				return errors.New("not connected")
			}
			return nil
		})
	}
	if neo4jClient.Enabled() {
		server.AddCheck("neo4j", func(ctx context.Context) error {
			if !neo4jClient.IsConnected(ctx) {
				return errors.New("not connected")
			}
			return nil
		})
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			server.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Stop(ctx)
		},
	})
}

// processRequests serves analysis requests until the channel closes or ctx ends
func processRequests(
	ctx context.Context,
	workerID int,
	requests <-chan *messaging.PendingRequest,
	analysisService domain_service.AnalysisService,
	log *zap.Logger,
	timeout time.Duration,
) {
	log.Info("Starting analysis worker", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			return
		case pending, ok := <-requests:
			if !ok {
				return
			}
			serveRequest(ctx, workerID, pending, analysisService, log, timeout)
		}
	}
}

func serveRequest(
	ctx context.Context,
	workerID int,
	pending *messaging.PendingRequest,
	analysisService domain_service.AnalysisService,
	log *zap.Logger,
	timeout time.Duration,
) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req := pending.Request

	var (
		result *entity.AnalysisResult
		err    error
	)
	if len(req.Transactions) > 0 {
		result, err = analysisService.Analyze(ctx, req.Transactions)
	} else {
		result, err = analysisService.AnalyzeRange(ctx, *req.Range)
	}

	if err != nil {
		log.Error("Failed to serve analysis request",
			zap.Error(err),
			zap.Int("worker_id", workerID),
			zap.String("request_id", req.RequestID))
		if rerr := pending.RespondError(err); rerr != nil {
			log.Warn("Failed to send error reply", zap.Error(rerr))
		}
		return
	}

	report := app_service.BuildReport(result)
	if err := pending.Respond(report); err != nil {
		log.Error("Failed to send analysis reply",
			zap.Error(err),
			zap.String("request_id", req.RequestID))
		return
	}

	log.Info("Served analysis request",
		zap.Int("worker_id", workerID),
		zap.String("request_id", req.RequestID),
		zap.Int("rings", result.Summary.RingsDetected),
		zap.Duration("queued_for", time.Since(pending.ReceivedAt)))
}
