package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	app_service "laundering-ring-detector/internal/application/service"
	"laundering-ring-detector/internal/domain/analysis"
	"laundering-ring-detector/internal/domain/entity"
	"laundering-ring-detector/internal/domain/repository"
	"laundering-ring-detector/internal/infrastructure/config"
	"laundering-ring-detector/internal/infrastructure/database"
	"laundering-ring-detector/internal/infrastructure/ingest"
	"laundering-ring-detector/internal/infrastructure/logger"

	"go.uber.org/zap"
)

func main() {
	var (
		input  = flag.String("input", "", "path to a transactions CSV file")
		from   = flag.String("from", "", "range start (RFC 3339), loads transactions from Neo4J")
		to     = flag.String("to", "", "range end (RFC 3339), exclusive")
		output = flag.String("out", "", "report path (default stdout)")
		pretty = flag.Bool("pretty", true, "indent the JSON report")
	)
	flag.Parse()

	if (*input == "") == (*from == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -input or -from/-to is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := run(ctx, cfg, log, *input, *from, *to)
	if err != nil {
		log.Error("Analysis failed", zap.Error(err))
		os.Exit(1)
	}

	if err := writeReport(report, *output, *pretty); err != nil {
		log.Error("Failed to write report", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Report written",
		zap.String("run_id", report.RunID),
		zap.Int("fraud_rings", report.Summary.FraudRingsDetected),
		zap.Int("suspicious_accounts", report.Summary.SuspiciousAccounts))
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, input, from, to string) (*app_service.Report, error) {
	engine, err := analysis.NewEngine(cfg.Analysis, log)
	if err != nil {
		return nil, err
	}

	if input != "" {
		reader := ingest.NewCSVReader(&cfg.Ingest, log)
		transactions, rejected, err := reader.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", input, err)
		}

		svc := app_service.NewAnalysisApplicationService(engine, nil, nil, cfg, log)
		result, err := svc.Analyze(ctx, transactions)
		if err != nil {
			return nil, err
		}
		mergeDiagnostics(result, rejected)
		return app_service.BuildReport(result), nil
	}

	window, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}

	neo4jCfg := cfg.Neo4J
	neo4jCfg.Enabled = true
	client := database.NewNeo4JClient(&neo4jCfg, log)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Neo4J: %w", err)
	}
	defer client.Close(context.Background())

	var repo repository.TransactionRepository = database.NewNeo4JTransactionRepository(client, log)
	svc := app_service.NewAnalysisApplicationService(engine, repo, nil, cfg, log)
	result, err := svc.AnalyzeRange(ctx, window)
	if err != nil {
		return nil, err
	}
	return app_service.BuildReport(result), nil
}

// mergeDiagnostics puts rows rejected by the CSV parser ahead of the ones
// rejected during validation.
func mergeDiagnostics(result *entity.AnalysisResult, rejected []entity.Diagnostic) {
	if len(rejected) == 0 {
		return
	}
	result.Diagnostics = append(rejected, result.Diagnostics...)
	result.Summary.SkippedTransactions = len(result.Diagnostics)
}

func parseRange(from, to string) (entity.TimeRange, error) {
	if from == "" || to == "" {
		return entity.TimeRange{}, errors.New("both -from and -to are required")
	}
	start, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return entity.TimeRange{}, fmt.Errorf("invalid -from: %w", err)
	}
	end, err := time.Parse(time.RFC3339, to)
	if err != nil {
		return entity.TimeRange{}, fmt.Errorf("invalid -to: %w", err)
	}
	return entity.TimeRange{From: start, To: end}, nil
}

func writeReport(report *app_service.Report, path string, pretty bool) error {
	var w io.Writer = os.Stdout
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer file.Close()
		w = file
	}

	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}
