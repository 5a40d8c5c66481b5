package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"laundering-ring-detector/internal/domain/entity"
	"laundering-ring-detector/internal/infrastructure/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Engine runs graph construction, pattern detection, deduplication and
// scoring over one batch of transactions. It holds no per-run state; every
// call to Analyze works on a fresh graph.
type Engine struct {
	cfg       Config
	detectors []Detector
	scorer    *RiskScorer
	logger    *logger.Logger
}

// NewEngine creates a new analysis engine
func NewEngine(cfg Config, logger *logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg: cfg,
		detectors: []Detector{
			NewCycleDetector(cfg),
			NewStructuringDetector(cfg),
			NewLayeringDetector(cfg),
		},
		scorer: NewRiskScorer(cfg),
		logger: logger.WithComponent("analysis-engine"),
	}, nil
}

// Config returns the engine parameters
func (e *Engine) Config() Config { return e.cfg }

// Analyze builds the graph, runs all detectors in parallel and compiles the
// scored result. Records are expected to be well formed; see the
// application layer for boundary validation.
func (e *Engine) Analyze(ctx context.Context, txs []entity.Transaction) (*entity.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis not started: %w", err)
	}
	start := time.Now()

	g := BuildGraph(txs)
	e.logger.Debug("Graph built",
		zap.Int("accounts", g.Len()),
		zap.Int("transactions", len(g.Transactions)))

	rings, truncated := e.detect(ctx, g)
	rings = DeduplicateRings(rings)
	e.scorer.Score(g, rings)

	result := compile(g, rings, truncated)
	result.Summary.ElapsedSeconds = time.Since(start).Seconds()

	e.logger.Info("Analysis completed",
		zap.Int("accounts", result.Summary.AccountsAnalyzed),
		zap.Int("flagged", result.Summary.AccountsFlagged),
		zap.Int("rings", result.Summary.RingsDetected),
		zap.Strings("truncated_detectors", truncated),
		zap.Float64("elapsed_seconds", result.Summary.ElapsedSeconds))

	return result, nil
}

// detect runs every detector over the shared read-only graph and joins the
// results in detector order.
func (e *Engine) detect(ctx context.Context, g *Graph) ([]*entity.FraudRing, []string) {
	if e.cfg.DetectorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.DetectorTimeout)
		defer cancel()
	}

	found := make([][]*entity.FraudRing, len(e.detectors))
	cut := make([]bool, len(e.detectors))

	var group errgroup.Group
	for i, d := range e.detectors {
		i, d := i, d
		group.Go(func() error {
			begin := time.Now()
			found[i], cut[i] = d.Detect(ctx, g)
			e.logger.Debug("Detector finished",
				zap.String("detector", d.Name()),
				zap.Int("rings", len(found[i])),
				zap.Bool("truncated", cut[i]),
				zap.Duration("took", time.Since(begin)))
			return nil
		})
	}
	_ = group.Wait()

	var rings []*entity.FraudRing
	var truncated []string
	for i, d := range e.detectors {
		for _, ring := range found[i] {
			if !e.wellFormed(ring) {
				e.logger.Error("Dropping malformed ring",
					zap.String("detector", d.Name()),
					zap.String("ring_id", ring.RingID),
					zap.Int("members", len(ring.MemberIDs)))
				continue
			}
			rings = append(rings, ring)
		}
		if cut[i] {
			e.logger.Warn("Detector search truncated, results are partial", zap.String("detector", d.Name()))
			truncated = append(truncated, d.Name())
		}
	}
	return rings, truncated
}

// wellFormed checks the pattern and the distinct member count of a ring
func (e *Engine) wellFormed(ring *entity.FraudRing) bool {
	if !ring.PatternType.IsValid() {
		return false
	}
	return len(canonicalMembers(ring.MemberIDs)) >= ring.PatternType.MinMembers(e.cfg.FanThreshold)
}

func compile(g *Graph, rings []*entity.FraudRing, truncated []string) *entity.AnalysisResult {
	ranked := make([]*entity.AccountNode, 0)
	flagged, whitelisted := 0, 0
	for _, node := range g.Nodes() {
		if node.Flagged {
			flagged++
		}
		if node.Whitelisted {
			whitelisted++
		}
		if node.Flagged || node.Whitelisted {
			ranked = append(ranked, node)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].RiskScore != ranked[j].RiskScore {
			return ranked[i].RiskScore > ranked[j].RiskScore
		}
		return ranked[i].ID < ranked[j].ID
	})

	var volume float64
	for _, tx := range g.Transactions {
		volume += tx.Amount
	}

	if rings == nil {
		rings = []*entity.FraudRing{}
	}

	return &entity.AnalysisResult{
		Transactions:       g.Transactions,
		SuspiciousAccounts: ranked,
		FraudRings:         rings,
		Summary: entity.AnalysisSummary{
			AccountsAnalyzed:        g.Len(),
			AccountsFlagged:         flagged,
			RingsDetected:           len(rings),
			TotalTransactions:       len(g.Transactions),
			TotalVolume:             volume,
			WhitelistedAccountCount: whitelisted,
			TruncatedDetectors:      truncated,
		},
	}
}
