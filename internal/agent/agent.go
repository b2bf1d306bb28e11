package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyagent/internal/domain"
	"github.com/alejandrodnm/polyagent/internal/engine"
	"github.com/alejandrodnm/polyagent/internal/funding"
	"github.com/alejandrodnm/polyagent/internal/ports"
)

const (
	// syncEveryNCycles marca cada cuántos ciclos se reconcilia el bankroll
	// con el balance on-chain (~1 hora con el intervalo por defecto).
	syncEveryNCycles = 6

	// cycleErrorBackoff is the wait after a failed cycle before retrying.
	cycleErrorBackoff = 60 * time.Second
)

// Config holds configuration for the trading agent loop.
type Config struct {
	ScanInterval  time.Duration
	MaxCandidates int
}

// CycleResult contains everything produced by one scan→estimate→trade cycle.
type CycleResult struct {
	MarketsScanned int
	Candidates     int
	Mispricings    int
	Signals        []domain.TradeSignal
	Results        []domain.ExecutionResult
	APICostUSD     float64
	BankrollAfter  float64
	Elapsed        time.Duration
	Dead           bool
}

// Agent orquesta el ciclo completo del agente: death check, escaneo,
// estimación de fair value, detección de mispricings, sizing, ejecución y
// contabilidad de costes.
type Agent struct {
	markets   ports.MarketProvider
	estimator ports.Estimator
	detector  *engine.MispricingDetector
	sizer     *engine.KellyPositionSizer
	executor  *engine.TradeExecutor
	funding   *funding.Manager
	death     *funding.DeathCheck
	audit     ports.AuditStore
	notifier  ports.Notifier
	cfg       Config
}

// New creates the agent. audit and notifier may be nil.
func New(
	markets ports.MarketProvider,
	estimator ports.Estimator,
	detector *engine.MispricingDetector,
	sizer *engine.KellyPositionSizer,
	executor *engine.TradeExecutor,
	fundingMgr *funding.Manager,
	death *funding.DeathCheck,
	audit ports.AuditStore,
	notifier ports.Notifier,
	cfg Config,
) *Agent {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 80
	}
	return &Agent{
		markets:   markets,
		estimator: estimator,
		detector:  detector,
		sizer:     sizer,
		executor:  executor,
		funding:   fundingMgr,
		death:     death,
		audit:     audit,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// RunOnce executes one complete cycle. A dead agent returns a result with
// Dead=true and no error; transient failures return an error so the caller
// can back off and retry.
func (a *Agent) RunOnce(ctx context.Context) (*CycleResult, error) {
	start := time.Now()
	costBefore := a.estimator.APICostUSD()
	result := &CycleResult{}

	// 1. Death gate: nothing runs once the agent is dead.
	if a.death.IsDead() {
		result.Dead = true
		result.BankrollAfter = a.funding.Bankroll()
		return result, nil
	}

	// 2. Scan markets.
	markets, err := a.markets.ScanMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("agent.RunOnce: scan: %w", err)
	}
	result.MarketsScanned = len(markets)
	if len(markets) == 0 {
		slog.Warn("cycle: no markets returned by scan")
		return a.finishCycle(ctx, result, costBefore, start)
	}
	slog.Info("cycle: markets scanned", "count", len(markets))

	// 3. Pre-filter before spending estimation money.
	candidates := prefilterMarkets(markets, a.cfg.MaxCandidates)
	result.Candidates = len(candidates)
	slog.Info("cycle: candidates selected", "count", len(candidates))

	// 4. Fair value estimates.
	estimates, err := a.estimator.EstimateBatch(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("agent.RunOnce: estimate: %w", err)
	}
	slog.Info("cycle: estimates received", "count", len(estimates))

	// 5. Mispricing detection.
	mispriced := a.detector.FindSignals(estimates)
	result.Mispricings = len(mispriced)
	slog.Info("cycle: mispricings found", "count", len(mispriced))

	// 6. Position sizing against the current bankroll.
	a.sizer.UpdateBankroll(a.funding.Bankroll())
	signals := a.sizer.SizeBatch(mispriced)
	result.Signals = signals
	slog.Info("cycle: signals sized", "count", len(signals))

	// 7. Execution.
	if len(signals) > 0 {
		result.Results = a.executor.ExecuteBatch(ctx, signals)
		a.recordTrades(result.Results)
	} else {
		slog.Info("cycle: no actionable signals")
	}

	return a.finishCycle(ctx, result, costBefore, start)
}

// finishCycle charges the cycle's metered API cost, reconciles with the
// chain when due, and writes the audit record. It always runs, even on
// cycles that found nothing.
func (a *Agent) finishCycle(ctx context.Context, result *CycleResult, costBefore float64, start time.Time) (*CycleResult, error) {
	cycleCost := a.estimator.APICostUSD() - costBefore
	a.funding.RecordCycleCost(cycleCost)
	result.APICostUSD = cycleCost

	st := a.funding.State()
	if st.CyclesCompleted%syncEveryNCycles == 0 {
		a.funding.SyncBalanceFromChain(ctx)
	}

	result.BankrollAfter = a.funding.Bankroll()
	result.Elapsed = time.Since(start)

	a.saveAudit(ctx, result)
	if a.notifier != nil {
		if err := a.notifier.NotifyCycle(ctx, result.Signals, result.Results); err != nil {
			slog.Warn("cycle: notify failed", "err", err)
		}
	}

	slog.Info("cycle: complete",
		"elapsed", result.Elapsed.Round(100*time.Millisecond),
		"markets", result.MarketsScanned,
		"analyzed", result.Candidates,
		"mispricings", result.Mispricings,
		"trades", len(result.Signals),
		"api_cost", fmt.Sprintf("$%.4f", cycleCost),
		"bankroll", fmt.Sprintf("$%.2f", result.BankrollAfter),
	)
	return result, nil
}

// recordTrades books every execution into the funding ledger and audit
// store. Realized PnL is unknown at entry, so trades book at zero PnL;
// reconciliation trues the bankroll up once positions resolve.
func (a *Agent) recordTrades(results []domain.ExecutionResult) {
	for _, res := range results {
		if res.Success {
			a.funding.RecordTrade(0, 0)
			slog.Info("cycle: trade executed",
				"question", truncate(res.Signal.Estimate.Market.Question, 50),
				"side", res.Signal.Side,
				"size", fmt.Sprintf("$%.2f", res.Signal.PositionSizeUSD),
				"order_id", res.OrderID,
			)
		} else {
			slog.Warn("cycle: trade failed",
				"question", truncate(res.Signal.Estimate.Market.Question, 50),
				"error", truncate(res.Error, 100),
			)
		}
	}
}

func (a *Agent) saveAudit(ctx context.Context, result *CycleResult) {
	if a.audit == nil {
		return
	}
	st := a.funding.State()
	ok, failed := 0, 0
	for _, r := range result.Results {
		if r.Success {
			ok++
		} else {
			failed++
		}
	}
	err := a.audit.SaveCycle(ctx, domain.CycleAudit{
		Cycle:         st.CyclesCompleted,
		ScannedAt:     time.Now().UTC(),
		Markets:       result.MarketsScanned,
		Candidates:    result.Candidates,
		Mispricings:   result.Mispricings,
		Signals:       len(result.Signals),
		TradesOK:      ok,
		TradesFailed:  failed,
		APICostUSD:    result.APICostUSD,
		BankrollAfter: result.BankrollAfter,
	})
	if err != nil {
		slog.Warn("cycle: audit save failed", "err", err)
	}
	for _, r := range result.Results {
		if err := a.audit.SaveTrade(ctx, domain.NewTradeAudit(st.CyclesCompleted, r)); err != nil {
			slog.Warn("cycle: trade audit save failed", "err", err)
		}
	}
}

// Run loops cycles until the context is cancelled or the agent dies.
// Transient cycle errors back off and retry instead of killing the loop.
func (a *Agent) Run(ctx context.Context) error {
	for {
		if !a.funding.CanAffordCycle() {
			slog.Warn("agent: low funds", "bankroll", fmt.Sprintf("$%.2f", a.funding.Bankroll()))
		}

		result, err := a.RunOnce(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("agent: cycle error", "err", err)
			if !sleepCtx(ctx, cycleErrorBackoff) {
				return nil
			}
			continue
		case result.Dead:
			slog.Error("agent: dead, terminating loop", "bankroll", fmt.Sprintf("$%.2f", result.BankrollAfter))
			fmt.Println(a.funding.Summary())
			fmt.Println(a.death.HealthReport())
			return nil
		}

		slog.Info("agent: sleeping", "seconds", int(a.cfg.ScanInterval.Seconds()))
		if !sleepCtx(ctx, a.cfg.ScanInterval) {
			return nil
		}
	}
}

// sleepCtx sleeps in 1s slices so shutdown stays responsive. Returns false
// when the context was cancelled during the wait.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Second):
		}
	}
	return true
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
