package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/alejandrodnm/polyagent/internal/domain"
	"github.com/alejandrodnm/polyagent/internal/ports"
)

// ExecutorConfig holds the execution guard knobs.
type ExecutorConfig struct {
	MaxSlippagePct float64 // tolerated best-ask drift above the signal's entry price
}

// TradeExecutor turns trade signals into Fill-or-Kill market orders, guarded
// by a pre-trade slippage check. Execution failures are captured into the
// ExecutionResult, never returned as errors.
type TradeExecutor struct {
	books     ports.BookProvider
	submitter ports.OrderSubmitter
	cfg       ExecutorConfig
}

// NewTradeExecutor creates an executor over the given connector ports.
func NewTradeExecutor(books ports.BookProvider, submitter ports.OrderSubmitter, cfg ExecutorConfig) *TradeExecutor {
	if cfg.MaxSlippagePct <= 0 {
		cfg.MaxSlippagePct = 0.05
	}
	return &TradeExecutor{books: books, submitter: submitter, cfg: cfg}
}

// Execute runs one signal through the guard-then-submit protocol:
// fetch the book, reject illiquid or slipped markets before any order is
// sent, then submit a FOK market buy and interpret the response.
func (te *TradeExecutor) Execute(ctx context.Context, signal domain.TradeSignal) domain.ExecutionResult {
	slog.Info("placing order",
		"question", truncate(signal.Estimate.Market.Question, 50),
		"side", signal.Side,
		"size_usd", signal.PositionSizeUSD,
	)

	book, err := te.books.FetchOrderBook(ctx, signal.TokenID)
	if err != nil {
		return failure(signal, fmt.Sprintf("order book fetch: %v", err))
	}
	if !book.HasAsks() {
		return failure(signal, "no asks in order book — market may be illiquid")
	}

	bestAsk := book.BestAsk()
	maxAcceptable := math.Min(signal.EntryPrice*(1+te.cfg.MaxSlippagePct), 0.99)
	if bestAsk > maxAcceptable {
		return failure(signal, fmt.Sprintf("slippage: best_ask=%.4f > max=%.4f", bestAsk, maxAcceptable))
	}

	// Una orden FOK más grande que la profundidad aceptable moriría en el
	// CLOB o se llenaría a precios por encima del guard. Mejor no enviarla.
	if depth := book.AskDepthUSDC(maxAcceptable); depth < signal.PositionSizeUSD {
		return failure(signal, fmt.Sprintf("insufficient depth: $%.2f available under max=%.4f, need $%.2f",
			depth, maxAcceptable, signal.PositionSizeUSD))
	}

	receipt, err := te.submitter.SubmitMarketOrder(ctx, signal.TokenID, signal.PositionSizeUSD)
	if err != nil {
		return failure(signal, err.Error())
	}
	if !receipt.Accepted() {
		return failure(signal, fmt.Sprintf("rejected: %s", truncate(receipt.Raw, 200)))
	}

	slog.Info("order filled",
		"order_id", receipt.OrderID,
		"question", truncate(signal.Estimate.Market.Question, 50),
		"size_usd", signal.PositionSizeUSD,
		"approx_price", bestAsk,
	)

	return domain.ExecutionResult{
		Signal:  signal,
		Success: true,
		OrderID: receipt.OrderID,
		// Approximate — the true fill may differ slightly; advisory only.
		FillPrice:  bestAsk,
		FillAmount: signal.PositionSizeUSD,
	}
}

// ExecuteBatch executes signals strictly sequentially so a systemic failure
// is detected before committing further capital. After a failure that looks
// systemic (auth, network, rate limit) the remainder of the batch is
// abandoned; local failures (illiquidity, slippage) just move on.
func (te *TradeExecutor) ExecuteBatch(ctx context.Context, signals []domain.TradeSignal) []domain.ExecutionResult {
	results := make([]domain.ExecutionResult, 0, len(signals))
	for _, signal := range signals {
		result := te.Execute(ctx, signal)
		results = append(results, result)

		if !result.Success && IsSystemicError(result.Error) {
			slog.Error("batch aborted on systemic error", "reason", truncate(result.Error, 100))
			break
		}
	}
	return results
}

// systemicIndicators marks error text that suggests the account or the
// connection itself cannot reliably trade, not just one market.
var systemicIndicators = []string{
	"auth",
	"unauthorized",
	"forbidden",
	"network",
	"connection",
	"timeout",
	"rate",
	"429",
}

// IsSystemicError reports whether the error text suggests a failure that
// warrants abandoning the rest of the batch.
func IsSystemicError(errText string) bool {
	lower := strings.ToLower(errText)
	for _, ind := range systemicIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

func failure(signal domain.TradeSignal, errText string) domain.ExecutionResult {
	slog.Warn("order rejected",
		"question", truncate(signal.Estimate.Market.Question, 50),
		"error", truncate(errText, 100),
	)
	return domain.ExecutionResult{Signal: signal, Success: false, Error: errText}
}
