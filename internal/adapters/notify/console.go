package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/polyagent/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyCycle imprime el resultado del ciclo en el modo configurado.
func (c *Console) NotifyCycle(_ context.Context, signals []domain.TradeSignal, results []domain.ExecutionResult) error {
	if len(signals) == 0 {
		fmt.Fprintf(c.out, "[%s] no trades this cycle\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(signals, results)
	} else {
		c.printCompact(signals, results)
	}
	return nil
}

// printCompact imprime lo esencial en una línea por ciclo.
func (c *Console) printCompact(signals []domain.TradeSignal, results []domain.ExecutionResult) {
	now := time.Now().Format("15:04:05")
	ok, failed := countResults(results)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d signals → ok:%d fail:%d", now, len(signals), ok, failed)

	shown := 0
	for _, r := range results {
		if shown >= 4 {
			break
		}
		name := compactName(r.Signal.Estimate.Market.Question, 25)
		if r.Success {
			fmt.Fprintf(&sb, " | ✓ %s %s $%.2f @%.3f",
				name, r.Signal.Side, r.Signal.PositionSizeUSD, r.Signal.EntryPrice)
		} else {
			fmt.Fprintf(&sb, " | ✗ %s (%s)", name, compactName(r.Error, 30))
		}
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa de señales y ejecuciones.
func (c *Console) printFull(signals []domain.TradeSignal, results []domain.ExecutionResult) {
	now := time.Now().Format("15:04:05")
	ok, failed := countResults(results)

	fmt.Fprintf(c.out, "\n[%s] %d signals — executed:%d failed:%d\n", now, len(signals), ok, failed)

	resultByToken := make(map[string]domain.ExecutionResult, len(results))
	for _, r := range results {
		resultByToken[r.Signal.TokenID] = r
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Side", "Entry", "Fair", "Edge", "Kelly", "Size", "EV", "Result")

	for i, sig := range signals {
		status := "-"
		if r, okRes := resultByToken[sig.TokenID]; okRes {
			if r.Success {
				status = "FILLED"
			} else {
				status = "FAIL: " + compactName(r.Error, 20)
			}
		}

		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(sig.Estimate.Market.Question, 38),
			string(sig.Side),
			fmt.Sprintf("%.3f", sig.EntryPrice),
			fmt.Sprintf("%.3f", sig.FairPrice),
			fmt.Sprintf("%+.3f", sig.Edge),
			fmt.Sprintf("%.3f", sig.CappedFraction),
			fmt.Sprintf("$%.2f", sig.PositionSizeUSD),
			fmt.Sprintf("$%+.2f", sig.ExpectedValue),
			status,
		)
	}

	table.Render()

	fmt.Fprintln(c.out, "  Edge = fair - entry | Kelly = fracción tras cap | EV = valor esperado de la posición")
}

// --- helpers ---

func countResults(results []domain.ExecutionResult) (ok, failed int) {
	for _, r := range results {
		if r.Success {
			ok++
		} else {
			failed++
		}
	}
	return
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
