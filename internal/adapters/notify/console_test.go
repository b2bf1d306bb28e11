package notify_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/alejandrodnm/polyagent/internal/adapters/notify"
	"github.com/alejandrodnm/polyagent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSignal(question, tokenID string, size float64) domain.TradeSignal {
	return domain.TradeSignal{
		Estimate: domain.FairValueEstimate{
			Market: domain.Market{ConditionID: "0xtest", Question: question},
		},
		Side:            domain.SideYes,
		TokenID:         tokenID,
		EntryPrice:      0.40,
		FairPrice:       0.60,
		Edge:            0.20,
		CappedFraction:  0.06,
		PositionSizeUSD: size,
		ExpectedValue:   size * 0.5,
	}
}

func TestConsole_NoSignals(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	require.NoError(t, n.NotifyCycle(context.Background(), nil, nil))
	assert.Contains(t, buf.String(), "no trades this cycle")
}

func TestConsole_CompactOutput(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	signals := []domain.TradeSignal{
		makeSignal("Will it rain in Madrid tomorrow?", "tok-1", 3.50),
		makeSignal("Will BTC hit 100k?", "tok-2", 2.00),
	}
	results := []domain.ExecutionResult{
		{Signal: signals[0], Success: true, OrderID: "0xorder"},
		{Signal: signals[1], Success: false, Error: "slippage: best_ask=0.4500 > max=0.4200"},
	}

	require.NoError(t, n.NotifyCycle(context.Background(), signals, results))

	out := buf.String()
	assert.Contains(t, out, "2 signals")
	assert.Contains(t, out, "ok:1 fail:1")
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "$3.50")
}

func TestConsole_TableOutput(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	signals := []domain.TradeSignal{
		makeSignal("Will it rain in Madrid tomorrow?", "tok-1", 3.50),
	}
	results := []domain.ExecutionResult{
		{Signal: signals[0], Success: true, OrderID: "0xorder"},
	}

	require.NoError(t, n.NotifyCycle(context.Background(), signals, results))

	out := buf.String()
	assert.Contains(t, out, "FILLED")
	assert.Contains(t, out, "YES")
	assert.Contains(t, out, "$3.50")
	assert.Contains(t, out, "executed:1 failed:0")
}

func TestConsole_TableMarksUnexecutedSignals(t *testing.T) {
	// Una señal sin resultado (batch abortado) aparece con "-".
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	signals := []domain.TradeSignal{
		makeSignal("First?", "tok-1", 3.50),
		makeSignal("Second?", "tok-2", 2.00),
	}
	results := []domain.ExecutionResult{
		{Signal: signals[0], Success: false, Error: "api error 401: unauthorized"},
	}

	require.NoError(t, n.NotifyCycle(context.Background(), signals, results))

	out := buf.String()
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "-")
}
