package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/polyagent/internal/adapters/storage"
	"github.com/alejandrodnm/polyagent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	s, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleTrade(executedAt time.Time) domain.TradeAudit {
	return domain.TradeAudit{
		ID:          "trade-1",
		Cycle:       3,
		ConditionID: "0xcond",
		Question:    "Will it snow in Denver?",
		Side:        "YES",
		TokenID:     "tok-yes",
		EntryPrice:  0.12,
		FairPrice:   0.25,
		Edge:        0.13,
		SizeUSD:     4.50,
		Success:     true,
		CLOBOrderID: "0xorder",
		FillPrice:   0.12,
		ExecutedAt:  executedAt,
	}
}

func TestStorage_SaveCycle(t *testing.T) {
	s := newTestStorage(t)

	err := s.SaveCycle(context.Background(), domain.CycleAudit{
		Cycle:         1,
		ScannedAt:     time.Now().UTC(),
		Markets:       150,
		Candidates:    80,
		Mispricings:   4,
		Signals:       2,
		TradesOK:      1,
		TradesFailed:  1,
		APICostUSD:    0.034,
		BankrollAfter: 48.12,
	})
	require.NoError(t, err)
}

func TestStorage_SaveAndGetTrades(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.SaveTrade(ctx, sampleTrade(now)))

	failed := sampleTrade(now.Add(time.Minute))
	failed.ID = "trade-2"
	failed.Success = false
	failed.CLOBOrderID = ""
	failed.Error = "slippage: best_ask=0.1400 > max=0.1260"
	require.NoError(t, s.SaveTrade(ctx, failed))

	trades, err := s.GetTrades(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, trades, 2)

	// Más recientes primero.
	assert.Equal(t, "trade-2", trades[0].ID)
	assert.False(t, trades[0].Success)
	assert.Empty(t, trades[0].CLOBOrderID)
	assert.Contains(t, trades[0].Error, "slippage")

	assert.Equal(t, "trade-1", trades[1].ID)
	assert.True(t, trades[1].Success)
	assert.Equal(t, "0xorder", trades[1].CLOBOrderID)
	assert.InDelta(t, 0.12, trades[1].EntryPrice, 1e-9)
	assert.InDelta(t, 4.50, trades[1].SizeUSD, 1e-9)
	assert.Equal(t, now, trades[1].ExecutedAt)
}

func TestStorage_GetTradesEmptyRange(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SaveTrade(ctx, sampleTrade(now)))

	trades, err := s.GetTrades(ctx, now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestStorage_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.db")
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	s, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveTrade(ctx, sampleTrade(now)))
	require.NoError(t, s.Close())

	reopened, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	defer reopened.Close()

	trades, err := reopened.GetTrades(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "trade-1", trades[0].ID)
}
