package storage

// sqlite.go — ledger de auditoría del agente.
//
// Estrategia:
//   - `cycles`: resumen ligero por ciclo. Siempre 1 fila por ciclo.
//   - `trades`: UNA fila por intento de ejecución, éxito o fallo. El fallo
//     también es señal — las razones de rechazo alimentan el post-mortem.
//   - Prune automático al arrancar: ciclos > 30d. Los trades se conservan
//     completos, son pocos y valen su peso en disco.
//
// El estado autoritativo del agente (bankroll, vida) vive en el fichero
// JSON del paquete funding; esta DB es solo histórico consultable.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/polyagent/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Resumen ligero por ciclo
CREATE TABLE IF NOT EXISTS cycles (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    cycle          INTEGER  NOT NULL,
    scanned_at     DATETIME NOT NULL,
    markets        INTEGER  NOT NULL DEFAULT 0,
    candidates     INTEGER  NOT NULL DEFAULT 0,
    mispricings    INTEGER  NOT NULL DEFAULT 0,
    signals        INTEGER  NOT NULL DEFAULT 0,
    trades_ok      INTEGER  NOT NULL DEFAULT 0,
    trades_failed  INTEGER  NOT NULL DEFAULT 0,
    api_cost_usd   REAL     NOT NULL DEFAULT 0,
    bankroll_after REAL     NOT NULL DEFAULT 0
);

-- Una fila por intento de ejecución
CREATE TABLE IF NOT EXISTS trades (
    id            TEXT PRIMARY KEY,
    cycle         INTEGER  NOT NULL,
    condition_id  TEXT     NOT NULL,
    question      TEXT,
    side          TEXT     NOT NULL,
    token_id      TEXT     NOT NULL,
    entry_price   REAL     NOT NULL DEFAULT 0,
    fair_price    REAL     NOT NULL DEFAULT 0,
    edge          REAL     NOT NULL DEFAULT 0,
    size_usd      REAL     NOT NULL DEFAULT 0,
    success       INTEGER  NOT NULL DEFAULT 0,
    clob_order_id TEXT,
    fill_price    REAL     NOT NULL DEFAULT 0,
    error         TEXT,
    executed_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cycles_at     ON cycles(scanned_at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_at     ON trades(executed_at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_cond   ON trades(condition_id);
`

const retentionCycles = 30 * 24 * time.Hour

// SQLiteStorage implementa ports.AuditStore usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia ciclos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveCycle persiste el resumen de un ciclo.
func (s *SQLiteStorage) SaveCycle(ctx context.Context, c domain.CycleAudit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cycles
			(cycle, scanned_at, markets, candidates, mispricings, signals,
			 trades_ok, trades_failed, api_cost_usd, bankroll_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Cycle, c.ScannedAt.UTC().Format(time.RFC3339), c.Markets, c.Candidates, c.Mispricings,
		c.Signals, c.TradesOK, c.TradesFailed, c.APICostUSD, c.BankrollAfter,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveCycle: %w", err)
	}
	return nil
}

// SaveTrade persiste un intento de ejecución.
func (s *SQLiteStorage) SaveTrade(ctx context.Context, t domain.TradeAudit) error {
	success := 0
	if t.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(id, cycle, condition_id, question, side, token_id, entry_price,
			 fair_price, edge, size_usd, success, clob_order_id, fill_price,
			 error, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Cycle, t.ConditionID, t.Question, t.Side, t.TokenID,
		t.EntryPrice, t.FairPrice, t.Edge, t.SizeUSD, success,
		t.CLOBOrderID, t.FillPrice, t.Error, t.ExecutedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveTrade: %w", err)
	}
	return nil
}

// GetTrades devuelve los trades ejecutados en el rango dado,
// más recientes primero.
func (s *SQLiteStorage) GetTrades(ctx context.Context, from, to time.Time) ([]domain.TradeAudit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cycle, condition_id, question, side, token_id, entry_price,
		       fair_price, edge, size_usd, success, clob_order_id, fill_price,
		       error, executed_at
		FROM trades
		WHERE executed_at BETWEEN ? AND ?
		ORDER BY executed_at DESC
	`, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("storage.GetTrades: query: %w", err)
	}
	defer rows.Close()

	var trades []domain.TradeAudit
	for rows.Next() {
		var t domain.TradeAudit
		var success int
		var orderID, errMsg sql.NullString
		var executedAt string

		if err := rows.Scan(
			&t.ID, &t.Cycle, &t.ConditionID, &t.Question, &t.Side, &t.TokenID,
			&t.EntryPrice, &t.FairPrice, &t.Edge, &t.SizeUSD, &success,
			&orderID, &t.FillPrice, &errMsg, &executedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.GetTrades: scan row: %w", err)
		}

		t.Success = success == 1
		t.CLOBOrderID = orderID.String
		t.Error = errMsg.String
		t.ExecutedAt, _ = time.Parse(time.RFC3339, executedAt)
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina ciclos antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionCycles).Format(time.RFC3339)
	s.db.ExecContext(ctx, `DELETE FROM cycles WHERE scanned_at < ?`, cutoff)
}
