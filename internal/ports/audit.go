package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/polyagent/internal/domain"
)

// AuditStore persiste el histórico consultable de ciclos y trades.
// No es la fuente de verdad del estado del agente — eso es el state file —
// sino el registro que el flat file no puede ofrecer como consulta.
type AuditStore interface {
	// SaveCycle persiste el resumen de un ciclo completado.
	SaveCycle(ctx context.Context, c domain.CycleAudit) error

	// SaveTrade persiste un intento de ejecución (éxito o fallo).
	SaveTrade(ctx context.Context, t domain.TradeAudit) error

	// GetTrades devuelve los trades registrados en el rango de tiempo dado.
	GetTrades(ctx context.Context, from, to time.Time) ([]domain.TradeAudit, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}

// Notifier presenta el resultado de cada ciclo al operador.
type Notifier interface {
	// NotifyCycle muestra las señales generadas y los resultados de ejecución.
	NotifyCycle(ctx context.Context, signals []domain.TradeSignal, results []domain.ExecutionResult) error
}
