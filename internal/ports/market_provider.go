package ports

import (
	"context"

	"github.com/alejandrodnm/polyagent/internal/domain"
)

// MarketProvider obtiene snapshots de mercados activos desde Gamma.
type MarketProvider interface {
	// ScanMarkets devuelve los mercados activos y líquidos, ordenados por
	// volumen 24h descendente. Pagina automáticamente hasta maxMarkets.
	ScanMarkets(ctx context.Context) ([]domain.Market, error)
}
