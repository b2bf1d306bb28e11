package polymarket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polyagent/internal/domain"
)

const (
	gammaMarketsPath = "/markets"
	gammaPageSize    = 100 // máximo de Gamma por página
)

// Scanner implementa ports.MarketProvider sobre la API de Gamma.
type Scanner struct {
	client       *Client
	maxMarkets   int
	minLiquidity float64
}

// NewScanner crea un Scanner. maxMarkets limita el total escaneado y
// minLiquidity descarta mercados sin liquidez suficiente.
func NewScanner(client *Client, maxMarkets int, minLiquidity float64) *Scanner {
	if maxMarkets <= 0 {
		maxMarkets = 1000
	}
	return &Scanner{client: client, maxMarkets: maxMarkets, minLiquidity: minLiquidity}
}

// ScanMarkets devuelve los mercados activos ordenados por volumen 24h.
// Pagina con limit/offset hasta agotar resultados o llegar a maxMarkets.
// Un fallo a mitad de paginación devuelve lo acumulado hasta entonces.
func (s *Scanner) ScanMarkets(ctx context.Context) ([]domain.Market, error) {
	var markets []domain.Market
	offset := 0

	for len(markets) < s.maxMarkets {
		url := fmt.Sprintf("%s%s?limit=%d&offset=%d&active=true&closed=false&order=volume24hr&ascending=false",
			s.client.gammaBase, gammaMarketsPath, gammaPageSize, offset)

		var batch []gammaMarket
		if err := s.client.get(ctx, s.client.gammaLimiter, url, &batch); err != nil {
			if len(markets) > 0 {
				slog.Warn("gamma scan interrupted, returning partial results",
					"collected", len(markets), "offset", offset, "err", err)
				break
			}
			return nil, fmt.Errorf("gamma.ScanMarkets: %w", err)
		}

		if len(batch) == 0 {
			break
		}

		for _, raw := range batch {
			m, ok := mapGammaMarket(raw)
			if !ok {
				continue
			}
			if m.Liquidity < s.minLiquidity {
				continue
			}
			markets = append(markets, m)
		}

		offset += gammaPageSize
		slog.Debug("gamma scan page", "fetched", len(batch), "total", len(markets))
	}

	slog.Info("gamma scan complete", "markets", len(markets))
	return markets, nil
}
