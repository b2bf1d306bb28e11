package agent

import (
	"math"
	"sort"

	"github.com/alejandrodnm/polyagent/internal/domain"
)

// prefilterMarkets reduce el universo escaneado a los candidatos más
// prometedores antes de gastar presupuesto de estimación. Heurística:
// prioriza volumen, precios extremos y categorías donde hay ventaja
// informativa; descarta precios casi resueltos.
func prefilterMarkets(markets []domain.Market, maxCandidates int) []domain.Market {
	type scoredMarket struct {
		score  float64
		market domain.Market
	}

	scored := make([]scoredMarket, 0, len(markets))
	for _, m := range markets {
		// Precios casi resueltos o polvo: fuera.
		if m.YesPrice < 0.02 || m.YesPrice > 0.98 {
			continue
		}

		score := math.Min(m.Volume24h/10000, 5)
		if m.YesPrice < 0.15 || m.YesPrice > 0.85 {
			score += 3
		}
		if m.YesPrice < 0.05 || m.YesPrice > 0.95 {
			score += 5
		}
		switch m.Category {
		case "weather":
			score += 4
		case "sports":
			score += 3
		case "crypto":
			score += 2
		}
		scored = append(scored, scoredMarket{score: score, market: m})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > maxCandidates {
		scored = scored[:maxCandidates]
	}
	out := make([]domain.Market, len(scored))
	for i, s := range scored {
		out[i] = s.market
	}
	return out
}
