package ports

import (
	"context"

	"github.com/alejandrodnm/polyagent/internal/domain"
)

// Estimator produces fair value estimates for markets. The reasoning lives
// behind this boundary — the engine only ever sees the resulting
// (probability, confidence, reasoning) triple.
type Estimator interface {
	// EstimateBatch returns an estimate per market it could price.
	// Markets it fails on are skipped, not errored.
	EstimateBatch(ctx context.Context, markets []domain.Market) ([]domain.FairValueEstimate, error)

	// APICostUSD returns the cumulative metered cost of all estimation
	// calls since startup, in USD.
	APICostUSD() float64
}
