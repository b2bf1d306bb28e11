package engine

import (
	"log/slog"
	"sort"

	"github.com/alejandrodnm/polyagent/internal/domain"
)

// MispricingDetector filters fair value estimates down to actionable
// mispricings. Pure filter/rank — no side effects beyond logging.
type MispricingDetector struct {
	minEdge       float64
	minConfidence float64
}

// NewMispricingDetector creates a detector with the given thresholds.
func NewMispricingDetector(minEdge, minConfidence float64) *MispricingDetector {
	return &MispricingDetector{minEdge: minEdge, minConfidence: minConfidence}
}

// FindSignals returns the estimates whose absolute edge and confidence clear
// the thresholds, sorted best-first by |edge| × confidence. The sort is
// stable: ties keep input order.
func (d *MispricingDetector) FindSignals(estimates []domain.FairValueEstimate) []domain.FairValueEstimate {
	signals := make([]domain.FairValueEstimate, 0, len(estimates))
	for _, est := range estimates {
		if est.AbsEdge() < d.minEdge || est.Confidence < d.minConfidence {
			continue
		}
		signals = append(signals, est)
		slog.Info("mispricing found",
			"question", truncate(est.Market.Question, 50),
			"edge", est.AbsEdge(),
			"confidence", est.Confidence,
			"side", est.RecommendedSide(),
		)
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].AbsEdge()*signals[i].Confidence > signals[j].AbsEdge()*signals[j].Confidence
	})
	return signals
}

// truncate recorta un string a maxLen para logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
