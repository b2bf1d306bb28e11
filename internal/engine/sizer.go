package engine

import (
	"log/slog"
	"math"

	"github.com/alejandrodnm/polyagent/internal/domain"
)

// SizerConfig holds the sizing knobs.
type SizerConfig struct {
	MaxPositionPct  float64 // per-trade cap as a fraction of bankroll
	KellyMultiplier float64 // fractional Kelly, e.g. 0.25
	MaxExposurePct  float64 // aggregate per-cycle ceiling as a fraction of bankroll
	MinTradeUSD     float64 // dust floor
}

// KellyPositionSizer converts estimates into bounded dollar positions.
//
// Full Kelly: f* = (bp - q) / b, where b is net odds, p the win probability
// and q = 1 - p. Buying a binary outcome token at price P pays $1 on a win,
// so b = (1 - P) / P. The raw fraction is scaled by a fractional-Kelly
// multiplier and by the estimate's confidence, then hard-capped at
// MaxPositionPct of bankroll.
type KellyPositionSizer struct {
	cfg      SizerConfig
	bankroll float64
}

// NewKellyPositionSizer creates a sizer with the given config and starting bankroll.
func NewKellyPositionSizer(cfg SizerConfig, bankroll float64) *KellyPositionSizer {
	if cfg.MaxPositionPct <= 0 {
		cfg.MaxPositionPct = 0.06
	}
	if cfg.KellyMultiplier <= 0 {
		cfg.KellyMultiplier = 0.25
	}
	if cfg.MaxExposurePct <= 0 {
		cfg.MaxExposurePct = 0.50
	}
	if cfg.MinTradeUSD <= 0 {
		cfg.MinTradeUSD = 1.0
	}
	return &KellyPositionSizer{cfg: cfg, bankroll: bankroll}
}

// UpdateBankroll sets the bankroll used for sizing. The orchestrator calls it
// exactly once per cycle, before sizing, with the funding manager's
// authoritative figure — sizing must never run against a stale snapshot.
func (ps *KellyPositionSizer) UpdateBankroll(bankroll float64) {
	ps.bankroll = bankroll
	slog.Info("bankroll updated", "bankroll", bankroll)
}

// Size converts one estimate into a bounded trade signal, or an error
// explaining why no trade should happen (ErrIlliquidPrice, ErrNoEdge,
// ErrDustTrade). These are skip decisions, not failures.
func (ps *KellyPositionSizer) Size(est domain.FairValueEstimate) (domain.TradeSignal, error) {
	side := est.RecommendedSide()
	entryPrice := est.Market.PriceFor(side)
	fairPrice := est.FairYesProb
	if side == domain.SideNo {
		fairPrice = 1.0 - est.FairYesProb
	}

	if entryPrice <= 0.01 || entryPrice >= 0.99 {
		return domain.TradeSignal{}, ErrIlliquidPrice
	}
	if fairPrice <= entryPrice {
		// Side resolution can eat the edge: a YES edge priced through the NO
		// leg may leave nothing to trade.
		return domain.TradeSignal{}, ErrNoEdge
	}

	b := (1.0 - entryPrice) / entryPrice // net odds
	p := fairPrice
	q := 1.0 - p

	kellyRaw := (b*p - q) / b
	if kellyRaw <= 0 {
		return domain.TradeSignal{}, ErrNoEdge
	}

	// Fractional Kelly, scaled down further by confidence, then hard-capped.
	kellyAdjusted := kellyRaw * ps.cfg.KellyMultiplier * est.Confidence
	capped := math.Min(kellyAdjusted, ps.cfg.MaxPositionPct)

	positionUSD := capped * ps.bankroll
	if positionUSD < ps.cfg.MinTradeUSD {
		return domain.TradeSignal{}, ErrDustTrade
	}

	edge := fairPrice - entryPrice
	signal := domain.TradeSignal{
		Estimate:       est,
		Side:           side,
		TokenID:        est.Market.TokenFor(side),
		EntryPrice:     entryPrice,
		FairPrice:      fairPrice,
		Edge:           edge,
		KellyFraction:  kellyRaw,
		CappedFraction: capped,
	}
	signal.Resize(positionUSD)

	slog.Info("position sized",
		"question", truncate(est.Market.Question, 50),
		"side", side,
		"entry", entryPrice,
		"fair", fairPrice,
		"kelly_raw", kellyRaw,
		"kelly_capped", capped,
		"size_usd", signal.PositionSizeUSD,
		"ev", signal.ExpectedValue,
	)
	return signal, nil
}

// SizeBatch sizes estimates in the order given (already best-first from the
// detector) under the aggregate exposure ceiling. A signal that would exceed
// the remaining headroom is shrunk to exactly the headroom, not rejected, so
// capital is deployed in priority order without ever crossing the ceiling.
func (ps *KellyPositionSizer) SizeBatch(estimates []domain.FairValueEstimate) []domain.TradeSignal {
	var signals []domain.TradeSignal
	totalExposure := 0.0
	maxExposure := ps.bankroll * ps.cfg.MaxExposurePct

	for _, est := range estimates {
		if totalExposure >= maxExposure {
			slog.Info("max exposure reached", "total", totalExposure, "ceiling", maxExposure)
			break
		}

		signal, err := ps.Size(est)
		if err != nil {
			slog.Debug("signal skipped",
				"question", truncate(est.Market.Question, 50),
				"reason", err,
			)
			continue
		}

		if remaining := maxExposure - totalExposure; signal.PositionSizeUSD > remaining {
			signal.Resize(remaining)
		}

		signals = append(signals, signal)
		totalExposure += signal.PositionSizeUSD
	}

	return signals
}
