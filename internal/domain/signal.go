package domain

import "math"

// TradeSignal is a concrete trade the agent wants to execute, derived
// from one FairValueEstimate after side resolution and Kelly sizing.
// Invariants: 0.01 < EntryPrice < 0.99, FairPrice > EntryPrice,
// PositionSizeUSD > 0, CappedFraction <= the configured max position pct.
type TradeSignal struct {
	Estimate        FairValueEstimate
	Side            Side
	TokenID         string
	EntryPrice      float64 // price we'd pay
	FairPrice       float64 // what we think it's worth
	Edge            float64 // fair - entry, always positive for a valid signal
	KellyFraction   float64 // raw Kelly fraction
	CappedFraction  float64 // after fractional Kelly, confidence scaling, and cap
	PositionSizeUSD float64
	ExpectedValue   float64 // edge * position size
}

// Resize sets a new dollar size and recomputes the expected value.
// Used when a batch shrinks the boundary signal to the remaining headroom.
func (s *TradeSignal) Resize(usd float64) {
	s.PositionSizeUSD = round2(usd)
	s.ExpectedValue = round2(s.Edge * s.PositionSizeUSD)
}

// ExecutionResult is the outcome of attempting one signal. Exactly one of
// (Success=true, OrderID != "") or (Success=false, Error != "") holds.
type ExecutionResult struct {
	Signal     TradeSignal
	Success    bool
	OrderID    string
	FillPrice  float64 // approximate — observed best ask, not settlement data
	FillAmount float64 // USD
	Error      string
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
