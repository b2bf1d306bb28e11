package domain

import "math"

// FairValueEstimate is the estimator's verdict on one market: a true
// probability for YES, a confidence, and the reasoning behind it.
// Immutable once produced — downstream stages never mutate it.
type FairValueEstimate struct {
	Market       Market
	FairYesProb  float64 // estimated true probability of YES
	Confidence   float64 // 0-1
	Reasoning    string
	InputTokens  int // for cost tracking
	OutputTokens int
}

// Edge returns the signed edge: fair YES probability minus the market's YES price.
func (e FairValueEstimate) Edge() float64 {
	return e.FairYesProb - e.Market.YesPrice
}

// AbsEdge returns the absolute edge.
func (e FairValueEstimate) AbsEdge() float64 {
	return math.Abs(e.Edge())
}

// RecommendedSide returns the underpriced side: YES when the market
// underprices YES, NO otherwise.
func (e FairValueEstimate) RecommendedSide() Side {
	if e.Edge() > 0 {
		return SideYes
	}
	return SideNo
}
