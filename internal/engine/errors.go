package engine

import "errors"

// Sizing rejections. These are filtering decisions, not failures — the sizer
// returns them so call sites can tell why a signal was dropped, but the batch
// path never surfaces them to the caller.
var (
	// ErrNoEdge: fair price does not exceed entry price on the resolved side,
	// or Kelly comes out non-positive.
	ErrNoEdge = errors.New("no edge on resolved side")

	// ErrIlliquidPrice: entry price outside the tradable (0.01, 0.99) band.
	ErrIlliquidPrice = errors.New("entry price outside tradable band")

	// ErrDustTrade: sized position below the minimum tradable amount.
	ErrDustTrade = errors.New("position below minimum trade size")
)
