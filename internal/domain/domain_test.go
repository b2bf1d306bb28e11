package domain_test

import (
	"testing"
	"time"

	"github.com/alejandrodnm/polyagent/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEstimate_EdgeAndSide(t *testing.T) {
	underpricedYes := domain.FairValueEstimate{
		Market:      domain.Market{YesPrice: 0.30, NoPrice: 0.70},
		FairYesProb: 0.50,
	}
	assert.InDelta(t, 0.20, underpricedYes.Edge(), 1e-9)
	assert.InDelta(t, 0.20, underpricedYes.AbsEdge(), 1e-9)
	assert.Equal(t, domain.SideYes, underpricedYes.RecommendedSide())

	overpricedYes := domain.FairValueEstimate{
		Market:      domain.Market{YesPrice: 0.80, NoPrice: 0.20},
		FairYesProb: 0.60,
	}
	assert.InDelta(t, -0.20, overpricedYes.Edge(), 1e-9)
	assert.InDelta(t, 0.20, overpricedYes.AbsEdge(), 1e-9)
	assert.Equal(t, domain.SideNo, overpricedYes.RecommendedSide())
}

func TestMarket_TokenAndPriceFor(t *testing.T) {
	m := domain.Market{
		YesTokenID: "tok-yes",
		NoTokenID:  "tok-no",
		YesPrice:   0.35,
		NoPrice:    0.65,
	}

	assert.Equal(t, "tok-yes", m.TokenFor(domain.SideYes))
	assert.Equal(t, "tok-no", m.TokenFor(domain.SideNo))
	assert.InDelta(t, 0.35, m.PriceFor(domain.SideYes), 1e-9)
	assert.InDelta(t, 0.65, m.PriceFor(domain.SideNo), 1e-9)
}

func TestMarket_HoursToResolution(t *testing.T) {
	assert.Zero(t, domain.Market{}.HoursToResolution())

	past := domain.Market{EndDate: time.Now().Add(-time.Hour)}
	assert.Zero(t, past.HoursToResolution())

	future := domain.Market{EndDate: time.Now().Add(48 * time.Hour)}
	assert.InDelta(t, 48, future.HoursToResolution(), 0.1)
}

func TestOrderBook_Helpers(t *testing.T) {
	empty := domain.OrderBook{}
	assert.Zero(t, empty.BestBid())
	assert.Zero(t, empty.BestAsk())
	assert.Zero(t, empty.Midpoint())
	assert.False(t, empty.HasAsks())

	book := domain.OrderBook{
		Bids: []domain.BookEntry{{Price: 0.48, Size: 100}, {Price: 0.47, Size: 200}},
		Asks: []domain.BookEntry{{Price: 0.52, Size: 100}, {Price: 0.55, Size: 300}},
	}
	assert.InDelta(t, 0.48, book.BestBid(), 1e-9)
	assert.InDelta(t, 0.52, book.BestAsk(), 1e-9)
	assert.InDelta(t, 0.50, book.Midpoint(), 1e-9)
	assert.True(t, book.HasAsks())
}

func TestOrderBook_AskDepthUSDC(t *testing.T) {
	book := domain.OrderBook{
		Asks: []domain.BookEntry{
			{Price: 0.50, Size: 100}, // $50
			{Price: 0.55, Size: 100}, // $55
			{Price: 0.70, Size: 100}, // fuera del cap
		},
	}

	assert.InDelta(t, 50, book.AskDepthUSDC(0.50), 1e-9)
	assert.InDelta(t, 105, book.AskDepthUSDC(0.60), 1e-9)
	assert.Zero(t, book.AskDepthUSDC(0.40))
}

func TestSignal_Resize(t *testing.T) {
	sig := domain.TradeSignal{Edge: 0.20, PositionSizeUSD: 10, ExpectedValue: 2}

	sig.Resize(3.333)

	assert.InDelta(t, 3.33, sig.PositionSizeUSD, 1e-9)
	assert.InDelta(t, 0.67, sig.ExpectedValue, 1e-9)
}

func TestOrderReceipt_Accepted(t *testing.T) {
	assert.True(t, domain.OrderReceipt{OrderID: "0xabc"}.Accepted())
	assert.True(t, domain.OrderReceipt{Status: "Matched"}.Accepted())
	assert.True(t, domain.OrderReceipt{Status: "filled"}.Accepted())
	assert.False(t, domain.OrderReceipt{Status: "rejected"}.Accepted())
	assert.False(t, domain.OrderReceipt{}.Accepted())
}
