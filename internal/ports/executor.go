package ports

import (
	"context"

	"github.com/alejandrodnm/polyagent/internal/domain"
)

// BookProvider obtiene el orderbook actual de un token del CLOB.
type BookProvider interface {
	FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error)
}

// OrderSubmitter signs and submits Fill-or-Kill market orders to the CLOB.
type OrderSubmitter interface {
	// SubmitMarketOrder places a FOK market BUY for amountUSD of the given
	// token. It returns the raw CLOB response interpretation: order ID and
	// status when accepted, an error description otherwise.
	SubmitMarketOrder(ctx context.Context, tokenID string, amountUSD float64) (domain.OrderReceipt, error)

	// Midpoint returns the current midpoint price for a token.
	Midpoint(ctx context.Context, tokenID string) (float64, error)

	// CheckConnectivity verifies the CLOB API is reachable.
	CheckConnectivity(ctx context.Context) bool
}

// BalanceProvider reads the settled on-chain balance in the trading asset.
type BalanceProvider interface {
	// USDCBalance returns the wallet's total USDC balance (USDC.e + native).
	USDCBalance(ctx context.Context) (float64, error)
}
