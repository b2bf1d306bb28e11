package polymarket

// trading.go — Real order execution via Polymarket CLOB API.
//
// Implements ports.OrderSubmitter using AuthClient for L1/L2 auth.
// Orders are submitted as FOK (fill-or-kill) marketable buys: either the
// full amount fills immediately against resting asks or nothing happens.

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alejandrodnm/polyagent/internal/domain"
)

// TradingClient implements ports.OrderSubmitter.
type TradingClient struct {
	auth *AuthClient
}

// NewTradingClient creates a TradingClient over an authenticated CLOB client.
func NewTradingClient(auth *AuthClient) *TradingClient {
	return &TradingClient{auth: auth}
}

// SubmitMarketOrder signs and submits a FOK BUY for amountUSD of the given
// token. The marketable price is derived from the current ask side of the
// book: the deepest level needed to cover the full amount.
func (tc *TradingClient) SubmitMarketOrder(ctx context.Context, tokenID string, amountUSD float64) (domain.OrderReceipt, error) {
	if err := tc.auth.EnsureCreds(ctx); err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("submit order: creds: %w", err)
	}

	book, err := tc.auth.FetchOrderBook(ctx, tokenID)
	if err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("submit order: book: %w", err)
	}

	price, err := marketablePrice(book, amountUSD)
	if err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("submit order: %w", err)
	}

	negRisk, err := tc.auth.isNegRisk(ctx, tokenID)
	if err != nil {
		// Sin respuesta asumimos el exchange estándar; el CLOB rechazará
		// la firma si el contrato no coincide.
		slog.Warn("neg-risk check failed, assuming standard exchange", "err", err)
		negRisk = false
	}

	signed, err := tc.auth.buildSignedBuyOrder(tokenID, price, amountUSD, negRisk)
	if err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("submit order: sign: %w", err)
	}

	body := clobOrderRequest{
		Order: clobOrderBody{
			Salt:          json.Number(signed.Order.Salt.String()),
			Maker:         signed.Order.Maker.Hex(),
			Signer:        signed.Order.Signer.Hex(),
			Taker:         signed.Order.Taker.Hex(),
			TokenID:       tokenID,
			MakerAmount:   signed.Order.MakerAmount.String(),
			TakerAmount:   signed.Order.TakerAmount.String(),
			Expiration:    signed.Order.Expiration.String(),
			Nonce:         signed.Order.Nonce.String(),
			FeeRateBps:    signed.Order.FeeRateBps.String(),
			Side:          "BUY",
			SignatureType: int(signed.Order.SignatureType.Int64()),
			Signature:     "0x" + hex.EncodeToString(signed.Signature),
		},
		Owner:     tc.auth.creds.APIKey,
		OrderType: "FOK",
	}

	var resp clobOrderResponse
	if err := tc.auth.doL2(ctx, http.MethodPost, "/order", body, &resp); err != nil {
		return domain.OrderReceipt{}, fmt.Errorf("submit order: post: %w", err)
	}

	if !resp.Success || resp.ErrorMsg != "" {
		return domain.OrderReceipt{}, fmt.Errorf("submit order: clob error: %s", resp.ErrorMsg)
	}

	raw, _ := json.Marshal(resp)
	return domain.OrderReceipt{
		OrderID: resp.OrderID,
		Status:  resp.Status,
		Raw:     string(raw),
	}, nil
}

// Midpoint devuelve el precio medio del token.
func (tc *TradingClient) Midpoint(ctx context.Context, tokenID string) (float64, error) {
	return tc.auth.Midpoint(ctx, tokenID)
}

// CheckConnectivity verifica que la API del CLOB responde.
func (tc *TradingClient) CheckConnectivity(ctx context.Context) bool {
	return tc.auth.CheckConnectivity(ctx)
}

// marketablePrice walks the ask side until the cumulative depth covers
// amountUSD and returns the price of the last level consumed. A FOK order
// priced there either fills completely or gets killed by the CLOB.
func marketablePrice(book domain.OrderBook, amountUSD float64) (float64, error) {
	if !book.HasAsks() {
		return 0, fmt.Errorf("no asks in book for token %s", book.TokenID)
	}

	remaining := amountUSD
	for _, ask := range book.Asks {
		remaining -= ask.Price * ask.Size
		if remaining <= 0 {
			return ask.Price, nil
		}
	}
	return 0, fmt.Errorf("insufficient ask depth: need $%.2f, book covers $%.2f",
		amountUSD, amountUSD-remaining)
}
