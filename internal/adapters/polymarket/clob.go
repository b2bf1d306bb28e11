package polymarket

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/polyagent/internal/domain"
)

const (
	bookPath     = "/book"
	midpointPath = "/midpoint"
	negRiskPath  = "/neg-risk"
	okPath       = "/ok"
)

// FetchOrderBook obtiene el orderbook de un token via GET /book.
func (c *Client) FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	u := fmt.Sprintf("%s%s?token_id=%s", c.clobBase, bookPath, url.QueryEscape(tokenID))

	var resp bookResponse
	if err := c.get(ctx, c.bookLimiter, u, &resp); err != nil {
		return domain.OrderBook{}, fmt.Errorf("clob.FetchOrderBook: %w", err)
	}

	ob := mapOrderBook(resp)
	if ob.TokenID == "" {
		ob.TokenID = tokenID
	}
	return ob, nil
}

// Midpoint devuelve el precio medio de un token via GET /midpoint.
func (c *Client) Midpoint(ctx context.Context, tokenID string) (float64, error) {
	u := fmt.Sprintf("%s%s?token_id=%s", c.clobBase, midpointPath, url.QueryEscape(tokenID))

	var resp midpointResponse
	if err := c.get(ctx, c.clobLimiter, u, &resp); err != nil {
		return 0, fmt.Errorf("clob.Midpoint: %w", err)
	}

	mid, err := strconv.ParseFloat(resp.Mid, 64)
	if err != nil {
		return 0, fmt.Errorf("clob.Midpoint: parse %q: %w", resp.Mid, err)
	}
	return mid, nil
}

// isNegRisk consulta si un token usa el NegRisk adapter.
func (c *Client) isNegRisk(ctx context.Context, tokenID string) (bool, error) {
	u := fmt.Sprintf("%s%s?token_id=%s", c.clobBase, negRiskPath, url.QueryEscape(tokenID))

	var resp negRiskResponse
	if err := c.get(ctx, c.clobLimiter, u, &resp); err != nil {
		return false, fmt.Errorf("neg-risk check: %w", err)
	}
	return resp.NegRisk, nil
}

// CheckConnectivity verifica que la API del CLOB responde.
func (c *Client) CheckConnectivity(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.clobBase+okPath, nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
