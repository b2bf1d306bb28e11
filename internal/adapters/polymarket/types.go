package polymarket

import "encoding/json"

// DTOs raw de las APIs de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- Gamma API ---

// gammaMarket es un mercado tal como lo devuelve GET /markets de Gamma.
// OJO: outcomePrices y clobTokenIds llegan como strings JSON-encoded
// ('["0.65", "0.35"]'), no como arrays nativos. Se decodifican en mapping.go.
type gammaMarket struct {
	ConditionID      string          `json:"conditionId"`
	Question         string          `json:"question"`
	Slug             string          `json:"slug"`
	Description      string          `json:"description"`
	OutcomePrices    json.RawMessage `json:"outcomePrices"`
	ClobTokenIDs     json.RawMessage `json:"clobTokenIds"`
	Volume24h        json.Number     `json:"volume24hr"`
	Liquidity        json.Number     `json:"liquidity"`
	LiquidityNum     json.Number     `json:"liquidityNum"`
	EndDate          string          `json:"endDate"`
	ResolutionSource string          `json:"resolutionSource"`
	NegRisk          bool            `json:"negRisk"`
	Active           bool            `json:"active"`
	Closed           bool            `json:"closed"`
	Tags             []gammaTag      `json:"tags"`
}

// gammaTag es una etiqueta de categorización de Gamma.
type gammaTag struct {
	Label string `json:"label"`
}

// --- CLOB API ---

// bookResponse es la respuesta de GET /book.
type bookResponse struct {
	AssetID string         `json:"asset_id"`
	Bids    []bookEntryRaw `json:"bids"`
	Asks    []bookEntryRaw `json:"asks"`
}

// bookEntryRaw es un nivel de precio raw de la API (strings para mayor precisión).
type bookEntryRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// midpointResponse es la respuesta de GET /midpoint.
type midpointResponse struct {
	Mid string `json:"mid"`
}

// negRiskResponse es la respuesta de GET /neg-risk.
type negRiskResponse struct {
	NegRisk bool `json:"neg_risk"`
}

// clobOrderRequest es el body de POST /order.
type clobOrderRequest struct {
	Order     clobOrderBody `json:"order"`
	Owner     string        `json:"owner"`
	OrderType string        `json:"orderType"`
}

type clobOrderBody struct {
	Salt          json.Number `json:"salt"`
	Maker         string      `json:"maker"`
	Signer        string      `json:"signer"`
	Taker         string      `json:"taker"`
	TokenID       string      `json:"tokenId"`
	MakerAmount   string      `json:"makerAmount"`
	TakerAmount   string      `json:"takerAmount"`
	Expiration    string      `json:"expiration"`
	Nonce         string      `json:"nonce"`
	FeeRateBps    string      `json:"feeRateBps"`
	Side          string      `json:"side"`
	SignatureType int         `json:"signatureType"`
	Signature     string      `json:"signature"`
}

type clobOrderResponse struct {
	ErrorMsg     string `json:"errorMsg"`
	OrderID      string `json:"orderID"`
	TakingAmount string `json:"takingAmount"`
	MakingAmount string `json:"makingAmount"`
	Status       string `json:"status"`
	Success      bool   `json:"success"`
}
