package domain

import (
	"time"

	"github.com/google/uuid"
)

// CycleAudit es el resumen ligero de un ciclo completado, una fila por ciclo.
type CycleAudit struct {
	Cycle         int
	ScannedAt     time.Time
	Markets       int
	Candidates    int
	Mispricings   int
	Signals       int
	TradesOK      int
	TradesFailed  int
	APICostUSD    float64
	BankrollAfter float64
}

// TradeAudit es un intento de ejecución registrado, éxito o fallo.
type TradeAudit struct {
	ID          string // UUID local
	Cycle       int
	ConditionID string
	Question    string
	Side        string
	TokenID     string
	EntryPrice  float64
	FairPrice   float64
	Edge        float64
	SizeUSD     float64
	Success     bool
	CLOBOrderID string
	FillPrice   float64
	Error       string
	ExecutedAt  time.Time
}

// NewTradeAudit construye el registro de auditoría de un intento de ejecución.
func NewTradeAudit(cycle int, res ExecutionResult) TradeAudit {
	sig := res.Signal
	return TradeAudit{
		ID:          uuid.NewString(),
		Cycle:       cycle,
		ConditionID: sig.Estimate.Market.ConditionID,
		Question:    sig.Estimate.Market.Question,
		Side:        string(sig.Side),
		TokenID:     sig.TokenID,
		EntryPrice:  sig.EntryPrice,
		FairPrice:   sig.FairPrice,
		Edge:        sig.Edge,
		SizeUSD:     sig.PositionSizeUSD,
		Success:     res.Success,
		CLOBOrderID: res.OrderID,
		FillPrice:   res.FillPrice,
		Error:       res.Error,
		ExecutedAt:  time.Now().UTC(),
	}
}
