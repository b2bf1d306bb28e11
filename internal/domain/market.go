package domain

import "time"

// Market representa un mercado de predicción binario en Polymarket,
// tal como lo devuelve el scan de Gamma.
type Market struct {
	ConditionID  string
	Question     string
	Slug         string
	Description  string
	YesTokenID   string
	NoTokenID    string
	YesPrice     float64
	NoPrice      float64
	Volume24h    float64 // USDC
	Liquidity    float64 // USDC
	EndDate      time.Time
	Category     string // "weather" | "sports" | "crypto" | "politics" | "other"
	Resolution   string // resolution source
	NegRisk      bool
}

// TokenFor devuelve el token ID del lado dado.
func (m Market) TokenFor(side Side) string {
	if side == SideNo {
		return m.NoTokenID
	}
	return m.YesTokenID
}

// PriceFor devuelve el precio de mercado del lado dado.
func (m Market) PriceFor(side Side) float64 {
	if side == SideNo {
		return m.NoPrice
	}
	return m.YesPrice
}

// HoursToResolution devuelve las horas hasta que el mercado se resuelve.
// Devuelve 0 si EndDate no está definido o ya pasó.
func (m Market) HoursToResolution() float64 {
	if m.EndDate.IsZero() {
		return 0
	}
	h := time.Until(m.EndDate).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// Side es el lado de un mercado binario.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)
