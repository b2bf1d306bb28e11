package polymarket

import (
	"testing"

	"github.com/alejandrodnm/polyagent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketablePrice(t *testing.T) {
	book := domain.OrderBook{
		TokenID: "tok-1",
		Asks: []domain.BookEntry{
			{Price: 0.50, Size: 10}, // $5
			{Price: 0.52, Size: 10}, // $5.20
			{Price: 0.55, Size: 100},
		},
	}

	// Cabe en el primer nivel.
	price, err := marketablePrice(book, 3)
	require.NoError(t, err)
	assert.InDelta(t, 0.50, price, 1e-9)

	// Necesita el segundo nivel: el precio marketable es el del último
	// nivel consumido.
	price, err = marketablePrice(book, 8)
	require.NoError(t, err)
	assert.InDelta(t, 0.52, price, 1e-9)
}

func TestMarketablePrice_InsufficientDepth(t *testing.T) {
	book := domain.OrderBook{
		TokenID: "tok-1",
		Asks:    []domain.BookEntry{{Price: 0.50, Size: 2}}, // $1 de profundidad
	}

	_, err := marketablePrice(book, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient ask depth")
}

func TestMarketablePrice_EmptyBook(t *testing.T) {
	_, err := marketablePrice(domain.OrderBook{TokenID: "tok-1"}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no asks")
}

func TestDetectPricePrecision(t *testing.T) {
	assert.Equal(t, int64(100), detectPricePrecision(0.52))
	assert.Equal(t, int64(1000), detectPricePrecision(0.525))
	assert.Equal(t, int64(10000), detectPricePrecision(0.5255))
	// Precio con más decimales de los que admite el tick: cae al default.
	assert.Equal(t, int64(100), detectPricePrecision(0.123456789))
}
