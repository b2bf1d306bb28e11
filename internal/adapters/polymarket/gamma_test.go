package polymarket_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/alejandrodnm/polyagent/internal/adapters/polymarket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gammaMarketJSON(i int, liquidity float64) map[string]any {
	return map[string]any{
		"conditionId":   fmt.Sprintf("0xcond%d", i),
		"question":      fmt.Sprintf("Market %d?", i),
		"outcomePrices": `["0.45", "0.55"]`,
		"clobTokenIds":  fmt.Sprintf(`["yes%d", "no%d"]`, i, i),
		"volume24hr":    10000,
		"liquidityNum":  liquidity,
		"active":        true,
	}
}

func TestScanMarkets_Paginates(t *testing.T) {
	// Dos páginas llenas y una tercera vacía que corta la paginación.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		assert.Equal(t, "volume24hr", r.URL.Query().Get("order"))

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		var batch []map[string]any
		if offset < 200 {
			for i := 0; i < 100; i++ {
				batch = append(batch, gammaMarketJSON(offset+i, 5000))
			}
		}
		json.NewEncoder(w).Encode(batch)
	}))
	defer srv.Close()

	scanner := polymarket.NewScanner(newTestClient(nil, srv), 1000, 0)
	markets, err := scanner.ScanMarkets(context.Background())

	require.NoError(t, err)
	assert.Len(t, markets, 200)
	assert.Equal(t, "0xcond0", markets[0].ConditionID)
}

func TestScanMarkets_StopsAtMaxMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		var batch []map[string]any
		for i := 0; i < 100; i++ {
			batch = append(batch, gammaMarketJSON(offset+i, 5000))
		}
		json.NewEncoder(w).Encode(batch)
	}))
	defer srv.Close()

	scanner := polymarket.NewScanner(newTestClient(nil, srv), 150, 0)
	markets, err := scanner.ScanMarkets(context.Background())

	require.NoError(t, err)
	// Se corta en la primera página que alcanza el límite.
	assert.Len(t, markets, 200)
}

func TestScanMarkets_FiltersLowLiquidity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		var batch []map[string]any
		if offset == 0 {
			batch = append(batch, gammaMarketJSON(1, 5000))
			batch = append(batch, gammaMarketJSON(2, 100))
			batch = append(batch, gammaMarketJSON(3, 800))
		}
		json.NewEncoder(w).Encode(batch)
	}))
	defer srv.Close()

	scanner := polymarket.NewScanner(newTestClient(nil, srv), 1000, 500)
	markets, err := scanner.ScanMarkets(context.Background())

	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, "0xcond1", markets[0].ConditionID)
	assert.Equal(t, "0xcond3", markets[1].ConditionID)
}

func TestScanMarkets_SkipsUnparseable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		var batch []map[string]any
		if offset == 0 {
			batch = append(batch, gammaMarketJSON(1, 5000))
			// Sin tokens: se descarta sin romper el scan.
			broken := gammaMarketJSON(2, 5000)
			broken["clobTokenIds"] = `[]`
			batch = append(batch, broken)
		}
		json.NewEncoder(w).Encode(batch)
	}))
	defer srv.Close()

	scanner := polymarket.NewScanner(newTestClient(nil, srv), 1000, 0)
	markets, err := scanner.ScanMarkets(context.Background())

	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "0xcond1", markets[0].ConditionID)
}

func TestScanMarkets_FirstPageErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	scanner := polymarket.NewScanner(newTestClient(nil, srv), 1000, 0)
	_, err := scanner.ScanMarkets(context.Background())
	require.Error(t, err)
}

func TestScanMarkets_MidPaginationErrorReturnsPartial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if offset >= 100 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var batch []map[string]any
		for i := 0; i < 100; i++ {
			batch = append(batch, gammaMarketJSON(i, 5000))
		}
		json.NewEncoder(w).Encode(batch)
	}))
	defer srv.Close()

	scanner := polymarket.NewScanner(newTestClient(nil, srv), 1000, 0)
	markets, err := scanner.ScanMarkets(context.Background())

	require.NoError(t, err)
	assert.Len(t, markets, 100)
}
