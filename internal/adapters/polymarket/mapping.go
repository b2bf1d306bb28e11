package polymarket

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/polyagent/internal/domain"
)

const maxDescriptionLen = 1000

// mapGammaMarket convierte un gammaMarket DTO a domain.Market.
// Devuelve false si el mercado no es parseable o no es un binario válido.
func mapGammaMarket(r gammaMarket) (domain.Market, bool) {
	tokens := decodeStringArray(r.ClobTokenIDs)
	if len(tokens) < 2 {
		return domain.Market{}, false
	}

	prices := decodeStringArray(r.OutcomePrices)
	if len(prices) < 2 {
		return domain.Market{}, false
	}

	yesPrice, err1 := strconv.ParseFloat(prices[0], 64)
	noPrice, err2 := strconv.ParseFloat(prices[1], 64)
	if err1 != nil || err2 != nil {
		return domain.Market{}, false
	}
	if yesPrice <= 0 || noPrice <= 0 {
		return domain.Market{}, false
	}
	if yesPrice >= 1.0 && noPrice >= 1.0 {
		return domain.Market{}, false
	}

	desc := r.Description
	if len(desc) > maxDescriptionLen {
		desc = desc[:maxDescriptionLen]
	}

	volume24h, _ := r.Volume24h.Float64()
	liquidity, _ := r.LiquidityNum.Float64()
	if liquidity == 0 {
		liquidity, _ = r.Liquidity.Float64()
	}

	m := domain.Market{
		ConditionID: r.ConditionID,
		Question:    r.Question,
		Slug:        r.Slug,
		Description: desc,
		YesTokenID:  tokens[0],
		NoTokenID:   tokens[1],
		YesPrice:    yesPrice,
		NoPrice:     noPrice,
		Volume24h:   volume24h,
		Liquidity:   liquidity,
		Category:    inferCategory(r),
		Resolution:  r.ResolutionSource,
		NegRisk:     r.NegRisk,
	}

	if r.EndDate != "" {
		// Polymarket usa varios formatos; intentamos los más comunes
		for _, layout := range []string{
			time.RFC3339,
			"2006-01-02T15:04:05.000Z",
			"2006-01-02T15:04:05Z",
			"2006-01-02",
		} {
			if t, err := time.Parse(layout, r.EndDate); err == nil {
				m.EndDate = t.UTC()
				break
			}
		}
	}

	return m, true
}

// decodeStringArray decodifica un campo que Gamma devuelve como string
// JSON-encoded ('["a","b"]') o, en algunas versiones, como array nativo.
func decodeStringArray(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err == nil {
		return out
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(encoded), &out); err != nil {
		return nil
	}
	return out
}

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"weather", []string{"weather", "temperature", "rain", "hurricane", "noaa", "forecast"}},
	{"sports", []string{"nfl", "nba", "mlb", "nhl", "soccer", "sport", "game", "match", "ufc", "boxing"}},
	{"crypto", []string{"bitcoin", "ethereum", "crypto", "btc", "eth", "token", "defi", "solana"}},
	{"politics", []string{"election", "president", "congress", "senate", "vote", "poll", "governor"}},
}

// inferCategory deduce la categoría del mercado a partir de la pregunta y las tags.
func inferCategory(r gammaMarket) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(r.Question))
	for _, t := range r.Tags {
		sb.WriteByte(' ')
		sb.WriteString(strings.ToLower(t.Label))
	}
	text := sb.String()

	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if strings.Contains(text, w) {
				return ck.category
			}
		}
	}
	return "other"
}

// mapOrderBook convierte la respuesta de /book a domain.OrderBook.
func mapOrderBook(r bookResponse) domain.OrderBook {
	return domain.OrderBook{
		TokenID: r.AssetID,
		Bids:    mapBookEntries(r.Bids, false),
		Asks:    mapBookEntries(r.Asks, true),
	}
}

// mapBookEntries convierte entries raw a domain.BookEntry y los ordena.
// ascending=true → menor a mayor (asks), ascending=false → mayor a menor (bids).
func mapBookEntries(raw []bookEntryRaw, ascending bool) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		price, _ := strconv.ParseFloat(r.Price, 64)
		size, _ := strconv.ParseFloat(r.Size, 64)
		if price <= 0 || size <= 0 {
			continue
		}
		entries = append(entries, domain.BookEntry{Price: price, Size: size})
	}

	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].Price > entries[j].Price
	})

	return entries
}
