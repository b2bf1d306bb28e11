package estimator_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alejandrodnm/polyagent/internal/adapters/estimator"
	"github.com/alejandrodnm/polyagent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionResponse(text string, inputTokens, outputTokens int64) map[string]any {
	return map[string]any{
		"content": []map[string]any{{"type": "text", "text": text}},
		"usage": map[string]any{
			"input_tokens":  inputTokens,
			"output_tokens": outputTokens,
		},
	}
}

func testMarkets() []domain.Market {
	return []domain.Market{{
		ConditionID: "0xcond",
		Question:    "Will it rain in Madrid tomorrow?",
		Slug:        "rain-madrid",
		YesPrice:    0.30,
		NoPrice:     0.70,
	}}
}

func TestEstimateBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-sonnet-4-20250514", req["model"])

		json.NewEncoder(w).Encode(completionResponse(
			`{"fair_yes_probability": 0.55, "confidence": 0.8, "reasoning": "forecast says rain"}`,
			1000, 200,
		))
	}))
	defer srv.Close()

	e := estimator.New(srv.URL, "test-key", "claude-sonnet-4-20250514")
	estimates, err := e.EstimateBatch(context.Background(), testMarkets())

	require.NoError(t, err)
	require.Len(t, estimates, 1)
	assert.InDelta(t, 0.55, estimates[0].FairYesProb, 1e-9)
	assert.InDelta(t, 0.8, estimates[0].Confidence, 1e-9)
	assert.InDelta(t, 0.25, estimates[0].Edge(), 1e-9)
	assert.Equal(t, 1000, estimates[0].InputTokens)

	// 1000 in * $3/M + 200 out * $15/M
	assert.InDelta(t, 0.003+0.003, e.APICostUSD(), 1e-9)
}

func TestEstimateBatch_StripsMarkdownFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		text := "```json\n{\"fair_yes_probability\": 0.25, \"confidence\": 0.6, \"reasoning\": \"ok\"}\n```"
		json.NewEncoder(w).Encode(completionResponse(text, 100, 50))
	}))
	defer srv.Close()

	e := estimator.New(srv.URL, "k", "m")
	estimates, err := e.EstimateBatch(context.Background(), testMarkets())

	require.NoError(t, err)
	require.Len(t, estimates, 1)
	assert.InDelta(t, 0.25, estimates[0].FairYesProb, 1e-9)
}

func TestEstimateBatch_SkipsFailedMarkets(t *testing.T) {
	call := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call++
		if call == 1 {
			json.NewEncoder(w).Encode(completionResponse("not json at all", 100, 50))
			return
		}
		json.NewEncoder(w).Encode(completionResponse(
			`{"fair_yes_probability": 0.40, "confidence": 0.7, "reasoning": "ok"}`,
			100, 50,
		))
	}))
	defer srv.Close()

	markets := append(testMarkets(), domain.Market{Slug: "second", YesPrice: 0.50, NoPrice: 0.50})

	e := estimator.New(srv.URL, "k", "m")
	estimates, err := e.EstimateBatch(context.Background(), markets)

	require.NoError(t, err)
	require.Len(t, estimates, 1)
	assert.Equal(t, "second", estimates[0].Market.Slug)
}

func TestEstimateBatch_RejectsOutOfRangeProbability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionResponse(
			`{"fair_yes_probability": 1.5, "confidence": 0.9, "reasoning": "bad"}`,
			100, 50,
		))
	}))
	defer srv.Close()

	e := estimator.New(srv.URL, "k", "m")
	estimates, err := e.EstimateBatch(context.Background(), testMarkets())

	require.NoError(t, err)
	assert.Empty(t, estimates)
}

func TestEstimateBatch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
		})
	}))
	defer srv.Close()

	e := estimator.New(srv.URL, "k", "m")
	estimates, err := e.EstimateBatch(context.Background(), testMarkets())

	// Fallos individuales se saltan, no rompen el batch.
	require.NoError(t, err)
	assert.Empty(t, estimates)
	assert.InDelta(t, 0, e.APICostUSD(), 1e-12)
}

func TestEstimateBatch_ContextCancelAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := estimator.New("http://127.0.0.1:0", "k", "m")
	_, err := e.EstimateBatch(ctx, testMarkets())
	require.Error(t, err)
}
