// Package estimator implements ports.Estimator against the Anthropic
// Messages API: each market gets one completion asking for a calibrated
// probability estimate, returned as a small JSON object.
package estimator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alejandrodnm/polyagent/internal/domain"
)

const (
	defaultAPIBase = "https://api.anthropic.com"
	messagesPath   = "/v1/messages"
	apiVersion     = "2023-06-01"
	maxTokens      = 500

	// Precios por millón de tokens (Sonnet). Ajustar si cambia el modelo.
	inputCostPerMTok  = 3.00
	outputCostPerMTok = 15.00
)

const systemPrompt = `You are an expert prediction market analyst. Your job is to estimate the TRUE probability of event outcomes, independent of what the market currently thinks.

You will be given:
1. A market question and description
2. The current market price (YES probability)

Your response must be valid JSON with exactly these fields:
{
    "fair_yes_probability": <float 0.0 to 1.0>,
    "confidence": <float 0.0 to 1.0>,
    "reasoning": "<brief explanation of your estimate>"
}

Guidelines:
- Be calibrated. If you're unsure, your probability should reflect that uncertainty.
- Consider base rates, historical precedents, and logical reasoning.
- A confidence of 0.5 means you're very uncertain about your estimate.
- A confidence of 0.9+ means you have strong evidence.
- Be especially careful with politics — markets are often efficient there.

Return ONLY the JSON object, no other text.`

// ClaudeEstimator pregunta a Claude la probabilidad real de cada mercado.
type ClaudeEstimator struct {
	http    *http.Client
	apiBase string
	apiKey  string
	model   string

	inputTokens  atomic.Int64
	outputTokens atomic.Int64
}

// New crea un ClaudeEstimator. apiBase vacío usa la API de producción.
func New(apiBase, apiKey, model string) *ClaudeEstimator {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &ClaudeEstimator{
		http:    &http.Client{Timeout: 120 * time.Second},
		apiBase: apiBase,
		apiKey:  apiKey,
		model:   model,
	}
}

// EstimateBatch estima los mercados secuencialmente. Los fallos
// individuales se saltan; solo un contexto cancelado aborta el batch.
func (e *ClaudeEstimator) EstimateBatch(ctx context.Context, markets []domain.Market) ([]domain.FairValueEstimate, error) {
	estimates := make([]domain.FairValueEstimate, 0, len(markets))
	for _, m := range markets {
		est, err := e.estimate(ctx, m)
		if err != nil {
			if ctx.Err() != nil {
				return estimates, ctx.Err()
			}
			slog.Warn("estimate failed, skipping market", "slug", m.Slug, "err", err)
			continue
		}
		estimates = append(estimates, est)
	}
	return estimates, nil
}

// APICostUSD devuelve el coste acumulado de la API en USD.
func (e *ClaudeEstimator) APICostUSD() float64 {
	in := float64(e.inputTokens.Load()) / 1_000_000 * inputCostPerMTok
	out := float64(e.outputTokens.Load()) / 1_000_000 * outputCostPerMTok
	return in + out
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// verdict es el JSON que pedimos al modelo.
type verdict struct {
	FairYesProbability float64 `json:"fair_yes_probability"`
	Confidence         float64 `json:"confidence"`
	Reasoning          string  `json:"reasoning"`
}

func (e *ClaudeEstimator) estimate(ctx context.Context, m domain.Market) (domain.FairValueEstimate, error) {
	resp, err := e.complete(ctx, buildPrompt(m))
	if err != nil {
		return domain.FairValueEstimate{}, err
	}

	e.inputTokens.Add(resp.Usage.InputTokens)
	e.outputTokens.Add(resp.Usage.OutputTokens)

	if len(resp.Content) == 0 {
		return domain.FairValueEstimate{}, fmt.Errorf("empty completion")
	}

	var v verdict
	if err := json.Unmarshal([]byte(stripFences(resp.Content[0].Text)), &v); err != nil {
		return domain.FairValueEstimate{}, fmt.Errorf("parse verdict: %w", err)
	}
	if v.FairYesProbability < 0 || v.FairYesProbability > 1 {
		return domain.FairValueEstimate{}, fmt.Errorf("probability out of range: %v", v.FairYesProbability)
	}

	est := domain.FairValueEstimate{
		Market:       m,
		FairYesProb:  v.FairYesProbability,
		Confidence:   v.Confidence,
		Reasoning:    v.Reasoning,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}

	slog.Info("fair value estimate",
		"question", truncate(m.Question, 60),
		"market_price", fmt.Sprintf("%.2f", m.YesPrice),
		"fair_value", fmt.Sprintf("%.2f", est.FairYesProb),
		"edge", fmt.Sprintf("%+.2f", est.Edge()),
		"confidence", fmt.Sprintf("%.2f", est.Confidence),
	)
	return est, nil
}

func (e *ClaudeEstimator) complete(ctx context.Context, prompt string) (*messagesResponse, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     e.model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiBase+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("messages request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var out messagesResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			return nil, fmt.Errorf("api error %d: %s: %s", resp.StatusCode, out.Error.Type, out.Error.Message)
		}
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}
	return &out, nil
}

func buildPrompt(m domain.Market) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Market Question: %s\n\n", m.Question)
	fmt.Fprintf(&sb, "Description: %s\n\n", m.Description)
	fmt.Fprintf(&sb, "Resolution Source: %s\n\n", m.Resolution)
	fmt.Fprintf(&sb, "Current Market Price (YES): %.4f (%.1f%%)\n", m.YesPrice, m.YesPrice*100)
	fmt.Fprintf(&sb, "Current Market Price (NO): %.4f (%.1f%%)\n\n", m.NoPrice, m.NoPrice*100)
	fmt.Fprintf(&sb, "24h Volume: $%.0f\n", m.Volume24h)
	fmt.Fprintf(&sb, "Liquidity: $%.0f\n", m.Liquidity)
	if !m.EndDate.IsZero() {
		fmt.Fprintf(&sb, "End Date: %s\n", m.EndDate.Format(time.RFC3339))
	}
	fmt.Fprintf(&sb, "Category: %s\n\n", m.Category)
	sb.WriteString("What is the TRUE probability of YES?")
	return sb.String()
}

// stripFences quita un fence markdown (```json ... ```) si el modelo lo añade.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
