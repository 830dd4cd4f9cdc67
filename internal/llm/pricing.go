package llm

// ModelCost holds per-million-token pricing for a model.
// Prices are in USD per 1 million tokens, sourced from models.dev.
type ModelCost struct {
	InputPerMTok  float64 // USD per 1M input tokens
	OutputPerMTok float64 // USD per 1M output tokens
}

// Cost calculates the total USD cost for the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// LookupCost returns the pricing for a model ID, or nil if unknown.
func LookupCost(modelID string) *ModelCost {
	if c, ok := modelCosts[modelID]; ok {
		return &c
	}
	return nil
}

// modelCosts covers only the models the judge's provider aliases
// (anthropicModels, openaiModels, geminiModels) resolve to, plus their
// direct-ID equivalents — a rubric-grading call is a small, cheap,
// structured-output request, so there is no reason to price anything
// past the low-cost/fast tier of each vendor's catalog. Prices are in
// USD per 1 million tokens, sourced from models.dev. Last updated:
// 2026-02-15.
var modelCosts = map[string]ModelCost{
	// Anthropic — claude-haiku / claude-sonnet aliases.
	"claude-3-5-haiku-20241022": {0.8, 4},
	"claude-haiku-4-5":          {1, 5},
	"claude-haiku-4-5-20251001": {1, 5},
	"claude-sonnet-4-0":         {3, 15},
	"claude-sonnet-4-20250514":  {3, 15},
	"claude-sonnet-4-5":         {3, 15},
	"claude-sonnet-4-5-20250929": {3, 15},

	// OpenAI — gpt-4o / gpt-4o-mini aliases, used directly or via OpenRouter.
	"gpt-4.1-mini":      {0.4, 1.6},
	"gpt-4o":            {2.5, 10},
	"gpt-4o-2024-08-06": {2.5, 10},
	"gpt-4o-mini":       {0.15, 0.6},

	// Google (Gemini) — gemini-flash / gemini-pro aliases.
	"gemini-1.5-flash":      {0.075, 0.3},
	"gemini-2.0-flash":      {0.1, 0.4},
	"gemini-2.0-flash-lite": {0.075, 0.3},
	"gemini-2.5-flash":      {0.3, 2.5},
}
