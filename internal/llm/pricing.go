package llm

import "markbench/internal/domain"

// modelPrice is the USD price per million input/output tokens.
type modelPrice struct {
	inputPerMTok  float64
	outputPerMTok float64
}

var modelPrices = map[string]map[string]modelPrice{
	domain.ProviderAnthropic: {
		"claude-3-5-sonnet": {3.00, 15.00},
		"claude-3-5-haiku":  {0.80, 4.00},
		"claude-3-opus":     {15.00, 75.00},
	},
	domain.ProviderOpenAI: {
		"gpt-4o":      {2.50, 10.00},
		"gpt-4o-mini": {0.15, 0.60},
		"gpt-4-turbo": {10.00, 30.00},
	},
	domain.ProviderGemini: {
		"gemini-1.5-pro":   {1.25, 5.00},
		"gemini-1.5-flash": {0.075, 0.30},
	},
}

// providerDefaults price unknown models conservatively at the provider's
// flagship rate.
var providerDefaults = map[string]modelPrice{
	domain.ProviderAnthropic: {3.00, 15.00},
	domain.ProviderOpenAI:    {2.50, 10.00},
	domain.ProviderGemini:    {1.25, 5.00},
}

// EstimateCost prices a call from token counts. Unknown providers cost zero.
func EstimateCost(provider, model string, inputTokens, outputTokens int) float64 {
	price, ok := modelPrices[provider][model]
	if !ok {
		price, ok = providerDefaults[provider]
		if !ok {
			return 0
		}
	}
	in := float64(inputTokens) / 1_000_000 * price.inputPerMTok
	out := float64(outputTokens) / 1_000_000 * price.outputPerMTok
	return in + out
}
