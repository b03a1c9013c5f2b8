package cost

import "strings"

// price is USD per million tokens.
type price struct {
	input  float64
	output float64
}

// modelPrices maps model-name prefixes to pricing. Longest prefix wins.
var modelPrices = map[string]price{
	"claude-haiku":     {1, 5},
	"claude-opus":      {15, 75},
	"claude-sonnet":    {3, 15},
	"claude-3-5-haiku": {0.8, 4},
	"gemini-2.5-flash": {0.3, 2.5},
	"gemini-2.5-pro":   {1.25, 10},
	"gpt-4o":           {2.5, 10},
	"gpt-4o-mini":      {0.15, 0.6},
	"gpt-4.1":          {2, 8},
	"gpt-4.1-mini":     {0.4, 1.6},
}

// providerDefaults price unknown models per provider so cost accounting
// never blocks on an unrecognized model name.
var providerDefaults = map[string]price{
	"anthropic": {3, 15},
	"openai":    {2.5, 10},
	"google":    {0.3, 2.5},
}

// priceFor returns pricing for a model, falling back to the provider default
// and finally to a conservative generic rate.
func priceFor(provider, model string) price {
	best := ""
	for prefix := range modelPrices {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best != "" {
		return modelPrices[best]
	}
	if p, ok := providerDefaults[provider]; ok {
		return p
	}
	return price{3, 15}
}

// estimate converts token counts to an estimated cost in USD.
func estimate(provider, model string, inputTokens, outputTokens int) float64 {
	p := priceFor(provider, model)
	return float64(inputTokens)/1e6*p.input + float64(outputTokens)/1e6*p.output
}
