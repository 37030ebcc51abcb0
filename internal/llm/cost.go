package llm

import "strings"

// modelPrice is the USD price per million tokens.
type modelPrice struct {
	input  float64
	output float64
}

// Prices are matched by model name prefix, longest first.
var modelPrices = []struct {
	prefix string
	price  modelPrice
}{
	{"gemini-3-flash", modelPrice{input: 0.50, output: 3.00}},
	{"gemini-2.5-flash-lite", modelPrice{input: 0.075, output: 0.30}},
	{"gemini-2.5-flash", modelPrice{input: 0.30, output: 2.50}},
	{"gemini-2.5-pro", modelPrice{input: 1.25, output: 10.00}},
	{"gpt-5.2", modelPrice{input: 1.75, output: 14.00}},
	{"gpt-4o-mini", modelPrice{input: 0.15, output: 0.60}},
	{"gpt-4o", modelPrice{input: 2.50, output: 10.00}},
}

// calculateCost returns the USD cost of a call. Unknown models cost 0, which
// is also the right answer for self-hosted endpoints.
func calculateCost(model string, inputTokens, outputTokens int64) float64 {
	for _, p := range modelPrices {
		if strings.HasPrefix(model, p.prefix) {
			inputCost := float64(inputTokens) / 1_000_000 * p.price.input
			outputCost := float64(outputTokens) / 1_000_000 * p.price.output
			return inputCost + outputCost
		}
	}
	return 0
}

func newUsage(model string, input, output, total int64) Usage {
	return Usage{
		InputTokens:  input,
		OutputTokens: output,
		TotalTokens:  total,
		CostUSD:      calculateCost(model, input, output),
	}
}
