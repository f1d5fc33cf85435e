package ledger

import "math"

// Pricing holds token unit prices in USD per one million tokens.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultPricing matches the gpt-4o-mini list price.
var DefaultPricing = Pricing{
	InputPerMillion:  0.050,
	OutputPerMillion: 0.400,
}

// Cost is the monetary breakdown of one inference call.
type Cost struct {
	Input  float64 `json:"input_cost"`
	Output float64 `json:"output_cost"`
	Total  float64 `json:"total_cost"`
}

// Calculate prices a token count. Each component is rounded to six decimal
// places before the total is computed and rounded again.
func (p Pricing) Calculate(promptTokens, completionTokens int) Cost {
	input := round6(float64(promptTokens) / 1_000_000 * p.InputPerMillion)
	output := round6(float64(completionTokens) / 1_000_000 * p.OutputPerMillion)
	return Cost{
		Input:  input,
		Output: output,
		Total:  round6(input + output),
	}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
