package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDefaultPricing(t *testing.T) {
	cost := DefaultPricing.Calculate(1_000_000, 1_000_000)
	assert.Equal(t, 0.05, cost.Input)
	assert.Equal(t, 0.40, cost.Output)
	assert.Equal(t, 0.45, cost.Total)
}

func TestCalculateZeroTokens(t *testing.T) {
	cost := DefaultPricing.Calculate(0, 0)
	assert.Equal(t, Cost{}, cost)
}

func TestCalculateRoundsToSixPlaces(t *testing.T) {
	// 333 prompt tokens at $0.050/M = $0.00001665, rounds to 0.000017.
	cost := DefaultPricing.Calculate(333, 0)
	assert.Equal(t, 0.000017, cost.Input)
	assert.Equal(t, 0.000017, cost.Total)
}

func TestCalculateCustomPricing(t *testing.T) {
	p := Pricing{InputPerMillion: 1.0, OutputPerMillion: 2.0}
	cost := p.Calculate(500_000, 250_000)
	assert.Equal(t, 0.5, cost.Input)
	assert.Equal(t, 0.5, cost.Output)
	assert.Equal(t, 1.0, cost.Total)
}
