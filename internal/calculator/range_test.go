package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"OptionSentinel/internal/model"
)

func chainOf(strikes ...float64) []model.OptionStrike {
	out := make([]model.OptionStrike, len(strikes))
	for i, s := range strikes {
		out[i] = model.OptionStrike{StrikePrice: s}
	}
	return out
}

func strikePrices(chain []model.OptionStrike) []float64 {
	out := make([]float64, len(chain))
	for i, s := range chain {
		out[i] = s.StrikePrice
	}
	return out
}

func TestATMStrike(t *testing.T) {
	tests := []struct {
		spot, tick, want float64
	}{
		{24380, 50, 24400},
		{24374.99, 50, 24350},
		{24375, 50, 24400},
		{51234, 100, 51200},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ATMStrike(tt.spot, tt.tick), "spot %v tick %v", tt.spot, tt.tick)
	}
}

func TestFilterStrikes_InclusiveBounds(t *testing.T) {
	chain := chainOf(24100, 24150, 24200, 24400, 24600, 24650, 24700)

	got := FilterStrikes(chain, 24380, model.Range5, 50)

	assert.Equal(t, []float64{24150, 24200, 24400, 24600, 24650}, strikePrices(got))
}

func TestFilterStrikes_PreservesOrder(t *testing.T) {
	chain := chainOf(24450, 24350, 24400)

	got := FilterStrikes(chain, 24400, model.Range5, 50)

	assert.Equal(t, []float64{24450, 24350, 24400}, strikePrices(got))
}

func TestFilterStrikes_Empty(t *testing.T) {
	chain := chainOf(20000, 30000)

	assert.Empty(t, FilterStrikes(chain, 24380, model.Range10, 50))
	assert.Empty(t, FilterStrikes(nil, 24380, model.Range10, 50))
}

func TestFilterStrikes_WiderRange(t *testing.T) {
	chain := chainOf(51000, 51700, 52200, 52300)

	got := FilterStrikes(chain, 51234, model.Range10, 100)

	assert.Equal(t, []float64{51000, 51700, 52200}, strikePrices(got))
}
