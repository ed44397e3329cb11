package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"OptionSentinel/internal/model"
)

func TestDominance_Threshold(t *testing.T) {
	tests := []struct {
		name        string
		sig         model.BuyerSellerSignal
		wantKey     model.Dominance
		wantPercent float64
	}{
		{"call buyers above threshold", model.BuyerSellerSignal{CallBuyer: 61, CallSeller: 20, PutBuyer: 10, PutSeller: 9}, model.CallBuyer, 61},
		{"top share below threshold", model.BuyerSellerSignal{CallBuyer: 55, CallSeller: 15, PutBuyer: 15, PutSeller: 15}, model.DominanceNone, 55},
		{"exactly sixty is not dominant", model.BuyerSellerSignal{PutSeller: 60, CallBuyer: 40}, model.DominanceNone, 60},
		{"put sellers", model.BuyerSellerSignal{PutSeller: 80, CallBuyer: 20}, model.PutSeller, 80},
		{"empty", model.BuyerSellerSignal{}, model.DominanceNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, percent := dominance(tt.sig)
			assert.Equal(t, tt.wantKey, key)
			assert.InDelta(t, tt.wantPercent, percent, 1e-9)
		})
	}
}

func TestDominance_TieReportsShare(t *testing.T) {
	key, percent := dominance(model.BuyerSellerSignal{CallSeller: 50, PutBuyer: 50})

	assert.Equal(t, model.DominanceNone, key)
	assert.InDelta(t, 50, percent, 1e-9)
}

func TestComputeBuyerSeller_Classification(t *testing.T) {
	strikes := []model.OptionStrike{
		{StrikePrice: 24350, CallOIChange: 100, PutOIChange: 300},
		{StrikePrice: 24400, CallOIChange: 200, PutOIChange: -50},
	}

	up := ComputeBuyerSeller(strikes, 12.5)
	assert.Equal(t, 300.0, up.CallBuyer)
	assert.Equal(t, 300.0, up.PutSeller)
	assert.Zero(t, up.CallSeller)
	assert.Zero(t, up.PutBuyer)
	assert.Equal(t, model.DominanceNone, up.Dominant)
	assert.InDelta(t, 50, up.DominancePercent, 1e-9)

	down := ComputeBuyerSeller(strikes, -3)
	assert.Equal(t, 300.0, down.CallSeller)
	assert.Equal(t, 300.0, down.PutBuyer)
	assert.Zero(t, down.CallBuyer)
	assert.Zero(t, down.PutSeller)
}

func TestComputeBuyerSeller_FlatPrice(t *testing.T) {
	strikes := []model.OptionStrike{
		{StrikePrice: 24350, CallOIChange: 100, PutOIChange: 300},
	}

	sig := ComputeBuyerSeller(strikes, 0)

	assert.Equal(t, model.BuyerSellerSignal{Dominant: model.DominanceNone}, sig)
}

func TestComputeBuyerSeller_Dominant(t *testing.T) {
	strikes := []model.OptionStrike{
		{StrikePrice: 24350, CallOIChange: 900, PutOIChange: 100},
	}

	sig := ComputeBuyerSeller(strikes, 5)

	assert.Equal(t, model.CallBuyer, sig.Dominant)
	assert.InDelta(t, 90, sig.DominancePercent, 1e-9)
}
