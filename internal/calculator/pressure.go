package calculator

import (
	"math"

	"OptionSentinel/internal/model"
)

// Label thresholds on the normalized pressure.
const (
	BullishThreshold = 0.2
	BearishThreshold = -0.2
)

// ComputeMarketPressure weights fresh put and call writing by proximity to
// spot and by traded volume:
//
//	volumeWeight = ln(1 + callVolume + putVolume)
//	pressure     = (weightedPut − weightedCall) / max(|weightedPut|, |weightedCall|, 1)
//
// Positive pressure means put writing dominates, read as bullish support.
func ComputeMarketPressure(strikes []model.OptionStrike, spot float64) model.PressureResult {
	var weightedPut, weightedCall float64

	for _, s := range strikes {
		w := proximityWeight(s.StrikePrice, spot)
		vw := math.Log1p(s.CallVolume + s.PutVolume)

		if s.PutOIChange > 0 {
			weightedPut += s.PutOIChange * w * vw
		}
		if s.CallOIChange > 0 {
			weightedCall += s.CallOIChange * w * vw
		}
	}

	maxMag := math.Max(math.Max(math.Abs(weightedPut), math.Abs(weightedCall)), 1)
	pressure := clamp((weightedPut-weightedCall)/maxMag, -1, 1)

	label := model.PressureNeutral
	switch {
	case pressure > BullishThreshold:
		label = model.PressureBullish
	case pressure < BearishThreshold:
		label = model.PressureBearish
	}

	return model.PressureResult{
		WeightedPut:  weightedPut,
		WeightedCall: weightedCall,
		Pressure:     pressure,
		Label:        label,
	}
}
