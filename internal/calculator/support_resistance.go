package calculator

import (
	"math"

	"OptionSentinel/internal/model"
)

// ComputeSupportResistance derives proximity-weighted OI centroid levels.
//
//	w          = 1 / (1 + |strike − spot|)
//	support    = Σ(strike·putChg·w) / Σ(putChg·w)    strikes below spot, putChg > 0
//	resistance = Σ(strike·callChg·w) / Σ(callChg·w)  strikes above spot, callChg > 0
//	strength   = Σ(chg·w) / Σ(positive chg of that side in range), capped at 1
//
// A side with no qualifying strike falls back to spot with zero strength.
// Levels keep full precision and are not snapped to the tick grid.
func ComputeSupportResistance(strikes []model.OptionStrike, spot float64) model.SRResult {
	var supportNum, supportDen, resistanceNum, resistanceDen float64
	var totalPut, totalCall float64

	for _, s := range strikes {
		w := proximityWeight(s.StrikePrice, spot)

		if s.StrikePrice < spot && s.PutOIChange > 0 {
			supportNum += s.StrikePrice * s.PutOIChange * w
			supportDen += s.PutOIChange * w
		}
		if s.StrikePrice > spot && s.CallOIChange > 0 {
			resistanceNum += s.StrikePrice * s.CallOIChange * w
			resistanceDen += s.CallOIChange * w
		}

		if s.PutOIChange > 0 {
			totalPut += s.PutOIChange
		}
		if s.CallOIChange > 0 {
			totalCall += s.CallOIChange
		}
	}

	res := model.SRResult{Support: spot, Resistance: spot}
	if supportDen > 0 {
		res.Support = supportNum / supportDen
	}
	if resistanceDen > 0 {
		res.Resistance = resistanceNum / resistanceDen
	}
	if totalPut > 0 {
		res.SupportStrength = math.Min(1, supportDen/totalPut)
	}
	if totalCall > 0 {
		res.ResistanceStrength = math.Min(1, resistanceDen/totalCall)
	}
	res.SupportConfidence = res.SupportStrength
	res.ResistanceConfidence = res.ResistanceStrength
	return res
}
