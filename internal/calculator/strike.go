package calculator

import (
	"math"
	"sort"

	"OptionSentinel/internal/model"
)

const (
	neighbourStrikes = 3
	defaultTickSize  = 50.0
	biasScale        = 0.01
)

// ComputeStrikeAnalysis derives micro support and resistance around the
// selected strike from the OI gradient of up to three neighbours per side.
//
//	w               = 1 / (1 + |neighbour − selected|)
//	putBias         = Σ(putChg·w) / Σw
//	callBias        = Σ(callChg·w) / Σw
//	localSupport    = selected − |putBias| · tick · 0.01
//	localResistance = selected + |callBias| · tick · 0.01
//
// tick is the spacing of the two lowest strikes. A strike missing from the
// set yields a flat result with zero confidence.
func ComputeStrikeAnalysis(selected float64, strikes []model.OptionStrike) model.StrikeAnalysis {
	sorted := make([]model.OptionStrike, len(strikes))
	copy(sorted, strikes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StrikePrice < sorted[j].StrikePrice })

	idx := -1
	for i, s := range sorted {
		if s.StrikePrice == selected {
			idx = i
			break
		}
	}
	if idx == -1 {
		return model.StrikeAnalysis{Strike: selected, LocalSupport: selected, LocalResistance: selected}
	}

	start := max(0, idx-neighbourStrikes)
	end := min(len(sorted)-1, idx+neighbourStrikes)

	var putBias, callBias, totalWeight float64
	for i := start; i <= end; i++ {
		s := sorted[i]
		w := 1 / (1 + math.Abs(s.StrikePrice-selected))
		putBias += s.PutOIChange * w
		callBias += s.CallOIChange * w
		totalWeight += w
	}
	if totalWeight > 0 {
		putBias /= totalWeight
		callBias /= totalWeight
	}

	tick := defaultTickSize
	if len(sorted) > 1 {
		tick = math.Abs(sorted[1].StrikePrice - sorted[0].StrikePrice)
	}

	var maxChange float64
	for _, s := range sorted {
		maxChange = math.Max(maxChange, oiActivity(s))
	}
	var confidence float64
	if maxChange > 0 {
		confidence = math.Min(1, oiActivity(sorted[idx])/maxChange)
	}

	return model.StrikeAnalysis{
		Strike:          selected,
		LocalSupport:    selected - math.Abs(putBias)*tick*biasScale,
		LocalResistance: selected + math.Abs(callBias)*tick*biasScale,
		Confidence:      confidence,
	}
}

func oiActivity(s model.OptionStrike) float64 {
	return math.Abs(s.CallOIChange) + math.Abs(s.PutOIChange)
}
