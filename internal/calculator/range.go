package calculator

import (
	"math"

	"OptionSentinel/internal/model"
)

// ATMStrike rounds spot to the nearest multiple of tick.
func ATMStrike(spot, tick float64) float64 {
	return math.Round(spot/tick) * tick
}

// FilterStrikes keeps every strike within rangeWidth ticks of the ATM strike,
// bounds inclusive. Chain order is preserved. An empty result means no
// analysis is possible this cycle.
func FilterStrikes(chain []model.OptionStrike, spot float64, rangeWidth model.StrikeRange, tick float64) []model.OptionStrike {
	atm := ATMStrike(spot, tick)
	lower := atm - float64(rangeWidth)*tick
	upper := atm + float64(rangeWidth)*tick

	out := make([]model.OptionStrike, 0, 2*int(rangeWidth)+1)
	for _, s := range chain {
		if s.StrikePrice >= lower && s.StrikePrice <= upper {
			out = append(out, s)
		}
	}
	return out
}

// proximityWeight favours strikes close to spot.
func proximityWeight(strike, spot float64) float64 {
	return 1 / (1 + math.Abs(strike-spot))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
