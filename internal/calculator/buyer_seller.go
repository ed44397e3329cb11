package calculator

import "OptionSentinel/internal/model"

// DominanceThreshold is the share, in percent, a category must exceed to be
// reported as dominant.
const DominanceThreshold = 60.0

// ComputeBuyerSeller classifies fresh OI by the direction of the spot move:
//
//	callChg > 0, price up   → call buyers
//	callChg > 0, price down → call sellers
//	putChg  > 0, price up   → put sellers
//	putChg  > 0, price down → put buyers
//
// An unchanged price classifies nothing.
func ComputeBuyerSeller(strikes []model.OptionStrike, priceChange float64) model.BuyerSellerSignal {
	var sig model.BuyerSellerSignal

	for _, s := range strikes {
		if s.CallOIChange > 0 {
			if priceChange > 0 {
				sig.CallBuyer += s.CallOIChange
			} else if priceChange < 0 {
				sig.CallSeller += s.CallOIChange
			}
		}
		if s.PutOIChange > 0 {
			if priceChange > 0 {
				sig.PutSeller += s.PutOIChange
			} else if priceChange < 0 {
				sig.PutBuyer += s.PutOIChange
			}
		}
	}

	sig.Dominant, sig.DominancePercent = dominance(sig)
	return sig
}

// dominance returns the leading category and its share of the total.
// The share is reported even when it stays under the threshold.
func dominance(sig model.BuyerSellerSignal) (model.Dominance, float64) {
	total := sig.CallBuyer + sig.CallSeller + sig.PutBuyer + sig.PutSeller
	if total <= 0 {
		return model.DominanceNone, 0
	}

	categories := []struct {
		key   model.Dominance
		value float64
	}{
		{model.CallBuyer, sig.CallBuyer},
		{model.CallSeller, sig.CallSeller},
		{model.PutBuyer, sig.PutBuyer},
		{model.PutSeller, sig.PutSeller},
	}

	top := categories[0]
	for _, c := range categories[1:] {
		if c.value > top.value {
			top = c
		}
	}

	percent := top.value / total * 100
	if percent > DominanceThreshold {
		return top.key, percent
	}
	return model.DominanceNone, percent
}
