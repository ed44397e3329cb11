package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"OptionSentinel/internal/model"
)

func sampleResponse() *model.AnalysisResponse {
	return &model.AnalysisResponse{
		Timestamp:            "2026-02-27 14:30:00",
		Spot:                 24380.5,
		Instrument:           model.Nifty,
		ExpiryDate:           "05-MAR-2026",
		Support:              24350,
		Resistance:           24412.25,
		SupportConfidence:    0.42,
		ResistanceConfidence: 0.3,
		Regime:               model.RegimeNormal,
		VolatilityRatio:      1.1,
		MarketPressure:       0.35,
		PressureLabel:        model.PressureBullish,
		BuyerSellerSignals: model.BuyerSellerSignal{
			CallBuyer:        1234567,
			PutSeller:        89000,
			Dominant:         model.CallBuyer,
			DominancePercent: 93.3,
		},
		RefreshCount: 12,
		PriceChange:  4.5,
		Fresh:        true,
	}
}

func TestFormatStatus(t *testing.T) {
	resp := sampleResponse()
	resp.StrikeSpecificData = &model.StrikeAnalysis{Strike: 24400, LocalSupport: 24390, LocalResistance: 24415.5, Confidence: 0.8}

	msg := FormatStatus(resp)

	assert.Contains(t, msg, "<b>NIFTY</b>")
	assert.Contains(t, msg, "Spot: 24,380.5 (+4.50)")
	assert.Contains(t, msg, "Resistance: 24,412.25")
	assert.Contains(t, msg, "Call buyers 1,234,567")
	assert.Contains(t, msg, "Put sellers 89,000")
	assert.Contains(t, msg, "Dominant: CALL_BUYER 93%")
	assert.Contains(t, msg, "Strike 24,400")
	assert.Contains(t, msg, "Refresh #12")
	assert.NotContains(t, msg, "no new snapshot")
}

func TestFormatStatus_Stale(t *testing.T) {
	resp := sampleResponse()
	resp.Fresh = false
	resp.BuyerSellerSignals.Dominant = model.DominanceNone
	resp.BuyerSellerSignals.DominancePercent = 55

	msg := FormatStatus(resp)

	assert.Contains(t, msg, "no new snapshot")
	assert.Contains(t, msg, "Dominant: none (top 55%)")
	assert.NotContains(t, msg, "Strike")
}

func TestFormatAlerts(t *testing.T) {
	resp := sampleResponse()
	resp.Regime = model.RegimeHighMomentum

	assert.Contains(t, FormatRegimeAlert(resp, model.RegimeNormal), "NORMAL → HIGH_MOMENTUM")
	assert.Contains(t, FormatDominanceAlert(resp, model.DominanceNone), "NONE → CALL_BUYER (93%)")
	assert.Contains(t, FormatHelp(), "/strike")
}

func TestFormatStatus_EscapesBrokerStrings(t *testing.T) {
	resp := sampleResponse()
	resp.Timestamp = "<now>"
	resp.ExpiryDate = "A&B"

	out := FormatStatus(resp)

	assert.Contains(t, out, "&lt;now&gt;")
	assert.Contains(t, out, "Expiry: A&amp;B")
	assert.NotContains(t, out, "<now>")
}
