package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"OptionSentinel/internal/model"
)

var regimeIcon = map[model.Regime]string{
	model.RegimeHighMomentum: "⚡",
	model.RegimeCompression:  "🧊",
	model.RegimeNormal:       "〰️",
}

func flow(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func level(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

// FormatStatus formats one instrument's latest analysis for display.
func FormatStatus(resp *model.AnalysisResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 <b>%s</b> | %s\n", resp.Instrument, html.EscapeString(resp.Timestamp))
	if !resp.Fresh {
		b.WriteString("<i>no new snapshot since last cycle</i>\n")
	}
	fmt.Fprintf(&b, "Spot: %s (%+.2f)\n", level(resp.Spot), resp.PriceChange)
	if resp.ExpiryDate != "" {
		fmt.Fprintf(&b, "Expiry: %s\n", html.EscapeString(resp.ExpiryDate))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "🟢 Support: %s (conf %.0f%%)\n", level(resp.Support), resp.SupportConfidence*100)
	fmt.Fprintf(&b, "🔴 Resistance: %s (conf %.0f%%)\n", level(resp.Resistance), resp.ResistanceConfidence*100)
	fmt.Fprintf(&b, "%s Regime: %s (ratio %.2f, %.2f/s)\n", regimeIcon[resp.Regime], resp.Regime, resp.VolatilityRatio, resp.VolatilityPerSec)
	fmt.Fprintf(&b, "Pressure: %s %+.2f\n\n", resp.PressureLabel, resp.MarketPressure)

	bs := resp.BuyerSellerSignals
	b.WriteString("<b>OI flow:</b>\n")
	fmt.Fprintf(&b, "  Call buyers %s | Call sellers %s\n", flow(bs.CallBuyer), flow(bs.CallSeller))
	fmt.Fprintf(&b, "  Put buyers %s | Put sellers %s\n", flow(bs.PutBuyer), flow(bs.PutSeller))
	if bs.Dominant != model.DominanceNone {
		fmt.Fprintf(&b, "  Dominant: %s %.0f%%\n", bs.Dominant, bs.DominancePercent)
	} else {
		fmt.Fprintf(&b, "  Dominant: none (top %.0f%%)\n", bs.DominancePercent)
	}

	if sd := resp.StrikeSpecificData; sd != nil {
		fmt.Fprintf(&b, "\n🎯 Strike %s: %s - %s (conf %.0f%%)\n",
			level(sd.Strike), level(sd.LocalSupport), level(sd.LocalResistance), sd.Confidence*100)
	}

	fmt.Fprintf(&b, "\nRefresh #%d", resp.RefreshCount)
	return b.String()
}

// FormatRegimeAlert announces a volatility regime change.
func FormatRegimeAlert(resp *model.AnalysisResponse, from model.Regime) string {
	return fmt.Sprintf("%s <b>%s regime: %s → %s</b>\nSpot %s, ratio %.2f\nS %s / R %s (conf %.0f%% / %.0f%%)",
		regimeIcon[resp.Regime], resp.Instrument, from, resp.Regime,
		level(resp.Spot), resp.VolatilityRatio,
		level(resp.Support), level(resp.Resistance),
		resp.SupportConfidence*100, resp.ResistanceConfidence*100)
}

// FormatDominanceAlert announces a new dominant OI flow category.
func FormatDominanceAlert(resp *model.AnalysisResponse, from model.Dominance) string {
	bs := resp.BuyerSellerSignals
	return fmt.Sprintf("🔀 <b>%s flow: %s → %s (%.0f%%)</b>\nSpot %s (%+.2f)\nCB %s | CS %s | PB %s | PS %s",
		resp.Instrument, from, bs.Dominant, bs.DominancePercent,
		level(resp.Spot), resp.PriceChange,
		flow(bs.CallBuyer), flow(bs.CallSeller), flow(bs.PutBuyer), flow(bs.PutSeller))
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return strings.Join([]string{
		"<b>OptionSentinel</b> commands:",
		"/status &lt;INST&gt; - latest analysis",
		"/reset &lt;INST&gt; - clear instrument state",
		"/resetall - clear all state",
		"/strike &lt;INST&gt; &lt;price|none&gt; - select a strike",
		"/range &lt;INST&gt; &lt;5|10&gt; - set the strike range",
		"Instruments: NIFTY, BANKNIFTY, SENSEX",
	}, "\n")
}
