package model

// Regime classifies the current price velocity against its moving average.
type Regime string

const (
	RegimeHighMomentum Regime = "HIGH_MOMENTUM"
	RegimeCompression  Regime = "COMPRESSION"
	RegimeNormal       Regime = "NORMAL"
)

// Dominance names the open-interest flow category that leads the cycle.
type Dominance string

const (
	CallBuyer     Dominance = "CALL_BUYER"
	CallSeller    Dominance = "CALL_SELLER"
	PutBuyer      Dominance = "PUT_BUYER"
	PutSeller     Dominance = "PUT_SELLER"
	DominanceNone Dominance = "NONE"
)

// Pressure labels.
const (
	PressureBullish = "Bullish"
	PressureBearish = "Bearish"
	PressureNeutral = "Neutral"
)

// SRResult holds the OI-weighted centroid levels.
// Confidence fields start equal to the strengths and are replaced by the
// volatility-adjusted values in the orchestrator.
type SRResult struct {
	Support              float64
	Resistance           float64
	SupportStrength      float64
	ResistanceStrength   float64
	SupportConfidence    float64
	ResistanceConfidence float64
}

// VolatilityResult is one volatility engine evaluation.
type VolatilityResult struct {
	VolatilityPerSec float64   `json:"volatilityPerSec"`
	VolatilityMA     float64   `json:"volatilityMA"`
	VolatilityRatio  float64   `json:"volatilityRatio"`
	Regime           Regime    `json:"regime"`
	History          []float64 `json:"history"`
}

// PressureResult is the proximity × volume weighted pressure.
type PressureResult struct {
	WeightedPut  float64
	WeightedCall float64
	Pressure     float64
	Label        string
}

// BuyerSellerSignal aggregates OI flow by participant category.
type BuyerSellerSignal struct {
	CallBuyer        float64   `json:"callBuyer"`
	CallSeller       float64   `json:"callSeller"`
	PutBuyer         float64   `json:"putBuyer"`
	PutSeller        float64   `json:"putSeller"`
	Dominant         Dominance `json:"dominant"`
	DominancePercent float64   `json:"dominancePercent"`
}

// StrikeAnalysis is the micro support/resistance around a selected strike.
type StrikeAnalysis struct {
	Strike          float64 `json:"strike"`
	LocalSupport    float64 `json:"localSupport"`
	LocalResistance float64 `json:"localResistance"`
	Confidence      float64 `json:"confidence"`
}

// AnalysisResponse is the single output of one cycle.
// Fresh is false when the cycle's snapshot repeated the stored timestamp and
// the response describes the last accepted snapshot.
type AnalysisResponse struct {
	Timestamp  string     `json:"timestamp"`
	Spot       float64    `json:"spot"`
	Instrument Instrument `json:"index"`
	ExpiryDate string     `json:"expiryDate"`

	Support              float64 `json:"support"`
	Resistance           float64 `json:"resistance"`
	SupportConfidence    float64 `json:"supportConfidence"`
	ResistanceConfidence float64 `json:"resistanceConfidence"`
	SupportStrength      float64 `json:"supportStrength"`
	ResistanceStrength   float64 `json:"resistanceStrength"`

	VolatilityPerSec  float64   `json:"volatilityPerSec"`
	VolatilityMA      float64   `json:"volatilityMA"`
	VolatilityRatio   float64   `json:"volatilityRatio"`
	Regime            Regime    `json:"regime"`
	VolatilityHistory []float64 `json:"volatilityHistory"`

	MarketPressure float64 `json:"marketPressure"`
	PressureLabel  string  `json:"pressureLabel"`

	BuyerSellerSignals BuyerSellerSignal `json:"buyerSellerSignals"`

	StrikeSpecificData *StrikeAnalysis `json:"strikeSpecificData"`

	OptionChain []OptionStrike `json:"optionChain"`

	RefreshCount int     `json:"refreshCount"`
	PriceChange  float64 `json:"priceChange"`
	Fresh        bool    `json:"fresh"`
}
