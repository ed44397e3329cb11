// Package analysis runs one full analysis cycle for an instrument: state
// update, range filter and every engine, assembled into one response.
package analysis

import (
	"errors"
	"fmt"

	"OptionSentinel/internal/calculator"
	"OptionSentinel/internal/logger"
	"OptionSentinel/internal/model"
	"OptionSentinel/internal/state"
	"OptionSentinel/internal/volatility"
)

var (
	// ErrNoSnapshot means the instrument has never accepted a snapshot.
	ErrNoSnapshot = errors.New("no snapshot available")
	// ErrNoStrikesInRange means the filter left nothing to analyse.
	ErrNoStrikesInRange = errors.New("no strikes in range")
)

// Analyzer computes cycles against a shared state store.
type Analyzer struct {
	store    *state.Store
	registry model.Registry
	log      *logger.Logger
}

func NewAnalyzer(store *state.Store, registry model.Registry, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Get()
	}
	return &Analyzer{store: store, registry: registry, log: log.Named("analysis")}
}

// Store returns the underlying state store.
func (a *Analyzer) Store() *state.Store { return a.store }

// ComputeAll submits snap for inst and computes the full response from the
// instrument's current state. A snapshot repeating the stored timestamp
// yields the last-known analysis with Fresh set to false. The volatility
// result is then Engine.Last() without a new sample, so the buffer holds one
// sample per accepted snapshot and a repeat cannot push an extra zero
// velocity. A nil snap recomputes from stored state only.
//
// The whole cycle runs under the instrument lock; either a complete response
// or an error is returned.
func (a *Analyzer) ComputeAll(snap *model.MarketSnapshot, inst model.Instrument, strikeRange model.StrikeRange, selection model.StrikeSelection) (*model.AnalysisResponse, error) {
	cfg, err := a.registry.Lookup(inst)
	if err != nil {
		return nil, fmt.Errorf("compute %s: %w", inst, err)
	}

	var resp *model.AnalysisResponse
	err = a.store.Submit(inst, snap, func(c state.Cycle) error {
		if c.Current == nil {
			return ErrNoSnapshot
		}
		r, err := a.compute(c, inst, cfg, strikeRange, selection)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (a *Analyzer) compute(c state.Cycle, inst model.Instrument, cfg model.InstrumentConfig, strikeRange model.StrikeRange, selection model.StrikeSelection) (*model.AnalysisResponse, error) {
	current := c.Current
	spot := current.SpotPrice

	strikes := calculator.FilterStrikes(current.OptionChain, spot, strikeRange, cfg.TickSize)
	if len(strikes) == 0 {
		a.log.Warnw("no strikes in range",
			"instrument", inst,
			"spot", spot,
			"range", int(strikeRange),
			"chain", len(current.OptionChain),
		)
		return nil, fmt.Errorf("%w: %s ATM±%d", ErrNoStrikesInRange, inst, strikeRange)
	}

	sr := calculator.ComputeSupportResistance(strikes, spot)

	var previousSpot float64
	secondsElapsed := DefaultElapsedSeconds
	if c.Previous != nil {
		previousSpot = c.Previous.SpotPrice
		secondsElapsed = ElapsedSeconds(c.Previous.Timestamp, current.Timestamp)
	}

	var vol model.VolatilityResult
	if c.Accepted {
		vol = c.Volatility.Compute(spot, previousSpot, secondsElapsed)
	} else {
		vol = c.Volatility.Last()
	}

	sr.SupportConfidence = volatility.AdjustConfidence(sr.SupportStrength, vol.Regime)
	sr.ResistanceConfidence = volatility.AdjustConfidence(sr.ResistanceStrength, vol.Regime)

	pressure := calculator.ComputeMarketPressure(strikes, spot)

	var priceChange float64
	if previousSpot > 0 {
		priceChange = spot - previousSpot
	}
	flows := calculator.ComputeBuyerSeller(strikes, priceChange)

	var strikeData *model.StrikeAnalysis
	if price, ok := selection.Get(); ok {
		sa := calculator.ComputeStrikeAnalysis(price, strikes)
		strikeData = &sa
	}

	return &model.AnalysisResponse{
		Timestamp:  current.Timestamp,
		Spot:       spot,
		Instrument: inst,
		ExpiryDate: current.ExpiryDate,

		Support:              sr.Support,
		Resistance:           sr.Resistance,
		SupportConfidence:    sr.SupportConfidence,
		ResistanceConfidence: sr.ResistanceConfidence,
		SupportStrength:      sr.SupportStrength,
		ResistanceStrength:   sr.ResistanceStrength,

		VolatilityPerSec:  vol.VolatilityPerSec,
		VolatilityMA:      vol.VolatilityMA,
		VolatilityRatio:   vol.VolatilityRatio,
		Regime:            vol.Regime,
		VolatilityHistory: vol.History,

		MarketPressure: pressure.Pressure,
		PressureLabel:  pressure.Label,

		BuyerSellerSignals: flows,
		StrikeSpecificData: strikeData,
		OptionChain:        strikes,

		RefreshCount: c.RefreshCount,
		PriceChange:  priceChange,
		Fresh:        c.Accepted,
	}, nil
}
