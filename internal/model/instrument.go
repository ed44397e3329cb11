package model

import (
	"fmt"
	"sort"
	"strings"
)

// Instrument identifies an index whose option chain is analysed.
type Instrument string

const (
	Nifty     Instrument = "NIFTY"
	BankNifty Instrument = "BANKNIFTY"
	Sensex    Instrument = "SENSEX"
)

// Instruments lists every supported instrument in display order.
var Instruments = []Instrument{Nifty, BankNifty, Sensex}

// ParseInstrument maps a case-insensitive symbol onto the closed enumeration.
func ParseInstrument(s string) (Instrument, error) {
	inst := Instrument(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Instruments {
		if inst == known {
			return inst, nil
		}
	}
	return "", fmt.Errorf("unknown instrument %q (use NIFTY, BANKNIFTY or SENSEX)", s)
}

// InstrumentConfig is the static per-instrument configuration.
type InstrumentConfig struct {
	BrokerSymbol string  `yaml:"broker_symbol"`
	LotSize      int     `yaml:"lot_size"`
	TickSize     float64 `yaml:"tick_size"`
	Label        string  `yaml:"label"`
}

// Registry maps instruments to their static configuration.
type Registry map[Instrument]InstrumentConfig

// DefaultRegistry returns a fresh copy of the built-in instrument table.
func DefaultRegistry() Registry {
	return Registry{
		Nifty:     {BrokerSymbol: "NSE:NIFTY50-INDEX", LotSize: 25, TickSize: 50, Label: "NIFTY 50"},
		BankNifty: {BrokerSymbol: "NSE:NIFTYBANK-INDEX", LotSize: 15, TickSize: 100, Label: "BANK NIFTY"},
		Sensex:    {BrokerSymbol: "BSE:SENSEX-INDEX", LotSize: 10, TickSize: 100, Label: "SENSEX"},
	}
}

// Lookup returns the configuration for inst.
func (r Registry) Lookup(inst Instrument) (InstrumentConfig, error) {
	cfg, ok := r[inst]
	if !ok {
		return InstrumentConfig{}, fmt.Errorf("instrument %s not in registry", inst)
	}
	if cfg.TickSize <= 0 {
		return InstrumentConfig{}, fmt.Errorf("instrument %s has non-positive tick size %v", inst, cfg.TickSize)
	}
	return cfg, nil
}

// Keys returns the registered instruments sorted by name.
func (r Registry) Keys() []Instrument {
	out := make([]Instrument, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// StrikeRange is the half-window, in strikes, kept around the ATM strike.
type StrikeRange int

const (
	Range5  StrikeRange = 5
	Range10 StrikeRange = 10
)

// ParseStrikeRange accepts only the supported half-windows.
func ParseStrikeRange(n int) (StrikeRange, error) {
	switch StrikeRange(n) {
	case Range5, Range10:
		return StrikeRange(n), nil
	}
	return 0, fmt.Errorf("invalid strike range %d (use 5 or 10)", n)
}

// StrikeSelection is an optional selected strike.
type StrikeSelection struct {
	price float64
	set   bool
}

// NoStrike is the absent selection.
func NoStrike() StrikeSelection { return StrikeSelection{} }

// SelectStrike selects the strike at price.
func SelectStrike(price float64) StrikeSelection {
	return StrikeSelection{price: price, set: true}
}

// Get returns the selected price and whether a strike is selected.
func (s StrikeSelection) Get() (float64, bool) { return s.price, s.set }

func (s StrikeSelection) String() string {
	if !s.set {
		return "none"
	}
	return fmt.Sprintf("%.2f", s.price)
}
