package model

import (
	"errors"
	"fmt"
	"math"
)

// OptionStrike is one strike's quote. Values are never mutated after the
// broker client builds them.
type OptionStrike struct {
	StrikePrice  float64 `json:"strikePrice"`
	CallOI       float64 `json:"callOI"`
	PutOI        float64 `json:"putOI"`
	CallOIChange float64 `json:"callOIChange"`
	PutOIChange  float64 `json:"putOIChange"`
	CallVolume   float64 `json:"callVolume"`
	PutVolume    float64 `json:"putVolume"`
	CallLTP      float64 `json:"callLTP"`
	PutLTP       float64 `json:"putLTP"`
	CallIV       float64 `json:"callIV"`
	PutIV        float64 `json:"putIV"`
}

func (s OptionStrike) fields() []float64 {
	return []float64{
		s.StrikePrice, s.CallOI, s.PutOI, s.CallOIChange, s.PutOIChange,
		s.CallVolume, s.PutVolume, s.CallLTP, s.PutLTP, s.CallIV, s.PutIV,
	}
}

// MarketSnapshot is one atomic broker read of an instrument's option chain.
type MarketSnapshot struct {
	Timestamp   string         `json:"timestamp"`
	SpotPrice   float64        `json:"spotPrice"`
	OptionChain []OptionStrike `json:"optionChain"`
	ExpiryDate  string         `json:"expiryDate"`
	Instrument  Instrument     `json:"index"`
}

var (
	ErrEmptyTimestamp = errors.New("snapshot timestamp is empty")
	ErrInvalidSpot    = errors.New("snapshot spot price must be positive")
	ErrEmptyChain     = errors.New("snapshot option chain is empty")
	ErrNonFinite      = errors.New("snapshot contains a non-finite value")
)

// Validate reports whether the snapshot may be handed to the analysis core.
// The core itself never re-validates.
func (s *MarketSnapshot) Validate() error {
	if s.Timestamp == "" {
		return ErrEmptyTimestamp
	}
	if !(s.SpotPrice > 0) || math.IsInf(s.SpotPrice, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSpot, s.SpotPrice)
	}
	if len(s.OptionChain) == 0 {
		return ErrEmptyChain
	}
	for _, strike := range s.OptionChain {
		for _, v := range strike.fields() {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w at strike %.2f", ErrNonFinite, strike.StrikePrice)
			}
		}
	}
	return nil
}
