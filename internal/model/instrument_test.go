package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstrument(t *testing.T) {
	inst, err := ParseInstrument(" banknifty ")
	require.NoError(t, err)
	assert.Equal(t, BankNifty, inst)

	_, err = ParseInstrument("FINNIFTY")
	assert.Error(t, err)
}

func TestParseStrikeRange(t *testing.T) {
	for _, n := range []int{5, 10} {
		r, err := ParseStrikeRange(n)
		require.NoError(t, err)
		assert.Equal(t, StrikeRange(n), r)
	}
	_, err := ParseStrikeRange(7)
	assert.Error(t, err)
}

func TestRegistry_Keys(t *testing.T) {
	assert.Equal(t, []Instrument{BankNifty, Nifty, Sensex}, DefaultRegistry().Keys())
	assert.Empty(t, Registry{}.Keys())
}

func TestRegistry_Lookup(t *testing.T) {
	reg := DefaultRegistry()
	cfg, err := reg.Lookup(Nifty)
	require.NoError(t, err)
	assert.Equal(t, 50.0, cfg.TickSize)

	reg[Sensex] = InstrumentConfig{TickSize: 0}
	_, err = reg.Lookup(Sensex)
	assert.Error(t, err)

	_, err = Registry{}.Lookup(Nifty)
	assert.Error(t, err)
}

func TestStrikeSelection(t *testing.T) {
	_, ok := NoStrike().Get()
	assert.False(t, ok)
	assert.Equal(t, "none", NoStrike().String())

	price, ok := SelectStrike(24400).Get()
	require.True(t, ok)
	assert.Equal(t, 24400.0, price)
	assert.Equal(t, "24400.00", SelectStrike(24400).String())
}
