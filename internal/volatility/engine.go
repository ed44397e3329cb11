// Package volatility tracks per-second spot velocity over a short rolling
// window and classifies the current move against its average.
package volatility

import (
	"math"

	"OptionSentinel/internal/model"
)

const (
	// BufferSize is the number of velocity samples kept.
	BufferSize = 10

	highMomentumRatio = 1.5
	compressionRatio  = 0.8
	minCompression    = 3

	highMomentumFactor = 0.7
	compressionFactor  = 1.2
)

// Engine is a stateful velocity tracker. It is not safe for concurrent use;
// each instrument owns exactly one behind its state lock.
type Engine struct {
	buf  []float64
	last model.VolatilityResult
}

func NewEngine() *Engine {
	e := &Engine{buf: make([]float64, 0, BufferSize)}
	e.last = e.zero()
	return e
}

// Compute records |current − previous| / seconds as a new sample and
// returns velocity, moving average, ratio and regime. A non-positive
// interval or missing previous spot leaves the buffer untouched.
func (e *Engine) Compute(currentSpot, previousSpot, secondsElapsed float64) model.VolatilityResult {
	if secondsElapsed <= 0 || previousSpot <= 0 {
		e.last = e.zero()
		return e.last
	}

	velocity := math.Abs(currentSpot-previousSpot) / secondsElapsed
	e.push(velocity)

	ma := mean(e.buf)
	var ratio float64
	if ma > 0 {
		ratio = velocity / ma
	}

	e.last = model.VolatilityResult{
		VolatilityPerSec: velocity,
		VolatilityMA:     ma,
		VolatilityRatio:  ratio,
		Regime:           classify(ratio, len(e.buf)),
		History:          e.History(),
	}
	return e.last
}

// Last returns the most recent result without recording a sample.
func (e *Engine) Last() model.VolatilityResult {
	res := e.last
	res.History = e.History()
	return res
}

// History returns a copy of the buffered samples, oldest first.
func (e *Engine) History() []float64 {
	out := make([]float64, len(e.buf))
	copy(out, e.buf)
	return out
}

// Len returns the number of buffered samples.
func (e *Engine) Len() int { return len(e.buf) }

// Reset empties the buffer.
func (e *Engine) Reset() {
	e.buf = e.buf[:0]
	e.last = e.zero()
}

func (e *Engine) push(v float64) {
	e.buf = append(e.buf, v)
	if len(e.buf) > BufferSize {
		e.buf = append(e.buf[:0], e.buf[len(e.buf)-BufferSize:]...)
	}
}

func (e *Engine) zero() model.VolatilityResult {
	return model.VolatilityResult{Regime: model.RegimeNormal, History: e.History()}
}

func classify(ratio float64, samples int) model.Regime {
	switch {
	case ratio > highMomentumRatio:
		return model.RegimeHighMomentum
	case ratio < compressionRatio && samples >= minCompression:
		return model.RegimeCompression
	default:
		return model.RegimeNormal
	}
}

// AdjustConfidence scales a raw confidence by regime and clamps it to [0, 1].
// Fast markets break levels more often; compressed markets respect them.
func AdjustConfidence(confidence float64, regime model.Regime) float64 {
	switch regime {
	case model.RegimeHighMomentum:
		confidence *= highMomentumFactor
	case model.RegimeCompression:
		confidence *= compressionFactor
	}
	return math.Max(0, math.Min(1, confidence))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
