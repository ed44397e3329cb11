package collector

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"OptionSentinel/internal/model"
)

var mockBaseSpot = map[model.Instrument]float64{
	model.Nifty:     24380,
	model.BankNifty: 51240,
	model.Sensex:    80110,
}

// MockFetcher returns a synthetic option chain around a random-walk spot for
// development and testing. Each call advances the timestamp by Step.
type MockFetcher struct {
	// Fixed, when set for an instrument, is returned as is.
	Fixed map[model.Instrument]*model.MarketSnapshot
	// Err, when set, fails every call.
	Err error
	// Step is the timestamp advance per call; 5s when zero.
	Step time.Duration
	// StrikesPerSide is the chain half-width; 15 when zero.
	StrikesPerSide int

	mu    sync.Mutex
	rng   *rand.Rand
	start time.Time
	calls map[model.Instrument]int
	spots map[model.Instrument]float64
}

// NewMockFetcher creates a mock whose output depends only on seed.
func NewMockFetcher(seed int64) *MockFetcher {
	m := &MockFetcher{}
	m.init(seed)
	return m
}

func (m *MockFetcher) init(seed int64) {
	m.rng = rand.New(rand.NewSource(seed))
	m.start = time.Date(2026, 2, 27, 9, 15, 0, 0, time.UTC)
	m.calls = make(map[model.Instrument]int)
	m.spots = make(map[model.Instrument]float64)
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchSnapshot(ctx context.Context, inst model.Instrument, cfg model.InstrumentConfig) (*model.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if snap, ok := m.Fixed[inst]; ok {
		return snap, nil
	}
	if cfg.TickSize <= 0 {
		return nil, fmt.Errorf("mock %s: tick size %v", inst, cfg.TickSize)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rng == nil {
		m.init(1)
	}

	spot, ok := m.spots[inst]
	if !ok {
		spot = mockBaseSpot[inst]
		if spot == 0 {
			spot = 1000 * cfg.TickSize
		}
	} else {
		spot += m.rng.NormFloat64() * cfg.TickSize * 0.1
	}
	spot = math.Round(spot*100) / 100
	m.spots[inst] = spot

	step := m.Step
	if step == 0 {
		step = 5 * time.Second
	}
	n := m.calls[inst]
	m.calls[inst] = n + 1
	ts := m.start.Add(time.Duration(n) * step)

	half := m.StrikesPerSide
	if half == 0 {
		half = 15
	}

	snap := &model.MarketSnapshot{
		Timestamp:   ts.Format("2006-01-02 15:04:05"),
		SpotPrice:   spot,
		ExpiryDate:  ts.AddDate(0, 0, 7).Format("02-Jan-2006"),
		Instrument:  inst,
		OptionChain: m.chain(spot, cfg.TickSize, half),
	}
	return snap, nil
}

// chain builds a smile-shaped chain: OI peaks a few strikes out of the money,
// OI change is noisy around a drift tied to distance from spot.
func (m *MockFetcher) chain(spot, tick float64, half int) []model.OptionStrike {
	atm := math.Round(spot/tick) * tick
	out := make([]model.OptionStrike, 0, 2*half+1)
	for i := -half; i <= half; i++ {
		strike := atm + float64(i)*tick
		dist := (strike - spot) / tick

		callOI := 2e6 * math.Exp(-math.Pow(dist-3, 2)/18)
		putOI := 2e6 * math.Exp(-math.Pow(dist+3, 2)/18)

		out = append(out, model.OptionStrike{
			StrikePrice:  strike,
			CallOI:       math.Round(callOI),
			PutOI:        math.Round(putOI),
			CallOIChange: math.Round(callOI * (0.02 + 0.05*m.rng.NormFloat64())),
			PutOIChange:  math.Round(putOI * (0.02 + 0.05*m.rng.NormFloat64())),
			CallVolume:   math.Round(callOI * (0.5 + m.rng.Float64())),
			PutVolume:    math.Round(putOI * (0.5 + m.rng.Float64())),
			CallLTP:      math.Max(0.05, math.Round((math.Max(0, spot-strike)+tick*2*math.Exp(-math.Abs(dist)/4))*100)/100),
			PutLTP:       math.Max(0.05, math.Round((math.Max(0, strike-spot)+tick*2*math.Exp(-math.Abs(dist)/4))*100)/100),
			CallIV:       math.Round((12+0.15*dist*dist)*100) / 100,
			PutIV:        math.Round((12.5+0.15*dist*dist)*100) / 100,
		})
	}
	return out
}
