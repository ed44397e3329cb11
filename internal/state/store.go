// Package state keeps the per-instrument snapshot history that the
// analysis cycle needs across polls.
package state

import (
	"sync"

	"OptionSentinel/internal/logger"
	"OptionSentinel/internal/model"
	"OptionSentinel/internal/volatility"
)

// InstrumentState is the rolling memory of one instrument. All access goes
// through its own mutex; the volatility engine is only handed out inside
// Store.Submit.
type InstrumentState struct {
	mu sync.Mutex

	current       *model.MarketSnapshot
	previous      *model.MarketSnapshot
	lastTimestamp string
	refreshCount  int
	volatility    *volatility.Engine
}

func newInstrumentState() *InstrumentState {
	return &InstrumentState{volatility: volatility.NewEngine()}
}

// Current returns the latest accepted snapshot.
func (s *InstrumentState) Current() (*model.MarketSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != nil
}

// Previous returns the snapshot accepted before Current.
func (s *InstrumentState) Previous() (*model.MarketSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previous, s.previous != nil
}

func (s *InstrumentState) RefreshCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCount
}

func (s *InstrumentState) LastTimestamp() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTimestamp
}

// VolatilityHistory returns a copy of the buffered velocity samples.
func (s *InstrumentState) VolatilityHistory() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volatility.History()
}

// accept must be called with mu held.
func (s *InstrumentState) accept(snap *model.MarketSnapshot) bool {
	if s.current != nil && snap.Timestamp == s.current.Timestamp {
		return false
	}
	s.previous = s.current
	s.current = snap
	s.lastTimestamp = snap.Timestamp
	s.refreshCount++
	return true
}

// reset must be called with mu held.
func (s *InstrumentState) reset() {
	s.current = nil
	s.previous = nil
	s.lastTimestamp = ""
	s.refreshCount = 0
	s.volatility.Reset()
}

// Cycle is the view of an instrument handed to a Submit callback.
type Cycle struct {
	Accepted     bool
	Current      *model.MarketSnapshot
	Previous     *model.MarketSnapshot
	RefreshCount int
	Volatility   *volatility.Engine
}

// Store owns one InstrumentState per instrument.
type Store struct {
	mu     sync.Mutex
	states map[model.Instrument]*InstrumentState
	log    *logger.Logger
}

func NewStore(log *logger.Logger) *Store {
	if log == nil {
		log = logger.Get()
	}
	return &Store{
		states: make(map[model.Instrument]*InstrumentState),
		log:    log.Named("state"),
	}
}

// GetState returns the state for inst, creating it on first use.
func (st *Store) GetState(inst model.Instrument) *InstrumentState {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.states[inst]
	if !ok {
		s = newInstrumentState()
		st.states[inst] = s
		st.log.Debugw("created instrument state", "instrument", inst)
	}
	return s
}

// AcceptSnapshot shifts current to previous and stores snap as current.
// A snapshot repeating the current timestamp is rejected and nothing changes.
func (st *Store) AcceptSnapshot(inst model.Instrument, snap *model.MarketSnapshot) bool {
	s := st.GetState(inst)
	s.mu.Lock()
	defer s.mu.Unlock()
	return st.acceptLocked(inst, s, snap)
}

// Submit accepts snap (a nil snap is never accepted) and runs fn with the
// instrument locked, so cycles of the same instrument never interleave.
func (st *Store) Submit(inst model.Instrument, snap *model.MarketSnapshot, fn func(Cycle) error) error {
	s := st.GetState(inst)
	s.mu.Lock()
	defer s.mu.Unlock()

	accepted := false
	if snap != nil {
		accepted = st.acceptLocked(inst, s, snap)
	}

	return fn(Cycle{
		Accepted:     accepted,
		Current:      s.current,
		Previous:     s.previous,
		RefreshCount: s.refreshCount,
		Volatility:   s.volatility,
	})
}

func (st *Store) acceptLocked(inst model.Instrument, s *InstrumentState, snap *model.MarketSnapshot) bool {
	if !s.accept(snap) {
		st.log.Debugw("rejected duplicate snapshot", "instrument", inst, "timestamp", snap.Timestamp)
		return false
	}
	st.log.Debugw("accepted snapshot",
		"instrument", inst,
		"timestamp", snap.Timestamp,
		"spot", snap.SpotPrice,
		"refresh_count", s.refreshCount,
	)
	return true
}

// ResetInstrument clears snapshots, velocity buffer and counter of inst.
func (st *Store) ResetInstrument(inst model.Instrument) {
	s := st.GetState(inst)
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
	st.log.Infow("instrument state reset", "instrument", inst)
}

// ResetAll discards every instrument's state.
func (st *Store) ResetAll() {
	st.mu.Lock()
	st.states = make(map[model.Instrument]*InstrumentState)
	st.mu.Unlock()
	st.log.Infow("all instrument state reset")
}

// Instruments returns the instruments currently holding state in display
// order.
func (st *Store) Instruments() []model.Instrument {
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]model.Instrument, 0, len(st.states))
	for _, inst := range model.Instruments {
		if _, ok := st.states[inst]; ok {
			out = append(out, inst)
		}
	}
	return out
}
