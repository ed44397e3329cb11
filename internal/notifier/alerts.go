package notifier

import (
	"sync"

	"OptionSentinel/internal/model"
)

// Alert kinds.
const (
	AlertRegime    = "regime"
	AlertDominance = "dominance"
)

// Alert is one message worth pushing.
type Alert struct {
	Kind       string
	Instrument model.Instrument
	Text       string
}

type lastSeen struct {
	regime    model.Regime
	dominance model.Dominance
}

// AlertTracker remembers the last regime and dominance per instrument and
// reports changes. The first response of an instrument only primes it.
type AlertTracker struct {
	mu   sync.Mutex
	seen map[model.Instrument]lastSeen
}

func NewAlertTracker() *AlertTracker {
	return &AlertTracker{seen: make(map[model.Instrument]lastSeen)}
}

// Observe returns the alerts triggered by resp. Stale responses never alert.
func (a *AlertTracker) Observe(resp *model.AnalysisResponse) []Alert {
	if resp == nil || !resp.Fresh {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	cur := lastSeen{regime: resp.Regime, dominance: resp.BuyerSellerSignals.Dominant}
	prev, ok := a.seen[resp.Instrument]
	a.seen[resp.Instrument] = cur
	if !ok {
		return nil
	}

	var alerts []Alert
	if cur.regime != prev.regime {
		alerts = append(alerts, Alert{
			Kind:       AlertRegime,
			Instrument: resp.Instrument,
			Text:       FormatRegimeAlert(resp, prev.regime),
		})
	}
	if cur.dominance != prev.dominance && cur.dominance != model.DominanceNone {
		alerts = append(alerts, Alert{
			Kind:       AlertDominance,
			Instrument: resp.Instrument,
			Text:       FormatDominanceAlert(resp, prev.dominance),
		})
	}
	return alerts
}

// Forget drops the memory of inst.
func (a *AlertTracker) Forget(inst model.Instrument) {
	a.mu.Lock()
	delete(a.seen, inst)
	a.mu.Unlock()
}

// ForgetAll drops every instrument.
func (a *AlertTracker) ForgetAll() {
	a.mu.Lock()
	a.seen = make(map[model.Instrument]lastSeen)
	a.mu.Unlock()
}
