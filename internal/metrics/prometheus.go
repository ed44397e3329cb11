package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"OptionSentinel/internal/model"
)

// Cycle statuses.
const (
	StatusOK         = "ok"
	StatusStale      = "stale"
	StatusNoSnapshot = "no_snapshot"
	StatusNoStrikes  = "no_strikes"
	StatusFetchError = "fetch_error"
	StatusError      = "error"
	StatusReset      = "reset"
)

var (
	// Cycle metrics
	Cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optionsentinel_cycles_total",
			Help: "Total number of analysis cycles",
		},
		[]string{"instrument", "status"}, // status: ok|stale|no_snapshot|no_strikes|fetch_error|error|reset
	)

	CycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "optionsentinel_cycle_duration_seconds",
			Help:    "Analysis cycle duration in seconds, fetch included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"instrument"},
	)

	// Broker metrics
	FetchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "optionsentinel_fetch_latency_seconds",
			Help:    "Option chain fetch latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"source", "instrument"},
	)

	FetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optionsentinel_fetch_errors_total",
			Help: "Total number of failed option chain fetches",
		},
		[]string{"source", "instrument"},
	)

	// Analysis gauges
	Spot                 = newInstrumentGauge("optionsentinel_spot_price", "Latest spot price")
	Support              = newInstrumentGauge("optionsentinel_support_level", "OI-weighted support level")
	Resistance           = newInstrumentGauge("optionsentinel_resistance_level", "OI-weighted resistance level")
	SupportConfidence    = newInstrumentGauge("optionsentinel_support_confidence", "Volatility-adjusted support confidence")
	ResistanceConfidence = newInstrumentGauge("optionsentinel_resistance_confidence", "Volatility-adjusted resistance confidence")
	Pressure             = newInstrumentGauge("optionsentinel_market_pressure", "Normalized market pressure in [-1, 1]")
	VolatilityRatio      = newInstrumentGauge("optionsentinel_volatility_ratio", "Velocity over its moving average")
	RefreshCount         = newInstrumentGauge("optionsentinel_refresh_count", "Accepted snapshots since last reset")

	Regime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "optionsentinel_regime",
			Help: "Current volatility regime, one-hot",
		},
		[]string{"instrument", "regime"},
	)

	// Push metrics
	WebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "optionsentinel_websocket_clients",
			Help: "Connected WebSocket clients",
		},
	)

	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optionsentinel_notifications_total",
			Help: "Total number of alerts sent",
		},
		[]string{"kind", "status"}, // status: success|error
	)
)

var regimes = []model.Regime{model.RegimeHighMomentum, model.RegimeCompression, model.RegimeNormal}

func newInstrumentGauge(name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, []string{"instrument"})
}

var initOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(Cycles)
		prometheus.MustRegister(CycleDuration)

		prometheus.MustRegister(FetchLatency)
		prometheus.MustRegister(FetchErrors)

		prometheus.MustRegister(Spot)
		prometheus.MustRegister(Support)
		prometheus.MustRegister(Resistance)
		prometheus.MustRegister(SupportConfidence)
		prometheus.MustRegister(ResistanceConfidence)
		prometheus.MustRegister(Pressure)
		prometheus.MustRegister(VolatilityRatio)
		prometheus.MustRegister(RefreshCount)
		prometheus.MustRegister(Regime)

		prometheus.MustRegister(WebSocketClients)
		prometheus.MustRegister(Notifications)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordFetch records one broker call
func RecordFetch(source string, inst model.Instrument, latency time.Duration, err error) {
	FetchLatency.WithLabelValues(source, string(inst)).Observe(latency.Seconds())
	if err != nil {
		FetchErrors.WithLabelValues(source, string(inst)).Inc()
	}
}

// RecordCycle records the outcome of one cycle
func RecordCycle(inst model.Instrument, status string, duration time.Duration) {
	Cycles.WithLabelValues(string(inst), status).Inc()
	CycleDuration.WithLabelValues(string(inst)).Observe(duration.Seconds())
}

// RecordAnalysis publishes the gauges of a computed response
func RecordAnalysis(resp *model.AnalysisResponse) {
	inst := string(resp.Instrument)

	Spot.WithLabelValues(inst).Set(resp.Spot)
	Support.WithLabelValues(inst).Set(resp.Support)
	Resistance.WithLabelValues(inst).Set(resp.Resistance)
	SupportConfidence.WithLabelValues(inst).Set(resp.SupportConfidence)
	ResistanceConfidence.WithLabelValues(inst).Set(resp.ResistanceConfidence)
	Pressure.WithLabelValues(inst).Set(resp.MarketPressure)
	VolatilityRatio.WithLabelValues(inst).Set(resp.VolatilityRatio)
	RefreshCount.WithLabelValues(inst).Set(float64(resp.RefreshCount))

	for _, r := range regimes {
		v := 0.0
		if r == resp.Regime {
			v = 1
		}
		Regime.WithLabelValues(inst, string(r)).Set(v)
	}
}

// RecordNotification records a sent alert
func RecordNotification(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	Notifications.WithLabelValues(kind, status).Inc()
}

// ResetInstrument drops the gauges of inst
func ResetInstrument(inst model.Instrument) {
	for _, g := range []*prometheus.GaugeVec{Spot, Support, Resistance, SupportConfidence, ResistanceConfidence, Pressure, VolatilityRatio, RefreshCount} {
		g.DeleteLabelValues(string(inst))
	}
	for _, r := range regimes {
		Regime.DeleteLabelValues(string(inst), string(r))
	}
}
