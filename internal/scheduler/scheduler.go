package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"OptionSentinel/internal/analysis"
	"OptionSentinel/internal/collector"
	"OptionSentinel/internal/config"
	"OptionSentinel/internal/logger"
	"OptionSentinel/internal/metrics"
	"OptionSentinel/internal/model"
	"OptionSentinel/internal/notifier"
)

// ErrReset is returned by RunNow when the instrument was reset while the
// cycle ran. Its response is dropped.
var ErrReset = errors.New("instrument reset during cycle")

// Publisher receives every computed response.
type Publisher interface {
	Publish(resp *model.AnalysisResponse) error
	Forget(inst model.Instrument)
	ForgetAll()
}

type noopPublisher struct{}

func (noopPublisher) Publish(*model.AnalysisResponse) error { return nil }
func (noopPublisher) Forget(model.Instrument)               {}
func (noopPublisher) ForgetAll()                            {}

// Options wires a Scheduler.
type Options struct {
	Analyzer  *analysis.Analyzer
	Fetcher   collector.Fetcher
	Registry  model.Registry
	Notifier  notifier.Notifier
	Publisher Publisher
	Targets   []config.Target
	Interval  time.Duration
	Logger    *logger.Logger
}

// Scheduler polls every target instrument on a fixed interval and drives the
// analysis cycle.
type Scheduler struct {
	Cron *cron.Cron
	Ctx  context.Context

	analyzer  *analysis.Analyzer
	fetcher   collector.Fetcher
	registry  model.Registry
	notifier  notifier.Notifier
	publisher Publisher
	alerts    *notifier.AlertTracker
	interval  time.Duration
	log       *logger.Logger

	mu      sync.RWMutex
	order   []model.Instrument
	targets map[model.Instrument]config.Target
	latest  map[model.Instrument]*model.AnalysisResponse
	// resets counts resets per instrument; a cycle started before a reset
	// must not publish.
	resets map[model.Instrument]uint64
	sends  sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, opts Options) *Scheduler {
	log := opts.Logger
	if log == nil {
		log = logger.Get()
	}
	log = log.Named("scheduler")

	n := opts.Notifier
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	pub := opts.Publisher
	if pub == nil {
		pub = noopPublisher{}
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	s := &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger{log}),
			cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
		),
		Ctx:       ctx,
		analyzer:  opts.Analyzer,
		fetcher:   opts.Fetcher,
		registry:  opts.Registry,
		notifier:  n,
		publisher: pub,
		alerts:    notifier.NewAlertTracker(),
		interval:  interval,
		log:       log,
		targets:   make(map[model.Instrument]config.Target),
		latest:    make(map[model.Instrument]*model.AnalysisResponse),
		resets:    make(map[model.Instrument]uint64),
	}
	for _, t := range opts.Targets {
		s.order = append(s.order, t.Instrument)
		s.targets[t.Instrument] = t
	}
	return s
}

// RegisterAll registers one poll job per target instrument.
func (s *Scheduler) RegisterAll() error {
	spec := "@every " + s.interval.String()
	for _, inst := range s.order {
		inst := inst
		if _, err := s.Cron.AddFunc(spec, func() { s.RunNow(inst) }); err != nil {
			return fmt.Errorf("register poll job %s: %w", inst, err)
		}
		s.log.Infow("registered poll job", "instrument", inst, "interval", s.interval)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running cycles and pending
// alerts to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.sends.Wait()
	s.log.Info("scheduler stopped")
}

// RunAllNow runs one cycle for every target (for RUN_ON_START).
func (s *Scheduler) RunAllNow() {
	for _, inst := range s.Instruments() {
		s.RunNow(inst)
	}
}

// Instruments returns the polled instruments in configured order.
func (s *Scheduler) Instruments() []model.Instrument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Instrument, len(s.order))
	copy(out, s.order)
	return out
}

// Target returns the current polling parameters of inst.
func (s *Scheduler) Target(inst model.Instrument) (config.Target, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.targets[inst]
	return t, ok
}

// Latest returns the last computed response of inst.
func (s *Scheduler) Latest(inst model.Instrument) (*model.AnalysisResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.latest[inst]
	return resp, ok
}

// RunNow runs one fetch and analysis cycle for inst. A failed fetch leaves
// the stored state untouched.
func (s *Scheduler) RunNow(inst model.Instrument) (*model.AnalysisResponse, error) {
	start := time.Now()
	log := s.log.With("instrument", inst)

	s.mu.RLock()
	target, ok := s.targets[inst]
	generation := s.resets[inst]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("instrument %s is not polled", inst)
	}
	cfg, err := s.registry.Lookup(inst)
	if err != nil {
		return nil, err
	}

	fetchStart := time.Now()
	snap, err := s.fetcher.FetchSnapshot(s.Ctx, inst, cfg)
	metrics.RecordFetch(s.fetcher.Name(), inst, time.Since(fetchStart), err)
	if err != nil {
		log.Warnw("fetch failed", "source", s.fetcher.Name(), "error", err)
		metrics.RecordCycle(inst, metrics.StatusFetchError, time.Since(start))
		return nil, fmt.Errorf("fetch %s: %w", inst, err)
	}

	resp, err := s.analyzer.ComputeAll(snap, inst, target.Range, target.Selection)
	if err != nil {
		status := metrics.StatusError
		switch {
		case errors.Is(err, analysis.ErrNoSnapshot):
			status = metrics.StatusNoSnapshot
		case errors.Is(err, analysis.ErrNoStrikesInRange):
			status = metrics.StatusNoStrikes
		}
		log.Warnw("analysis failed", "status", status, "error", err)
		metrics.RecordCycle(inst, status, time.Since(start))
		return nil, err
	}

	status := metrics.StatusOK
	if !resp.Fresh {
		status = metrics.StatusStale
	}

	s.mu.Lock()
	if s.resets[inst] != generation {
		s.mu.Unlock()
		log.Infow("discarding cycle started before reset", "timestamp", resp.Timestamp)
		metrics.RecordCycle(inst, metrics.StatusReset, time.Since(start))
		return nil, ErrReset
	}
	s.latest[inst] = resp
	metrics.RecordAnalysis(resp)
	if err := s.publisher.Publish(resp); err != nil {
		log.Errorw("publish response", "error", err)
	}
	alerts := s.alerts.Observe(resp)
	s.mu.Unlock()

	metrics.RecordCycle(inst, status, time.Since(start))
	for _, a := range alerts {
		s.trySend(a.Kind, a.Text)
	}

	log.Debugw("cycle complete",
		"status", status,
		"spot", resp.Spot,
		"support", resp.Support,
		"resistance", resp.Resistance,
		"regime", resp.Regime,
		"pressure", resp.PressureLabel,
		"dominant", resp.BuyerSellerSignals.Dominant,
		"refresh_count", resp.RefreshCount,
		"duration", time.Since(start),
	)
	return resp, nil
}

// ResetInstrument clears core state and everything remembered about inst.
// A cycle of inst that is still running is discarded when it finishes.
func (s *Scheduler) ResetInstrument(inst model.Instrument) {
	s.analyzer.Store().ResetInstrument(inst)
	s.mu.Lock()
	s.resets[inst]++
	delete(s.latest, inst)
	s.alerts.Forget(inst)
	s.publisher.Forget(inst)
	metrics.ResetInstrument(inst)
	s.mu.Unlock()
}

// ResetAll clears every instrument.
func (s *Scheduler) ResetAll() {
	s.analyzer.Store().ResetAll()
	keys := s.registry.Keys()
	s.mu.Lock()
	for _, inst := range keys {
		s.resets[inst]++
	}
	s.latest = make(map[model.Instrument]*model.AnalysisResponse)
	s.alerts.ForgetAll()
	s.publisher.ForgetAll()
	for _, inst := range keys {
		metrics.ResetInstrument(inst)
	}
	s.mu.Unlock()
}

// SetSelection changes the selected strike of a polled instrument.
func (s *Scheduler) SetSelection(inst model.Instrument, sel model.StrikeSelection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.targets[inst]
	if !ok {
		return fmt.Errorf("instrument %s is not polled", inst)
	}
	t.Selection = sel
	s.targets[inst] = t
	return nil
}

// SetRange changes the strike range of a polled instrument.
func (s *Scheduler) SetRange(inst model.Instrument, rng model.StrikeRange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.targets[inst]
	if !ok {
		return fmt.Errorf("instrument %s is not polled", inst)
	}
	t.Range = rng
	s.targets[inst] = t
	return nil
}

// trySend delivers an alert in the background so retries never delay the
// next cycle.
func (s *Scheduler) trySend(kind, text string) {
	s.sends.Add(1)
	go func() {
		defer s.sends.Done()
		err := notifier.SendWithRetry(s.Ctx, s.notifier, text, 3, s.log)
		metrics.RecordNotification(kind, err)
		if err != nil {
			s.log.Errorw("send notification", "kind", kind, "error", err)
		}
	}()
}

// cronLogger adapts the zap logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
