// Package agent drives the collect-then-write cycle of the metrics agent.
package agent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Schera-ole/hostagent/internal/collector"
	models "github.com/Schera-ole/hostagent/internal/model"
	"github.com/Schera-ole/hostagent/internal/rate"
)

// SampleWriter persists the samples of one tick.
type SampleWriter interface {
	Write(ctx context.Context, samples []models.Sample) error
}

// Settings controls the cadence and bounds of the scheduler.
type Settings struct {
	// Hostname is stamped on every sample
	Hostname string

	// Interval is the time between tick starts
	Interval time.Duration

	// CollectTimeout bounds a single collector invocation
	CollectTimeout time.Duration

	// StaleAfter is how long a rate baseline may go unobserved before it is dropped
	StaleAfter time.Duration
}

// TickReport summarizes one tick.
type TickReport struct {
	Timestamp  time.Time     `json:"timestamp"`
	Duration   time.Duration `json:"duration"`
	Samples    int           `json:"samples"`
	Failed     []models.Kind `json:"failed,omitempty"`
	Skipped    []models.Kind `json:"skipped,omitempty"`
	Forgotten  int           `json:"forgotten"`
	WriteError string        `json:"write_error,omitempty"`
}

// Scheduler runs every collector once per tick and hands the samples to the writer.
type Scheduler struct {
	collectors []collector.Collector
	busy       []atomic.Bool
	tracker    *rate.Tracker
	writer     SampleWriter
	settings   Settings
	logger     *zap.SugaredLogger
	now        func() time.Time

	mu   sync.RWMutex
	last *TickReport
}

func NewScheduler(
	collectors []collector.Collector,
	tracker *rate.Tracker,
	writer SampleWriter,
	settings Settings,
	logger *zap.SugaredLogger,
) *Scheduler {
	return &Scheduler{
		collectors: collectors,
		busy:       make([]atomic.Bool, len(collectors)),
		tracker:    tracker,
		writer:     writer,
		settings:   settings,
		logger:     logger,
		now:        time.Now,
	}
}

// Run ticks immediately and then every Interval until ctx is cancelled. A tick
// that overruns the interval is followed immediately by the next one. The tick
// in flight when ctx is cancelled runs to completion.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Infow("scheduler started",
		"interval", s.settings.Interval,
		"collectors", len(s.collectors),
	)

	timer := time.NewTimer(0)
	defer timer.Stop()
	next := s.now()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-timer.C:
		}
		if ctx.Err() != nil {
			s.logger.Info("scheduler stopped")
			return nil
		}

		s.Tick(context.WithoutCancel(ctx), s.now())

		next = next.Add(s.settings.Interval)
		wait := next.Sub(s.now())
		if wait < 0 {
			s.logger.Warnw("tick overran the interval", "behind", -wait)
			next = s.now()
			wait = 0
		}
		timer.Reset(wait)
	}
}

type outcome struct {
	samples []models.Sample
	failed  bool
	skipped bool
}

// Tick runs one collect-then-write cycle stamped with at.
func (s *Scheduler) Tick(ctx context.Context, at time.Time) TickReport {
	h := models.Header{Hostname: s.settings.Hostname, Timestamp: at}
	outcomes := make([]outcome, len(s.collectors))

	var g errgroup.Group
	for i, c := range s.collectors {
		if !s.busy[i].CompareAndSwap(false, true) {
			s.logger.Warnw("collector still running from a previous tick, skipping", "kind", c.Kind())
			outcomes[i].skipped = true
			continue
		}
		g.Go(func() error {
			samples, err := s.collect(ctx, i, c, h)
			if err != nil {
				s.logger.Errorw("collection failed", "kind", c.Kind(), "error", err)
				outcomes[i].failed = true
				return nil
			}
			outcomes[i].samples = samples
			return nil
		})
	}
	_ = g.Wait()

	report := TickReport{Timestamp: at}
	var samples []models.Sample
	for i, o := range outcomes {
		switch {
		case o.skipped:
			report.Skipped = append(report.Skipped, s.collectors[i].Kind())
		case o.failed:
			report.Failed = append(report.Failed, s.collectors[i].Kind())
		}
		samples = append(samples, o.samples...)
	}
	report.Samples = len(samples)

	if s.settings.StaleAfter > 0 {
		report.Forgotten = s.tracker.Forget(at.Add(-s.settings.StaleAfter))
	}

	if err := s.writer.Write(ctx, samples); err != nil {
		s.logger.Errorw("tick samples dropped", "samples", len(samples), "error", err)
		report.WriteError = err.Error()
	}
	report.Duration = s.now().Sub(at)

	s.logger.Debugw("tick finished",
		"timestamp", at,
		"samples", report.Samples,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"duration", report.Duration,
	)

	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()
	return report
}

// collect runs one collector under the collect timeout. The busy flag of the
// collector is cleared only when Collect returns, even after a timeout.
func (s *Scheduler) collect(ctx context.Context, i int, c collector.Collector, h models.Header) ([]models.Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, s.settings.CollectTimeout)
	defer cancel()

	type result struct {
		samples []models.Sample
		err     error
	}
	done := make(chan result, 1)
	go func() {
		defer s.busy[i].Store(false)
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("collector panicked: %v", r)}
			}
		}()
		samples, err := c.Collect(ctx, h)
		done <- result{samples: samples, err: err}
	}()

	select {
	case r := <-done:
		return r.samples, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("collector timed out after %s: %w", s.settings.CollectTimeout, ctx.Err())
	}
}

// LastTick returns the report of the most recent tick.
func (s *Scheduler) LastTick() (TickReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return TickReport{}, false
	}
	return *s.last, true
}
