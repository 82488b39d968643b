// Package collect implements the collection coordinator: it resolves
// each configured source to an extraction strategy, runs all extractions
// concurrently under a shared cap, retries transient failures, and folds
// the survivors through normalization, deduplication, window filtering,
// and a deterministic sort.
package collect

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"venuefeed/extract"
	"venuefeed/model"
)

const (
	defaultConcurrency      = 5
	defaultMaxAttempts      = 3
	defaultPerSourceTimeout = 30 * time.Second
	defaultBackoffBase      = time.Second
	defaultBackoffCap       = 30 * time.Second
)

// Coordinator orchestrates one collection run across many sources. A
// single source failing, however it fails, only ever costs that source's
// entry in the result; it never aborts the run.
type Coordinator struct {
	registry *extract.Registry
	client   *http.Client

	concurrency      int
	perSourceTimeout time.Duration
	overallDeadline  time.Duration
	policy           RetryPolicy
	metrics          *Metrics

	// sleep is swapped out by tests so backoff does not slow them down.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithConcurrency caps the number of sources extracted simultaneously.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) { c.concurrency = n }
}

// WithMaxAttempts sets the retry ceiling per source.
func WithMaxAttempts(n int) Option {
	return func(c *Coordinator) { c.policy.MaxAttempts = n }
}

// WithPerSourceTimeout caps a single extraction attempt.
func WithPerSourceTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.perSourceTimeout = d }
}

// WithOverallDeadline caps the whole Collect call. Sources still pending
// when it elapses report a timeout error instead of partial data.
func WithOverallDeadline(d time.Duration) Option {
	return func(c *Coordinator) { c.overallDeadline = d }
}

// WithBackoff shapes the retry delay curve.
func WithBackoff(base, cap time.Duration) Option {
	return func(c *Coordinator) {
		c.policy.Base = base
		c.policy.Cap = cap
	}
}

// WithMetrics attaches prometheus instrumentation to the run.
func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// New creates a Coordinator. The HTTP client is shared read-only across
// all concurrent extractions.
func New(registry *extract.Registry, client *http.Client, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry:         registry,
		client:           client,
		concurrency:      defaultConcurrency,
		perSourceTimeout: defaultPerSourceTimeout,
		policy: RetryPolicy{
			MaxAttempts: defaultMaxAttempts,
			Base:        defaultBackoffBase,
			Cap:         defaultBackoffCap,
		},
		sleep: sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// outcome is one source's terminal result: events or an error, never
// both. Each task writes its own preallocated slot, so aggregation needs
// no locking.
type outcome struct {
	events []model.Event
	err    *model.SourceError
}

// Collect runs all sources and returns the merged, deduplicated, window
// filtered, sorted result. It returns a non-nil error only for caller
// mistakes; source-level failures land in Result.Errors.
func (c *Coordinator) Collect(ctx context.Context, sources []model.Source, window model.Window) (*model.Result, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("collect: no sources configured")
	}
	if c.concurrency < 1 {
		return nil, fmt.Errorf("collect: concurrency must be positive, got %d", c.concurrency)
	}
	if c.policy.MaxAttempts < 1 {
		return nil, fmt.Errorf("collect: max attempts must be positive, got %d", c.policy.MaxAttempts)
	}
	seen := make(map[string]bool, len(sources))
	for _, src := range sources {
		if seen[src.Key] {
			return nil, fmt.Errorf("collect: duplicate source key %q", src.Key)
		}
		seen[src.Key] = true
	}

	runID := uuid.NewString()[:8]
	log := slog.With("run_id", runID)
	started := time.Now()
	log.Info("collection run starting", "sources", len(sources))

	if c.overallDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.overallDeadline)
		defer cancel()
	}

	// Resolve everything before any network I/O. A source whose strategy
	// cannot be resolved is a configuration error and never enters the
	// concurrent phase.
	type task struct {
		src      model.Source
		strategy extract.Strategy
	}
	var tasks []task
	var errs []model.SourceError
	for _, src := range sources {
		strategy, err := c.registry.Resolve(src)
		if err != nil {
			log.Error("strategy resolution failed", "source", src.Key, "error", err)
			errs = append(errs, model.SourceError{
				SourceKey:  src.Key,
				SourceName: src.Name,
				Kind:       model.KindUnresolvedStrategy,
				Message:    err.Error(),
			})
			continue
		}
		tasks = append(tasks, task{src: src, strategy: strategy})
	}

	outcomes := make([]outcome, len(tasks))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				outcomes[i] = outcome{err: c.deadlineError(t.src, 0)}
				return
			}
			outcomes[i] = c.runSource(ctx, log, t.src, t.strategy)
		}(i, t)
	}
	wg.Wait()

	var pool []model.Event
	for _, o := range outcomes {
		if o.err != nil {
			errs = append(errs, *o.err)
			continue
		}
		pool = append(pool, o.events...)
	}

	valid, dropped := Normalize(pool)
	if dropped > 0 {
		log.Warn("dropped structurally invalid records", "count", dropped)
	}
	events := SortEvents(FilterWindow(Dedupe(valid), window))

	c.observe(sources, outcomes[:len(tasks)], errs, dropped, time.Since(started))
	log.Info("collection run complete",
		"events", len(events), "failed_sources", len(errs),
		"elapsed", time.Since(started).Round(time.Millisecond))

	return &model.Result{Events: events, Errors: errs}, nil
}

// runSource drives one source through its attempt state machine:
// attempt, classify, consult the retry policy, back off, repeat until
// success, a non-retryable kind, or attempt exhaustion.
func (c *Coordinator) runSource(ctx context.Context, log *slog.Logger, src model.Source, strategy extract.Strategy) outcome {
	for attempt := 1; ; attempt++ {
		log.Debug("extracting", "source", src.Key, "attempt", attempt)

		events, err := c.attempt(ctx, src, strategy)
		if err == nil {
			log.Info("source extracted", "source", src.Key, "events", len(events), "attempt", attempt)
			return outcome{events: events}
		}

		kind := Classify(err)
		retry, delay := c.policy.ShouldRetry(kind, attempt)
		if !retry {
			log.Error("source failed", "source", src.Key,
				"kind", kind, "attempt", attempt, "error", err)
			return outcome{err: &model.SourceError{
				SourceKey:  src.Key,
				SourceName: src.Name,
				Kind:       kind,
				Message:    err.Error(),
				Attempt:    attempt,
				Retryable:  kind.Retryable(),
			}}
		}

		log.Warn("source attempt failed, retrying", "source", src.Key,
			"kind", kind, "attempt", attempt, "delay", delay.Round(time.Millisecond))
		if serr := c.sleep(ctx, delay); serr != nil {
			// The overall deadline elapsed while backing off.
			return outcome{err: c.deadlineError(src, attempt)}
		}
	}
}

// attempt runs a single extraction under the per-source timeout. A
// cancelled attempt never contributes partial data.
func (c *Coordinator) attempt(ctx context.Context, src model.Source, strategy extract.Strategy) ([]model.Event, error) {
	actx := ctx
	if c.perSourceTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, c.perSourceTimeout)
		defer cancel()
	}

	events, err := strategy.Extract(actx, c.client, src)
	if err != nil {
		return nil, err
	}
	if actx.Err() != nil {
		return nil, actx.Err()
	}
	return events, nil
}

func (c *Coordinator) deadlineError(src model.Source, attempt int) *model.SourceError {
	return &model.SourceError{
		SourceKey:  src.Key,
		SourceName: src.Name,
		Kind:       model.KindTimeout,
		Message:    "run deadline elapsed before extraction finished",
		Attempt:    attempt,
		Retryable:  true,
	}
}

func (c *Coordinator) observe(sources []model.Source, outcomes []outcome, errs []model.SourceError, dropped int, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.Runs.Inc()
	c.metrics.RunDuration.Observe(elapsed.Seconds())
	c.metrics.InvalidRecords.Add(float64(dropped))
	for _, o := range outcomes {
		if o.err == nil && len(o.events) > 0 {
			c.metrics.EventsCollected.WithLabelValues(o.events[0].SourceKey).Add(float64(len(o.events)))
		}
	}
	for _, e := range errs {
		c.metrics.SourceFailures.WithLabelValues(string(e.Kind)).Inc()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
