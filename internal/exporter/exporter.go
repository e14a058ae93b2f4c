// Package exporter drives the poll loop: fetch counters, flatten them into
// a record batch, deliver the batch, sleep, repeat until cancelled.
package exporter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dnsflux/internal/config"
	"dnsflux/internal/control"
	"dnsflux/internal/counters"
	pipeerr "dnsflux/internal/errors"
	"dnsflux/internal/metrics"
	"dnsflux/internal/selfstats"
	"dnsflux/internal/sink"
)

// Fetcher retrieves one cycle's merged counter tree. Per-family failures
// are returned alongside the (possibly partial) tree.
type Fetcher interface {
	Fetch(ctx context.Context) (*counters.Group, []error)
}

// Sink delivers one cycle's record batch.
type Sink interface {
	Write(ctx context.Context, batch []metrics.Record) error
	Close() error
}

// AuxCollector contributes extra records to a cycle's batch after the
// primary fetch and encode succeeded. An auxiliary failure never fails the
// cycle.
type AuxCollector interface {
	Name() string
	Collect(ctx context.Context, timestamp int64) ([]metrics.Record, error)
}

// Exporter owns the poll cadence. One cycle runs to completion before the
// next begins; the tree and batch of a cycle are never shared across
// cycles.
type Exporter struct {
	interval time.Duration
	fetcher  Fetcher
	encoder  *metrics.Encoder
	sink     Sink
	aux      []AuxCollector
	logger   *slog.Logger
}

// Option overrides a pipeline component, used by tests and by callers
// wiring alternative implementations.
type Option func(*Exporter)

// WithFetcher replaces the control-channel fetcher.
func WithFetcher(f Fetcher) Option {
	return func(e *Exporter) { e.fetcher = f }
}

// WithSink replaces the delivery sink.
func WithSink(s Sink) Option {
	return func(e *Exporter) { e.sink = s }
}

// WithCollector appends an auxiliary collector.
func WithCollector(c AuxCollector) Option {
	return func(e *Exporter) { e.aux = append(e.aux, c) }
}

// New wires the pipeline from the configuration: control-channel fetcher,
// flattener, Influx sink, and the self-telemetry collector when enabled.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Exporter{
		interval: cfg.Interval,
		fetcher: control.NewFetcher(
			cfg.CtlSocket, cfg.CtlTimeout, cfg.CtlFlags, cfg.Zone, logger),
		encoder: metrics.NewEncoder(cfg.Instance, logger),
		sink: sink.NewInflux(
			cfg.InfluxHost, cfg.InfluxPort, cfg.InfluxDB, cfg.InfluxPrecision,
			cfg.InfluxTimeout, logger),
		logger: logger.With("component", "exporter"),
	}
	if cfg.SelfStats {
		e.aux = append(e.aux, selfstats.NewCollector(cfg.Instance,
			selfstats.WithLogger(logger)))
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes poll cycles until ctx is cancelled. Cancellation is honored
// at the sleep boundary only; an in-flight cycle finishes first. The sleep
// is measured from the end of delivery, not from the previous cycle's
// start, so slow cycles stretch the effective period.
func (e *Exporter) Run(ctx context.Context) error {
	e.logger.Info("starting export loop", "interval", e.interval.String())
	for {
		e.runCycle(ctx)
		select {
		case <-ctx.Done():
			e.logger.Info("shutdown requested, stopping export loop")
			return ctx.Err()
		case <-time.After(e.interval):
		}
	}
}

// runCycle performs one fetch, encode, deliver pass. Every failure mode
// logs and returns; the loop never exits on a bad cycle.
func (e *Exporter) runCycle(ctx context.Context) {
	tree, fetchErrs := e.fetcher.Fetch(ctx)
	abandoned := false
	for _, err := range fetchErrs {
		if errors.Is(err, pipeerr.ErrMalformed) {
			e.logger.Error("cycle abandoned", "error", err)
			abandoned = true
			continue
		}
		e.logger.Warn("counter fetch degraded", "error", err)
	}
	if abandoned {
		return
	}

	batch, err := e.encoder.Encode(tree)
	if err != nil {
		e.logger.Error("cycle abandoned", "error", err)
		return
	}

	// Encode guarantees the mandatory server record, so the batch carries
	// at least one record and its shared timestamp.
	timestamp := batch[0].Timestamp
	for _, collector := range e.aux {
		records, err := collector.Collect(ctx, timestamp)
		if err != nil {
			e.logger.Warn("auxiliary collector failed",
				"collector", collector.Name(), "error", err)
			continue
		}
		batch = append(batch, records...)
	}

	if err := e.sink.Write(ctx, batch); err != nil {
		e.logger.Error("delivery failed", "error", err, "records", len(batch))
		return
	}
	e.logger.Debug("cycle delivered", "records", len(batch))
}

// Close releases the sink's resources.
func (e *Exporter) Close() error {
	return e.sink.Close()
}
