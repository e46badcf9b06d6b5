// Package telemetry exports reconciliation metrics over OTLP.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/mj1618/droidtile/internal/model"
)

const meterName = "github.com/mj1618/droidtile"

// Config controls metric export.
type Config struct {
	// OTLPEndpoint is a gRPC collector address such as "localhost:4317".
	// Empty disables export.
	OTLPEndpoint string        `yaml:"otlp_endpoint" json:"otlp_endpoint" mapstructure:"otlp_endpoint"`
	Insecure     bool          `yaml:"insecure"      json:"insecure"      mapstructure:"insecure"`
	Interval     time.Duration `yaml:"interval"      json:"interval"      mapstructure:"interval"`
}

// Provider owns the meter provider for the process.
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
}

// New sets up OTLP export when an endpoint is configured. Without one the
// global (no-op) meter provider is used.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Provider, error) {
	if cfg.OTLPEndpoint == "" {
		return &Provider{meter: otel.Meter(meterName)}, nil
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(interval),
		)),
	)
	otel.SetMeterProvider(mp)

	log.Info().Str("endpoint", cfg.OTLPEndpoint).Dur("interval", interval).Msg("metrics export enabled")
	return &Provider{meterProvider: mp, meter: mp.Meter(meterName)}, nil
}

// Meter returns the meter for droidtile instruments.
func (p *Provider) Meter() metric.Meter {
	if p == nil || p.meter == nil {
		return otel.Meter(meterName)
	}
	return p.meter
}

// Shutdown flushes pending metrics.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}

// Metrics holds the reconciliation instruments. A nil *Metrics records
// nothing.
type Metrics struct {
	cycles       metric.Int64Counter
	moves        metric.Int64Counter
	moveFailures metric.Int64Counter
	launches     metric.Int64Counter
	duration     metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.cycles, err = meter.Int64Counter("droidtile.cycles",
		metric.WithDescription("Reconciliation cycles by outcome"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, err
	}

	m.moves, err = meter.Int64Counter("droidtile.moves",
		metric.WithDescription("Successful window moves"),
		metric.WithUnit("{move}"),
	)
	if err != nil {
		return nil, err
	}

	m.moveFailures, err = meter.Int64Counter("droidtile.move_failures",
		metric.WithDescription("Window moves rejected by the host"),
		metric.WithUnit("{move}"),
	)
	if err != nil {
		return nil, err
	}

	m.launches, err = meter.Int64Counter("droidtile.launches",
		metric.WithDescription("Apps launched while seeding empty workspaces"),
		metric.WithUnit("{launch}"),
	)
	if err != nil {
		return nil, err
	}

	m.duration, err = meter.Float64Histogram("droidtile.cycle.duration",
		metric.WithDescription("Reconciliation cycle duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordCycle records one finished cycle.
func (m *Metrics) RecordCycle(ctx context.Context, displayID int, s model.CycleSummary) {
	if m == nil {
		return
	}
	display := attribute.Int("display", displayID)
	m.cycles.Add(ctx, 1, metric.WithAttributes(display, attribute.String("outcome", string(s.Outcome))))
	m.duration.Record(ctx, s.Duration.Seconds(), metric.WithAttributes(display))
	if s.Moves > 0 {
		m.moves.Add(ctx, int64(s.Moves), metric.WithAttributes(display))
	}
	if s.MoveFailures > 0 {
		m.moveFailures.Add(ctx, int64(s.MoveFailures), metric.WithAttributes(display))
	}
	if s.Launches > 0 {
		m.launches.Add(ctx, int64(s.Launches), metric.WithAttributes(display))
	}
}
