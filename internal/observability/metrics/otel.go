package metrics

import (
	"context"
	"fmt"
	"time"

	appconfig "github.com/storably/stashsync/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewProvider configures and registers the meter provider. A noop provider is
// installed when the exporter is disabled so instruments stay callable.
func NewProvider(lc fx.Lifecycle, cfg appconfig.Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Metrics.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.Metrics.ExporterProtocol, cfg.Metrics.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down meter provider")
			return provider.Shutdown(ctx)
		},
	})

	return provider, nil
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch protocol {
	case "http":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "grpc", "":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported metrics exporter protocol %q", protocol)
	}
}

// Instruments exposes application-level OTEL instruments.
type Instruments struct {
	syncRuns     metric.Int64Counter
	syncFailures metric.Int64Counter
	callDuration metric.Float64Histogram
}

func NewInstruments(cfg appconfig.Config, provider metric.MeterProvider) (*Instruments, error) {
	meter := provider.Meter(cfg.AppName)

	syncRuns, err := meter.Int64Counter("stashsync_sync_runs_total")
	if err != nil {
		return nil, err
	}
	syncFailures, err := meter.Int64Counter("stashsync_sync_failures_total")
	if err != nil {
		return nil, err
	}
	callDuration, err := meter.Float64Histogram("stashsync_remote_call_duration_ms")
	if err != nil {
		return nil, err
	}

	return &Instruments{
		syncRuns:     syncRuns,
		syncFailures: syncFailures,
		callDuration: callDuration,
	}, nil
}

func (i *Instruments) recordSync(category string, success bool, d time.Duration) {
	if i == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("category", category))
	i.syncRuns.Add(context.Background(), 1, attrs)
	if !success {
		i.syncFailures.Add(context.Background(), 1, attrs)
	}
}

func (i *Instruments) recordCall(operation string, success bool, d time.Duration) {
	if i == nil {
		return
	}
	i.callDuration.Record(context.Background(), float64(d.Milliseconds()),
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.Bool("success", success),
		))
}
