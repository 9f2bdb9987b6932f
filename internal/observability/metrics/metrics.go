package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	obligations   metric.Int64Counter
	payoutRuns    metric.Int64Counter
	signatures    metric.Int64Counter
	disbursements metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "payrail"
	}
	meter := provider.Meter(name)

	obligations, err := meter.Int64Counter("payrail_payout_items_total")
	if err != nil {
		return nil, err
	}
	payoutRuns, err := meter.Int64Counter("payrail_payout_runs_total")
	if err != nil {
		return nil, err
	}
	signatures, err := meter.Int64Counter("payrail_payout_signatures_total")
	if err != nil {
		return nil, err
	}
	disbursements, err := meter.Int64Counter("payrail_disbursements_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		obligations:   obligations,
		payoutRuns:    payoutRuns,
		signatures:    signatures,
		disbursements: disbursements,
	}, nil
}

// RecordObligations counts payout items written by the generator.
func (m *Metrics) RecordObligations(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.obligations.Add(ctx, int64(count))
}

// RecordPayoutRun counts aggregation runs and the payouts they produced.
func (m *Metrics) RecordPayoutRun(ctx context.Context, payouts int) {
	if m == nil {
		return
	}
	m.payoutRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("payouts", payouts),
	))
}

// RecordSignature counts approver signatures by outcome.
func (m *Metrics) RecordSignature(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.signatures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
	))
}

// RecordDisbursement counts dispatched batches by provider and result.
func (m *Metrics) RecordDisbursement(ctx context.Context, provider, result string) {
	if m == nil {
		return
	}
	m.disbursements.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("result", strings.TrimSpace(result)),
	))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
