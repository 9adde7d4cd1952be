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
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

const (
	LookupResultCache   = "cache"
	LookupResultDB      = "db"
	LookupResultUnknown = "unknown"

	LinkageResultLinked     = "linked"
	LinkageResultUnresolved = "unresolved"
	LinkageResultFailed     = "failed"
)

// Metrics exposes pricing and posting instruments.
type Metrics struct {
	priceLookups   metric.Int64Counter
	cacheRefreshes metric.Int64Counter
	linkage        metric.Int64Counter
	jobsWritten    metric.Int64Counter
	eventsOut      metric.Int64Counter
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

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
	}
	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "jobboard"
	}
	meter := provider.Meter(name)

	priceLookups, err := meter.Int64Counter("jobboard_price_lookup_total")
	if err != nil {
		return nil, err
	}
	cacheRefreshes, err := meter.Int64Counter("jobboard_price_cache_refresh_total")
	if err != nil {
		return nil, err
	}
	linkage, err := meter.Int64Counter("jobboard_catalog_linkage_total")
	if err != nil {
		return nil, err
	}
	jobsWritten, err := meter.Int64Counter("jobboard_job_postings_written_total")
	if err != nil {
		return nil, err
	}
	eventsOut, err := meter.Int64Counter("jobboard_events_published_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		priceLookups:   priceLookups,
		cacheRefreshes: cacheRefreshes,
		linkage:        linkage,
		jobsWritten:    jobsWritten,
		eventsOut:      eventsOut,
	}, nil
}

// NewNoop returns instruments bound to a no-op provider.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

// RecordPriceLookup counts plan/addon price resolutions by source.
func (m *Metrics) RecordPriceLookup(ctx context.Context, kind, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", kind),
		attribute.String("result", result),
	)
	m.priceLookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordCacheRefresh(ctx context.Context) {
	if m == nil {
		return
	}
	m.cacheRefreshes.Add(ctx, 1)
}

// RecordLinkage counts plan/addon catalog linkage outcomes.
func (m *Metrics) RecordLinkage(ctx context.Context, step, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("step", step),
		attribute.String("result", result),
	)
	m.linkage.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordJobWrite(ctx context.Context, operation, plan string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("operation", operation),
		attribute.String("plan", plan),
	)
	m.jobsWritten.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordEventPublished(ctx context.Context, eventType string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	attrs := FilterAttributes(
		attribute.String("event_type", eventType),
		attribute.String("result", result),
	)
	m.eventsOut.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
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

var allowedLabelKeys = map[attribute.Key]struct{}{
	"kind":       {},
	"result":     {},
	"step":       {},
	"operation":  {},
	"plan":       {},
	"event_type": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
