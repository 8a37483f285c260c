package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/veldtcloud/veldt-sdk-go/logger"
	"github.com/veldtcloud/veldt-sdk-go/version"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the embedding application.
	ServiceName string
	// ServiceVersion is the version of the embedding application.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) *MeterConfig {
	return &MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.Version,
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the global OpenTelemetry meter provider. Returns a
// MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds OpenTelemetry instruments for client-operation
// observability. A nil *Metrics disables recording.
type Metrics struct {
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	operationActive   metric.Int64UpDownCounter
	errorTotal        metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	operationTotal, err := meter.Int64Counter("veldt.operation.total",
		metric.WithDescription("Total number of client operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating veldt.operation.total counter: %w", err)
	}

	operationDuration, err := meter.Float64Histogram("veldt.operation.duration",
		metric.WithDescription("Duration of client operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating veldt.operation.duration histogram: %w", err)
	}

	operationActive, err := meter.Int64UpDownCounter("veldt.operation.active",
		metric.WithDescription("Number of client operations currently in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating veldt.operation.active gauge: %w", err)
	}

	errorTotal, err := meter.Int64Counter("veldt.error.total",
		metric.WithDescription("Total errors by kind and client"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating veldt.error.total counter: %w", err)
	}

	return &Metrics{
		operationTotal:    operationTotal,
		operationDuration: operationDuration,
		operationActive:   operationActive,
		errorTotal:        errorTotal,
	}, nil
}

// RecordOperationStart increments the active operation count.
func (m *Metrics) RecordOperationStart(ctx context.Context, client string) {
	if m == nil {
		return
	}
	m.operationActive.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client", client),
	))
}

// RecordOperationEnd decrements active operations and records the completed
// operation with its outcome and duration.
func (m *Metrics) RecordOperationEnd(ctx context.Context, client, operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationActive.Add(ctx, -1, metric.WithAttributes(
		attribute.String("client", client),
	))
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client", client),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("client", client),
		attribute.String("operation", operation),
	))
}

// RecordError records an error by kind and client.
func (m *Metrics) RecordError(ctx context.Context, kind, client string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("client", client),
	))
}
