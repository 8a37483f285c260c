// Package observability wires the SDK into OpenTelemetry. The transport
// emits a span per exchange through the global tracer provider; this
// package bootstraps OTLP HTTP exporters for applications that want those
// spans and the client-operation metrics delivered somewhere.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-app"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-app"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("my-app"))
//
// Multi-exchange client operations (retried uploads, parallel downloads)
// open a parent span via StartOperation so their transport spans nest:
//
//	ctx, op := observability.StartOperation(ctx, "buckets", "UploadBlob", metrics)
//	defer func() { op.End(ctx, err) }()
//
// Health:
//
//	health := observability.NewServiceHealth("my-app", "1.0.0")
//	health.AddComponent(client.CheckHealth(ctx))
package observability
