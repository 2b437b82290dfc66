// Package otel wires opt-in OpenTelemetry tracing for agora binaries.
package otel

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func noopShutdown(context.Context) error { return nil }

// enabled reports whether tracing should be wired at all. Tracing is opt-in:
// it needs AGORA_OTEL_ENDPOINT set and AGORA_OTEL_ENABLED not "false".
func enabled() (endpoint string, ok bool) {
	if strings.EqualFold(os.Getenv("AGORA_OTEL_ENABLED"), "false") {
		return "", false
	}
	endpoint = os.Getenv("AGORA_OTEL_ENDPOINT")
	return endpoint, endpoint != ""
}

// Setup registers a global OTLP trace provider for the given service, or a
// no-op when tracing is not configured. The returned shutdown function
// flushes pending spans; callers should defer it.
func Setup(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	endpoint, ok := enabled()
	if !ok {
		return noopShutdown, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return noopShutdown, err
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noopShutdown, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
