package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/odvcencio/remoteflow"
)

// TracerProvider holds the OpenTelemetry tracer provider
type TracerProvider struct {
	provider *sdktrace.TracerProvider
}

// NewTracerProvider creates a tracer provider exporting to w (stderr when
// nil) and installs it as the global provider.
func NewTracerProvider(serviceName, version string, w io.Writer) (*TracerProvider, error) {
	if w == nil {
		w = os.Stderr
	}
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(provider)

	return &TracerProvider{
		provider: provider,
	}, nil
}

// Shutdown flushes pending spans and stops the provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp == nil {
		return nil
	}
	return tp.provider.Shutdown(ctx)
}

// Tracer returns the package tracer from provider, or from the global
// provider when nil.
func Tracer(provider trace.TracerProvider) trace.Tracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return provider.Tracer(tracerName)
}

// Common attribute keys for remoteflow spans
var (
	AttrRPCMethod     = attribute.Key("rpc.method")
	AttrRPCCode       = attribute.Key("rpc.grpc.status_code")
	AttrRequestID     = attribute.Key("remoteflow.request_id")
	AttrSessionID     = attribute.Key("remoteflow.session.id")
	AttrWorkflowToken = attribute.Key("remoteflow.workflow.token")
	AttrChainedWith   = attribute.Key("remoteflow.workflow.chained_with")
)
