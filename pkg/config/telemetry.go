package config

import (
	"context"
	"errors"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/mpapenbr/racepredict/log"
	"github.com/mpapenbr/racepredict/version"
)

type Telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// SetupTelemetry installs global tracer and meter providers.
// Data is sent to TelemetryEndpoint via otlp/grpc or written to stderr if no
// endpoint is configured.
func SetupTelemetry(ctx context.Context) (*Telemetry, error) {
	return setupTelemetry(ctx, TelemetryEndpoint, os.Stderr)
}

func setupTelemetry(ctx context.Context, endpoint string, w io.Writer) (*Telemetry, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", "rpr"),
		attribute.String("service.version", version.Version),
	))
	if err != nil {
		return nil, err
	}

	var traceExporter sdktrace.SpanExporter
	var metricExporter sdkmetric.Exporter
	if endpoint != "" {
		if traceExporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure()); err != nil {
			return nil, err
		}
		if metricExporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure()); err != nil {
			return nil, err
		}
	} else {
		if traceExporter, err = stdouttrace.New(stdouttrace.WithWriter(w)); err != nil {
			return nil, err
		}
		if metricExporter, err = stdoutmetric.New(stdoutmetric.WithWriter(w)); err != nil {
			return nil, err
		}
	}

	ret := &Telemetry{
		tracerProvider: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res)),
		meterProvider: sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
			sdkmetric.WithResource(res)),
	}
	otel.SetTracerProvider(ret.tracerProvider)
	otel.SetMeterProvider(ret.meterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	log.Debug("telemetry enabled", log.String("endpoint", endpoint))
	return ret, nil
}

// Shutdown flushes pending data
func (t *Telemetry) Shutdown() {
	ctx := context.Background()
	err := errors.Join(
		t.tracerProvider.Shutdown(ctx),
		t.meterProvider.Shutdown(ctx))
	if err != nil {
		log.Warn("error shutting down telemetry", log.ErrorField(err))
	}
}
