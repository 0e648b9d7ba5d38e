// Package exporters builds OpenTelemetry exporters from configuration.
package exporters

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Options selects and configures an exporter.
type Options struct {
	// Name is the exporter: otlp, jaeger, prometheus, stdout or none.
	Name string

	// Endpoint is the collector address for otlp and jaeger. When empty the
	// standard OTEL_EXPORTER_* environment variables must supply it.
	Endpoint string

	// Insecure disables TLS to the collector.
	Insecure bool

	// Writer receives stdout exporter output. Defaults to os.Stdout.
	Writer io.Writer
}

func (o Options) writer() io.Writer {
	if o.Writer != nil {
		return o.Writer
	}
	return os.Stdout
}

// endpointFromEnv returns the first non-empty environment variable.
func endpointFromEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// NewTracingExporter creates a span exporter.
// Supported exporters: stdout, otlp, jaeger, none
func NewTracingExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	switch opts.Name {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(opts.writer()))

	case "otlp", "jaeger":
		// Jaeger ingests OTLP natively; only the env fallback differs.
		envKeys := []string{"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"}
		if opts.Name == "jaeger" {
			envKeys = []string{"OTEL_EXPORTER_JAEGER_ENDPOINT"}
		}

		var grpcOpts []otlptracegrpc.Option
		switch {
		case opts.Endpoint != "":
			grpcOpts = append(grpcOpts, otlptracegrpc.WithEndpoint(opts.Endpoint))
		case opts.Name == "jaeger":
			endpoint := endpointFromEnv(envKeys...)
			if endpoint == "" {
				return nil, fmt.Errorf("jaeger endpoint not configured: set endpoint or %s", envKeys[0])
			}
			grpcOpts = append(grpcOpts, otlptracegrpc.WithEndpoint(endpoint))
		case endpointFromEnv(envKeys...) == "":
			return nil, fmt.Errorf("OTLP endpoint not configured: set endpoint, %s or %s", envKeys[0], envKeys[1])
		}
		if opts.Insecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, grpcOpts...)

	case "none", "":
		return stdouttrace.New(stdouttrace.WithWriter(io.Discard))

	default:
		return nil, fmt.Errorf("unknown exporter: %q", opts.Name)
	}
}

// NewMetricsReader creates a metrics reader.
// Supported exporters: stdout, otlp, prometheus, none
func NewMetricsReader(ctx context.Context, opts Options) (sdkmetric.Reader, error) {
	switch opts.Name {
	case "stdout":
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(opts.writer()))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case "otlp":
		var grpcOpts []otlpmetricgrpc.Option
		if opts.Endpoint != "" {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithEndpoint(opts.Endpoint))
		} else if endpointFromEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT") == "" {
			return nil, fmt.Errorf("OTLP metrics endpoint not configured: set endpoint, OTEL_EXPORTER_OTLP_ENDPOINT or OTEL_EXPORTER_OTLP_METRICS_ENDPOINT")
		}
		if opts.Insecure {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil

	case "prometheus":
		// Registers with the default Prometheus registry, served by promhttp.
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		return exp, nil

	case "none", "":
		return sdkmetric.NewManualReader(), nil

	default:
		return nil, fmt.Errorf("unknown metrics exporter: %q", opts.Name)
	}
}
