package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/skygrid/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Exporter names accepted in TracingConfig.Exporter.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// DefaultOTLPEndpoint is dialled when the otlp exporter has no endpoint.
const DefaultOTLPEndpoint = "localhost:4317"

// Environment variables read by WithEnv.
const (
	EnvTracingEnabled     = "SKYGRID_TRACING_ENABLED"
	EnvTracingExporter    = "SKYGRID_TRACING_EXPORTER"
	EnvTracingService     = "SKYGRID_TRACING_SERVICE_NAME"
	EnvTracingSampleRatio = "SKYGRID_TRACING_SAMPLE_RATIO"
	EnvOTLPEndpoint       = "SKYGRID_OTLP_ENDPOINT"
)

var (
	// ErrUnknownExporter is returned for an exporter other than stdout or otlp.
	ErrUnknownExporter = errors.New("unsupported tracing exporter")

	// ErrInvalidSampleRatio is returned for a sample ratio outside [0, 1].
	ErrInvalidSampleRatio = errors.New("invalid tracing sample ratio: must be within [0, 1]")
)

// TracingConfig governs how grid-build tracing is initialised. The yaml keys
// form the "tracing" section of the scan configuration file.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Exporter    string  `yaml:"exporter"` // stdout | otlp
	Endpoint    string  `yaml:"endpoint"` // otlp only
	SampleRatio float64 `yaml:"sample_ratio"`

	// Writer receives stdout-exporter spans. Nil means os.Stderr, keeping
	// stdout free for grid points.
	Writer io.Writer `yaml:"-"`
}

// DefaultTracingConfig returns tracing switched off, with the stdout exporter
// and every trace sampled once enabled.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "skygrid",
		Exporter:    ExporterStdout,
		SampleRatio: 1,
	}
}

// TracingConfigFromEnv is DefaultTracingConfig overlaid with the environment.
func TracingConfigFromEnv() TracingConfig {
	return DefaultTracingConfig().WithEnv()
}

// WithEnv returns c with every SKYGRID_* tracing variable that is set taking
// precedence. A sample ratio that does not parse or lies outside [0, 1] is
// ignored.
func (c TracingConfig) WithEnv() TracingConfig {
	if v := os.Getenv(EnvTracingEnabled); v != "" {
		c.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv(EnvTracingExporter); v != "" {
		c.Exporter = strings.ToLower(v)
	}
	if v := os.Getenv(EnvTracingService); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv(EnvOTLPEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvTracingSampleRatio); v != "" {
		if ratio, err := strconv.ParseFloat(v, 64); err == nil && ratio >= 0 && ratio <= 1 {
			c.SampleRatio = ratio
		}
	}
	return c
}

// Validate reports an unknown exporter or an out-of-range sample ratio.
func (c TracingConfig) Validate() error {
	switch strings.ToLower(c.Exporter) {
	case ExporterStdout, ExporterOTLP, "otlpgrpc", "":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownExporter, c.Exporter)
	}
	if !(c.SampleRatio >= 0 && c.SampleRatio <= 1) {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.SampleRatio)
	}
	return nil
}

// InitTracing installs the global tracer provider and propagators described
// by cfg and returns a function that flushes pending spans. A disabled config
// installs the noop provider.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}

	if !cfg.Enabled {
		otel.SetTracerProvider(trace.NewNoopTracerProvider())
		otel.SetTextMapPropagator(propagation.TraceContext{})
		log.Debug(ctx, "tracing disabled")
		return func(context.Context) error { return nil }, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tp, err := newTracerProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", cfg.Exporter),
		logging.String("service_name", cfg.ServiceName),
		logging.Float64("sample_ratio", cfg.SampleRatio),
	)
	return tp.Shutdown, nil
}

func newTracerProvider(ctx context.Context, cfg TracingConfig) (*sdktrace.TracerProvider, error) {
	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	service := cfg.ServiceName
	if service == "" {
		service = "skygrid"
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", service),
		attribute.String("service.namespace", "skygrid"),
	))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	// Grid builds are short batch jobs; the batcher is flushed by Shutdown.
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	), nil
}

func newExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.Exporter) {
	case ExporterStdout, "":
		w := cfg.Writer
		if w == nil {
			w = os.Stderr
		}
		return stdouttrace.New(
			stdouttrace.WithWriter(w),
			stdouttrace.WithPrettyPrint(),
			stdouttrace.WithoutTimestamps(),
		)
	case ExporterOTLP, "otlpgrpc":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = DefaultOTLPEndpoint
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, cfg.Exporter)
	}
}

// ShutdownWithTimeout calls shutdown with a five second budget and logs,
// rather than returns, a failure.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}
