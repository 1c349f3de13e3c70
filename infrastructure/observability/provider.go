package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// InstrumentationName is the tracer name used for simulation spans.
const InstrumentationName = "github.com/felixgeelhaar/maze-agent"

// ErrUnknownExporter is returned for an unsupported exporter type.
var ErrUnknownExporter = errors.New("unknown trace exporter type")

// Provider manages the tracing infrastructure.
type Provider struct {
	config         Config
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	shutdownFuncs  []func(context.Context) error
}

// New creates a new observability provider.
func New(opts ...Option) (*Provider, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Provider{config: cfg}
	if err := p.setupTracing(context.Background()); err != nil {
		return nil, err
	}
	return p, nil
}

// NewNoopProvider returns a provider whose spans are discarded.
func NewNoopProvider() *Provider {
	tp := tracenoop.NewTracerProvider()
	return &Provider{
		config:         DefaultConfig(),
		tracerProvider: tp,
		tracer:         tp.Tracer(InstrumentationName),
	}
}

func (p *Provider) setupTracing(ctx context.Context) error {
	tc := p.config.Tracing

	var spanProcessor sdktrace.SpanProcessor
	if tc.exporter != nil {
		spanProcessor = sdktrace.NewSimpleSpanProcessor(tc.exporter)
	} else {
		exporter, err := newExporter(ctx, tc)
		if err != nil {
			return err
		}
		if exporter == nil {
			tp := tracenoop.NewTracerProvider()
			p.tracerProvider = tp
			p.tracer = tp.Tracer(InstrumentationName)
			return nil
		}
		spanProcessor = sdktrace.NewBatchSpanProcessor(exporter,
			sdktrace.WithBatchTimeout(tc.BatchTimeout),
			sdktrace.WithMaxExportBatchSize(tc.MaxExportBatchSize),
		)
	}

	// Not merged with resource.Default() to avoid schema URL conflicts.
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(p.config.ServiceName),
		semconv.ServiceVersion(p.config.ServiceVersion),
		semconv.DeploymentEnvironment(p.config.Environment),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(spanProcessor),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(tc.SampleRate)),
	)

	if p.config.Global {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	p.tracerProvider = tp
	p.tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(p.config.ServiceVersion))
	p.shutdownFuncs = append(p.shutdownFuncs, tp.Shutdown)
	return nil
}

// newExporter returns nil for the noop exporter.
func newExporter(ctx context.Context, tc TracingConfig) (sdktrace.SpanExporter, error) {
	switch tc.Exporter {
	case ExporterOTLP:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(tc.Endpoint),
		}
		if tc.Insecure {
			opts = append(opts, otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)

	case ExporterStdout:
		var w io.Writer = os.Stdout
		if tc.Writer != nil {
			w = tc.Writer
		}
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())

	case ExporterNoop, "":
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, tc.Exporter)
	}
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Tracer returns the tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// TracerProvider returns the underlying tracer provider.
func (p *Provider) TracerProvider() trace.TracerProvider {
	return p.tracerProvider
}

// Shutdown flushes pending spans and releases exporters.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdownFuncs {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
