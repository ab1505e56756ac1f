// Package apm is responsible for application performance monitoring, i.e. traces and metrics,
// of all the services. It maintains the OTel tracer & meter providers, and exposes a global
// handler similar to the logger package.
package apm

import (
	"context"
	"strings"
	"time"

	"github.com/naughtygopher/errors"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

type Options struct {
	Environment    string
	Debug          bool
	ServiceName    string
	ServiceVersion string

	// TracesSampleRate is the ratio of traces to sample, 0 samples everything
	TracesSampleRate float64
	// CollectorURL is the OTLP collector endpoint. Exporters are only registered
	// when this is set or UseStdOut is enabled.
	CollectorURL         string
	PrometheusScrapePort uint16
	UseStdOut            bool
}

type APM struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter
}

var global = noop()

func noop() *APM {
	tp := sdktrace.NewTracerProvider()
	mp := sdkmetric.NewMeterProvider()
	return &APM{
		tracerProvider: tp,
		meterProvider:  mp,
		tracer:         tp.Tracer("noop"),
		meter:          mp.Meter("noop"),
	}
}

// Global returns the global APM handler, a noop one if SetGlobal was never called
func Global() *APM {
	return global
}

// SetGlobal overwrites the global APM handler used in this package
func SetGlobal(ins *APM) {
	global = ins
}

func (ins *APM) GetTracerProvider() trace.TracerProvider { //nolint:ireturn // that's how otel sdk works
	return ins.tracerProvider
}

func (ins *APM) GetMeterProvider() metric.MeterProvider { //nolint:ireturn // that's how otel sdk works
	return ins.meterProvider
}

// AppTracer returns the tracer all application spans should be started from
func (ins *APM) AppTracer() trace.Tracer { //nolint:ireturn // that's how otel sdk works
	return ins.tracer
}

// AppMeter returns the meter all application instruments should be created from
func (ins *APM) AppMeter() metric.Meter { //nolint:ireturn // that's how otel sdk works
	return ins.meter
}

func (ins *APM) Shutdown(ctx context.Context) error {
	err := ins.tracerProvider.Shutdown(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to shutdown tracer provider")
	}

	err = ins.meterProvider.Shutdown(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to shutdown meter provider")
	}

	return nil
}

func newResource(ctx context.Context, opts *Options) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.ServiceVersion),
			semconv.DeploymentEnvironment(opts.Environment),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create otel resource")
	}

	return res, nil
}

func traceExporter(ctx context.Context, opts *Options) (sdktrace.SpanExporter, error) { //nolint:ireturn // that's how otel sdk works
	if opts.UseStdOut {
		stdoutOpts := make([]stdouttrace.Option, 0, 1)
		if opts.Debug {
			stdoutOpts = append(stdoutOpts, stdouttrace.WithPrettyPrint())
		}
		exporter, err := stdouttrace.New(stdoutOpts...)
		if err != nil {
			return nil, errors.Wrap(err, "stdouttrace.New")
		}
		return exporter, nil
	}

	// the collector URL scheme decides the OTLP transport
	var client otlptrace.Client
	if strings.HasPrefix(opts.CollectorURL, "http") {
		client = otlptracehttp.NewClient(otlptracehttp.WithEndpointURL(opts.CollectorURL))
	} else {
		client = otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(opts.CollectorURL),
			otlptracegrpc.WithInsecure(),
		)
	}

	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, errors.Wrap(err, "otlptrace.New")
	}

	return exporter, nil
}

func newTracerProvider(
	ctx context.Context,
	opts *Options,
	res *resource.Resource,
) (*sdktrace.TracerProvider, error) {
	sampler := sdktrace.AlwaysSample()
	if opts.TracesSampleRate > 0 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.TracesSampleRate))
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	}

	if opts.CollectorURL != "" || opts.UseStdOut {
		exporter, err := traceExporter(ctx, opts)
		if err != nil {
			return nil, err
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}

	return sdktrace.NewTracerProvider(tpOpts...), nil
}

func newMeterProvider(opts *Options, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	// the prometheus reader is always registered so the scrape endpoint works
	// in every environment
	promExporter, err := prometheusExporter()
	if err != nil {
		return nil, err
	}
	mpOpts = append(mpOpts, sdkmetric.WithReader(promExporter))

	if opts.UseStdOut {
		stdExporter, serr := stdoutmetric.New()
		if serr != nil {
			return nil, errors.Wrap(serr, "stdoutmetric.New")
		}
		const exportInterval = time.Minute
		mpOpts = append(mpOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(stdExporter, sdkmetric.WithInterval(exportInterval)),
		))
	}

	return sdkmetric.NewMeterProvider(mpOpts...), nil
}

func New(ctx context.Context, opts *Options) (*APM, error) {
	res, err := newResource(ctx, opts)
	if err != nil {
		return nil, err
	}

	tp, err := newTracerProvider(ctx, opts, res)
	if err != nil {
		return nil, err
	}

	mp, err := newMeterProvider(opts, res)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
		b3.New(),
	))

	go prometheusScraper(opts)

	scopeName := opts.ServiceName
	if scopeName == "" {
		scopeName = "apm"
	}

	return &APM{
		tracerProvider: tp,
		meterProvider:  mp,
		tracer:         tp.Tracer(scopeName),
		meter:          mp.Meter(scopeName),
	}, nil
}
