package telemetry

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const defaultEndpoint = "localhost:4317"

// Options selects where the three OTLP signals are exported. A per-signal
// endpoint overrides Endpoint.
type Options struct {
	ServiceName     string
	Endpoint        string
	TracesEndpoint  string
	MetricsEndpoint string
	LogsEndpoint    string
	Insecure        bool
	// Disabled keeps the no-op global providers; instruments still register.
	Disabled bool
}

func (o Options) endpoint(signal string) string {
	if s := strings.TrimSpace(signal); s != "" {
		return s
	}
	if s := strings.TrimSpace(o.Endpoint); s != "" {
		return s
	}
	return defaultEndpoint
}

func (o Options) serviceName() string {
	if s := strings.TrimSpace(o.ServiceName); s != "" {
		return s
	}
	return defaultScope
}

// Setup installs the tracer, meter and logger providers and registers the
// explorer instruments. The returned func flushes and stops all providers.
func Setup(ctx context.Context, opts Options) (func(context.Context) error, error) {
	name := opts.serviceName()
	scope = name

	if opts.Disabled {
		initInstruments(name)
		return func(context.Context) error { return nil }, nil
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(name),
	)

	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	tp, err := newTracerProvider(ctx, opts.endpoint(opts.TracesEndpoint), opts.Insecure, res)
	if err != nil {
		return nil, err
	}
	shutdowns = append(shutdowns, tp.Shutdown)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	mp, err := newMeterProvider(ctx, opts.endpoint(opts.MetricsEndpoint), opts.Insecure, res)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	shutdowns = append(shutdowns, mp.Shutdown)
	otel.SetMeterProvider(mp)

	lp, err := newLoggerProvider(ctx, opts.endpoint(opts.LogsEndpoint), opts.Insecure, res)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	shutdowns = append(shutdowns, lp.Shutdown)
	global.SetLoggerProvider(lp)

	initInstruments(name)
	return shutdown, nil
}
