package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

func newMeterProvider(ctx context.Context, endpoint string, insecure bool, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	), nil
}

type instruments struct {
	httpRequests    metric.Int64Counter
	httpDuration    metric.Float64Histogram
	fetchCycles     metric.Int64Counter
	fetchDuration   metric.Float64Histogram
	staleResponses  metric.Int64Counter
	mountedPages    metric.Int64UpDownCounter
	openEventStream metric.Int64UpDownCounter
}

// inst is nil until initInstruments succeeds; the Record helpers are no-ops
// before that.
var inst *instruments

func initInstruments(serviceName string) {
	meter := otel.Meter(serviceName)
	var (
		in  instruments
		err error
	)

	if in.httpRequests, err = meter.Int64Counter(
		"explorer_http_requests_total",
		metric.WithDescription("Total de requisicoes HTTP"),
	); err != nil {
		return
	}
	if in.httpDuration, err = meter.Float64Histogram(
		"explorer_http_request_duration_seconds",
		metric.WithDescription("Latencia das requisicoes HTTP (exceto streams)"),
		metric.WithUnit("s"),
	); err != nil {
		return
	}
	if in.fetchCycles, err = meter.Int64Counter(
		"explorer_fetch_cycles_total",
		metric.WithDescription("Ciclos de busca aplicados a pagina, por resultado"),
	); err != nil {
		return
	}
	if in.fetchDuration, err = meter.Float64Histogram(
		"explorer_fetch_cycle_duration_seconds",
		metric.WithDescription("Duracao dos ciclos de busca"),
		metric.WithUnit("s"),
	); err != nil {
		return
	}
	if in.staleResponses, err = meter.Int64Counter(
		"explorer_fetch_stale_total",
		metric.WithDescription("Respostas descartadas por pertencerem a um ciclo antigo"),
	); err != nil {
		return
	}
	if in.mountedPages, err = meter.Int64UpDownCounter(
		"explorer_mounted_pages",
		metric.WithDescription("Paginas montadas em memoria"),
	); err != nil {
		return
	}
	if in.openEventStream, err = meter.Int64UpDownCounter(
		"explorer_event_streams",
		metric.WithDescription("Streams SSE abertos"),
	); err != nil {
		return
	}

	inst = &in
}

func recordHTTP(ctx context.Context, method, route string, status int, d time.Duration, stream bool) {
	if inst == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	inst.httpRequests.Add(ctx, 1, attrs)
	if !stream {
		inst.httpDuration.Record(ctx, d.Seconds(), attrs)
	}
}

// RecordFetchCycle records a fetch cycle whose response was applied.
func RecordFetchCycle(ctx context.Context, outcome string, d time.Duration) {
	if inst == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("fetch.outcome", outcome))
	inst.fetchCycles.Add(ctx, 1, attrs)
	inst.fetchDuration.Record(ctx, d.Seconds(), attrs)
}

func RecordStaleResponse(ctx context.Context) {
	if inst == nil {
		return
	}
	inst.staleResponses.Add(ctx, 1)
}

func RecordMounted(ctx context.Context, delta int64) {
	if inst == nil {
		return
	}
	inst.mountedPages.Add(ctx, delta)
}

func RecordEventStream(ctx context.Context, delta int64) {
	if inst == nil {
		return
	}
	inst.openEventStream.Add(ctx, delta)
}
