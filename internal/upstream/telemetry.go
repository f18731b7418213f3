package upstream

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var (
	apiMetricsEnabled  bool
	apiRequestDuration metric.Float64Histogram
	apiRequestErrors   metric.Int64Counter
	apiTracer          trace.Tracer
)

func InitTelemetry(serviceName string) {
	apiTracer = otel.Tracer(serviceName + "/upstream")
	meter := otel.Meter(serviceName + "/upstream")

	var err error
	apiRequestDuration, err = meter.Float64Histogram(
		"explorer_upstream_request_duration_seconds",
		metric.WithDescription("Latencia das requisicoes a API de usuarios"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return
	}

	apiRequestErrors, err = meter.Int64Counter(
		"explorer_upstream_request_errors_total",
		metric.WithDescription("Erros nas requisicoes a API de usuarios"),
	)
	if err != nil {
		return
	}

	apiMetricsEnabled = true
}

type instrumentedTransport struct {
	next http.RoundTripper
}

func (t instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	tracer := apiTracer
	if tracer == nil {
		tracer = otel.Tracer("explorer-upstream")
	}
	ctx, span := tracer.Start(req.Context(), "HTTP "+req.Method+" "+req.URL.Path,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.url", req.URL.Path),
		attribute.String("server.address", req.URL.Host),
	)

	req = req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	res, err := t.next.RoundTrip(req)

	status := 0
	if res != nil {
		status = res.StatusCode
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport_error")
	} else if status >= 400 {
		span.SetStatus(codes.Error, "http_"+strconv.Itoa(status))
	}

	recordAPITelemetry(req, status, err, time.Since(start))
	return res, err
}

func recordAPITelemetry(req *http.Request, status int, err error, duration time.Duration) {
	if !apiMetricsEnabled {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("http.method", req.Method),
		attribute.String("http.path", req.URL.Path),
		attribute.String("api.status", statusLabel(status, err)),
	}
	apiRequestDuration.Record(req.Context(), duration.Seconds(), metric.WithAttributes(attrs...))
	if err != nil || status >= 400 {
		apiRequestErrors.Add(req.Context(), 1, metric.WithAttributes(attrs...))
	}
}

func statusLabel(status int, err error) string {
	switch {
	case err != nil:
		return "error"
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "ok"
	}
}
