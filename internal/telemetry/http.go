package telemetry

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelLog "go.opentelemetry.io/otel/log"
)

// recorder captures the status and size of a response. Unwrap lets
// http.ResponseController reach Flush for event streams.
type recorder struct {
	http.ResponseWriter
	status int
	bytes  int64
	wrote  bool
}

func (w *recorder) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(p []byte) (int, error) {
	w.wrote = true
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

func (w *recorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *recorder) streaming() bool {
	return strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream")
}

// HTTPMiddleware traces, measures and logs every request under its chi
// route pattern. Event streams are counted but kept out of the latency
// histogram.
func HTTPMiddleware(serviceName string) func(http.Handler) http.Handler {
	tracer := otel.Tracer(serviceName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &recorder{ResponseWriter: w, status: http.StatusOK}

			ctx, span := tracer.Start(r.Context(), "HTTP "+r.Method+" "+r.URL.Path)
			defer span.End()
			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			)

			next.ServeHTTP(rec, r.WithContext(ctx))

			route := routePattern(r)
			elapsed := time.Since(start)
			stream := rec.streaming()

			span.SetName("HTTP " + r.Method + " " + route)
			span.SetAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.status_code", rec.status),
				attribute.Int64("http.response_bytes", rec.bytes),
			)
			if rec.status >= 500 {
				span.SetStatus(codes.Error, "server_error")
			}

			recordHTTP(ctx, r.Method, route, rec.status, elapsed, stream)

			msg := "request completed"
			if stream {
				msg = "stream closed"
			}
			severity, _ := severityForStatus(rec.status)
			emit(ctx, "http.request", severity, msg,
				otelLog.String("http.method", r.Method),
				otelLog.String("http.route", route),
				otelLog.String("http.target", r.URL.Path),
				otelLog.Int("http.status_code", rec.status),
				otelLog.Int64("http.response_bytes", rec.bytes),
				otelLog.Int64("http.duration_ms", elapsed.Milliseconds()),
			)
		})
	}
}

// routePattern is read after the handler ran, once chi filled the context.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := strings.TrimSpace(rc.RoutePattern()); p != "" {
			return p
		}
	}
	return "unknown_route"
}

func severityForStatus(status int) (otelLog.Severity, string) {
	switch {
	case status >= 500:
		return otelLog.SeverityError, "ERROR"
	case status >= 400:
		return otelLog.SeverityWarn, "WARN"
	default:
		return otelLog.SeverityInfo, "INFO"
	}
}
