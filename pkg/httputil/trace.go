package httputil

import (
	"net/http"

	"go.opentelemetry.io/otel/propagation"
)

// TraceContext разбирает заголовки W3C traceparent/tracestate.
var TraceContext = propagation.TraceContext{}

// MiddlewareTraceContext кладёт в контекст span context из входящего
// traceparent; логгер берёт из него trace_id и span_id.
func MiddlewareTraceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := TraceContext.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
