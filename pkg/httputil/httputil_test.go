package httputil_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cwrk-planet/chat-service/pkg/httputil"
	"github.com/cwrk-planet/chat-service/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestMiddlewareRequestID_GeneratesAndPropagates(t *testing.T) {
	req := require.New(t)

	var seen string
	h := httputil.MiddlewareRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = httputil.RequestIDFromContext(r.Context())
	}))

	// When: заголовка нет
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	// Then: id сгенерирован и отдан в ответе
	req.NotEmpty(seen)
	req.Equal(seen, rec.Header().Get(httputil.HeaderRequestID))

	// When: клиент прислал свой id
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(httputil.HeaderRequestID, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	req.Equal("abc", seen)
	req.Equal("abc", rec.Header().Get(httputil.HeaderRequestID))
}

func TestMiddlewareLogging_LevelByStatus(t *testing.T) {
	req := require.New(t)

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := httputil.MiddlewareLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusNotFound, "user not found", nil)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/Users/ghost/", nil))

	var m map[string]any
	req.NoError(json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m))
	req.Equal("WARN", m["level"])
	req.Equal(float64(http.StatusNotFound), m["status"])
	req.Equal("/Users/ghost/", m["path"])
}

func TestError_Shape(t *testing.T) {
	req := require.New(t)

	rec := httptest.NewRecorder()
	httputil.Error(rec, http.StatusBadRequest, "invalid input", map[string]any{"field": "sender"})

	req.Equal(http.StatusBadRequest, rec.Code)
	req.JSONEq(`{"error":{"message":"invalid input","meta":{"field":"sender"}}}`, rec.Body.String())
}

func TestMiddlewareTraceContext_LogsTraceIDs(t *testing.T) {
	req := require.New(t)

	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	logger.Init(logger.Config{
		Env:              logger.EnvProd,
		Backend:          logger.BackendZap,
		SampleInitial:    100000,
		SampleThereafter: 100000,
		Output:           &buf,
	})

	var seen trace.SpanContext
	h := httputil.MiddlewareTraceContext(httputil.MiddlewareLogging(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = trace.SpanContextFromContext(r.Context())
			httputil.OK(w, map[string]string{"status": "ok"})
		})))

	// Given: клиент прислал W3C traceparent
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	// When
	h.ServeHTTP(httptest.NewRecorder(), r)

	// Then: span context в запросе и ids в строке лога
	req.True(seen.IsRemote())
	req.Equal("4bf92f3577b34da6a3ce929d0e0e4736", seen.TraceID().String())

	var m map[string]any
	req.NoError(json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m))
	req.Equal("http request", m["msg"])
	req.Equal("4bf92f3577b34da6a3ce929d0e0e4736", m["trace_id"])
	req.Equal("00f067aa0ba902b7", m["span_id"])
}

func TestMiddlewareTraceContext_NoHeader(t *testing.T) {
	var seen trace.SpanContext
	h := httputil.MiddlewareTraceContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = trace.SpanContextFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.False(t, seen.IsValid())
}
