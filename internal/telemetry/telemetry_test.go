package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagedao/hub-api/pkg/contenthub"
)

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics()

	m.ObserveProbe(contenthub.ChainBase, contenthub.TypeBook, true, 10*time.Millisecond)
	m.ObserveProbe(contenthub.ChainBase, contenthub.TypeBook, false, 10*time.Millisecond)
	m.ObserveProbe(contenthub.ChainBase, contenthub.TypeBook, false, 10*time.Millisecond)
	m.ObserveResolution("resolved", time.Second)
	m.IncDegraded("listBooks")
	m.ObserveRequest("/books/{id}", http.StatusOK, time.Millisecond)
	m.ObserveRequest("", http.StatusNotFound, time.Millisecond)
	m.IncRateLimited()
	m.ObserveSample(errors.New("gateway down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Probes.WithLabelValues("base", "book", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Probes.WithLabelValues("base", "book", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DegradedItems.WithLabelValues("listBooks")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("unmatched", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HistorySamples.WithLabelValues("failed")))
}

func TestMetrics_HooksAndHandler(t *testing.T) {
	m := NewMetrics()
	hooks := m.Hooks()
	require.Len(t, hooks.AfterProbe, 1)
	require.Len(t, hooks.OnDegraded, 1)

	hooks.OnDegraded[0](contenthub.NewHookContext(context.Background()), "listCollections", contenthub.DegradedItem{})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DegradedItems.WithLabelValues("listCollections")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "contenthub_degraded_items_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNewTracing(t *testing.T) {
	ctx := context.Background()

	none, err := NewTracing(ctx, TracingConfig{Exporter: "none"})
	require.NoError(t, err)
	require.NotNil(t, none.Tracer())
	assert.NoError(t, none.Shutdown(ctx))

	stdout, err := NewTracing(ctx, TracingConfig{Exporter: "stdout"})
	require.NoError(t, err)
	_, span := stdout.Tracer().Start(ctx, "probe")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, stdout.Shutdown(ctx))

	_, err = NewTracing(ctx, TracingConfig{Exporter: "jaeger"})
	assert.Error(t, err)
}
