package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectNames(t *testing.T, reader *metric.ManualReader) map[string]bool {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

func TestObservability_Records(t *testing.T) {
	reader := metric.NewManualReader()
	obs, err := newWithReader("registro-test", reader)
	require.NoError(t, err)
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordRequest(ctx, "/", 200, 12*time.Millisecond)
	obs.RecordSubmission(ctx, "afiliacion", "success")

	names := collectNames(t, reader)
	assert.True(t, names["http.requests"])
	assert.True(t, names["http.request.duration"])
	assert.True(t, names["form.submissions"])
}

func TestObservability_NoopIsSafe(t *testing.T) {
	obs := NewNoop()
	assert.NotPanics(t, func() {
		obs.RecordRequest(context.Background(), "/", 500, time.Second)
		obs.RecordSubmission(context.Background(), "sorteo", "failed")
		obs.Shutdown()
	})
}
