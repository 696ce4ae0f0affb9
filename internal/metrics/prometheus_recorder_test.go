package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncHandlerFault("batch")
	pr.IncHandlerFault("batch")
	pr.IncAnnounce("batch")
	pr.IncMutation("expense")
	pr.ObserveImport("batches", ImportSucceeded, 7, 3, 200*time.Millisecond)
	pr.IncAlert("critical")

	require.InDelta(t, 2, testutil.ToFloat64(pr.handlerFaults.WithLabelValues("batch")), 0.001)
	require.InDelta(t, 7, testutil.ToFloat64(pr.importRows.WithLabelValues("batches", "imported")), 0.001)
	require.InDelta(t, 3, testutil.ToFloat64(pr.importRows.WithLabelValues("batches", "failed")), 0.001)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	require.NotPanics(t, func() {
		pr.IncHandlerFault("any")
		pr.IncAlert("info")
	})
}
