package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIsolated(t *testing.T) {
	// Two instances must not collide on registration.
	a := NewMetrics()
	b := NewMetrics()

	a.MessagesIngested.Inc()
	a.MessagesSkipped.WithLabelValues(ReasonDuplicate).Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.MessagesIngested))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.MessagesIngested))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.MessagesSkipped.WithLabelValues(ReasonDuplicate)))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.ReportsSent.Inc()

	path := filepath.Join(t.TempDir(), "dupreport.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dupreport_reports_sent 1")
}
