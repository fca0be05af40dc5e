package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnregistered(t *testing.T) {
	a := NewUnregistered()
	b := NewUnregistered()

	a.LogsIngested.WithLabelValues("error").Inc()
	a.LiveSubscribers.Inc()
	a.RetentionPurged.Add(3)

	assert.InDelta(t, 1, testutil.ToFloat64(a.LogsIngested.WithLabelValues("error")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(a.RetentionPurged), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.RetentionPurged), 0)

	families, err := a.Gatherer.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}

	assert.Contains(t, names, "logs_ingested_total")
	assert.Contains(t, names, "live_subscribers")
	assert.Contains(t, names, "retention_purged_total")
}
