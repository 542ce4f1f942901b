package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.Commits.Inc()
	m.RecordsAppended.Add(3)
	m.ScriptInstructions.WithLabelValues("MOV", "ok").Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Commits))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.RecordsAppended))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ScriptInstructions.WithLabelValues("MOV", "ok")))

	again, err := New(reg)
	require.NoError(t, err)
	again.Commits.Inc()
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Commits), "collectors are shared when registered twice")

	count, err := testutil.GatherAndCount(reg, "amos_commits_total", "amos_records_appended_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDiscard(t *testing.T) {
	m := Discard()
	m.Propagated.Add(2)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Propagated))
}
