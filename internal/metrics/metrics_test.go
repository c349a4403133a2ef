package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := MustNew(reg)

	r.Turn("execute")
	r.Turn("execute")
	r.RateLimited()
	r.FlaggedInput("suspicious", "path traversal")
	r.OracleFailure("truncated")
	r.ObserveOracle("ok", 300*time.Millisecond)
	r.Resolution("maintainer", "found")
	r.SetSessions(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.turns.WithLabelValues("execute")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rateLimited))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.input.WithLabelValues("suspicious", "path traversal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.oracleFailures.WithLabelValues("truncated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.resolutions.WithLabelValues("maintainer", "found")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.sessions))

	n, err := testutil.GatherAndCount(reg, "inventory_assistant_oracle_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Turn("reply")
		r.RateLimited()
		r.FlaggedInput("rejected", "too long")
		r.OracleFailure("transport")
		r.ObserveOracle("error", time.Second)
		r.Resolution("location", "not_found")
		r.SetSessions(1)
	})
}

func TestMustNew_DuplicatePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustNew(reg)
	assert.Panics(t, func() { MustNew(reg) })
}
