package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/auth/sign-in", "POST", 200, 10*time.Millisecond)
	m.RecordRequest("/api/auth/sign-in", "POST", 200, 30*time.Millisecond)
	m.RecordRequest("/api/auth/sign-up", "POST", 201, time.Millisecond)
	m.RecordError("/api/auth/sign-in", "POST", "INVALID_CREDENTIALS")

	snap := m.Snapshot()
	require.Len(t, snap.Requests, 2)
	assert.Equal(t, "/api/auth/sign-in|POST|200", snap.Requests[0].Key)
	assert.Equal(t, int64(2), snap.Requests[0].Count)
	assert.InDelta(t, 20.0, snap.Requests[0].AvgDurationMs, 0.001)

	require.Len(t, snap.Errors, 1)
	assert.Equal(t, "/api/auth/sign-in|POST|INVALID_CREDENTIALS", snap.Errors[0].Key)
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
	})
	assert.Empty(t, m.Snapshot().Requests)
}
