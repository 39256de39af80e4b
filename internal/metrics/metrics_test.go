package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidekv/engine/internal/storage/kv"
)

func TestKeyspaceMetrics_OnEvent(t *testing.T) {
	collector := NewCollector()
	m := NewKeyspaceMetrics(collector)

	m.OnEvent(kv.Event{Type: kv.EventSet, Key: "a", Created: true})
	m.OnEvent(kv.Event{Type: kv.EventSet, Key: "b", Created: true})
	m.OnEvent(kv.Event{Type: kv.EventSet, Key: "a"})
	m.OnEvent(kv.Event{Type: kv.EventDelete, Key: "b"})
	m.OnEvent(kv.Event{Type: kv.EventExpired, Key: "a", Reason: kv.ReasonLazy})

	assert.Equal(t, 0.0, testutil.ToFloat64(m.keys))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.events.WithLabelValues(string(kv.EventSet))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.expirations.WithLabelValues(kv.ReasonLazy)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.expirations.WithLabelValues(kv.ReasonReaper)))
}

func TestKeyspaceMetrics_WiredToStore(t *testing.T) {
	collector := NewCollector()
	m := NewKeyspaceMetrics(collector)
	store := kv.NewStore(kv.WithListener(m))
	RegisterIndexGauge(collector, store)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", kv.TextValue("1"), kv.SetOptions{TTL: time.Hour}))
	require.NoError(t, store.Set(ctx, "b", kv.TextValue("2"), kv.DefaultSetOptions()))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.keys))
	count, err := testutil.GatherAndCount(collector.GetRegistry(), MetricIndexBuckets)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCommandMetrics(t *testing.T) {
	collector := NewCollector()
	m := NewCommandMetrics(collector)

	m.ObserveCommand("GET", StatusNil, time.Microsecond)
	m.ObserveCommand("GET", StatusOK, time.Microsecond)
	m.ObserveCommand("GET", StatusOK, time.Microsecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commandsTotal.WithLabelValues("GET", StatusOK)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.commandDuration))
}

func TestConnectionMetrics(t *testing.T) {
	collector := NewCollector()
	m := NewConnectionMetrics(collector)

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.ProtocolError("line_too_long")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.active))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.total))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.protocolErrors.WithLabelValues("line_too_long")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var keyspace *KeyspaceMetrics
	var commands *CommandMetrics
	var conns *ConnectionMetrics
	var api *APIMetrics

	assert.NotPanics(t, func() {
		keyspace.OnEvent(kv.Event{Type: kv.EventSet})
		commands.ObserveCommand("PING", StatusOK, 0)
		conns.ConnectionOpened()
		conns.ConnectionClosed()
		conns.ProtocolError("x")
		api.RecordAPIRequest("GET", "/health", 200, 0)
	})
}

func TestServer_StartStop(t *testing.T) {
	collector := NewCollector()
	NewCommandMetrics(collector).ObserveCommand("PING", StatusOK, time.Millisecond)

	server := NewServer("127.0.0.1:0", "/metrics", collector.GetRegistry())
	require.NoError(t, server.Start(context.Background()))
	assert.True(t, server.Ready())

	resp, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), MetricCommandsTotal)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))
	assert.False(t, server.Ready())
}
