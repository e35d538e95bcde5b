package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/gamey/internal/event"
	"github.com/Faultbox/gamey/internal/states"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, g.Write(m))
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func change(from, to states.State) event.Event {
	return event.Event{Type: event.StateChange, Data: states.Change{From: from, To: to}}
}

func TestNewStartsInIncept(t *testing.T) {
	c := New()
	assert.Equal(t, 1.0, gaugeValue(t, c.current.WithLabelValues("incept")))
	assert.Equal(t, 0.0, gaugeValue(t, c.current.WithLabelValues("lobby")))
}

func TestObserveStateChange(t *testing.T) {
	c := New()
	c.Observe(change(states.Incept, states.Lobby))
	c.Observe(change(states.Lobby, states.Initializing))
	c.Observe(change(states.Initializing, states.Playing))
	c.Observe(change(states.Playing, states.Paused))
	c.Observe(change(states.Paused, states.Playing))

	assert.Equal(t, 1.0, counterValue(t, c.transitions.WithLabelValues("lobby", "initializing")))
	assert.Equal(t, 1.0, counterValue(t, c.transitions.WithLabelValues("paused", "playing")))
	assert.Equal(t, 1.0, gaugeValue(t, c.current.WithLabelValues("playing")))
	assert.Equal(t, 0.0, gaugeValue(t, c.current.WithLabelValues("paused")))
	assert.Equal(t, 0.0, gaugeValue(t, c.current.WithLabelValues("incept")))
}

func TestObserveIgnoresOtherEvents(t *testing.T) {
	c := New()
	c.Observe(event.Event{Type: "tick", Data: states.Change{From: states.Incept, To: states.Lobby}})
	c.Observe(event.Event{Type: event.StateChange, Data: "lobby"})

	assert.Equal(t, 0.0, counterValue(t, c.transitions.WithLabelValues("incept", "lobby")))
}

func TestObserveFrame(t *testing.T) {
	c := New()
	c.ObserveFrame(2*time.Millisecond, 3)
	c.ObserveFrame(4*time.Millisecond, 2)

	m := &dto.Metric{}
	require.NoError(t, c.frames.Write(m))
	assert.Equal(t, uint64(2), m.GetHistogram().GetSampleCount())
	assert.InDelta(t, 0.006, m.GetHistogram().GetSampleSum(), 1e-9)
	assert.Equal(t, 2.0, gaugeValue(t, c.updateables))

	c.SetUpdateables(0)
	assert.Equal(t, 0.0, gaugeValue(t, c.updateables))
}

func TestHandler(t *testing.T) {
	c := New()
	c.Observe(change(states.Incept, states.Lobby))

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `gamey_state_transitions_total{from="incept",to="lobby"} 1`)
	assert.Contains(t, string(body), `gamey_current_state{state="lobby"} 1`)
}

func TestRegistryGathers(t *testing.T) {
	c := New()
	families, err := c.Registry().Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "gamey_current_state")
	assert.Contains(t, names, "gamey_frame_duration_seconds")
	assert.Contains(t, names, "gamey_updateables")
}
