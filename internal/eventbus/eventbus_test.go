package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcome struct {
	Session string `json:"session"`
	Tick    uint64 `json:"tick"`
}

func collect(t *testing.T, bus EventBus, f Filter) (*[]*Envelope, *sync.Mutex) {
	t.Helper()
	var (
		mu  sync.Mutex
		got []*Envelope
	)
	_, err := bus.Subscribe(context.Background(), f, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})
	require.NoError(t, err)
	return &got, &mu
}

func TestMemoryBus_DeliversInOrder(t *testing.T) {
	bus := NewMemoryBus(16)
	got, mu := collect(t, bus, Filter{Types: []string{EventGameWon, EventGameLost}})

	for i := 0; i < 5; i++ {
		ev, err := NewEnvelope(EventGameWon, "test", outcome{Session: "s", Tick: uint64(i)})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), ev))
	}
	ignored, _ := NewEnvelope(EventSessionCreated, "test", nil)
	require.NoError(t, bus.Publish(context.Background(), ignored))
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, *got, 5)
	for i, ev := range *got {
		var p outcome
		require.NoError(t, ev.Decode(&p))
		assert.Equal(t, uint64(i), p.Tick)
	}
	assert.Equal(t, uint64(6), bus.Metrics().Published)
	assert.Equal(t, uint64(5), bus.Metrics().Consumed)
}

func TestMemoryBus_CorrelationFilter(t *testing.T) {
	bus := NewMemoryBus(8)
	got, mu := collect(t, bus, Filter{CorrelationID: "b"})

	for _, id := range []string{"a", "b", "a"} {
		ev, _ := NewEnvelope(EventGameLost, "test", nil)
		ev.CorrelationID = id
		require.NoError(t, bus.Publish(context.Background(), ev))
	}
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, *got, 1)
	assert.Equal(t, "b", (*got)[0].CorrelationID)
}

func TestMemoryBus_PublishAfterClose(t *testing.T) {
	bus := NewMemoryBus(1)
	require.NoError(t, bus.Close())
	ev, _ := NewEnvelope(EventGameWon, "test", nil)
	assert.Error(t, bus.Publish(context.Background(), ev))
}

func TestNewEnvelope(t *testing.T) {
	ev, err := NewEnvelope(EventSessionStarted, "game", map[string]string{"mode": "walk"})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, 1, ev.Version)
	assert.JSONEq(t, `{"mode":"walk"}`, string(ev.Payload))

	empty, _ := NewEnvelope(EventSessionStarted, "game", nil)
	assert.Error(t, empty.Decode(&struct{}{}))
}

func TestMetricsExporter_SyncAddsDeltas(t *testing.T) {
	bus := NewMemoryBus(8)
	reg := prometheus.NewRegistry()
	me := NewMetricsExporter(bus, reg)

	ev, _ := NewEnvelope(EventGameWon, "test", nil)
	require.NoError(t, bus.Publish(context.Background(), ev))

	prev := me.sync(Stats{})
	assert.Equal(t, 1.0, testutil.ToFloat64(me.published))

	require.NoError(t, bus.Publish(context.Background(), ev))
	time.Sleep(10 * time.Millisecond)
	me.sync(prev)
	assert.Equal(t, 2.0, testutil.ToFloat64(me.published))
}
