package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/chase-arena/internal/eventbus"
	"github.com/annel0/chase-arena/internal/vec"
	"github.com/annel0/chase-arena/internal/world"
)

const step = time.Second / 60

func defaultArena() *world.Arena {
	return bareArena(world.DefaultWalls...)
}

func TestSession_LoadsAgentsAwayFromGoal(t *testing.T) {
	s := NewSession(context.Background(), defaultArena(), newStubLoader(), SessionOptions{ID: "s1", Seed: 7})
	requireLoaded(t, s)

	s.WithState(func(st *GameState) {
		require.NotNil(t, st.Enemy)
		assert.GreaterOrEqual(t, st.Player.Position.DistanceTo(st.Goal.Position), 10.0)
		assert.GreaterOrEqual(t, st.Enemy.Position.DistanceTo(st.Goal.Position), 15.0)
		assert.False(t, world.InsideAnyObstacle(st.Goal.Position, st.Arena.Obstacles()))
		assert.Equal(t, "walk", st.Player.Walk.Clip().Name)
		assert.Equal(t, EnemyBiteClip, st.Enemy.Bite.Clip().Name)
		assert.True(t, st.Goal.Agent.Walk.IsRunning(), "goal idles")
	})

	snap := s.Snapshot()
	assert.Equal(t, "ready", snap.Assets["player"])
	assert.Equal(t, "ready", snap.Assets["ground"])
	assert.Equal(t, "enemy", snap.Enemy.Kind)
}

func TestSession_WalkModeSkipsEnemy(t *testing.T) {
	s := NewSession(context.Background(), defaultArena(), newStubLoader(), SessionOptions{ID: "w", Mode: ModeWalk})
	requireLoaded(t, s)

	snap := s.Snapshot()
	assert.Nil(t, snap.Enemy)
	_, loaded := snap.Assets["enemy"]
	assert.False(t, loaded)
}

func TestSession_GoalFailureUsesPlaceholder(t *testing.T) {
	loader := newStubLoader()
	delete(loader.models, "models/goal.glb")
	s := NewSession(context.Background(), defaultArena(), loader, SessionOptions{ID: "g"})
	requireLoaded(t, s)

	snap := s.Snapshot()
	assert.Equal(t, "failed", snap.Assets["goal"])
	require.NotNil(t, snap.Goal)
	assert.Contains(t, snap.Goal.Clips, "idle")
}

func TestSession_PlayerFailureLeavesAgentAbsent(t *testing.T) {
	loader := newStubLoader()
	delete(loader.models, "models/wolf.glb")
	s := NewSession(context.Background(), defaultArena(), loader, SessionOptions{ID: "p"})
	s.Start()
	for i := 0; i < 5; i++ {
		s.Tick(step)
	}

	snap := s.Snapshot()
	assert.Nil(t, snap.Player)
	assert.Nil(t, snap.Camera)
	assert.Equal(t, uint64(5), snap.Tick)
	assert.Equal(t, "playing", snap.Outcome)
}

func TestSession_StartGate(t *testing.T) {
	s := NewSession(context.Background(), defaultArena(), newStubLoader(), SessionOptions{ID: "gate"})
	for i := 0; i < 3; i++ {
		s.Tick(step)
	}
	snap := s.Snapshot()
	assert.Zero(t, snap.Tick)
	assert.Zero(t, snap.Lighting.Phase)

	assert.True(t, s.Start())
	assert.False(t, s.Start())
	s.Tick(step)
	snap = s.Snapshot()
	assert.Equal(t, uint64(1), snap.Tick)
	assert.InDelta(t, 0.0007, snap.Lighting.Phase, 1e-12)
}

func TestSession_DayNightRunsAfterWin(t *testing.T) {
	s := NewSession(context.Background(), defaultArena(), newStubLoader(), SessionOptions{ID: "dusk"})
	requireLoaded(t, s)
	s.Start()

	s.WithState(func(st *GameState) {
		st.Player.Position = st.Goal.Position
	})
	s.Tick(step)
	require.Equal(t, Won, s.Outcome())

	won := s.Snapshot()
	for i := 0; i < 10; i++ {
		s.Tick(step)
	}
	after := s.Snapshot()

	assert.Equal(t, won.Tick, after.Tick, "контроллеры остановлены")
	assert.Equal(t, won.Player.Position, after.Player.Position)
	assert.InDelta(t, won.Lighting.Phase+10*0.0007, after.Lighting.Phase, 1e-9)
}

func TestSession_KeyEventsAreRecorded(t *testing.T) {
	s := NewSession(context.Background(), defaultArena(), newStubLoader(), SessionOptions{ID: "k"})
	assert.True(t, s.KeyEvent("W", true))
	assert.False(t, s.KeyEvent("q", true))
	assert.True(t, s.KeyEvent("w", false))

	assert.Equal(t, 2, s.recorder.Len())
	rec := s.recorder.Snapshot()
	assert.Equal(t, "w", rec.Events[0].Key)
	assert.True(t, rec.Events[0].Down)
}

func TestSession_CameraFollowsPlayer(t *testing.T) {
	cam := CameraFor(vec.NewVec3(1, 0, 1), 0, DefaultTuning())
	assert.InDelta(t, 1, cam.Position.X, 1e-9)
	assert.InDelta(t, 2, cam.Position.Y, 1e-9)
	assert.InDelta(t, 7.25, cam.Position.Z, 1e-9)
	assert.Equal(t, vec.NewVec3(1, 1, 1), cam.LookAt)
}

func TestSession_CatchPublishesLossAndFinishes(t *testing.T) {
	bus := eventbus.NewMemoryBus(16)
	defer bus.Close()

	var (
		mu     sync.Mutex
		events []*eventbus.Envelope
	)
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{
		Types: []string{eventbus.EventGameWon, eventbus.EventGameLost},
	}, func(ctx context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	require.NoError(t, err)

	results := make(chan Result, 1)
	s := NewSession(context.Background(), defaultArena(), newStubLoader(), SessionOptions{
		ID:       "catch",
		Bus:      bus,
		OnFinish: func(r Result) { results <- r },
	})
	requireLoaded(t, s)
	s.Start()
	s.KeyEvent("w", true)

	s.WithState(func(st *GameState) {
		st.Enemy.Position = st.Player.Position.Add(vec.NewVec3(0.5, 0, 0))
	})
	s.Tick(step)
	assert.Equal(t, Lost, s.Outcome())

	var res Result
	select {
	case res = <-results:
	case <-time.After(time.Second):
		t.Fatal("OnFinish was not called")
	}
	assert.Equal(t, Lost, res.Outcome)
	assert.Equal(t, uint64(1), res.Ticks)
	assert.Equal(t, "lost", res.Recording.Outcome)
	assert.Len(t, res.Recording.Events, 1)

	// дальнейшие тики ничего не меняют
	before := s.Snapshot()
	s.Tick(step)
	after := s.Snapshot()
	assert.Equal(t, before.Tick, after.Tick)
	assert.Equal(t, before.Player.Position, after.Player.Position)
	assert.Equal(t, before.Enemy.Position, after.Enemy.Position)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	ev := events[0]
	mu.Unlock()
	assert.Equal(t, eventbus.EventGameLost, ev.EventType)
	assert.Equal(t, "catch", ev.CorrelationID)

	var payload OutcomeEvent
	require.NoError(t, ev.Decode(&payload))
	assert.Equal(t, "lost", payload.Outcome)
	assert.Equal(t, uint64(1), payload.Tick)
	assert.NotNil(t, payload.Player)
}

// stalledBus ждёт отмены контекста, как JetStream без ответа сервера.
type stalledBus struct {
	deadline chan bool
}

func (b *stalledBus) Publish(ctx context.Context, ev *eventbus.Envelope) error {
	_, ok := ctx.Deadline()
	b.deadline <- ok
	<-ctx.Done()
	return ctx.Err()
}

func (b *stalledBus) Subscribe(ctx context.Context, f eventbus.Filter, h eventbus.Handler) (eventbus.Subscription, error) {
	return nil, nil
}

func (b *stalledBus) Metrics() eventbus.Stats { return eventbus.Stats{} }
func (b *stalledBus) Close() error            { return nil }

func TestPublishLifecycle_BoundedByTimeout(t *testing.T) {
	bus := &stalledBus{deadline: make(chan bool, 1)}

	done := make(chan struct{})
	go func() {
		publishLifecycle(bus, eventbus.EventAssetFailed, "slow", map[string]string{"asset": "goal"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * publishTimeout):
		t.Fatal("publishLifecycle не вернулся при зависшей шине")
	}
	assert.True(t, <-bus.deadline, "публикация идёт с дедлайном")
}
