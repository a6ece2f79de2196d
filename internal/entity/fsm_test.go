package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/chase-arena/internal/anim"
	"github.com/annel0/chase-arena/internal/vec"
)

func newEnemy() *Agent {
	a := NewAgent(1, KindEnemy, vec.NewVec3(0, 0, 0), 0.06)
	a.BindWalk(anim.Clip{Name: "run", Duration: time.Second})
	a.BindBite(anim.Clip{Name: "attack", Duration: time.Second}, anim.LoopRepeat)
	return a
}

func TestBehavior_Select(t *testing.T) {
	b := DefaultBehavior()
	assert.Equal(t, "pursue", b.Select(20).Name())
	assert.Equal(t, "pursue", b.Select(15).Name())
	assert.Equal(t, "bite", b.Select(14.9).Name())
	assert.Equal(t, "bite", b.Select(1).Name())

	b.BiteRadius = 5
	assert.Equal(t, "alert", b.Select(10).Name())
	assert.Equal(t, "bite", b.Select(4).Name())
	assert.Equal(t, 0.5, b.Select(10).SpeedFactor())
}

func TestAgent_ClipsAreExclusive(t *testing.T) {
	a := newEnemy()
	b := DefaultBehavior()

	a.Update(Perception{Distance: 30}, b)
	assert.True(t, a.Walk.IsRunning())
	assert.False(t, a.Bite.IsRunning())
	assert.Equal(t, 1.0, a.SpeedFactor())

	a.Update(Perception{Distance: 10}, b)
	assert.False(t, a.Walk.IsRunning(), "ходьба остановлена при укусе")
	assert.True(t, a.Bite.IsRunning())
	assert.Equal(t, 0.5, a.SpeedFactor())

	a.Update(Perception{Distance: 40}, b)
	assert.True(t, a.Walk.IsRunning())
	assert.False(t, a.Bite.IsRunning())
}

func TestAgent_StateNotReenteredEveryTick(t *testing.T) {
	a := newEnemy()
	b := DefaultBehavior()

	for i := 0; i < 10; i++ {
		a.Update(Perception{Distance: 30 - float64(i)}, b)
	}
	require.Equal(t, "pursue", a.CurrentState.Name())
	assert.Equal(t, 1, a.Walk.Plays(), "клип не перезапускается")
}

func TestAgent_AlertBandKeepsWalkRunning(t *testing.T) {
	a := newEnemy()
	b := Behavior{AlertRadius: 15, BiteRadius: 5}

	a.Update(Perception{Distance: 20}, b)
	a.Update(Perception{Distance: 10}, b)

	assert.Equal(t, "alert", a.CurrentState.Name())
	assert.True(t, a.Walk.IsRunning())
	assert.Equal(t, 1, a.Walk.Plays())
}

func TestAgent_BiteOnceRestartsWhileInBand(t *testing.T) {
	a := NewAgent(1, KindEnemy, vec.Zero, 0.06)
	a.BindWalk(anim.Clip{Name: "run", Duration: time.Second})
	a.BindBite(anim.Clip{Name: "attack", Duration: 1200 * time.Millisecond}, anim.LoopOnce)
	b := Behavior{AlertRadius: 15, BiteRadius: 5}

	// три секунды на расстоянии 3: дольше двух клипов укуса
	for i := 0; i < 180; i++ {
		a.Update(Perception{Distance: 3}, b)
		a.Mixer.Advance(time.Second / 60)
	}
	a.Update(Perception{Distance: 3}, b)

	require.Equal(t, "bite", a.CurrentState.Name())
	assert.True(t, a.Bite.IsRunning(), "укус перезапущен после окончания клипа")
	assert.GreaterOrEqual(t, a.Bite.Plays(), 3)
	assert.False(t, a.Walk.IsRunning())
}

func TestAgent_PlayerWalkIdempotent(t *testing.T) {
	p := NewAgent(2, KindPlayer, vec.Zero, 0.2)
	p.BindWalk(anim.Clip{Name: "walk", Duration: time.Second})

	p.PlayWalk()
	p.PlayWalk()
	assert.Equal(t, 1, p.Walk.Plays())

	p.StopWalk()
	p.StopWalk()
	assert.False(t, p.Walk.IsRunning())

	// Персонаж без клипа не паникует
	NewAgent(3, KindGoal, vec.Zero, 0).PlayWalk()
}

func TestAgent_ForwardFollowsYaw(t *testing.T) {
	a := NewAgent(1, KindPlayer, vec.Zero, 0.2)
	assert.True(t, a.Forward().ApproxEqual(vec.NewVec3(0, 0, -1), 1e-9))

	a.FaceTowards(vec.NewVec3(5, 3, 0))
	assert.InDelta(t, 1.5707963, a.Yaw, 1e-6)
}
