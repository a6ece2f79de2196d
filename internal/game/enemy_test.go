package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/chase-arena/internal/vec"
	"github.com/annel0/chase-arena/internal/world"
)

func TestEnemy_PursuitAndAlertSpeeds(t *testing.T) {
	s, _ := newState(t, ModeNormal)
	e := addEnemy(s, vec.NewVec3(0, 0, -20))

	var ec EnemyController
	assert.Equal(t, SteerDirect, ec.Update(s))
	assert.InDelta(t, -19.94, e.Position.Z, 1e-9)
	assert.Equal(t, "pursue", e.CurrentState.Name())
	assert.True(t, e.Walk.IsRunning())
	assert.False(t, e.Bite.IsRunning())

	e.Position = vec.NewVec3(0, 0, -10)
	ec.Update(s)
	assert.InDelta(t, -9.97, e.Position.Z, 1e-9)
	assert.Equal(t, "bite", e.CurrentState.Name())
	assert.True(t, e.Bite.IsRunning())
	assert.False(t, e.Walk.IsRunning())
}

func TestEnemy_AlertRadiusIsStrict(t *testing.T) {
	s, _ := newState(t, ModeNormal)
	e := addEnemy(s, vec.NewVec3(0, 0, -15))

	var ec EnemyController
	ec.Update(s)
	assert.Equal(t, "pursue", e.CurrentState.Name())
}

func TestEnemy_BiteBandVariant(t *testing.T) {
	s, _ := newState(t, ModeNormal)
	s.Tuning.Behavior.BiteRadius = 5
	e := addEnemy(s, vec.NewVec3(0, 0, -10))

	var ec EnemyController
	ec.Update(s)
	assert.Equal(t, "alert", e.CurrentState.Name())
	assert.True(t, e.Walk.IsRunning())
	assert.InDelta(t, -9.97, e.Position.Z, 1e-9)

	e.Position = vec.NewVec3(0, 0, -4)
	ec.Update(s)
	assert.Equal(t, "bite", e.CurrentState.Name())
	assert.True(t, e.Bite.IsRunning())
}

func TestEnemy_CatchLosesExactlyOnce(t *testing.T) {
	s, n := newState(t, ModeNormal)
	e := addEnemy(s, vec.NewVec3(0, 0, -1))

	var ec EnemyController
	ec.Update(s)
	require.Equal(t, Lost, s.Outcome.State())
	assert.Equal(t, 1, n.loses)
	// шаг в тике поимки всё равно выполняется
	assert.InDelta(t, -0.97, e.Position.Z, 1e-9)

	pos := e.Position
	for i := 0; i < 5; i++ {
		assert.Equal(t, SteerIdle, ec.Update(s))
	}
	assert.Equal(t, pos, e.Position)
	assert.Equal(t, 1, n.loses)
	assert.Zero(t, n.wins)
}

func TestEnemy_FacesPlayer(t *testing.T) {
	s, _ := newState(t, ModeNormal)
	s.Player.Position = vec.NewVec3(10, 0, 0)
	e := addEnemy(s, vec.NewVec3(0, 0, 0))

	var ec EnemyController
	ec.Update(s)
	assert.InDelta(t, math.Pi/2, e.Yaw, 1e-9)
}

func TestEnemy_WalkModeAndAbsence(t *testing.T) {
	s, _ := newState(t, ModeWalk)
	e := addEnemy(s, vec.NewVec3(0, 0, -1))

	var ec EnemyController
	assert.Equal(t, SteerIdle, ec.Update(s))
	assert.Equal(t, vec.NewVec3(0, 0, -1), e.Position)
	assert.Equal(t, Playing, s.Outcome.State())

	s.Mode = ModeNormal
	s.Player = nil
	assert.Equal(t, SteerIdle, ec.Update(s))
}

// deflectionState ставит врага в начало координат, игрока на 20 к -Z.
func deflectionState(t *testing.T, walls ...world.Obstacle) (*GameState, *EnemyController) {
	s, _ := newState(t, ModeNormal, walls...)
	s.Player.Position = vec.NewVec3(0, 0, -20)
	addEnemy(s, vec.Zero)
	return s, &EnemyController{}
}

func TestEnemy_DeflectsLeftWhenAheadAndRightBlocked(t *testing.T) {
	// перекрывает прямой луч и правый (+X), левый проходит мимо
	wall := world.Obstacle{X: 1.4, Y: 1, Z: -0.75, Width: 3.2, Height: 2, Depth: 0.5}
	s, ec := deflectionState(t, wall)

	require.Equal(t, SteerLeft, ec.Update(s))
	step := 0.06 / math.Sqrt2
	assert.InDelta(t, -step, s.Enemy.Position.X, 1e-9)
	assert.InDelta(t, -step, s.Enemy.Position.Z, 1e-9)
}

func TestEnemy_DeflectsRightWhenLeftBlocked(t *testing.T) {
	wall := world.Obstacle{X: -1.4, Y: 1, Z: -0.75, Width: 3.2, Height: 2, Depth: 0.5}
	s, ec := deflectionState(t, wall)

	require.Equal(t, SteerRight, ec.Update(s))
	step := 0.06 / math.Sqrt2
	assert.InDelta(t, step, s.Enemy.Position.X, 1e-9)
	assert.InDelta(t, -step, s.Enemy.Position.Z, 1e-9)
}

func TestEnemy_StallsWhenEverythingBlocked(t *testing.T) {
	wall := world.Obstacle{X: 0, Y: 1, Z: -0.75, Width: 6, Height: 2, Depth: 0.5}
	s, ec := deflectionState(t, wall)

	assert.Equal(t, SteerStalled, ec.Update(s))
	assert.Equal(t, vec.Zero, s.Enemy.Position)
}

func TestEnemy_NarrowDeflectionAngle(t *testing.T) {
	s, _ := newState(t, ModeNormal)
	s.Tuning.DeflectionAngle = math.Atan(0.5)
	assert.InDelta(t, 0.5, s.Tuning.DeflectionWeight(), 1e-12)
}
