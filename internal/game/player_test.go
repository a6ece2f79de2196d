package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/chase-arena/internal/vec"
	"github.com/annel0/chase-arena/internal/world"
)

func TestPlayer_DirectPathWins(t *testing.T) {
	s, n := newState(t, ModeNormal)
	s.Player.Position = vec.NewVec3(0, 0, -10)
	s.Goal = &Goal{Position: vec.NewVec3(0, 0, -15), WinDistance: 2}
	s.Input.Set("w", true)

	var pc PlayerController
	ticks := 0
	for ; ticks < 30 && !s.Outcome.Terminal(); ticks++ {
		pc.Update(s)
	}

	assert.Equal(t, Won, s.Outcome.State())
	assert.Equal(t, 1, n.wins)
	assert.GreaterOrEqual(t, ticks, 15)
	assert.LessOrEqual(t, ticks, 17)
	assert.Less(t, s.Player.Position.DistanceTo(s.Goal.Position), 2.0)

	// после победы игрок не двигается
	pos := s.Player.Position
	pc.Update(s)
	assert.Equal(t, pos, s.Player.Position)
	assert.Equal(t, 1, n.wins)
}

func TestPlayer_WalkModeNeverWins(t *testing.T) {
	s, n := newState(t, ModeWalk)
	s.Goal = &Goal{Position: vec.Zero, WinDistance: 2}

	var pc PlayerController
	for i := 0; i < 10; i++ {
		pc.Update(s)
	}
	assert.Equal(t, Playing, s.Outcome.State())
	assert.Zero(t, n.wins)
}

func TestPlayer_ForwardFollowsYaw(t *testing.T) {
	s, _ := newState(t, ModeNormal)
	s.Input.Set("W", true)

	var pc PlayerController
	pc.Update(s)
	assert.InDelta(t, -0.2, s.Player.Position.Z, 1e-9)
	assert.InDelta(t, 0, s.Player.Position.X, 1e-9)
	assert.True(t, s.Player.Walk.IsRunning())

	s.Input.Set("w", false)
	s.Input.Set("s", true)
	pc.Update(s)
	assert.InDelta(t, 0, s.Player.Position.Z, 1e-9)
}

func TestPlayer_RotationKeys(t *testing.T) {
	s, _ := newState(t, ModeNormal)
	var pc PlayerController

	s.Input.Set("a", true)
	pc.Update(s)
	assert.InDelta(t, 0.05, s.Player.Yaw, 1e-12)
	assert.Equal(t, vec.Zero, s.Player.Position, "rotation alone does not move")
	assert.False(t, s.Player.Walk.IsRunning())

	s.Input.Set("a", false)
	s.Input.Set("d", true)
	pc.Update(s)
	pc.Update(s)
	assert.InDelta(t, -0.05, s.Player.Yaw, 1e-12)

	// поворот налево уводит вперёд в сторону -X
	s.Input.Reset()
	s.Player.Yaw = 0.5
	s.Input.Set("w", true)
	pc.Update(s)
	assert.Less(t, s.Player.Position.X, 0.0)
}

func TestPlayer_ForwardAndBackCancel(t *testing.T) {
	s, _ := newState(t, ModeNormal)
	s.Input.Set("w", true)
	s.Input.Set("s", true)

	var pc PlayerController
	pc.Update(s)
	assert.Equal(t, vec.Zero, s.Player.Position)
	assert.False(t, s.Player.Walk.IsRunning())
}

func TestPlayer_BoundaryRejectsMove(t *testing.T) {
	s, _ := newState(t, ModeNormal)
	s.Player.Position = vec.NewVec3(0, 0, -48.9)
	s.Input.Set("w", true)

	var pc PlayerController
	pc.Update(s)
	assert.InDelta(t, -48.9, s.Player.Position.Z, 1e-9)

	s.Player.Position = vec.NewVec3(48.85, 0, 0)
	s.Player.Yaw = -1.5707963267948966 // лицом к +X
	pc.Update(s)
	assert.InDelta(t, 48.85, s.Player.Position.X, 1e-9)
}

func TestPlayer_WallBlocksMove(t *testing.T) {
	wall := world.Obstacle{X: 0, Y: 1.5, Z: -11, Width: 10, Height: 3, Depth: 1}
	s, _ := newState(t, ModeNormal, wall)
	s.Player.Position = vec.NewVec3(0, 0, -10)
	s.Input.Set("w", true)

	var pc PlayerController
	for i := 0; i < 5; i++ {
		pc.Update(s)
	}
	assert.InDelta(t, -10, s.Player.Position.Z, 1e-9)
	assert.False(t, world.InsideAnyObstacle(s.Player.Position, []world.Obstacle{wall}))
}

func TestPlayer_GroundSnapIsFixedPoint(t *testing.T) {
	s, _ := newState(t, ModeNormal)

	var pc PlayerController
	for i := 0; i < 20; i++ {
		pc.Update(s)
	}
	assert.InDelta(t, 0, s.Player.Position.Y, 1e-9)
}

func TestPlayer_FallsThenSnaps(t *testing.T) {
	s, _ := newState(t, ModeNormal)
	s.Player.Position.Y = 0.5

	var pc PlayerController
	pc.Update(s)
	require.InDelta(t, 0.35, s.Player.Position.Y, 1e-9)

	for i := 0; i < 10; i++ {
		pc.Update(s)
	}
	assert.InDelta(t, 0, s.Player.Position.Y, 1e-9)
}

func TestPlayer_AbsentOrTerminalIsNoop(t *testing.T) {
	s, _ := newState(t, ModeNormal)
	s.Input.Set("w", true)
	s.Outcome.Lose()

	var pc PlayerController
	pc.Update(s)
	assert.Equal(t, vec.Zero, s.Player.Position)

	s.Player = nil
	assert.NotPanics(t, func() { pc.Update(s) })
}
