package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/chase-arena/internal/game"
	"github.com/annel0/chase-arena/internal/vec"
)

func snapshot(playerPos vec.Vec3Float, yaw float64, goalPos vec.Vec3Float) game.Snapshot {
	return game.Snapshot{
		Outcome: game.Playing.String(),
		Player:  &game.AgentView{Kind: "player", Position: playerPos, Yaw: yaw},
		Goal:    &game.AgentView{Kind: "goal", Position: goalPos},
	}
}

func TestForwardYawMatchesMovement(t *testing.T) {
	pos := vec.NewVec3(1, 0, 2)
	target := vec.NewVec3(-4, 0, 7)

	yaw := forwardYaw(pos, target)
	step := vec.NewVec3(0, 0, -1).RotateY(yaw)
	want := target.Sub(pos).Normalized()

	assert.True(t, step.ApproxEqual(want, 1e-9), "step %v, want %v", step, want)
}

func TestWrapAngle(t *testing.T) {
	assert.InDelta(t, 0, wrapAngle(2*math.Pi), 1e-12)
	assert.InDelta(t, math.Pi, wrapAngle(-math.Pi), 1e-12)
	assert.InDelta(t, -math.Pi/2, wrapAngle(3*math.Pi/2), 1e-12)
}

func TestDecide(t *testing.T) {
	// Цель прямо по курсу (forward = -Z при yaw 0)
	in := decide(snapshot(vec.Zero, 0, vec.NewVec3(0, 0, -10)))
	assert.Equal(t, game.Input{Forward: true}, in)

	// Цель слева (-X): поворот налево увеличивает yaw
	in = decide(snapshot(vec.Zero, 0, vec.NewVec3(-10, 0, -1)))
	assert.True(t, in.Left)
	assert.True(t, in.Forward)

	// Цель сзади справа: только поворот
	in = decide(snapshot(vec.Zero, 0, vec.NewVec3(3, 0, 10)))
	assert.True(t, in.Right)
	assert.False(t, in.Forward)

	// Партия окончена
	done := snapshot(vec.Zero, 0, vec.NewVec3(0, 0, -1))
	done.Outcome = game.Won.String()
	assert.Equal(t, game.Input{}, decide(done))
}

func TestDiffInput(t *testing.T) {
	changes := diffInput(game.Input{Forward: true, Left: true}, game.Input{Forward: true, Right: true})
	assert.Equal(t, []keyChange{
		{key: game.KeyLeft, down: false},
		{key: game.KeyRight, down: true},
	}, changes)
	assert.Empty(t, diffInput(game.Input{}, game.Input{}))
}
