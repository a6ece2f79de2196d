package main

import (
	"math"

	"github.com/annel0/chase-arena/internal/game"
	"github.com/annel0/chase-arena/internal/vec"
)

// turnTolerance - допустимое отклонение курса, при котором бот не поворачивает
const turnTolerance = 0.08

// forwardYaw returns the yaw whose forward step (0,0,-1)·RotateY points from
// pos toward target.
func forwardYaw(pos, target vec.Vec3Float) float64 {
	return math.Atan2(-(target.X - pos.X), -(target.Z - pos.Z))
}

// wrapAngle приводит угол к (-π, π]
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// decide выбирает зажатые клавиши по снимку: поворот к цели и ход вперёд,
// пока цель не сзади.
func decide(snap game.Snapshot) game.Input {
	var in game.Input
	if snap.Player == nil || snap.Goal == nil || snap.Outcome != game.Playing.String() {
		return in
	}

	diff := wrapAngle(forwardYaw(snap.Player.Position, snap.Goal.Position) - snap.Player.Yaw)
	switch {
	case diff > turnTolerance:
		in.Left = true
	case diff < -turnTolerance:
		in.Right = true
	}
	in.Forward = math.Abs(diff) < math.Pi/2
	return in
}

// keyChange - переход одной клавиши между двумя наборами ввода
type keyChange struct {
	key  game.Key
	down bool
}

// diffInput возвращает переходы клавиш из prev в next в порядке w, a, s, d
func diffInput(prev, next game.Input) []keyChange {
	var out []keyChange
	pairs := []struct {
		key        game.Key
		was, isNow bool
	}{
		{game.KeyForward, prev.Forward, next.Forward},
		{game.KeyLeft, prev.Left, next.Left},
		{game.KeyBack, prev.Back, next.Back},
		{game.KeyRight, prev.Right, next.Right},
	}
	for _, p := range pairs {
		if p.was != p.isNow {
			out = append(out, keyChange{key: p.key, down: p.isNow})
		}
	}
	return out
}
